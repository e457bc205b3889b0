package main

import (
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/lone-outpost-oss/multimoon/internal/config"
	"github.com/lone-outpost-oss/multimoon/internal/installer"
	"github.com/lone-outpost-oss/multimoon/internal/platform"
	"github.com/lone-outpost-oss/multimoon/internal/service"
	"github.com/lone-outpost-oss/multimoon/internal/shell"
)

// app holds the state shared by all commands of one invocation.
type app struct {
	stdout io.Writer
	stderr io.Writer

	configFile string

	cfg    *config.Config
	logger *log.Logger

	// Collaborators replaced in tests. Nil means the real implementation.
	detector  platform.Detector
	client    *http.Client
	runner    installer.Runner
	registrar installer.PathRegistrar
	clock     service.Clock
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "multimoon",
		Short: "MoonBit toolchain manager",
		Long: titleStyle.Render("multimoon") + mutedStyle.Render(" - MoonBit toolchain manager") + `

multimoon installs MoonBit toolchains from a registry, switches between
them, and keeps backups of the MoonBit core library.

` + mutedStyle.Render("Examples:") + `
  multimoon show                     Show the installed toolchain
  multimoon update                   Update to the latest toolchain
  multimoon toolchain update NAME    Install a specific toolchain
  multimoon core backup              Back up the core library`,
		SilenceUsage:      true,
		PersistentPreRunE: a.load,
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	flags := root.PersistentFlags()
	flags.String(config.KeyRegistry, "", "registry URL (default "+config.DefaultRegistry+")")
	flags.String(config.KeyMoonHome, "", "MoonBit installation directory (default ~/.moon)")
	flags.String(config.KeyMultiMoonHome, "", "multimoon data directory (default ~/.multimoon)")
	flags.StringVar(&a.configFile, "config", "", "Lua config file (default <multimoonhome>/config.lua)")
	flags.BoolP(config.KeyVerbose, "v", false, "verbose output")

	root.AddCommand(
		newShowCmd(a),
		newUpdateCmd(a),
		newToolchainCmd(a),
		newCoreCmd(a),
		newUpdateSelfCmd(a),
	)
	return root
}

// load resolves the configuration and sets up logging.
func (a *app) load(cmd *cobra.Command, _ []string) error {
	a.logger = log.NewWithOptions(a.stderr, log.Options{Prefix: "multimoon"})

	cfg, err := config.Load(cmd.Context(), config.LoadOptions{
		File:     a.configFile,
		Flags:    cmd.Flags(),
		Detector: a.detector,
		Logger:   a.logger,
	})
	if err != nil {
		return &loadError{err: err}
	}
	a.cfg = cfg

	if cfg.Verbose {
		a.logger.SetLevel(log.DebugLevel)
	}
	return nil
}

// loadError prints the short form of a configuration error and keeps the
// original error in the chain.
type loadError struct {
	err error
}

func (e *loadError) Error() string {
	return "load configuration: " + config.FormatError(e.err, false)
}

func (e *loadError) Unwrap() error { return e.err }

func (a *app) serviceOptions() service.Options {
	registrar := a.registrar
	if registrar == nil {
		registrar = shell.NewRegistrar(a.cfg.Home, a.logger)
	}
	return service.Options{
		Config:        a.cfg,
		Client:        a.client,
		Runner:        a.runner,
		PathRegistrar: registrar,
		Clock:         a.clock,
		Logger:        a.logger,
		Stdout:        a.stdout,
		Stderr:        a.stderr,
	}
}

func (a *app) printHome() {
	fmt.Fprintln(a.stdout, titleStyle.Render("MoonBit homedir:"), a.cfg.MoonHome)
}
