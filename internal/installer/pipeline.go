package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/lone-outpost-oss/multimoon/internal/archive"
	"github.com/lone-outpost-oss/multimoon/internal/config"
	"github.com/lone-outpost-oss/multimoon/internal/platform"
	"github.com/lone-outpost-oss/multimoon/internal/registry"
)

// CorruptionError wraps a failure that happened after the installation
// started modifying files.
type CorruptionError struct {
	Err error
}

func (e *CorruptionError) Error() string {
	return e.Err.Error() + " (current installation may be corrupted)"
}

func (e *CorruptionError) Unwrap() error { return e.Err }

// RunOptions configures a single install.
type RunOptions struct {
	// Force reinstalls a toolchain that already matches.
	Force bool
}

// Result summarizes a finished install.
type Result struct {
	// Skipped is set when the toolchain already matched and nothing was
	// changed.
	Skipped bool
}

// Pipeline installs toolchains laid out as plain executables in bin plus a
// zipped core library. It serves the "initial" strategy.
type Pipeline struct {
	binDir     string
	libDir     string
	goos       string
	archTag    string
	verbose    bool
	downloader *Downloader
	runner     Runner
	registrar  PathRegistrar
	logger     config.Logger
	stdout     io.Writer
	stderr     io.Writer
	onState    func(State)

	state State
}

// NewPipeline creates a pipeline from opts.
func NewPipeline(opts Options) *Pipeline {
	goos := opts.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}
	runner := opts.Runner
	if runner == nil {
		runner = ExecRunner{}
	}
	stdout, stderr := opts.Stdout, opts.Stderr
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	logger := config.LoggerOrNoop(opts.Logger)

	return &Pipeline{
		binDir:     opts.BinDir(),
		libDir:     opts.LibDir(),
		goos:       goos,
		archTag:    opts.ArchTag,
		verbose:    opts.Verbose,
		downloader: NewDownloader(opts.Client, logger),
		runner:     runner,
		registrar:  opts.PathRegistrar,
		logger:     logger,
		stdout:     stdout,
		stderr:     stderr,
		onState:    opts.OnState,
	}
}

// State returns the state the pipeline is in.
func (p *Pipeline) State() State { return p.state }

func (p *Pipeline) setState(s State) {
	p.state = s
	p.logger.Debug("install pipeline", "state", s.String())
	if p.onState != nil {
		p.onState(s)
	}
}

func (p *Pipeline) fail(err error) (Result, error) {
	p.setState(StateError)
	return Result{}, err
}

// Matches reports whether tc is installed in the pipeline's bin directory.
func (p *Pipeline) Matches(ctx context.Context, tc registry.Toolchain) (bool, error) {
	return Matches(ctx, tc, p.binDir)
}

// Install runs the pipeline.
func (p *Pipeline) Install(ctx context.Context, reg *registry.Registry, tc registry.Toolchain, opts RunOptions) (Result, error) {
	return p.Run(ctx, reg, tc, opts)
}

// Run installs tc from reg. Every artifact is downloaded and verified
// before anything on disk changes. Failures after that point are wrapped in
// *CorruptionError.
func (p *Pipeline) Run(ctx context.Context, reg *registry.Registry, tc registry.Toolchain, opts RunOptions) (Result, error) {
	p.setState(StateMatching)
	matches, err := p.Matches(ctx, tc)
	if err != nil {
		return p.fail(err)
	}
	if matches && !opts.Force {
		p.logger.Info("toolchain already installed", "toolchain", tc.Name)
		p.setState(StateDone)
		return Result{Skipped: true}, nil
	}

	p.setState(StateDownloading)
	binaries, err := p.downloader.FetchBinaries(ctx, reg, tc, p.archTag)
	if err != nil {
		return p.fail(err)
	}
	bundle, err := p.downloader.FetchBundle(ctx, reg, tc)
	if err != nil {
		return p.fail(err)
	}

	p.setState(StateInstallingBinaries)
	if err := p.installBinaries(binaries); err != nil {
		return p.fail(&CorruptionError{Err: err})
	}
	p.logger.Info("successfully installed binaries")

	p.setState(StateInstallingLibrary)
	p.logger.Info("installing [core 1 / 1]", "file", bundle.File.Filename)
	err = archive.UnpackBytes(bundle.Data, p.libDir, archive.UnpackOptions{
		FallbackTime: time.Unix(tc.LastModified, 0),
		Logger:       p.logger,
		Verbose:      p.verbose,
	})
	if err != nil {
		if errors.Is(err, archive.ErrPathEscape) {
			// Rejected before any entry was written.
			return p.fail(err)
		}
		return p.fail(&CorruptionError{Err: fmt.Errorf("extract core library: %w", err)})
	}
	p.logger.Info("successfully extracted core library")

	p.setState(StatePostInstallBuild)
	if err := p.buildLibrary(ctx); err != nil {
		return p.fail(err)
	}
	p.logger.Info("successfully installed libraries")

	p.setState(StateRegisteringPath)
	p.registerPath()

	p.setState(StateDone)
	p.logger.Info("successfully installed toolchain", "toolchain", tc.Name)
	return Result{}, nil
}

func (p *Pipeline) installBinaries(binaries []Artifact) error {
	if err := os.MkdirAll(p.binDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", p.binDir, err)
	}

	for i, bin := range binaries {
		path := filepath.Join(p.binDir, bin.File.Filename)
		p.logger.Info(fmt.Sprintf("installing [bin %d / %d]", i+1, len(binaries)), "path", path)
		if err := writeExecutable(path, bin.Data); err != nil {
			return err
		}
	}
	return nil
}

// writeExecutable replaces path with data through a temporary file in the
// same directory.
func writeExecutable(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	tmpPath := tmp.Name()

	cleanupNeeded := true
	defer func() {
		tmp.Close()
		if cleanupNeeded {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Chmod(tmpPath, 0o755); err != nil {
		return fmt.Errorf("set permission of %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}

	cleanupNeeded = false
	return nil
}

func (p *Pipeline) buildLibrary(ctx context.Context) error {
	moonPath := filepath.Join(p.binDir, platform.ExecutableName("moon", p.goos))
	cmd := bundleCommand(moonPath, filepath.Join(p.libDir, "core"), p.binDir)

	p.logger.Info("bundling core library", "command", cmd.String(), "dir", cmd.Dir)
	out, err := p.runner.Run(ctx, cmd)
	if err != nil {
		return fmt.Errorf("bundle core library: %w", err)
	}

	if out.ExitCode != 0 || p.verbose {
		p.stdout.Write(out.Stdout)
		p.stderr.Write(out.Stderr)
	}
	if out.ExitCode != 0 {
		return &BuildError{Command: cmd.String(), ExitCode: out.ExitCode}
	}

	p.logger.Info("successfully bundled core library")
	return nil
}

func (p *Pipeline) registerPath() {
	if p.registrar == nil {
		return
	}
	if err := p.registrar.Register(p.binDir); err != nil {
		p.logger.Warn("failed to add bin directory to shell PATH; add it manually", "path", p.binDir, "error", err)
	}
}
