// Package installer decides whether a registry toolchain is installed and
// installs it.
//
// Identity is by content: a toolchain is installed when every executable it
// lists exists in the bin directory with the declared fingerprint. Installing
// downloads and verifies every artifact in memory before the first write,
// then replaces the executables, unpacks the library bundle, prebuilds the
// library with the freshly installed `moon`, and finally registers the bin
// directory on the user's PATH.
//
// Registries name the layout of a toolchain through an installer strategy.
// The set of strategies is closed; an unknown one means this multimoon is
// older than the registry.
package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/lone-outpost-oss/multimoon/internal/config"
	"github.com/lone-outpost-oss/multimoon/internal/registry"
)

// Installer strategy identifiers accepted in the registry `installer` field.
const (
	StrategyInitial    = "initial"
	StrategyInitialAlt = "2024-05-07"
)

// ErrUnknownStrategy indicates a registry toolchain uses an installer
// strategy this version does not implement.
var ErrUnknownStrategy = errors.New("unknown installer")

// Installer checks and installs toolchains of one strategy.
type Installer interface {
	// Matches reports whether tc is the installed toolchain.
	Matches(ctx context.Context, tc registry.Toolchain) (bool, error)
	// Install installs tc unless it is already installed and opts.Force is
	// unset.
	Install(ctx context.Context, reg *registry.Registry, tc registry.Toolchain, opts RunOptions) (Result, error)
}

// PathRegistrar adds a directory to the user's PATH.
type PathRegistrar interface {
	Register(dir string) error
}

// Options configures installers.
type Options struct {
	// MoonHome is the toolchain home; executables go to MoonHome/bin and
	// the library to MoonHome/lib.
	MoonHome string
	// ArchTag selects the registry architecture directory for executables.
	ArchTag string
	// GOOS decides the executable suffix of `moon`.
	GOOS string
	// Verbose echoes build output and names every extracted file.
	Verbose bool

	// Client performs downloads. Nil means http.DefaultClient.
	Client *http.Client
	// Runner executes the post-install build. Nil means ExecRunner.
	Runner Runner
	// PathRegistrar is optional; without it the PATH step is skipped.
	PathRegistrar PathRegistrar
	// Logger receives progress. Nil means no output.
	Logger config.Logger
	// Stdout and Stderr receive echoed build output. Nil discards it.
	Stdout io.Writer
	Stderr io.Writer
	// OnState observes pipeline state transitions.
	OnState func(State)
}

// BinDir returns the executable directory.
func (o Options) BinDir() string { return filepath.Join(o.MoonHome, "bin") }

// LibDir returns the library directory.
func (o Options) LibDir() string { return filepath.Join(o.MoonHome, "lib") }

// ForStrategy returns the installer for a registry strategy identifier.
func ForStrategy(id string, opts Options) (Installer, error) {
	switch id {
	case StrategyInitial, StrategyInitialAlt:
		return NewPipeline(opts), nil
	default:
		return nil, fmt.Errorf("%w: registry error: unknown installer %q (a newer version of multimoon may be required)",
			ErrUnknownStrategy, id)
	}
}
