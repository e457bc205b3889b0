// Package service implements the multimoon commands on top of the registry,
// installer and backup packages. The CLI only parses arguments and prints
// results.
package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/lone-outpost-oss/multimoon/internal/config"
	"github.com/lone-outpost-oss/multimoon/internal/installer"
	"github.com/lone-outpost-oss/multimoon/internal/registry"
)

// RegistryFetcher downloads the registry index of an architecture.
type RegistryFetcher interface {
	Fetch(ctx context.Context, base *url.URL, archTag string) (*registry.Registry, error)
}

// Options carries the collaborators of the services.
type Options struct {
	Config *config.Config

	// Client performs registry and artifact downloads. Nil means
	// http.DefaultClient.
	Client *http.Client
	// Fetcher overrides the registry fetcher built from Config and Client.
	Fetcher RegistryFetcher
	// Runner executes the post-install build.
	Runner installer.Runner
	// PathRegistrar registers the bin directory after an install.
	PathRegistrar installer.PathRegistrar
	// Clock names unnamed backups. Nil means RealClock.
	Clock Clock
	Logger config.Logger
	// Stdout and Stderr receive echoed build output.
	Stdout io.Writer
	Stderr io.Writer
}

// ToolchainStatus is a registry toolchain and whether it is installed.
type ToolchainStatus struct {
	Toolchain registry.Toolchain
	Current   bool
}

// UpdateResult describes the outcome of an update.
type UpdateResult struct {
	Toolchain registry.Toolchain
	// Skipped is set when the toolchain was already installed.
	Skipped bool
}

// ToolchainService shows, lists and installs registry toolchains.
type ToolchainService struct {
	fetcher     RegistryFetcher
	base        *url.URL
	archTag     string
	installOpts installer.Options
	logger      config.Logger
}

// NewToolchainService builds the service for opts.Config. It fails when
// the host has no registry architecture or the configured keyring cannot
// be read.
func NewToolchainService(opts Options) (*ToolchainService, error) {
	cfg := opts.Config
	archTag, err := cfg.RequireArchTag()
	if err != nil {
		return nil, err
	}
	logger := config.LoggerOrNoop(opts.Logger)

	fetcher := opts.Fetcher
	if fetcher == nil {
		f := registry.NewFetcher(opts.Client, logger)
		if cfg.RegistryKeyring != "" {
			keyring, err := registry.LoadKeyring(cfg.RegistryKeyring)
			if err != nil {
				return nil, fmt.Errorf("load registry keyring: %w", err)
			}
			f.WithKeyring(keyring)
		}
		fetcher = f
	}

	goos := ""
	if cfg.Platform != nil {
		goos = cfg.Platform.OS
	}

	return &ToolchainService{
		fetcher: fetcher,
		base:    cfg.Registry,
		archTag: archTag,
		installOpts: installer.Options{
			MoonHome:      cfg.MoonHome,
			ArchTag:       archTag,
			GOOS:          goos,
			Verbose:       cfg.Verbose,
			Client:        opts.Client,
			Runner:        opts.Runner,
			PathRegistrar: opts.PathRegistrar,
			Logger:        logger,
			Stdout:        opts.Stdout,
			Stderr:        opts.Stderr,
		},
		logger: logger,
	}, nil
}

// MoonHome returns the toolchain home the service manages.
func (s *ToolchainService) MoonHome() string { return s.installOpts.MoonHome }

func (s *ToolchainService) fetch(ctx context.Context) (*registry.Registry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.fetcher.Fetch(ctx, s.base, s.archTag)
}

func (s *ToolchainService) installerFor(tc registry.Toolchain) (installer.Installer, error) {
	return installer.ForStrategy(tc.Installer, s.installOpts)
}

// Show returns the installed registry toolchain, or nil when the installed
// binaries match none of them. Newer toolchains are checked first.
func (s *ToolchainService) Show(ctx context.Context) (*registry.Toolchain, error) {
	reg, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}

	for _, tc := range reg.SortedByLastModified(true) {
		inst, err := s.installerFor(tc)
		if err != nil {
			return nil, err
		}
		matches, err := inst.Matches(ctx, tc)
		if err != nil {
			return nil, fmt.Errorf("check toolchain %s: %w", tc.Name, err)
		}
		if matches {
			return &tc, nil
		}
	}
	return nil, nil
}

// List returns every registry toolchain, oldest first, marking the
// installed one.
func (s *ToolchainService) List(ctx context.Context) ([]ToolchainStatus, error) {
	reg, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}

	toolchains := reg.SortedByLastModified(false)
	result := make([]ToolchainStatus, 0, len(toolchains))
	for _, tc := range toolchains {
		inst, err := s.installerFor(tc)
		if err != nil {
			return nil, err
		}
		matches, err := inst.Matches(ctx, tc)
		if err != nil {
			return nil, fmt.Errorf("check toolchain %s: %w", tc.Name, err)
		}
		result = append(result, ToolchainStatus{Toolchain: tc, Current: matches})
	}
	return result, nil
}

// UpdateLatest installs the most recently modified toolchain unless it is
// already installed.
func (s *ToolchainService) UpdateLatest(ctx context.Context) (*UpdateResult, error) {
	reg, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	latest, err := reg.Latest()
	if err != nil {
		return nil, err
	}
	return s.install(ctx, reg, latest, false)
}

// Update installs the named toolchain. An installed toolchain is only
// reinstalled with force.
func (s *ToolchainService) Update(ctx context.Context, name string, force bool) (*UpdateResult, error) {
	reg, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	tc, err := reg.Find(name)
	if err != nil {
		return nil, err
	}
	return s.install(ctx, reg, tc, force)
}

// Rollback installs an older toolchain. It behaves exactly like Update.
func (s *ToolchainService) Rollback(ctx context.Context, name string, force bool) (*UpdateResult, error) {
	return s.Update(ctx, name, force)
}

func (s *ToolchainService) install(ctx context.Context, reg *registry.Registry, tc registry.Toolchain, force bool) (*UpdateResult, error) {
	inst, err := s.installerFor(tc)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("installing toolchain", "name", tc.Name, "moonver", tc.MoonVer, "force", force)
	res, err := inst.Install(ctx, reg, tc, installer.RunOptions{Force: force})
	if err != nil {
		return nil, fmt.Errorf("install toolchain %s: %w", tc.Name, err)
	}
	return &UpdateResult{Toolchain: tc, Skipped: res.Skipped}, nil
}
