package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/lone-outpost-oss/multimoon/internal/platform"
)

// ErrInvalidConfig indicates a setting with an unusable value.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the resolved multimoon configuration.
type Config struct {
	// Home is the user's home directory.
	Home string
	// MoonHome is the MoonBit home holding bin/ and lib/.
	MoonHome string
	// MultiMoonHome holds multimoon's own state: the Lua config and backups.
	MultiMoonHome string
	// Registry is the registry base URL.
	Registry *url.URL
	// Verbose enables per-file progress and build output.
	Verbose bool
	// RegistryKeyring is an OpenPGP keyring verifying the registry index.
	// Empty disables verification.
	RegistryKeyring string
	// ArchTag is the registry architecture tag, empty when the host is
	// unsupported and no override is configured.
	ArchTag string
	// Platform describes the host.
	Platform *platform.Info
	// File is the Lua file that was loaded, empty when none was.
	File string
}

// BinDir returns `<moonhome>/bin`.
func (c *Config) BinDir() string { return filepath.Join(c.MoonHome, "bin") }

// LibDir returns `<moonhome>/lib`.
func (c *Config) LibDir() string { return filepath.Join(c.MoonHome, "lib") }

// CoreDir returns `<moonhome>/lib/core`.
func (c *Config) CoreDir() string { return filepath.Join(c.LibDir(), "core") }

// BackupsDir returns `<multimoonhome>/core-backups`.
func (c *Config) BackupsDir() string { return filepath.Join(c.MultiMoonHome, BackupsDirName) }

// RequireArchTag returns the architecture tag or an error naming the
// unsupported host.
func (c *Config) RequireArchTag() (string, error) {
	if c.ArchTag != "" {
		return c.ArchTag, nil
	}
	if c.Platform == nil {
		return "", platform.ErrUnsupportedPlatform
	}
	return c.Platform.ArchTag()
}

// LoadOptions controls Load.
type LoadOptions struct {
	// Home overrides the user's home directory.
	Home string
	// File names the Lua config explicitly. It must exist. Empty means
	// `<multimoonhome>/config.lua` when present.
	File string
	// Flags are bound over every other source. Only changed flags whose
	// names match a setting key take effect.
	Flags *pflag.FlagSet
	// Detector describes the host. Nil means platform.NewDetector().
	Detector platform.Detector
	// Logger receives debug output about the sources used.
	Logger Logger
}

// Load resolves the configuration. Sources, lowest precedence first:
// defaults, the Lua file, MULTIMOON_* environment variables, flags.
func Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	logger := LoggerOrNoop(opts.Logger)

	home := opts.Home
	if home == "" {
		var err error
		if home, err = os.UserHomeDir(); err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
	}

	detector := opts.Detector
	if detector == nil {
		detector = platform.NewDetector()
	}
	info, err := detector.Detect(ctx)
	if err != nil {
		return nil, fmt.Errorf("detect platform: %w", err)
	}

	v := viper.New()
	v.SetDefault(KeyRegistry, DefaultRegistry)
	v.SetDefault(KeyMoonHome, filepath.Join(home, ".moon"))
	v.SetDefault(KeyMultiMoonHome, filepath.Join(home, ".multimoon"))
	v.SetDefault(KeyVerbose, false)
	v.SetDefault(KeyRegistryKeyring, "")
	v.SetDefault(KeyArchTag, "")

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if opts.Flags != nil {
		for key := range luaFields {
			if f := opts.Flags.Lookup(key); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", key, err)
				}
			}
		}
	}

	// The file location depends on the other sources only.
	path, required := opts.File, true
	if path == "" {
		path = filepath.Join(expandHome(v.GetString(KeyMultiMoonHome), home), FileName)
		required = false
	}

	loaded := ""
	settings, err := NewParser(platform.StaticDetector{Info: *info}).ParseFile(ctx, path)
	switch {
	case err == nil:
		if err := v.MergeConfigMap(settings); err != nil {
			return nil, fmt.Errorf("merge config file: %w", err)
		}
		loaded = path
		logger.Debug("loaded config file", "path", path)
	case !required && errors.Is(err, fs.ErrNotExist):
		logger.Debug("no config file", "path", path)
	default:
		return nil, err
	}

	registry, err := parseRegistry(v.GetString(KeyRegistry))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Home:            home,
		MoonHome:        expandHome(v.GetString(KeyMoonHome), home),
		MultiMoonHome:   expandHome(v.GetString(KeyMultiMoonHome), home),
		Registry:        registry,
		Verbose:         v.GetBool(KeyVerbose),
		RegistryKeyring: expandHome(v.GetString(KeyRegistryKeyring), home),
		ArchTag:         v.GetString(KeyArchTag),
		Platform:        info,
		File:            loaded,
	}
	if cfg.MoonHome == "" || cfg.MultiMoonHome == "" {
		return nil, fmt.Errorf("%w: home directories must not be empty", ErrInvalidConfig)
	}
	if cfg.ArchTag == "" {
		if tag, err := info.ArchTag(); err == nil {
			cfg.ArchTag = tag
		}
	}

	return cfg, nil
}

// parseRegistry accepts absolute http(s) URLs only.
func parseRegistry(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: registry %q: %w", ErrInvalidConfig, raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: registry %q must be an http or https URL", ErrInvalidConfig, raw)
	}
	return u, nil
}

// expandHome replaces a leading "~" with home.
func expandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		return filepath.Join(home, path[2:])
	}
	return path
}
