package config

const (
	// EnvPrefix prefixes every environment variable read by Load, e.g.
	// MULTIMOON_REGISTRY.
	EnvPrefix = "MULTIMOON"

	// DefaultRegistry is the registry base URL used when none is configured.
	DefaultRegistry = "https://multimoon.lopt.dev/"

	// FileName is the Lua configuration file inside the multimoon home.
	FileName = "config.lua"

	// BackupsDirName is the directory inside the multimoon home holding core
	// library backups.
	BackupsDirName = "core-backups"

	// MaxFileSize bounds the Lua configuration file.
	MaxFileSize = 1 << 20
)

// Setting keys. The same names are used by viper, the Lua table, the CLI
// flags and (upper-cased, prefixed) the environment.
const (
	KeyRegistry        = "registry"
	KeyMoonHome        = "moonhome"
	KeyMultiMoonHome   = "multimoonhome"
	KeyVerbose         = "verbose"
	KeyRegistryKeyring = "registry_keyring"
	KeyArchTag         = "arch_tag"
)

// luaGlobal is the table user configuration assigns.
const luaGlobal = "multimoon"
