// Package config resolves multimoon's settings and provides the Logger
// interface shared by all components.
//
// # Sources
//
// Settings are layered with viper, lowest precedence first:
//   - defaults: moonhome ~/.moon, multimoonhome ~/.multimoon, the public
//     registry
//   - the Lua file <multimoonhome>/config.lua (or --config)
//   - MULTIMOON_* environment variables
//   - command-line flags
//
// # Lua configuration
//
// The file assigns a global table:
//
//	multimoon = {
//	  registry = "https://mirror.example.com/multimoon/",
//	  moonhome = "~/.moon",
//	  verbose = platform.is_windows,
//	  registry_keyring = "~/.multimoon/registry.asc",
//	}
//
// It runs in a gopher-lua VM without the os, io and debug libraries, code
// loading or metatable access. The read-only `platform` table describes the
// host (os, arch, arch_tag, is_linux, is_macos, is_windows, when).
// Unknown settings and mistyped values are rejected with a ParseError.
package config
