package config

import (
	lua "github.com/yuin/gopher-lua"
)

// Limits of the configuration VM.
const (
	luaCallStackSize = 256
	luaRegistrySize  = 1024 * 8
)

// sandboxLuaVM strips a Lua VM down to declarative use.
//
// Removed: the os, io and debug libraries, every code loading function, and
// the raw/metatable accessors that could unlock the read-only platform
// table. The string, table and math libraries and the basic functions
// (type, tostring, tonumber, pairs, ipairs, ...) remain.
func sandboxLuaVM(L *lua.LState) {
	for _, name := range []string{
		"os", "io", "debug",
		"require", "dofile", "loadfile", "load", "loadstring", "module",
		"getmetatable", "setmetatable", "rawget", "rawset", "rawequal",
		"getfenv", "setfenv", "collectgarbage",
	} {
		L.SetGlobal(name, lua.LNil)
	}
}

// newSandboxedVM creates a size-limited Lua VM with sandboxing applied.
func newSandboxedVM() *lua.LState {
	L := lua.NewState(lua.Options{
		CallStackSize: luaCallStackSize,
		RegistrySize:  luaRegistrySize,
	})
	sandboxLuaVM(L)
	return L
}
