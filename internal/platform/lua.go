package platform

import (
	lua "github.com/yuin/gopher-lua"
)

// InjectPlatformTable sets the global `platform` to a read-only table
// describing info. Call it before running any user configuration.
//
// Fields: os, arch, arch_tag (nil when unsupported), exe_suffix, distro,
// version, is_linux, is_macos, is_windows, and the helper
// when(condition, value).
func InjectPlatformTable(L *lua.LState, info *Info) {
	t := L.NewTable()

	L.SetField(t, "os", lua.LString(info.OS))
	L.SetField(t, "arch", lua.LString(info.Arch))
	if tag, err := info.ArchTag(); err == nil {
		L.SetField(t, "arch_tag", lua.LString(tag))
	}
	L.SetField(t, "exe_suffix", lua.LString(info.ExecutableName("")))

	if info.Distro != "" {
		L.SetField(t, "distro", lua.LString(info.Distro))
		L.SetField(t, "version", lua.LString(info.Version))
	}

	L.SetField(t, "is_linux", lua.LBool(info.OS == "linux"))
	L.SetField(t, "is_macos", lua.LBool(info.OS == "darwin"))
	L.SetField(t, "is_windows", lua.LBool(info.IsWindows()))

	L.SetField(t, "when", L.NewFunction(func(L *lua.LState) int {
		if L.CheckBool(1) {
			L.Push(L.Get(2))
		} else {
			L.Push(lua.LNil)
		}
		return 1
	}))

	L.SetGlobal("platform", readOnly(L, t))
}

// readOnly wraps table in an empty proxy whose metatable forwards reads and
// rejects writes.
func readOnly(L *lua.LState, table *lua.LTable) *lua.LTable {
	mt := L.NewTable()
	L.SetField(mt, "__index", table)
	L.SetField(mt, "__newindex", L.NewFunction(func(L *lua.LState) int {
		L.RaiseError("platform table is read-only")
		return 0
	}))
	L.SetField(mt, "__metatable", lua.LString("protected"))

	proxy := L.NewTable()
	L.SetMetatable(proxy, mt)
	return proxy
}
