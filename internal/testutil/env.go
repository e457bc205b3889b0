// Package testutil provides utilities for testing multimoon in isolation.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// Env holds the isolated directories created by SetupTestEnv.
type Env struct {
	Home          string
	MoonHome      string
	MultiMoonHome string
}

// BinDir returns the toolchain binary directory.
func (e Env) BinDir() string { return filepath.Join(e.MoonHome, "bin") }

// LibDir returns the toolchain library directory.
func (e Env) LibDir() string { return filepath.Join(e.MoonHome, "lib") }

// SetupTestEnv creates isolated home directories for a test and points the
// multimoon environment variables at them, so tests never touch a real
// toolchain installation or the user's shell rc files.
//
// Cleanup is handled by t.TempDir.
func SetupTestEnv(t *testing.T) Env {
	t.Helper()

	tmpDir := t.TempDir()
	env := Env{
		Home:          filepath.Join(tmpDir, "home"),
		MoonHome:      filepath.Join(tmpDir, "home", ".moon"),
		MultiMoonHome: filepath.Join(tmpDir, "home", ".multimoon"),
	}

	t.Setenv("HOME", env.Home)
	t.Setenv("MULTIMOON_MOONHOME", env.MoonHome)
	t.Setenv("MULTIMOON_MULTIMOONHOME", env.MultiMoonHome)
	t.Setenv("MULTIMOON_REGISTRY", "")
	t.Setenv("MULTIMOON_VERBOSE", "")

	for _, dir := range []string{env.Home, env.MoonHome, env.MultiMoonHome} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatalf("failed to create test directory %s: %v", dir, err)
		}
	}

	return env
}

// WriteTree creates files below root. Keys are slash-separated relative
// paths; parent directories are created as needed.
func WriteTree(t *testing.T, root string, files map[string]string) {
	t.Helper()

	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("failed to create directory for %s: %v", name, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
}

// WriteLibrary creates a minimal core library below libDir: the manifest
// marker plus the given extra files (relative to libDir).
func WriteLibrary(t *testing.T, libDir string, extra map[string]string) {
	t.Helper()

	files := map[string]string{
		"core/moon.mod.json": `{"name":"moonbitlang/core"}`,
	}
	for name, content := range extra {
		files[name] = content
	}
	WriteTree(t, libDir, files)
}

// ReadFile returns the contents of path or fails the test.
func ReadFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

// SetMtime sets both access and modification time of path.
func SetMtime(t *testing.T, path string, mtime time.Time) {
	t.Helper()

	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("failed to set mtime of %s: %v", path, err)
	}
}
