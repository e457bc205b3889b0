package backup_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lone-outpost-oss/multimoon/internal/backup"
	"github.com/lone-outpost-oss/multimoon/internal/service"
	"github.com/lone-outpost-oss/multimoon/internal/testutil"
)

func newManager(t *testing.T, now time.Time) (*backup.Manager, string, string) {
	t.Helper()

	env := testutil.SetupTestEnv(t)
	libDir := env.LibDir()
	backupsDir := filepath.Join(env.MultiMoonHome, "core-backups")
	testutil.WriteLibrary(t, libDir, map[string]string{
		"core/builtin/array.mbt": "v1",
		"core/target/cache.bin":  "build output",
	})

	m := backup.NewManager(backup.Options{
		LibDir:     libDir,
		BackupsDir: backupsDir,
		Clock:      service.TestClock{FixedTime: now},
	})
	return m, libDir, backupsDir
}

func TestNormalizeName(t *testing.T) {
	tests := map[string]string{
		"v1":         "v1",
		"v1.zip":     "v1",
		"v1.zip.zip": "v1.zip",
		"v1.tar":     "v1.tar",
		".zip":       "",
	}
	for in, want := range tests {
		if got := backup.NormalizeName(in); got != want {
			t.Errorf("NormalizeName(%q) mismatch: got %q, want %q", in, got, want)
		}
	}
}

func TestBackupDefaultName(t *testing.T) {
	now := time.Date(2024, 5, 7, 13, 4, 5, 0, time.Local)
	m, _, backupsDir := newManager(t, now)

	entry, err := m.Backup("")
	if err != nil {
		t.Fatalf("Backup failed: %v", err)
	}
	if entry.Name != "2024-05-07-13_04_05" {
		t.Errorf("default name mismatch: got %s", entry.Name)
	}
	if want := filepath.Join(backupsDir, "2024-05-07-13_04_05.zip"); entry.Path != want {
		t.Errorf("path mismatch: got %s, want %s", entry.Path, want)
	}
	if _, err := os.Stat(entry.Path); err != nil {
		t.Errorf("backup file missing: %v", err)
	}
}

// stepClock advances by step on every call.
type stepClock struct {
	now  time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

func TestBackupDefaultNamesOrderByTime(t *testing.T) {
	env := testutil.SetupTestEnv(t)
	testutil.WriteLibrary(t, env.LibDir(), nil)

	m := backup.NewManager(backup.Options{
		LibDir:     env.LibDir(),
		BackupsDir: filepath.Join(env.MultiMoonHome, "core-backups"),
		Clock:      &stepClock{now: time.Date(2024, 5, 7, 13, 4, 5, 0, time.Local), step: time.Second},
	})

	first, err := m.Backup("")
	if err != nil {
		t.Fatalf("first Backup failed: %v", err)
	}
	second, err := m.Backup("")
	if err != nil {
		t.Fatalf("second Backup failed: %v", err)
	}

	if first.Name == second.Name {
		t.Fatalf("default names collide: %s", first.Name)
	}
	if first.Name >= second.Name {
		t.Errorf("default names not in creation order: %s, %s", first.Name, second.Name)
	}

	entries, err := m.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 2 || entries[0].Name != first.Name || entries[1].Name != second.Name {
		t.Errorf("List order mismatch: got %v, want [%s %s]", entries, first.Name, second.Name)
	}
}

func TestBackupNameSuffix(t *testing.T) {
	m, _, backupsDir := newManager(t, time.Now())

	if _, err := m.Backup("v1.zip"); err != nil {
		t.Fatalf("Backup failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(backupsDir, "v1.zip")); err != nil {
		t.Errorf("v1.zip not created: %v", err)
	}
	if _, err := os.Stat(filepath.Join(backupsDir, "v1.zip.zip")); !os.IsNotExist(err) {
		t.Error("suffix was doubled")
	}

	if _, err := m.Backup("v1"); !errors.Is(err, backup.ErrExists) {
		t.Errorf("expected ErrExists for v1 after v1.zip, got %v", err)
	}
}

func TestBackupNeverOverwrites(t *testing.T) {
	m, _, backupsDir := newManager(t, time.Now())
	path := filepath.Join(backupsDir, "keep.zip")
	testutil.WriteTree(t, backupsDir, map[string]string{"keep.zip": "precious"})

	if _, err := m.Backup("keep"); !errors.Is(err, backup.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	if got := testutil.ReadFile(t, path); got != "precious" {
		t.Errorf("existing backup modified: %q", got)
	}
}

func TestBackupInvalidName(t *testing.T) {
	m, _, _ := newManager(t, time.Now())

	for _, name := range []string{"../escape", "a/b", ".zip", ".."} {
		if _, err := m.Backup(name); !errors.Is(err, backup.ErrInvalidName) {
			t.Errorf("Backup(%q): expected ErrInvalidName, got %v", name, err)
		}
	}
}

func TestBackupRequiresLibrary(t *testing.T) {
	env := testutil.SetupTestEnv(t)
	m := backup.NewManager(backup.Options{
		LibDir:     env.LibDir(),
		BackupsDir: filepath.Join(env.MultiMoonHome, "core-backups"),
	})

	if _, err := m.Backup("empty"); err == nil {
		t.Error("expected error backing up a missing library")
	}
	if _, err := os.Stat(filepath.Join(env.MultiMoonHome, "core-backups", "empty.zip")); !os.IsNotExist(err) {
		t.Error("backup file created for missing library")
	}
}

func TestRestore(t *testing.T) {
	m, libDir, _ := newManager(t, time.Now())
	marker := filepath.Join(libDir, "core", "moon.mod.json")
	original := testutil.ReadFile(t, marker)

	if _, err := m.Backup("before"); err != nil {
		t.Fatalf("Backup failed: %v", err)
	}

	testutil.WriteTree(t, libDir, map[string]string{
		"core/moon.mod.json":     `{"name":"changed"}`,
		"core/builtin/array.mbt": "v2",
	})

	if _, err := m.Restore("before.zip"); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	if got := testutil.ReadFile(t, marker); got != original {
		t.Errorf("marker not restored: got %q, want %q", got, original)
	}
	if got := testutil.ReadFile(t, filepath.Join(libDir, "core", "builtin", "array.mbt")); got != "v1" {
		t.Errorf("library file not restored: got %q", got)
	}
}

func TestRestoreExcludesBuildOutput(t *testing.T) {
	m, libDir, _ := newManager(t, time.Now())
	if _, err := m.Backup("snap"); err != nil {
		t.Fatalf("Backup failed: %v", err)
	}

	if err := os.RemoveAll(filepath.Join(libDir, "core")); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Restore("snap"); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(libDir, "core", "target")); !os.IsNotExist(err) {
		t.Error("ignored build output was archived")
	}
}

func TestRestoreNotFound(t *testing.T) {
	m, _, _ := newManager(t, time.Now())
	if _, err := m.Restore("missing"); !errors.Is(err, backup.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestList(t *testing.T) {
	m, _, backupsDir := newManager(t, time.Now())

	entries, err := m.List()
	if err != nil {
		t.Fatalf("List on missing directory failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no backups, got %d", len(entries))
	}

	testutil.WriteTree(t, backupsDir, map[string]string{
		"newest.zip":  "c",
		"oldest.zip":  "a",
		"middle.zip":  "b",
		"notes.txt":   "ignored",
		"archive.tar": "ignored",
	})
	if err := os.Mkdir(filepath.Join(backupsDir, "dir.zip"), 0o755); err != nil {
		t.Fatal(err)
	}

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)
	testutil.SetMtime(t, filepath.Join(backupsDir, "oldest.zip"), base)
	testutil.SetMtime(t, filepath.Join(backupsDir, "middle.zip"), base.Add(time.Hour))
	testutil.SetMtime(t, filepath.Join(backupsDir, "newest.zip"), base.Add(2*time.Hour))

	entries, err = m.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	want := []string{"oldest", "middle", "newest"}
	if len(entries) != len(want) {
		t.Fatalf("entry count mismatch: got %d, want %d (%v)", len(entries), len(want), entries)
	}
	for i, name := range want {
		if entries[i].Name != name {
			t.Errorf("entry %d mismatch: got %s, want %s", i, entries[i].Name, name)
		}
	}
}
