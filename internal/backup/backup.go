// Package backup keeps point-in-time zip snapshots of the core library.
//
// Snapshots live as `<name>.zip` in a backups directory. Names default to the
// creation time; a trailing ".zip" given by the user is dropped, so "v1" and
// "v1.zip" refer to the same backup. Existing backups are never overwritten.
// Restoring unpacks a snapshot over the library without any version check.
package backup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/lone-outpost-oss/multimoon/internal/archive"
	"github.com/lone-outpost-oss/multimoon/internal/config"
)

const (
	// Extension is the file suffix of every backup.
	Extension = ".zip"

	// NameLayout formats the creation time of unnamed backups.
	NameLayout = "2006-01-02-15_04_05"
)

var (
	// ErrExists indicates a backup with the requested name already exists.
	ErrExists = errors.New("backup already exists")

	// ErrNotFound indicates the requested backup does not exist.
	ErrNotFound = errors.New("backup not found")

	// ErrInvalidName indicates a name that is empty or not a plain file name.
	ErrInvalidName = errors.New("invalid backup name")
)

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Entry describes a backup on disk.
type Entry struct {
	Name    string // without extension
	Path    string
	Size    int64
	ModTime time.Time
}

// Options configures a Manager.
type Options struct {
	// LibDir is the directory holding the core library root.
	LibDir string
	// BackupsDir holds the zip files.
	BackupsDir string
	// Clock names unnamed backups. Nil means the system clock.
	Clock Clock
	// Logger receives progress and skipped entries.
	Logger config.Logger
	// Verbose names every archived or extracted path.
	Verbose bool
}

// Manager creates, lists and restores backups.
type Manager struct {
	libDir     string
	backupsDir string
	clock      Clock
	logger     config.Logger
	verbose    bool
}

// NewManager creates a Manager from opts.
func NewManager(opts Options) *Manager {
	clock := opts.Clock
	if clock == nil {
		clock = systemClock{}
	}
	return &Manager{
		libDir:     opts.LibDir,
		backupsDir: opts.BackupsDir,
		clock:      clock,
		logger:     config.LoggerOrNoop(opts.Logger),
		verbose:    opts.Verbose,
	}
}

// NormalizeName strips a single trailing ".zip".
func NormalizeName(name string) string {
	return strings.TrimSuffix(name, Extension)
}

// path validates name and returns its backup file.
func (m *Manager) path(name string) (string, error) {
	name = NormalizeName(name)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(m.backupsDir, name+Extension), nil
}

// Backup archives the core library as a new backup. An empty name means
// the current time in NameLayout.
func (m *Manager) Backup(name string) (Entry, error) {
	if name == "" {
		name = m.clock.Now().Format(NameLayout)
	}
	path, err := m.path(name)
	if err != nil {
		return Entry{}, err
	}

	if err := os.MkdirAll(m.backupsDir, 0o755); err != nil {
		return Entry{}, fmt.Errorf("create backups directory: %w", err)
	}

	m.logger.Info("backing up core library", "from", m.libDir, "to", path)
	data, err := archive.Pack(m.libDir, archive.PackOptions{Logger: m.logger, Verbose: m.verbose})
	if err != nil {
		return Entry{}, fmt.Errorf("archive core library: %w", err)
	}

	if err := writeExclusive(path, data); err != nil {
		return Entry{}, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return Entry{}, fmt.Errorf("stat backup: %w", err)
	}
	m.logger.Info("core library backed up", "path", path, "size", info.Size())

	return Entry{Name: NormalizeName(name), Path: path, Size: info.Size(), ModTime: info.ModTime()}, nil
}

// writeExclusive creates path with data, failing with ErrExists when path
// is already taken. A partial file is removed on failure.
func writeExclusive(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrExists, path)
		}
		return fmt.Errorf("create backup: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("write backup: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("write backup: %w", err)
	}
	return nil
}

// Restore unpacks the named backup over the core library. Entries without
// a timestamp get the backup file's modification time.
func (m *Manager) Restore(name string) (Entry, error) {
	path, err := m.path(name)
	if err != nil {
		return Entry{}, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, NormalizeName(name))
		}
		return Entry{}, fmt.Errorf("stat backup: %w", err)
	}

	m.logger.Info("restoring core library", "from", path, "to", m.libDir)
	err = archive.UnpackFile(path, m.libDir, archive.UnpackOptions{
		FallbackTime: info.ModTime(),
		Logger:       m.logger,
		Verbose:      m.verbose,
	})
	if err != nil {
		return Entry{}, fmt.Errorf("restore %s: %w", NormalizeName(name), err)
	}

	return Entry{Name: NormalizeName(name), Path: path, Size: info.Size(), ModTime: info.ModTime()}, nil
}

// List returns the backups ordered by modification time, oldest first.
// A missing backups directory means no backups.
func (m *Manager) List() ([]Entry, error) {
	dirEntries, err := os.ReadDir(m.backupsDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read backups directory: %w", err)
	}

	var entries []Entry
	for _, de := range dirEntries {
		if !strings.HasSuffix(de.Name(), Extension) {
			continue
		}

		info, err := de.Info()
		if err != nil {
			m.logger.Warn("skipping unreadable backup", "name", de.Name(), "error", err)
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}

		entries = append(entries, Entry{
			Name:    NormalizeName(de.Name()),
			Path:    filepath.Join(m.backupsDir, de.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].ModTime.Equal(entries[j].ModTime) {
			return entries[i].ModTime.Before(entries[j].ModTime)
		}
		return entries[i].Name < entries[j].Name
	})

	return entries, nil
}
