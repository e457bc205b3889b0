package archive

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

const (
	// DefaultComment tags archives produced by Pack.
	DefaultComment = "backup of MoonBit core, generated by MultiMoon"

	// CompressionLevel is the DEFLATE level used for file entries.
	CompressionLevel = 6

	// progressLimit is the number of paths named individually before the
	// remaining ones are summarized.
	progressLimit = 5
)

var (
	// ErrNotLibraryRoot indicates the pack source is missing its root
	// subdirectory or manifest marker.
	ErrNotLibraryRoot = errors.New("not a valid library root")

	// ErrPathEscape indicates an archive entry would be written outside the
	// target subdirectory.
	ErrPathEscape = errors.New("archive entry escapes target directory")
)

// PathEscapeError names the offending entry of a rejected archive.
type PathEscapeError struct {
	Name   string // entry name as stored in the archive
	Target string // directory the entry was required to stay within
}

func (e *PathEscapeError) Error() string {
	return fmt.Sprintf("extracted path %s is not within %s (invalid core archive?)", e.Name, e.Target)
}

// Unwrap returns ErrPathEscape.
func (e *PathEscapeError) Unwrap() error { return ErrPathEscape }

// Layout describes where the library lives inside the archived directory.
type Layout struct {
	// Root is the subdirectory (relative, slash-separated) that holds the
	// library. Unpacked entries must stay within it.
	Root string
	// Marker is the manifest file, relative to Root, whose presence marks a
	// valid library root.
	Marker string
	// Ignore is a slash-separated path, relative to the archived directory,
	// that is never archived.
	Ignore string
	// Comment is written as the zip archive comment.
	Comment string
}

// DefaultLayout is the layout of `<moonhome>/lib`.
var DefaultLayout = Layout{
	Root:    "core",
	Marker:  "moon.mod.json",
	Ignore:  "core/target",
	Comment: DefaultComment,
}

func (l Layout) withDefaults() Layout {
	if l.Root == "" {
		l.Root = DefaultLayout.Root
	}
	if l.Marker == "" {
		l.Marker = DefaultLayout.Marker
	}
	if l.Comment == "" {
		l.Comment = DefaultLayout.Comment
	}
	return l
}

// RootDir returns the library root inside dir.
func (l Layout) RootDir(dir string) string {
	return filepath.Join(dir, filepath.FromSlash(l.withDefaults().Root))
}

// MarkerPath returns the manifest marker path inside dir.
func (l Layout) MarkerPath(dir string) string {
	return filepath.Join(l.RootDir(dir), filepath.FromSlash(l.withDefaults().Marker))
}

// ignored reports whether the slash-separated relative name is the ignore
// path or one of its descendants.
func (l Layout) ignored(name string) bool {
	if l.Ignore == "" {
		return false
	}
	ignore := path.Clean(l.Ignore)
	name = path.Clean(name)
	return name == ignore || strings.HasPrefix(name, ignore+"/")
}
