// Package registry models the toolchain registry document and fetches it.
//
// A registry lists the toolchains available for one architecture. Each
// toolchain names its executables (bin), its library bundle (core) and the
// installer strategy that knows how to lay them out on disk.
package registry

import (
	"errors"
	"fmt"
)

// ErrFormat indicates a registry document that is malformed or uses features
// this version of multimoon does not understand.
var ErrFormat = errors.New("registry format error")

// ErrToolchainNotFound indicates a named toolchain is absent from the registry.
var ErrToolchainNotFound = errors.New("toolchain not found in registry")

// Registry is the document served at `<registry>/<arch>/`.
type Registry struct {
	Toolchains   []Toolchain `json:"toolchains"`
	LastModified int64       `json:"last_modified"`
	DownloadFrom string      `json:"downloadfrom"`
}

// Toolchain is one installable toolchain release.
type Toolchain struct {
	Name         string `json:"name"`
	MoonVer      string `json:"moonver"`
	LastModified int64  `json:"last_modified"`
	Bin          []File `json:"bin"`
	Core         []File `json:"core"`
	Installer    string `json:"installer"`
}

// File describes one downloadable artifact.
type File struct {
	// Filename is the name the artifact is installed under.
	Filename string `json:"filename"`
	// DownloadFrom is the last URL path segment the artifact is served at.
	DownloadFrom string `json:"downloadfrom"`
	// Checksum is an "algorithm:hexdigest" fingerprint.
	Checksum string `json:"checksum"`
}

// Bundle returns the library bundle descriptor, core[0].
func (t Toolchain) Bundle() (File, error) {
	if len(t.Core) == 0 {
		return File{}, fmt.Errorf("%w: toolchain %s has no core bundle", ErrFormat, t.Name)
	}
	return t.Core[0], nil
}

func formatErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrFormat, fmt.Sprintf(format, args...))
}
