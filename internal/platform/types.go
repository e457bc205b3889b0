// Package platform identifies the host the toolchain is installed on.
//
// It maps the Go OS/architecture pair to the architecture tag used by the
// registry, names executables the way the host expects, and exposes the
// same information to Lua configuration as a read-only table. Linux
// distribution details come from gopsutil and are informational only.
package platform

import (
	"context"
	"errors"
	"fmt"
)

// Registry architecture tags.
const (
	ArchTagMacOSARM64 = "macos_aarch64"
	ArchTagMacOSAMD64 = "macos_amd64"
	ArchTagLinuxAMD64 = "ubuntu_amd64"
	ArchTagWindowsX64 = "windows_x64"
)

// ErrUnsupportedPlatform indicates no toolchain builds exist for the host.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

var archTags = map[[2]string]string{
	{"darwin", "arm64"}:  ArchTagMacOSARM64,
	{"darwin", "amd64"}:  ArchTagMacOSAMD64,
	{"linux", "amd64"}:   ArchTagLinuxAMD64,
	{"windows", "amd64"}: ArchTagWindowsX64,
}

// Info describes the host.
type Info struct {
	OS      string // GOOS, e.g. "linux"
	Arch    string // GOARCH, e.g. "amd64"
	Distro  string // Linux distribution ID, empty elsewhere or when unknown
	Version string // Linux distribution version
}

// ArchTag returns the registry architecture tag of the host.
func (i *Info) ArchTag() (string, error) {
	return ArchTag(i.OS, i.Arch)
}

// ExecutableName returns base with the host's executable suffix.
func (i *Info) ExecutableName(base string) string {
	return ExecutableName(base, i.OS)
}

// IsWindows reports whether the host runs Windows.
func (i *Info) IsWindows() bool {
	return i.OS == "windows"
}

// ArchTag maps a GOOS/GOARCH pair to a registry architecture tag.
func ArchTag(goos, goarch string) (string, error) {
	tag, ok := archTags[[2]string{goos, goarch}]
	if !ok {
		return "", fmt.Errorf("%w: %s/%s", ErrUnsupportedPlatform, goos, goarch)
	}
	return tag, nil
}

// ExecutableName appends ".exe" on Windows.
func ExecutableName(base, goos string) string {
	if goos == "windows" {
		return base + ".exe"
	}
	return base
}

// Detector is the interface for platform detection.
type Detector interface {
	Detect(ctx context.Context) (*Info, error)
}

// StaticDetector returns a fixed Info. Useful in tests and when the
// architecture tag is overridden by configuration.
type StaticDetector struct {
	Info Info
}

// Detect returns a copy of the fixed Info.
func (d StaticDetector) Detect(context.Context) (*Info, error) {
	info := d.Info
	return &info, nil
}
