//go:build unix

package archive

import (
	"archive/zip"
	"io/fs"
	"os"
)

const (
	creatorUnix   = 3
	creatorMacOSX = 19
)

// storePermissions keeps the permission bits zip.FileInfoHeader recorded.
func storePermissions(h *zip.FileHeader, info fs.FileInfo) {
	h.SetMode(info.Mode())
}

// entryPermissions returns the Unix permission bits stored for an entry.
// Archives written on other platforms carry none.
func entryPermissions(h *zip.FileHeader) (fs.FileMode, bool) {
	switch h.CreatorVersion >> 8 {
	case creatorUnix, creatorMacOSX:
		return h.Mode().Perm(), true
	default:
		return 0, false
	}
}

func restorePermissions(path string, h *zip.FileHeader) error {
	mode, ok := entryPermissions(h)
	if !ok {
		return nil
	}
	return os.Chmod(path, mode)
}
