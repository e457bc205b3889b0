//go:build !unix

package archive

import (
	"archive/zip"
	"io/fs"
)

const msdosDir = 0x10

// storePermissions drops permission bits; only the directory attribute is kept.
func storePermissions(h *zip.FileHeader, info fs.FileInfo) {
	h.CreatorVersion &= 0xff
	h.ExternalAttrs = 0
	if info.IsDir() {
		h.ExternalAttrs = msdosDir
	}
}

func entryPermissions(h *zip.FileHeader) (fs.FileMode, bool) {
	return 0, false
}

func restorePermissions(path string, h *zip.FileHeader) error {
	return nil
}
