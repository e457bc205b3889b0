package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/flate"

	"github.com/lone-outpost-oss/multimoon/internal/config"
)

// PackOptions configures Pack.
type PackOptions struct {
	// Layout describes the library inside the source directory.
	// The zero value means DefaultLayout.
	Layout Layout
	// Logger receives progress lines.
	Logger config.Logger
	// Verbose names every archived path instead of the first few.
	Verbose bool
}

// packEntry is a filesystem entry scheduled for archiving.
type packEntry struct {
	name string // slash-separated, relative to the source directory
	path string
	info fs.FileInfo
}

// Pack archives the library root found in sourceDir and returns the zip
// bytes. Entries are written in lexicographic path order.
func Pack(sourceDir string, opts PackOptions) ([]byte, error) {
	layout := opts.Layout
	if layout == (Layout{}) {
		layout = DefaultLayout
	}
	layout = layout.withDefaults()

	rootDir := layout.RootDir(sourceDir)
	rootInfo, err := os.Stat(rootDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s does not exist", ErrNotLibraryRoot, rootDir)
		}
		return nil, fmt.Errorf("stat %s: %w", rootDir, err)
	}
	if !rootInfo.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrNotLibraryRoot, rootDir)
	}

	markerPath := layout.MarkerPath(sourceDir)
	if _, err := os.Stat(markerPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s is missing", ErrNotLibraryRoot, markerPath)
		}
		return nil, fmt.Errorf("stat %s: %w", markerPath, err)
	}

	entries, err := collectEntries(sourceDir, rootDir, layout, config.LoggerOrNoop(opts.Logger))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, CompressionLevel)
	})
	if err := zw.SetComment(layout.Comment); err != nil {
		return nil, fmt.Errorf("set archive comment: %w", err)
	}

	prog := newProgress(opts.Logger, opts.Verbose, "archiving", len(entries))
	for _, e := range entries {
		prog.step(e.name)
		if err := writeEntry(zw, e); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finish archive: %w", err)
	}

	return buf.Bytes(), nil
}

// collectEntries walks rootDir in lexical order, skipping the ignore path.
// Symlinks to regular files are archived with the target's contents; any
// other non-regular entry is skipped.
func collectEntries(sourceDir, rootDir string, layout Layout, logger config.Logger) ([]packEntry, error) {
	var entries []packEntry

	err := filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		rel, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return fmt.Errorf("relative path of %s: %w", path, err)
		}
		name := filepath.ToSlash(rel)

		if layout.ignored(name) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		var info fs.FileInfo
		switch {
		case d.IsDir() || d.Type().IsRegular():
			info, err = d.Info()
			if err != nil {
				return fmt.Errorf("stat %s: %w", path, err)
			}
		case d.Type()&fs.ModeSymlink != 0:
			target, err := os.Stat(path)
			if err != nil || !target.Mode().IsRegular() {
				logger.Debug("skipping symlink", "path", name)
				return nil
			}
			info = target
		default:
			logger.Debug("skipping special file", "path", name)
			return nil
		}

		entries = append(entries, packEntry{name: name, path: path, info: info})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", rootDir, err)
	}

	return entries, nil
}

func writeEntry(zw *zip.Writer, e packEntry) error {
	header, err := zip.FileInfoHeader(e.info)
	if err != nil {
		return fmt.Errorf("create header for %s: %w", e.name, err)
	}
	storePermissions(header, e.info)
	header.Modified = e.info.ModTime().Truncate(time.Second)

	if e.info.IsDir() {
		header.Name = e.name + "/"
		header.Method = zip.Store
		header.UncompressedSize64 = 0
		if _, err := zw.CreateHeader(header); err != nil {
			return fmt.Errorf("add directory %s: %w", e.name, err)
		}
		return nil
	}

	header.Name = e.name
	header.Method = zip.Deflate

	data, err := os.ReadFile(e.path)
	if err != nil {
		return fmt.Errorf("read %s: %w", e.path, err)
	}

	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("add file %s: %w", e.name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", e.name, err)
	}

	return nil
}
