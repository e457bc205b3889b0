package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/flate"

	"github.com/lone-outpost-oss/multimoon/internal/config"
)

// UnpackOptions configures Unpack.
type UnpackOptions struct {
	// Layout names the subdirectory every entry must stay within.
	// The zero value means DefaultLayout.
	Layout Layout
	// FallbackTime is applied to entries without a usable timestamp.
	// The zero value means the time Unpack is called.
	FallbackTime time.Time
	// Logger receives progress lines and best-effort failures.
	Logger config.Logger
	// Verbose names every extracted path instead of the first few.
	Verbose bool
}

// UnpackBytes unpacks an in-memory zip archive into destDir.
func UnpackBytes(data []byte, destDir string, opts UnpackOptions) error {
	return Unpack(bytes.NewReader(data), int64(len(data)), destDir, opts)
}

// UnpackFile unpacks the zip archive at path into destDir.
func UnpackFile(path, destDir string, opts UnpackOptions) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat archive: %w", err)
	}

	return Unpack(f, info.Size(), destDir, opts)
}

// Unpack writes every entry of the zip archive read from r into destDir.
//
// All entry paths are validated before the first write; an entry that would
// land outside the layout root aborts the unpack with a *PathEscapeError.
// Files are truncated and rewritten. Modification times are restored last,
// on a best-effort basis.
func Unpack(r io.ReaderAt, size int64, destDir string, opts UnpackOptions) error {
	layout := opts.Layout
	if layout == (Layout{}) {
		layout = DefaultLayout
	}
	logger := config.LoggerOrNoop(opts.Logger)
	fallback := opts.FallbackTime
	if fallback.IsZero() {
		fallback = time.Now()
	}

	zr, err := zip.NewReader(r, size)
	if err != nil {
		return fmt.Errorf("read archive: %w", err)
	}
	zr.RegisterDecompressor(zip.Deflate, flate.NewReader)

	targets, err := resolveTargets(zr.File, destDir, layout)
	if err != nil {
		return err
	}

	fileCount := 0
	for _, f := range zr.File {
		if !f.FileInfo().IsDir() {
			fileCount++
		}
	}
	prog := newProgress(logger, opts.Verbose, "extract to", fileCount)

	for i, f := range zr.File {
		target := targets[i]

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create %s: %w", target, err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("create %s: %w", filepath.Dir(target), err)
		}
		prog.step(target)
		if err := extractFile(f, target); err != nil {
			return fmt.Errorf("write %s: %w", target, err)
		}
		if err := restorePermissions(target, &f.FileHeader); err != nil {
			return fmt.Errorf("set permission of %s: %w", target, err)
		}
	}

	// Directory permissions are applied once their contents exist, so that
	// read-only directories do not block writing their own files.
	for i, f := range zr.File {
		if !f.FileInfo().IsDir() {
			continue
		}
		if err := restorePermissions(targets[i], &f.FileHeader); err != nil {
			return fmt.Errorf("set permission of %s: %w", targets[i], err)
		}
	}

	restoreTimes(zr.File, targets, fallback, logger)

	return nil
}

// resolveTargets maps each entry to its output path, rejecting any entry
// outside the layout root.
func resolveTargets(files []*zip.File, destDir string, layout Layout) ([]string, error) {
	root := layout.RootDir(destDir)
	targets := make([]string, len(files))

	for i, f := range files {
		target := filepath.Join(destDir, filepath.FromSlash(f.Name))
		if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			return nil, &PathEscapeError{Name: f.Name, Target: root}
		}
		targets[i] = target
	}

	return targets, nil
}

// restoreTimes sets modification times on files first and directories
// second. Writing a file updates its parent's mtime, so directories must be
// touched after every file inside them.
func restoreTimes(files []*zip.File, targets []string, fallback time.Time, logger config.Logger) {
	for _, wantDir := range []bool{false, true} {
		for i, f := range files {
			if f.FileInfo().IsDir() != wantDir {
				continue
			}
			t := EntryTime(&f.FileHeader, fallback)
			if err := os.Chtimes(targets[i], t, t); err != nil {
				logger.Warn("failed to restore modification time", "path", targets[i], "error", err)
			}
		}
	}
}

// extractFile writes a single archive entry to destPath.
func extractFile(f *zip.File, destPath string) (err error) {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := rc.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	out, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	_, err = io.Copy(out, rc)
	return err
}
