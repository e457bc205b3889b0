package shell

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// readRCFile returns the rc file content, empty when the file does not
// exist yet.
func readRCFile(rcPath string) (string, os.FileMode, error) {
	info, err := os.Lstat(rcPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", 0o644, nil
		}
		return "", 0, &RCFileError{Path: rcPath, Message: "failed to stat file", Cause: err}
	}

	// Renaming over a symlink would replace the link with a regular file.
	if info.Mode()&os.ModeSymlink != 0 {
		return "", 0, &RCFileError{Path: rcPath, Message: "refusing to modify a symlink; add the PATH line manually"}
	}
	if !info.Mode().IsRegular() {
		return "", 0, &RCFileError{Path: rcPath, Message: "not a regular file"}
	}

	content, err := os.ReadFile(rcPath)
	if err != nil {
		return "", 0, &RCFileError{Path: rcPath, Message: "cannot read shell config file", Cause: err}
	}
	return string(content), info.Mode().Perm(), nil
}

// appendLine writes content plus line to rcPath via a temporary file in the
// same directory.
func appendLine(rcPath, content string, perm os.FileMode, line string) error {
	dir := filepath.Dir(rcPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &RCFileError{Path: rcPath, Message: "failed to create parent directory", Cause: err}
	}

	var b strings.Builder
	b.WriteString(content)
	if content != "" && !strings.HasSuffix(content, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("\n# MoonBit toolchain (added by multimoon)\n")
	b.WriteString(line)
	b.WriteString("\n")

	tmpFile, err := os.CreateTemp(dir, ".multimoon-tmp-*")
	if err != nil {
		return &RCFileError{Path: rcPath, Message: "failed to create temporary file", Cause: err}
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	if _, err := tmpFile.WriteString(b.String()); err != nil {
		tmpFile.Close()
		return &RCFileError{Path: rcPath, Message: "cannot write shell config file", Cause: err}
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return &RCFileError{Path: rcPath, Message: "failed to sync file", Cause: err}
	}
	if err := tmpFile.Close(); err != nil {
		return &RCFileError{Path: rcPath, Message: "cannot write shell config file", Cause: err}
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return &RCFileError{Path: rcPath, Message: "failed to set file mode", Cause: err}
	}

	if err := os.Rename(tmpPath, rcPath); err != nil {
		return &RCFileError{Path: rcPath, Message: "failed to rename temp file", Cause: err}
	}
	return nil
}
