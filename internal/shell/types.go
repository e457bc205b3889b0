package shell

import (
	"errors"
	"fmt"
)

// ShellType represents a shell family with its own rc file.
type ShellType string

const (
	// ShellBash represents the Bash shell
	ShellBash ShellType = "bash"
	// ShellZsh represents the Z shell
	ShellZsh ShellType = "zsh"
	// ShellFish represents the Fish shell
	ShellFish ShellType = "fish"
	// ShellPOSIX represents any other shell, configured through ~/.profile
	ShellPOSIX ShellType = "posix"
)

// String returns the string representation of the shell type
func (s ShellType) String() string {
	return string(s)
}

var (
	// ErrShellNotDetected indicates $SHELL is unset.
	ErrShellNotDetected = errors.New("cannot detect current shell")

	// ErrUnsupportedOS indicates the host keeps PATH outside rc files.
	ErrUnsupportedOS = errors.New("PATH registration is not supported on this operating system")
)

// UnsafePathError rejects directories that cannot be written into an rc
// file without changing the meaning of the PATH line.
type UnsafePathError struct {
	Path string
}

func (e *UnsafePathError) Error() string {
	return fmt.Sprintf("path %q contains characters that cannot be quoted in a shell config file", e.Path)
}

// RCFileError represents an error with shell rc file operations
type RCFileError struct {
	Path    string
	Message string
	Cause   error
}

func (e *RCFileError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("rc file error (%s): %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("rc file error (%s): %s", e.Path, e.Message)
}

func (e *RCFileError) Unwrap() error {
	return e.Cause
}
