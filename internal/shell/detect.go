package shell

import (
	"path/filepath"
	"strings"
)

// DetectShell determines the shell from the value of $SHELL. Unknown shells
// map to ShellPOSIX.
func DetectShell(getenv func(string) string) (ShellType, error) {
	shellPath := getenv("SHELL")
	if shellPath == "" {
		return "", ErrShellNotDetected
	}
	return parseShellFromPath(shellPath), nil
}

// parseShellFromPath extracts the shell type from a shell binary path
// Examples:
//   - /bin/bash -> bash
//   - /usr/bin/zsh -> zsh
//   - /bin/dash -> posix
func parseShellFromPath(shellPath string) ShellType {
	switch strings.ToLower(filepath.Base(shellPath)) {
	case "bash":
		return ShellBash
	case "zsh":
		return ShellZsh
	case "fish":
		return ShellFish
	default:
		return ShellPOSIX
	}
}

// RCFilePath returns the rc file of shell below home.
func RCFilePath(home string, shell ShellType) string {
	switch shell {
	case ShellBash:
		return filepath.Join(home, ".bashrc")
	case ShellZsh:
		return filepath.Join(home, ".zshrc")
	case ShellFish:
		return filepath.Join(home, ".config", "fish", "config.fish")
	default:
		return filepath.Join(home, ".profile")
	}
}

// PathLine returns the rc file line that prepends dir to PATH.
func PathLine(shell ShellType, dir string) (string, error) {
	if strings.ContainsAny(dir, "\"$`\\\n\r") {
		return "", &UnsafePathError{Path: dir}
	}
	if shell == ShellFish {
		return `set -gx PATH "` + dir + `" $PATH`, nil
	}
	return `export PATH="` + dir + `:$PATH"`, nil
}
