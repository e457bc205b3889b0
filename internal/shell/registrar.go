package shell

import (
	"os"
	"runtime"
	"strings"

	"github.com/lone-outpost-oss/multimoon/internal/config"
)

// Registrar adds directories to PATH through the user's rc file.
type Registrar struct {
	home   string
	getenv func(string) string
	goos   string
	logger config.Logger
}

// NewRegistrar creates a registrar editing rc files below home.
func NewRegistrar(home string, logger config.Logger) *Registrar {
	return &Registrar{
		home:   home,
		getenv: os.Getenv,
		goos:   runtime.GOOS,
		logger: config.LoggerOrNoop(logger),
	}
}

// RCFile returns the rc file Register would edit.
func (r *Registrar) RCFile() (string, error) {
	shell, err := DetectShell(r.getenv)
	if err != nil {
		return "", err
	}
	return RCFilePath(r.home, shell), nil
}

// Register appends a PATH line for dir unless the rc file already
// mentions dir.
func (r *Registrar) Register(dir string) error {
	if r.goos == "windows" {
		return ErrUnsupportedOS
	}

	shell, err := DetectShell(r.getenv)
	if err != nil {
		return err
	}
	rcPath := RCFilePath(r.home, shell)

	line, err := PathLine(shell, dir)
	if err != nil {
		return err
	}

	content, perm, err := readRCFile(rcPath)
	if err != nil {
		return err
	}
	if strings.Contains(content, dir) {
		r.logger.Info("bin directory already configured in shell PATH", "path", dir, "rcfile", rcPath)
		return nil
	}

	r.logger.Info("adding bin directory to shell PATH", "path", dir, "rcfile", rcPath)
	return appendLine(rcPath, content, perm, line)
}
