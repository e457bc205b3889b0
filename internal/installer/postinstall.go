package installer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Command is an external program invocation.
type Command struct {
	Path string
	Args []string
	Dir  string
	// Env replaces the environment entirely.
	Env []string
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Path}, c.Args...), " ")
}

// Output is the captured result of a finished command.
type Output struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Runner executes commands. A command that ran and exited non-zero is not
// an error; the exit code is reported in Output.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Output, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes cmd and captures its output.
func (ExecRunner) Run(ctx context.Context, cmd Command) (Output, error) {
	c := exec.CommandContext(ctx, cmd.Path, cmd.Args...)
	c.Dir = cmd.Dir
	c.Env = cmd.Env
	if c.Env == nil {
		c.Env = []string{}
	}

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	err := c.Run()
	out := Output{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		out.ExitCode = exitErr.ExitCode()
		return out, nil
	}
	if err != nil {
		return out, fmt.Errorf("run %s: %w", cmd.Path, err)
	}
	return out, nil
}

// BuildError reports a post-install build that exited non-zero.
type BuildError struct {
	Command  string
	ExitCode int
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("failed to bundle core library (exit code: %d)", e.ExitCode)
}

// bundleCommand prebuilds the core library with the installed toolchain.
// PATH is the only environment variable and points at the toolchain's own
// bin directory.
func bundleCommand(moonPath, coreDir, binDir string) Command {
	return Command{
		Path: moonPath,
		Args: []string{"bundle", "--all"},
		Dir:  coreDir,
		Env:  []string{"PATH=" + binDir},
	}
}
