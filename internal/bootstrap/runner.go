package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Runner executes an external command in dir.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) error
}

// ExecRunner runs commands with os/exec, streaming their output.
type ExecRunner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Run executes name in dir and waits for it. A non-zero exit yields ErrCommandFailed with the
// exit code; a command that cannot be started yields ErrCommandStart.
func (r ExecRunner) Run(ctx context.Context, dir, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("%w: %s exited with code %d", ErrCommandFailed, name, exitErr.ExitCode())
		}
		return fmt.Errorf("%w: %s: %w", ErrCommandStart, name, err)
	}
	return nil
}

// Command is a resolved openspec invocation: Path followed by BaseArgs, then the subcommand.
type Command struct {
	Path     string
	BaseArgs []string
}

func (c Command) args(sub ...string) []string {
	return append(append([]string(nil), c.BaseArgs...), sub...)
}

// String renders the command prefix as it would be typed.
func (c Command) String() string {
	return strings.Join(append([]string{c.Path}, c.BaseArgs...), " ")
}

// Resolver finds the openspec executable.
type Resolver struct {
	GOOS     string
	LookPath func(string) (string, error)
}

// Resolve picks, in order: the explicit command (relative paths resolve against
// projectRoot), a project-local node_modules/.bin/openspec, openspec on PATH, and finally
// "npx --no-install openspec".
func (r Resolver) Resolve(projectRoot, explicit string) (Command, error) {
	if explicit != "" {
		if !filepath.IsAbs(explicit) {
			explicit = filepath.Join(projectRoot, explicit)
		}
		return Command{Path: explicit}, nil
	}

	candidates := []string{"openspec"}
	if r.GOOS == "windows" {
		candidates = []string{"openspec.cmd", "openspec.exe", "openspec.bat"}
	}
	binDir := filepath.Join(projectRoot, "node_modules", ".bin")
	for _, name := range candidates {
		full := filepath.Join(binDir, name)
		if _, err := os.Stat(full); err == nil {
			return Command{Path: full}, nil
		}
	}

	lookPath := r.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	if _, err := lookPath("openspec"); err == nil {
		return Command{Path: "openspec"}, nil
	}
	if _, err := lookPath("npx"); err == nil {
		return Command{Path: "npx", BaseArgs: []string{"--no-install", "openspec"}}, nil
	}
	return Command{}, fmt.Errorf("%w. Install locally and retry:\n  npm i -D @fission-ai/openspec@latest\nOr provide --openspec <cmdOrPath>", ErrOpenSpecNotFound)
}
