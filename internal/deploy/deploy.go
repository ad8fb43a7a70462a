// Package deploy implements the release pipeline around the bot binary:
// build it, list the artifact directory, verify the binary landed at the
// expected path, and hand control to it.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
)

// DefaultBinaryPath is the conventional output path of a release build.
const DefaultBinaryPath = "bin/tv-trading-bot"

// DefaultPackage is the main package the release build compiles.
const DefaultPackage = "./cmd/bot"

// ErrBinaryMissing reports that the expected binary is absent after a
// build. Callers map it to exit status 1.
var ErrBinaryMissing = errors.New("binary not found")

// Options configures the pipeline steps.
type Options struct {
	// BinaryPath is where the build writes and run looks for the binary.
	BinaryPath string
	// Package is the Go main package compiled by Build.
	Package string
	// Stdout and Stderr receive build tool and bot output.
	Stdout io.Writer
	Stderr io.Writer
}

func (o *Options) defaults() {
	if o.BinaryPath == "" {
		o.BinaryPath = DefaultBinaryPath
	}
	if o.Package == "" {
		o.Package = DefaultPackage
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
}

// Build compiles the bot in release mode to the configured output path.
// Unlike the shell scripts this replaced, the build tool's exit status is
// checked directly instead of being inferred from a missing artifact.
func Build(ctx context.Context, opts Options) error {
	opts.defaults()

	if dir := filepath.Dir(opts.BinaryPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create artifact dir: %w", err)
		}
	}

	cmd := exec.CommandContext(ctx, "go", "build", "-trimpath", "-ldflags", "-s -w", "-o", opts.BinaryPath, opts.Package)
	cmd.Stdout = opts.Stdout
	cmd.Stderr = opts.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("release build failed: %w", err)
	}
	return nil
}

// ListArtifacts writes a listing of the artifact directory, one entry per
// line with mode, size, modification time, and name.
func ListArtifacts(dir string, w io.Writer) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("list artifacts: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", entry.Name(), err)
		}
		fmt.Fprintf(w, "%s %10d %s %s\n", info.Mode(), info.Size(), info.ModTime().Format("2006-01-02 15:04:05"), entry.Name())
	}
	return nil
}

// EnsureBinary verifies the binary exists at the expected path.
func EnsureBinary(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("%w at %s", ErrBinaryMissing, path)
	}
	if err != nil {
		return fmt.Errorf("stat binary: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w at %s: path is a directory", ErrBinaryMissing, path)
	}
	return nil
}

// Run verifies the binary and transfers control to it: no arguments, the
// inherited environment, and stdio passed through. It blocks until the
// bot exits and returns the bot's exit code.
func Run(ctx context.Context, opts Options) (int, error) {
	opts.defaults()

	if err := EnsureBinary(opts.BinaryPath); err != nil {
		return 1, err
	}

	cmd := exec.CommandContext(ctx, opts.BinaryPath)
	cmd.Stdout = opts.Stdout
	cmd.Stderr = opts.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return 1, fmt.Errorf("start binary: %w", err)
	}
	return 0, nil
}
