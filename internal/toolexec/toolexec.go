package toolexec

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"unicode/utf8"
)

// Runner defines the narrow subprocess capability the detection probes
// rely on: run a helper binary, capture its standard output.
type Runner interface {
	EnsureBinary(name string) error
	Output(ctx context.Context, name string, args ...string) (string, error)
}

// CommandRunner executes real helper binaries found on PATH.
type CommandRunner struct{}

// NewRunner returns a default command runner.
func NewRunner() Runner {
	return &CommandRunner{}
}

// EnsureBinary verifies that the helper binary is discoverable on PATH.
func (r *CommandRunner) EnsureBinary(name string) error {
	_, err := exec.LookPath(name)
	if err != nil {
		return fmt.Errorf("%s binary not found: %w", name, err)
	}
	return nil
}

// Output runs the helper and returns its standard output as a string.
// A non-zero exit, a missing binary, or output that is not valid UTF-8
// all produce an error.
func (r *CommandRunner) Output(ctx context.Context, name string, args ...string) (string, error) {
	// Binary names are fixed per CI provider and args are constructed
	// programmatically, making command injection impossible.
	cmd := exec.CommandContext(ctx, name, args...) // #nosec G204

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return "", fmt.Errorf("%s failed: %w: %s", name, err, detail)
		}
		return "", fmt.Errorf("%s failed: %w", name, err)
	}

	if !utf8.Valid(stdout.Bytes()) {
		return "", fmt.Errorf("%s produced output that is not valid UTF-8", name)
	}

	return stdout.String(), nil
}
