package toolexec

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestEnsureBinaryWhenPresent(t *testing.T) {
	runner := NewRunner()
	if err := runner.EnsureBinary("go"); err != nil { // 'go' is a known binary
		t.Fatalf("EnsureBinary should succeed for 'go': %v", err)
	}
}

func TestEnsureBinaryWhenMissing(t *testing.T) {
	runner := NewRunner()
	if err := runner.EnsureBinary("nonexistent-binary-12345"); err == nil {
		t.Fatal("EnsureBinary should fail for nonexistent binary")
	}
}

func TestOutputCapturesStdout(t *testing.T) {
	runner := NewRunner()
	out, err := runner.Output(context.Background(), "go", "version")
	if err != nil {
		t.Fatalf("Output failed: %v", err)
	}
	if !strings.HasPrefix(out, "go version") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestOutputMissingBinary(t *testing.T) {
	runner := NewRunner()
	if _, err := runner.Output(context.Background(), "nonexistent-binary-12345"); err == nil {
		t.Fatal("Output should fail for nonexistent binary")
	}
}

func TestOutputNonZeroExitIncludesStderr(t *testing.T) {
	runner := NewRunner()
	_, err := runner.Output(context.Background(), "go", "definitely-not-a-subcommand")
	if err == nil {
		t.Fatal("Output should fail for an unknown subcommand")
	}
	if !strings.Contains(err.Error(), "go failed") {
		t.Fatalf("error should name the binary, got %v", err)
	}
}

func TestOutputRejectsInvalidUTF8(t *testing.T) {
	runner := NewRunner()
	_, err := runner.Output(context.Background(), "sh", "-c", `printf '\377\376'`)
	if err == nil {
		t.Fatal("Output should reject stdout that is not valid UTF-8")
	}
	if !strings.Contains(err.Error(), "not valid UTF-8") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestOutputRespectsContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	runner := NewRunner()
	if _, err := runner.Output(ctx, "sleep", "5"); err == nil {
		t.Fatal("Output should fail when the context deadline passes")
	}
}
