package detect

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestBuildkiteNotDetected(t *testing.T) {
	probe := NewBuildkiteProbe(fakeEnv(nil), &fakeRunner{})

	_, err := probe.Detect(context.Background(), "")
	if !errors.Is(err, ErrNotDetected) {
		t.Fatalf("expected ErrNotDetected, got %v", err)
	}
}

func TestBuildkiteRequestsToken(t *testing.T) {
	tests := []struct {
		name     string
		audience string
		wantArgs []string
	}{
		{
			name:     "no audience",
			audience: "",
			wantArgs: []string{"oidc", "request-token"},
		},
		{
			name:     "with audience",
			audience: "my-aud",
			wantArgs: []string{"oidc", "request-token", "--audience", "my-aud"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{stdout: sampleToken + "\n"}
			probe := NewBuildkiteProbe(fakeEnv(map[string]string{"BUILDKITE": "true"}), runner)

			token, err := probe.Detect(context.Background(), tt.audience)
			if err != nil {
				t.Fatalf("detect failed: %v", err)
			}
			if token != sampleToken {
				t.Fatalf("unexpected token %q", token)
			}

			if runner.name != "buildkite-agent" {
				t.Fatalf("unexpected binary %q", runner.name)
			}
			if !reflect.DeepEqual(runner.args, tt.wantArgs) {
				t.Fatalf("unexpected args %#v", runner.args)
			}
		})
	}
}

func TestBuildkiteAgentFailure(t *testing.T) {
	runner := &fakeRunner{err: errors.New("buildkite-agent failed: executable file not found")}
	probe := NewBuildkiteProbe(fakeEnv(map[string]string{"BUILDKITE": "true"}), runner)

	_, err := probe.Detect(context.Background(), "")
	var envErr *EnvironmentError
	if !errors.As(err, &envErr) {
		t.Fatalf("expected EnvironmentError, got %v", err)
	}
	if !strings.Contains(envErr.Reason, "buildkite-agent") {
		t.Fatalf("error should embed the helper failure, got %q", envErr.Reason)
	}
}
