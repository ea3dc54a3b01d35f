package detect

import (
	"context"
	"strings"

	"github.com/example/ciid/internal/toolexec"
)

const (
	buildkiteMarkerVar = "BUILDKITE"
	buildkiteBinary    = "buildkite-agent"
)

// BuildkiteProbe asks the buildkite-agent binary running the job for an
// OIDC token.
type BuildkiteProbe struct {
	env    LookupEnv
	runner toolexec.Runner
}

// NewBuildkiteProbe builds a probe over the given environment and runner.
func NewBuildkiteProbe(env LookupEnv, runner toolexec.Runner) *BuildkiteProbe {
	if runner == nil {
		runner = toolexec.NewRunner()
	}
	return &BuildkiteProbe{env: env, runner: runner}
}

// Name implements Probe.
func (p *BuildkiteProbe) Name() string {
	return "Buildkite"
}

// Detect invokes `buildkite-agent oidc request-token`, passing the
// audience as a flag when one was supplied.
func (p *BuildkiteProbe) Detect(ctx context.Context, audience string) (string, error) {
	if _, ok := p.env(buildkiteMarkerVar); !ok {
		return "", ErrNotDetected
	}

	args := []string{"oidc", "request-token"}
	if audience != "" {
		args = append(args, "--audience", audience)
	}

	stdout, err := p.runner.Output(ctx, buildkiteBinary, args...)
	if err != nil {
		return "", environmentErrorf("Buildkite: requesting token: %v", err)
	}

	return strings.TrimSpace(stdout), nil
}

var _ Probe = (*BuildkiteProbe)(nil)
