package detect

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/example/ciid/internal/toolexec"
)

const (
	circleMarkerVar = "CIRCLECI"
	circleTokenVar  = "CIRCLE_OIDC_TOKEN_V2"
	circleBinary    = "circleci"
)

// CircleCIProbe reads the job's default OIDC token from the environment,
// or asks the circleci CLI to mint one when a custom audience is wanted.
type CircleCIProbe struct {
	env    LookupEnv
	runner toolexec.Runner
}

// NewCircleCIProbe builds a probe over the given environment and runner.
func NewCircleCIProbe(env LookupEnv, runner toolexec.Runner) *CircleCIProbe {
	if runner == nil {
		runner = toolexec.NewRunner()
	}
	return &CircleCIProbe{env: env, runner: runner}
}

// Name implements Probe.
func (p *CircleCIProbe) Name() string {
	return "CircleCI"
}

// Detect returns the ambient token for the default audience, or invokes
// `circleci run oidc get` with an aud claim for any other audience.
func (p *CircleCIProbe) Detect(ctx context.Context, audience string) (string, error) {
	if _, ok := p.env(circleMarkerVar); !ok {
		return "", ErrNotDetected
	}

	if audience == "" {
		token, ok := p.env(circleTokenVar)
		if !ok {
			return "", environmentErrorf("CircleCI: %s is not set", circleTokenVar)
		}
		return token, nil
	}

	claims, err := json.Marshal(map[string]string{"aud": audience})
	if err != nil {
		return "", environmentErrorf("CircleCI: encoding claims: %v", err)
	}

	stdout, err := p.runner.Output(ctx, circleBinary, "run", "oidc", "get", "--claims", string(claims))
	if err != nil {
		return "", environmentErrorf("CircleCI: requesting token: %v", err)
	}

	return strings.TrimSpace(stdout), nil
}

var _ Probe = (*CircleCIProbe)(nil)
