package detect

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/example/ciid/internal/events"
	"github.com/example/ciid/internal/toolexec"
)

// LookupEnv is a read-only view of the process environment. Tests
// substitute a fixed map instead of mutating real process state.
type LookupEnv func(key string) (string, bool)

// Probe is implemented by CI providers able to mint an ambient OIDC token.
//
// Detect returns the raw token string when the provider is active and a
// token could be acquired, ErrNotDetected when the provider's presence
// marker is absent, and an *EnvironmentError when the provider is present
// but broken.
type Probe interface {
	Name() string
	Detect(ctx context.Context, audience string) (string, error)
}

// Options configures a Detector. Zero-value fields fall back to real
// process collaborators.
type Options struct {
	Env        LookupEnv
	HTTPClient *http.Client
	Runner     toolexec.Runner
	Events     *events.Emitter
	Providers  []string
}

// Detector runs the ordered provider probes until one of them produces a
// token.
type Detector struct {
	probes  []Probe
	emitter *events.Emitter
}

// CanonicalProviders lists the supported provider names in probe order.
// The order is fixed: configuration may narrow the set, never reorder it.
var CanonicalProviders = []string{"github", "gitlab", "circleci", "buildkite"}

// NewDetector builds a detector for the canonical provider list, narrowed
// to opts.Providers when non-empty.
func NewDetector(opts Options) *Detector {
	env := opts.Env
	if env == nil {
		env = os.LookupEnv
	}

	runner := opts.Runner
	if runner == nil {
		runner = toolexec.NewRunner()
	}

	all := map[string]Probe{
		"github":    NewGitHubProbe(env, opts.HTTPClient),
		"gitlab":    NewGitLabProbe(env),
		"circleci":  NewCircleCIProbe(env, runner),
		"buildkite": NewBuildkiteProbe(env, runner),
	}

	enabled := func(name string) bool {
		if len(opts.Providers) == 0 {
			return true
		}
		for _, p := range opts.Providers {
			if p == name {
				return true
			}
		}
		return false
	}

	var probes []Probe
	for _, name := range CanonicalProviders {
		if enabled(name) {
			probes = append(probes, all[name])
		}
	}

	return &Detector{probes: probes, emitter: opts.Events}
}

// DetectCredentials probes the providers in order and returns the first
// token found, after shallow structural validation. A probe whose
// environment is not present is skipped; any other probe failure aborts
// detection immediately. ErrNotDetected is returned when no provider's
// presence marker was found.
func (d *Detector) DetectCredentials(ctx context.Context, audience string) (string, error) {
	for _, probe := range d.probes {
		_ = d.emitter.Emit(events.Event{Type: "probe-start", Provider: probe.Name()})

		raw, err := probe.Detect(ctx, audience)
		switch {
		case err == nil:
			if err := ValidateToken(raw); err != nil {
				return "", err
			}
			_ = d.emitter.Emit(events.Event{Type: "token-found", Provider: probe.Name()})
			return raw, nil
		case errors.Is(err, ErrNotDetected):
			_ = d.emitter.Emit(events.Event{Type: "provider-not-detected", Provider: probe.Name()})
		default:
			return "", err
		}
	}

	return "", ErrNotDetected
}

// ValidateToken accepts a raw string only if it has the three-segment
// shape of a compact JWT. Very shallow on purpose: no decoding, no
// signature or claims check.
func ValidateToken(raw string) error {
	if len(strings.Split(raw, ".")) != 3 {
		return ErrMalformedToken
	}
	return nil
}
