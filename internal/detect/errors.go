package detect

import (
	"errors"
	"fmt"
)

// ErrNotDetected signals that a probe's presence marker was absent, or —
// when returned from DetectCredentials — that no provider matched at all.
// It is a normal negative outcome, not a failure.
var ErrNotDetected = errors.New("credential detection failed: no CI environment detected")

// ErrMalformedToken signals that a provider produced a token that does not
// have the three-segment shape of a compact JWT.
var ErrMalformedToken = errors.New("credential detection failed: malformed token")

// EnvironmentError reports a provider that was positively identified but
// could not produce a usable token. It is always terminal: a present but
// broken provider is almost certainly the operative environment, and
// falling through to other providers would mask the misconfiguration.
type EnvironmentError struct {
	Reason string
}

func (e *EnvironmentError) Error() string {
	return "credential detection failed: " + e.Reason
}

func environmentErrorf(format string, args ...interface{}) *EnvironmentError {
	return &EnvironmentError{Reason: fmt.Sprintf(format, args...)}
}
