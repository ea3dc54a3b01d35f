package detect

import (
	"context"
	"regexp"
	"strings"
)

const (
	gitlabMarkerVar       = "GITLAB_CI"
	gitlabDefaultTokenVar = "ID_TOKEN"
)

// gitlabVarRegex matches every character that may not appear in the
// derived variable name: anything outside [A-Z0-9_], plus a leading
// character outside [A-Z_] (names cannot start with a digit).
var gitlabVarRegex = regexp.MustCompile(`[^A-Z0-9_]|^[^A-Z_]`)

// GitLabProbe reads the token from a pipeline-defined variable. GitLab
// lets pipeline authors pick any name for their id_tokens entries, so the
// expected name is derived from the audience.
type GitLabProbe struct {
	env LookupEnv
}

// NewGitLabProbe builds a probe over the given environment.
func NewGitLabProbe(env LookupEnv) *GitLabProbe {
	return &GitLabProbe{env: env}
}

// Name implements Probe.
func (p *GitLabProbe) Name() string {
	return "GitLab Pipelines"
}

// Detect looks up the variable named by TokenVariableName.
func (p *GitLabProbe) Detect(ctx context.Context, audience string) (string, error) {
	if _, ok := p.env(gitlabMarkerVar); !ok {
		return "", ErrNotDetected
	}

	varName := TokenVariableName(audience)
	token, ok := p.env(varName)
	if !ok {
		return "", environmentErrorf("GitLab Pipelines: %s is not set (does the pipeline define a matching id_tokens entry?)", varName)
	}

	return token, nil
}

// TokenVariableName derives the environment variable expected to hold the
// token for the given audience: ID_TOKEN when the audience is empty,
// otherwise the upper-cased audience with illegal characters replaced by
// underscores, suffixed with _ID_TOKEN.
func TokenVariableName(audience string) string {
	if audience == "" {
		return gitlabDefaultTokenVar
	}

	upper := strings.ToUpper(audience)
	return gitlabVarRegex.ReplaceAllString(upper, "_") + "_" + gitlabDefaultTokenVar
}

var _ Probe = (*GitLabProbe)(nil)
