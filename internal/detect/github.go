package detect

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	githubMarkerVar       = "GITHUB_ACTIONS"
	githubRequestTokenVar = "ACTIONS_ID_TOKEN_REQUEST_TOKEN"
	githubRequestURLVar   = "ACTIONS_ID_TOKEN_REQUEST_URL"
)

// GitHubProbe exchanges the Actions runtime token for an OIDC token via
// the workflow's token endpoint.
type GitHubProbe struct {
	env          LookupEnv
	client       *http.Client
	maxBodyBytes int64
}

// NewGitHubProbe builds a probe with an optional custom HTTP client.
func NewGitHubProbe(env LookupEnv, client *http.Client) *GitHubProbe {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &GitHubProbe{env: env, client: client, maxBodyBytes: 1024 * 1024}
}

// Name implements Probe.
func (p *GitHubProbe) Name() string {
	return "GitHub Actions"
}

// Detect requests a token from the Actions id-token endpoint, passing the
// audience as a query parameter when one was supplied.
func (p *GitHubProbe) Detect(ctx context.Context, audience string) (string, error) {
	if _, ok := p.env(githubMarkerVar); !ok {
		return "", ErrNotDetected
	}

	requestToken, ok := p.env(githubRequestTokenVar)
	if !ok {
		return "", environmentErrorf("GitHub Actions: %s is not set (is the id-token: write workflow permission configured?)", githubRequestTokenVar)
	}

	requestURL, ok := p.env(githubRequestURLVar)
	if !ok {
		return "", environmentErrorf("GitHub Actions: %s is not set (is the id-token: write workflow permission configured?)", githubRequestURLVar)
	}

	endpoint, err := url.Parse(requestURL)
	if err != nil {
		return "", environmentErrorf("GitHub Actions: invalid token request URL: %v", err)
	}

	if audience != "" {
		query := endpoint.Query()
		query.Set("audience", audience)
		endpoint.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return "", environmentErrorf("GitHub Actions: building token request: %v", err)
	}
	req.Header.Set("Authorization", "bearer "+requestToken)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", environmentErrorf("GitHub Actions: token request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", environmentErrorf("GitHub Actions: token request returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, p.maxBodyBytes))
	if err != nil {
		return "", environmentErrorf("GitHub Actions: reading token response: %v", err)
	}

	var tokenResponse struct {
		Value *string `json:"value"`
	}
	if err := json.Unmarshal(body, &tokenResponse); err != nil {
		return "", environmentErrorf("GitHub Actions: failed to parse token response: %v", err)
	}
	if tokenResponse.Value == nil {
		return "", environmentErrorf("GitHub Actions: failed to parse token response: value field is missing")
	}

	return *tokenResponse.Value, nil
}

var _ Probe = (*GitHubProbe)(nil)
