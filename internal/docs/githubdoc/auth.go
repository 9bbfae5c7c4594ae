package githubdoc

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gogithub "github.com/google/go-github/v75/github"
	"golang.org/x/oauth2"
)

const (
	defaultAPIURL = "https://api.github.com"
	userAgent     = "docmcp"
)

// NewGitHubClient creates a *gogithub.Client authenticated with a personal access token.
// An empty baseURL targets api.github.com; any other value (GitHub Enterprise or a
// local fake) replaces the API base.
func NewGitHubClient(token string, baseURL string) (*gogithub.Client, error) {
	var httpClient *http.Client
	if strings.TrimSpace(token) != "" {
		tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(context.Background(), tokenSource)
	}
	client := gogithub.NewClient(httpClient)
	client.UserAgent = userAgent
	if err := applyBaseURL(client, baseURL); err != nil {
		return nil, err
	}
	return client, nil
}

func applyBaseURL(client *gogithub.Client, baseURL string) error {
	trimmed := strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	if trimmed == "" || trimmed == defaultAPIURL {
		return nil
	}
	parsed, err := url.Parse(trimmed + "/")
	if err != nil {
		return fmt.Errorf("parse github api url %q: %w", baseURL, err)
	}
	client.BaseURL = parsed
	return nil
}
