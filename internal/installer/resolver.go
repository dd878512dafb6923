package installer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// VersionResolver finds the newest published version of a server.
type VersionResolver interface {
	ResolveLatestVersion(ctx context.Context) (string, error)
}

// GitHubResolver reads the tag of a repository's latest release.
type GitHubResolver struct {
	Owner   string
	Repo    string
	BaseURL string
	Client  *http.Client
}

func NewGitHubResolver(owner, repo string) *GitHubResolver {
	return &GitHubResolver{
		Owner:   owner,
		Repo:    repo,
		BaseURL: "https://api.github.com",
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (r *GitHubResolver) ResolveLatestVersion(ctx context.Context) (string, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", r.BaseURL, r.Owner, r.Repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := r.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch latest release: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch latest release: %s", resp.Status)
	}

	var release struct {
		TagName string `json:"tag_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", fmt.Errorf("decode release: %w", err)
	}
	if release.TagName == "" {
		return "", fmt.Errorf("release of %s/%s has no tag", r.Owner, r.Repo)
	}
	return release.TagName, nil
}
