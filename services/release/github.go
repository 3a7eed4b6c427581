package release

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"scosmb-portal/pkg/config"
)

// githubRelease mirrors the subset of the GitHub releases API payload we
// read.
type githubRelease struct {
	TagName     string        `json:"tag_name"`
	Name        string        `json:"name"`
	Body        string        `json:"body"`
	Draft       bool          `json:"draft"`
	Prerelease  bool          `json:"prerelease"`
	PublishedAt time.Time     `json:"published_at"`
	Assets      []githubAsset `json:"assets"`
}

type githubAsset struct {
	Name               string `json:"name"`
	Size               int64  `json:"size"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

type GitHubClient struct {
	client *resty.Client
	owner  string
	repo   string
}

func NewGitHubClient(cfg *config.Config) *GitHubClient {
	client := resty.New().
		SetBaseURL(cfg.GitHub.APIBaseURL).
		SetHeader("Accept", "application/vnd.github+json").
		SetTimeout(10 * time.Second)

	if cfg.GitHub.Token != "" {
		client.SetAuthToken(cfg.GitHub.Token)
	}

	return &GitHubClient{
		client: client,
		owner:  cfg.GitHub.Owner,
		repo:   cfg.GitHub.Repo,
	}
}

// LatestRelease fetches the most recent non-draft release.
func (g *GitHubClient) LatestRelease(ctx context.Context) (*Release, error) {
	var payload githubRelease

	resp, err := g.client.R().
		SetContext(ctx).
		SetResult(&payload).
		Get(fmt.Sprintf("/repos/%s/%s/releases/latest", g.owner, g.repo))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest release: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("github api returned %s", resp.Status())
	}
	if payload.Draft {
		return nil, fmt.Errorf("latest release is a draft")
	}

	rel := &Release{
		Version:     strings.TrimPrefix(payload.TagName, "v"),
		Name:        payload.Name,
		Notes:       payload.Body,
		PublishedAt: payload.PublishedAt,
		Assets:      make([]Asset, 0, len(payload.Assets)),
	}

	for _, a := range payload.Assets {
		platform, ok := platformFromAssetName(a.Name)
		if !ok {
			continue
		}
		rel.Assets = append(rel.Assets, Asset{
			Platform:    platform,
			Name:        a.Name,
			SizeBytes:   a.Size,
			DownloadURL: a.BrowserDownloadURL,
		})
	}

	return rel, nil
}

// platformFromAssetName classifies a release artifact by filename.
func platformFromAssetName(name string) (Platform, bool) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".exe"), strings.HasSuffix(lower, ".msi"),
		strings.Contains(lower, "windows"), strings.Contains(lower, "win64"):
		return PlatformWindows, true
	case strings.HasSuffix(lower, ".dmg"), strings.HasSuffix(lower, ".pkg"),
		strings.Contains(lower, "darwin"), strings.Contains(lower, "macos"):
		return PlatformMac, true
	case strings.HasSuffix(lower, ".appimage"), strings.HasSuffix(lower, ".deb"),
		strings.HasSuffix(lower, ".rpm"), strings.Contains(lower, "linux"):
		return PlatformLinux, true
	}
	return "", false
}
