package release

import "time"

type Platform string

const (
	PlatformWindows Platform = "windows"
	PlatformMac     Platform = "mac"
	PlatformLinux   Platform = "linux"
)

// ParsePlatform normalizes the query value. Unknown values are rejected
// so the asset matcher never guesses.
func ParsePlatform(raw string) (Platform, bool) {
	switch Platform(raw) {
	case PlatformWindows, PlatformMac, PlatformLinux:
		return Platform(raw), true
	case "darwin", "macos", "osx":
		return PlatformMac, true
	case "win", "win64":
		return PlatformWindows, true
	}
	return "", false
}

// Release is the latest-version metadata served to the download page.
type Release struct {
	Version     string    `json:"version"`
	Name        string    `json:"name"`
	Notes       string    `json:"notes"`
	PublishedAt time.Time `json:"publishedAt"`
	Assets      []Asset   `json:"assets"`
}

type Asset struct {
	Platform    Platform `json:"platform"`
	Name        string   `json:"name"`
	SizeBytes   int64    `json:"sizeBytes"`
	DownloadURL string   `json:"downloadUrl"`
}

// AssetFor returns the asset matching the requested platform.
func (r *Release) AssetFor(p Platform) (*Asset, bool) {
	for i := range r.Assets {
		if r.Assets[i].Platform == p {
			return &r.Assets[i], true
		}
	}
	return nil, false
}
