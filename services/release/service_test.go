package release

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"scosmb-portal/pkg/config"
	"scosmb-portal/pkg/errutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newGitHubStub(t *testing.T, payload *githubRelease, hits *int) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			*hits++
		}
		require.Equal(t, "/repos/scosmb/app/releases/latest", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(payload)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestConfig(baseURL string) *config.Config {
	cfg := &config.Config{}
	cfg.GitHub.APIBaseURL = baseURL
	cfg.GitHub.Owner = "scosmb"
	cfg.GitHub.Repo = "app"
	cfg.GitHub.CacheTTL = time.Minute
	return cfg
}

func newTestService(t *testing.T, cfg *config.Config) *Service {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return &Service{
		github: NewGitHubClient(cfg),
		cache:  rdb,
		cfg:    cfg,
	}
}

func stubRelease() *githubRelease {
	return &githubRelease{
		TagName:     "v2.4.1",
		Name:        "SCO SMB 2.4.1",
		Body:        "Bug fixes.",
		PublishedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Assets: []githubAsset{
			{Name: "scosmb-2.4.1-setup.exe", Size: 104857600, BrowserDownloadURL: "https://example.test/setup.exe"},
			{Name: "scosmb-2.4.1.dmg", Size: 94371840, BrowserDownloadURL: "https://example.test/app.dmg"},
			{Name: "scosmb-2.4.1-x86_64.AppImage", Size: 99614720, BrowserDownloadURL: "https://example.test/app.AppImage"},
			{Name: "checksums.txt", Size: 1024, BrowserDownloadURL: "https://example.test/checksums.txt"},
		},
	}
}

func TestLatestMapsAssetsToPlatforms(t *testing.T) {
	srv := newGitHubStub(t, stubRelease(), nil)
	svc := newTestService(t, newTestConfig(srv.URL))

	rel, err := svc.Latest(context.Background())
	require.NoError(t, err)
	require.Equal(t, "2.4.1", rel.Version)

	// checksums.txt matches no platform and is dropped.
	require.Len(t, rel.Assets, 3)

	asset, ok := rel.AssetFor(PlatformWindows)
	require.True(t, ok)
	require.Equal(t, "scosmb-2.4.1-setup.exe", asset.Name)
}

func TestLatestServesFromCache(t *testing.T) {
	hits := 0
	srv := newGitHubStub(t, stubRelease(), &hits)
	svc := newTestService(t, newTestConfig(srv.URL))
	ctx := context.Background()

	_, err := svc.Latest(ctx)
	require.NoError(t, err)
	_, err = svc.Latest(ctx)
	require.NoError(t, err)

	require.Equal(t, 1, hits)
}

func TestInvalidateForcesRefetch(t *testing.T) {
	hits := 0
	srv := newGitHubStub(t, stubRelease(), &hits)
	svc := newTestService(t, newTestConfig(srv.URL))
	ctx := context.Background()

	_, err := svc.Latest(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.Invalidate(ctx))

	_, err = svc.Latest(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, hits)
}

func TestLatestForUnavailablePlatform(t *testing.T) {
	payload := stubRelease()
	payload.Assets = payload.Assets[:1] // windows only
	srv := newGitHubStub(t, payload, nil)
	svc := newTestService(t, newTestConfig(srv.URL))

	_, _, err := svc.LatestFor(context.Background(), PlatformLinux)
	require.Error(t, err)

	var base errutil.BaseError
	require.ErrorAs(t, err, &base)
	require.Equal(t, errutil.StatusNotFound, base.Code)
}

func TestLatestUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	svc := newTestService(t, newTestConfig(srv.URL))

	_, err := svc.Latest(context.Background())
	require.Error(t, err)

	var base errutil.BaseError
	require.ErrorAs(t, err, &base)
	require.Equal(t, errutil.StatusBadGateway, base.Code)
}

func TestParsePlatformAliases(t *testing.T) {
	cases := map[string]Platform{
		"windows": PlatformWindows,
		"win":     PlatformWindows,
		"darwin":  PlatformMac,
		"macos":   PlatformMac,
		"linux":   PlatformLinux,
	}
	for raw, want := range cases {
		got, ok := ParsePlatform(raw)
		require.True(t, ok, raw)
		require.Equal(t, want, got)
	}

	_, ok := ParsePlatform("amiga")
	require.False(t, ok)
}

func TestPlatformFromAssetName(t *testing.T) {
	cases := map[string]Platform{
		"setup.msi":            PlatformWindows,
		"scosmb-win64.zip":     PlatformWindows,
		"scosmb.dmg":           PlatformMac,
		"scosmb-darwin.tar.gz": PlatformMac,
		"scosmb.AppImage":      PlatformLinux,
		"scosmb.deb":           PlatformLinux,
	}
	for name, want := range cases {
		got, ok := platformFromAssetName(name)
		require.True(t, ok, name)
		require.Equal(t, want, got, name)
	}

	_, ok := platformFromAssetName("checksums.txt")
	require.False(t, ok)
}
