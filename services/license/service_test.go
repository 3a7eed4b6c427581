package license

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"scosmb-portal/pkg/db/pagination"
	"scosmb-portal/pkg/errutil"
	"scosmb-portal/pkg/repository"
	"scosmb-portal/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestService(t *testing.T) *Service {
	t.Helper()

	db := testutil.NewTestDB(t, &LicenseKey{}, &DownloadLog{})
	return &Service{
		db:     db,
		node:   testutil.NewSnowflakeNode(t),
		config: testutil.NewConfig(),
		keys:   repository.ProvideStore[LicenseKey](db),
		logs:   repository.ProvideStore[DownloadLog](db),
		atomic: NewKeyRepository(KeyRepositoryParams{DB: db}),
	}
}

func TestIssueAppliesDefaultQuota(t *testing.T) {
	svc := newTestService(t)

	key, err := svc.Issue(context.Background(), IssueRequest{
		CustomerName:  "Dana Reyes",
		CustomerEmail: "dana@acme.test",
	})
	require.NoError(t, err)
	require.Equal(t, StatusUnused, key.Status)
	require.Equal(t, 3, key.MaxDownloads)
	require.Equal(t, 0, key.DownloadCount)

	code, ok := NormalizeKeyCode(key.KeyCode)
	require.True(t, ok)
	require.Equal(t, key.KeyCode, code)
}

func TestIssueHonorsExplicitQuota(t *testing.T) {
	svc := newTestService(t)

	key, err := svc.Issue(context.Background(), IssueRequest{
		CustomerEmail: "sam@northwind.test",
		MaxDownloads:  5,
	})
	require.NoError(t, err)
	require.Equal(t, 5, key.MaxDownloads)
}

func TestValidateConsumesQuotaUntilExhausted(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	key, err := svc.Issue(ctx, IssueRequest{CustomerEmail: "dana@acme.test"})
	require.NoError(t, err)

	for want := 2; want >= 0; want-- {
		res := svc.Validate(ctx, key.KeyCode, "windows", "2.4.1")
		require.True(t, res.Valid)
		require.Equal(t, want, res.DownloadsRemaining)
	}

	res := svc.Validate(ctx, key.KeyCode, "windows", "2.4.1")
	require.False(t, res.Valid)
	require.Equal(t, ErrQuotaExceeded, res.Err)

	// Only the three accepted downloads were logged.
	var logs int64
	require.NoError(t, svc.db.Model(&DownloadLog{}).Count(&logs).Error)
	require.EqualValues(t, 3, logs)
}

func TestValidateActivatesUnusedKey(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	key, err := svc.Issue(ctx, IssueRequest{CustomerEmail: "lee@oakside.test"})
	require.NoError(t, err)

	res := svc.Validate(ctx, key.KeyCode, "mac", "2.4.1")
	require.True(t, res.Valid)

	stored, err := svc.Get(ctx, key.KeyCode)
	require.NoError(t, err)
	require.Equal(t, StatusActive, stored.Status)
	require.Equal(t, 1, stored.DownloadCount)
}

func TestValidateAcceptsSloppyInput(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	key, err := svc.Issue(ctx, IssueRequest{CustomerEmail: "dana@acme.test"})
	require.NoError(t, err)

	// Lowercased, one dash dropped, padded with whitespace.
	sloppy := "  " + strings.ToLower(key.KeyCode[:8]+key.KeyCode[9:]) + " "
	res := svc.Validate(ctx, sloppy, "linux", "2.4.1")
	require.True(t, res.Valid)
}

func TestValidateRejectsMalformedKey(t *testing.T) {
	svc := newTestService(t)

	res := svc.Validate(context.Background(), "not-a-key", "windows", "2.4.1")
	require.False(t, res.Valid)
	require.Equal(t, ErrInvalidFormat, res.Err)
}

func TestValidateRejectsUnknownKey(t *testing.T) {
	svc := newTestService(t)

	res := svc.Validate(context.Background(), "SCO-ABCD-EFGH-JKLM", "windows", "2.4.1")
	require.False(t, res.Valid)
	require.Equal(t, ErrNotFound, res.Err)
}

func TestValidateRejectsRevokedKey(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	key, err := svc.Issue(ctx, IssueRequest{CustomerEmail: "dana@acme.test"})
	require.NoError(t, err)
	require.NoError(t, svc.Revoke(ctx, key.KeyCode))

	res := svc.Validate(ctx, key.KeyCode, "windows", "2.4.1")
	require.False(t, res.Valid)
	require.Equal(t, ErrRevoked, res.Err)
}

func TestValidateRejectsExpiredKeyAndPersistsStatus(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	key, err := svc.Issue(ctx, IssueRequest{CustomerEmail: "dana@acme.test", ExpiresAt: &past})
	require.NoError(t, err)

	res := svc.Validate(ctx, key.KeyCode, "windows", "2.4.1")
	require.False(t, res.Valid)
	require.Equal(t, ErrExpired, res.Err)

	stored, err := svc.Get(ctx, key.KeyCode)
	require.NoError(t, err)
	require.Equal(t, StatusExpired, stored.Status)
}

func TestRevokedWinsOverExpired(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	key, err := svc.Issue(ctx, IssueRequest{CustomerEmail: "dana@acme.test", ExpiresAt: &past})
	require.NoError(t, err)
	require.NoError(t, svc.Revoke(ctx, key.KeyCode))

	res := svc.Validate(ctx, key.KeyCode, "windows", "2.4.1")
	require.Equal(t, ErrRevoked, res.Err)
}

func TestRevokeIsIdempotent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	key, err := svc.Issue(ctx, IssueRequest{CustomerEmail: "dana@acme.test"})
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, key.KeyCode))
	require.NoError(t, svc.Revoke(ctx, key.KeyCode))

	stored, err := svc.Get(ctx, key.KeyCode)
	require.NoError(t, err)
	require.Equal(t, StatusRevoked, stored.Status)
	require.NotNil(t, stored.RevokedAt)
}

func TestRevokeUnknownKey(t *testing.T) {
	svc := newTestService(t)

	err := svc.Revoke(context.Background(), "SCO-ABCD-EFGH-JKLM")
	require.Error(t, err)

	var base errutil.BaseError
	require.ErrorAs(t, err, &base)
	require.Equal(t, errutil.StatusNotFound, base.Code)
}

func TestListReturnsNewestFirst(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, email := range []string{"a@acme.test", "b@acme.test", "c@acme.test"} {
		_, err := svc.Issue(ctx, IssueRequest{CustomerEmail: email})
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
	}

	keys, err := svc.List(ctx, pagination.Pagination{Page: 1, Limit: 20})
	require.NoError(t, err)
	require.Len(t, keys, 3)
	require.Equal(t, "c@acme.test", keys[0].CustomerEmail)
}
