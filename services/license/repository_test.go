package license

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"scosmb-portal/services/testutil"
)

func seedKey(t *testing.T, db *gorm.DB, key *LicenseKey) {
	t.Helper()
	require.NoError(t, db.Create(key).Error)
}

func TestConsumeDownloadIncrementsAndLogs(t *testing.T) {
	db := testutil.NewTestDB(t, &LicenseKey{}, &DownloadLog{})
	repo := NewKeyRepository(KeyRepositoryParams{DB: db})
	ctx := context.Background()

	seedKey(t, db, &LicenseKey{
		ID:           "key-1",
		KeyCode:      "SCO-ABCD-EFGH-JKLM",
		Status:       StatusUnused,
		MaxDownloads: 2,
	})

	updated, err := repo.ConsumeDownload(ctx, "key-1", &DownloadLog{
		ID:           "log-1",
		LicenseKeyID: "key-1",
		Platform:     "windows",
		Version:      "2.4.1",
		DownloadDate: time.Now(),
		Success:      true,
	})
	require.NoError(t, err)
	require.Equal(t, 1, updated.DownloadCount)
	require.Equal(t, StatusActive, updated.Status)

	var logs int64
	require.NoError(t, db.Model(&DownloadLog{}).Count(&logs).Error)
	require.EqualValues(t, 1, logs)
}

func TestConsumeDownloadStopsAtQuota(t *testing.T) {
	db := testutil.NewTestDB(t, &LicenseKey{}, &DownloadLog{})
	repo := NewKeyRepository(KeyRepositoryParams{DB: db})
	ctx := context.Background()

	seedKey(t, db, &LicenseKey{
		ID:            "key-1",
		KeyCode:       "SCO-ABCD-EFGH-JKLM",
		Status:        StatusActive,
		DownloadCount: 2,
		MaxDownloads:  2,
	})

	_, err := repo.ConsumeDownload(ctx, "key-1", &DownloadLog{
		ID:           "log-1",
		LicenseKeyID: "key-1",
		Platform:     "windows",
		DownloadDate: time.Now(),
	})
	require.ErrorIs(t, err, ErrNoRemainingDownloads)

	// The losing attempt leaves no trace.
	var logs int64
	require.NoError(t, db.Model(&DownloadLog{}).Count(&logs).Error)
	require.Zero(t, logs)

	var key LicenseKey
	require.NoError(t, db.First(&key, "id = ?", "key-1").Error)
	require.Equal(t, 2, key.DownloadCount)
}

func TestConsumeDownloadRejectsRevokedKey(t *testing.T) {
	db := testutil.NewTestDB(t, &LicenseKey{}, &DownloadLog{})
	repo := NewKeyRepository(KeyRepositoryParams{DB: db})

	seedKey(t, db, &LicenseKey{
		ID:           "key-1",
		KeyCode:      "SCO-ABCD-EFGH-JKLM",
		Status:       StatusRevoked,
		MaxDownloads: 3,
	})

	_, err := repo.ConsumeDownload(context.Background(), "key-1", &DownloadLog{
		ID:           "log-1",
		LicenseKeyID: "key-1",
		Platform:     "mac",
		DownloadDate: time.Now(),
	})
	require.ErrorIs(t, err, ErrNoRemainingDownloads)
}

func TestMarkExpiredSkipsRevokedKey(t *testing.T) {
	db := testutil.NewTestDB(t, &LicenseKey{}, &DownloadLog{})
	repo := NewKeyRepository(KeyRepositoryParams{DB: db})
	ctx := context.Background()

	seedKey(t, db, &LicenseKey{
		ID:           "key-1",
		KeyCode:      "SCO-ABCD-EFGH-JKLM",
		Status:       StatusRevoked,
		MaxDownloads: 3,
	})
	seedKey(t, db, &LicenseKey{
		ID:           "key-2",
		KeyCode:      "SCO-NPQR-STUV-WXYZ",
		Status:       StatusActive,
		MaxDownloads: 3,
	})

	require.NoError(t, repo.MarkExpired(ctx, "key-1"))
	require.NoError(t, repo.MarkExpired(ctx, "key-2"))

	var revoked, expired LicenseKey
	require.NoError(t, db.First(&revoked, "id = ?", "key-1").Error)
	require.NoError(t, db.First(&expired, "id = ?", "key-2").Error)
	require.Equal(t, StatusRevoked, revoked.Status)
	require.Equal(t, StatusExpired, expired.Status)
}
