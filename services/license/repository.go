package license

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"scosmb-portal/pkg/repository"
)

// ErrNoRemainingDownloads reports that the conditional increment matched no
// row: the quota is spent or the key left the unused/active states.
var ErrNoRemainingDownloads = errors.New("license key has no remaining downloads")

// KeyRepository handles the license key operations that need more than the
// generic store, above all the atomic download accounting.
type KeyRepository struct {
	db   *gorm.DB
	repo repository.Repository[LicenseKey]
}

type KeyRepositoryParams struct {
	DB *gorm.DB
}

func NewKeyRepository(p KeyRepositoryParams) *KeyRepository {
	return &KeyRepository{
		db:   p.DB,
		repo: repository.ProvideStore[LicenseKey](p.DB),
	}
}

// ConsumeDownload increments the key's download counter and appends the log
// entry atomically. The UPDATE is bounded by the quota and the allowed
// states so two concurrent validations can never jointly exceed
// max_downloads; the loser of the race sees ErrNoRemainingDownloads.
func (r *KeyRepository) ConsumeDownload(ctx context.Context, keyID string, entry *DownloadLog) (*LicenseKey, error) {
	var updated LicenseKey

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&LicenseKey{}).
			Where("id = ? AND download_count < max_downloads AND status IN ?",
				keyID, []string{string(StatusUnused), string(StatusActive)}).
			Updates(map[string]interface{}{
				"download_count": gorm.Expr("download_count + 1"),
				"status":         StatusActive,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNoRemainingDownloads
		}

		if err := tx.Create(entry).Error; err != nil {
			return err
		}

		return tx.Where("id = ?", keyID).First(&updated).Error
	})
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

// MarkExpired flips the key to expired unless it has been revoked meanwhile.
func (r *KeyRepository) MarkExpired(ctx context.Context, keyID string) error {
	return r.db.WithContext(ctx).Model(&LicenseKey{}).
		Where("id = ? AND status <> ?", keyID, StatusRevoked).
		Update("status", StatusExpired).Error
}
