package license

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"scosmb-portal/pkg/config"
	"scosmb-portal/pkg/db/option"
	"scosmb-portal/pkg/db/pagination"
	"scosmb-portal/pkg/errutil"
	"scosmb-portal/pkg/repository"
)

const issueMaxAttempts = 5

type Service struct {
	db     *gorm.DB
	node   *snowflake.Node
	config *config.Config
	keys   repository.Repository[LicenseKey]
	logs   repository.Repository[DownloadLog]
	atomic *KeyRepository
}

type ServiceParams struct {
	fx.In
	DB     *gorm.DB
	Node   *snowflake.Node
	Config *config.Config
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:     p.DB,
		node:   p.Node,
		config: p.Config,
		keys:   repository.ProvideStore[LicenseKey](p.DB),
		logs:   repository.ProvideStore[DownloadLog](p.DB),
		atomic: NewKeyRepository(KeyRepositoryParams{DB: p.DB}),
	}
}

type IssueRequest struct {
	CustomerName    string
	CustomerEmail   string
	CustomerCompany string
	MaxDownloads    int
	ExpiresAt       *time.Time
}

// Issue creates a new license key with a unique key code. Key generation
// retries on the rare collision against the unique index.
func (s *Service) Issue(ctx context.Context, req IssueRequest) (*LicenseKey, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)

	maxDownloads := req.MaxDownloads
	if maxDownloads <= 0 {
		maxDownloads = s.config.License.DefaultMaxDownloads
	}

	var keyCode string
	for attempt := 0; attempt < issueMaxAttempts; attempt++ {
		code, err := GenerateKeyCode()
		if err != nil {
			zapLog.Error("failed to generate key code", zap.Error(err))
			return nil, errutil.Internal("failed to generate license key", errutil.WithErr(err))
		}

		exist, err := s.keys.FindOne(ctx, &LicenseKey{KeyCode: code})
		if err != nil {
			zapLog.Error("failed to check key code uniqueness", zap.Error(err))
			return nil, errutil.Internal("failed to issue license key", errutil.WithErr(err))
		}
		if exist == nil {
			keyCode = code
			break
		}
	}

	if keyCode == "" {
		zapLog.Error("exhausted key code generation attempts")
		return nil, errutil.Internal("failed to issue license key")
	}

	key := &LicenseKey{
		ID:              s.node.Generate().String(),
		KeyCode:         keyCode,
		Status:          StatusUnused,
		DownloadCount:   0,
		MaxDownloads:    maxDownloads,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerCompany: req.CustomerCompany,
		ExpiresAt:       req.ExpiresAt,
	}

	if err := s.keys.Create(ctx, key); err != nil {
		zapLog.Error("failed to persist license key", zap.Error(err))
		return nil, errutil.Internal("failed to issue license key", errutil.WithErr(err))
	}

	zapLog.Info("license key issued",
		zap.String("key_id", key.ID),
		zap.String("key_code", maskKeyCode(key.KeyCode)),
		zap.Int("max_downloads", key.MaxDownloads),
	)

	return key, nil
}

// Validate decides whether a download may proceed. Checks run in a fixed
// order: format, existence, revocation, expiry, quota. Acceptance consumes
// one download and writes the log entry atomically; only accepted attempts
// are logged.
func (s *Service) Validate(ctx context.Context, rawKey, platform, version string) ValidationResult {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
		zap.String("platform", platform),
	)

	keyCode, ok := NormalizeKeyCode(rawKey)
	if !ok {
		return ValidationResult{Err: ErrInvalidFormat}
	}

	key, err := s.keys.FindOne(ctx, &LicenseKey{KeyCode: keyCode})
	if err != nil {
		zapLog.Error("failed to look up license key", zap.Error(err))
		return ValidationResult{Err: ErrStorage}
	}
	if key == nil {
		return ValidationResult{Err: ErrNotFound}
	}

	if key.Status == StatusRevoked {
		return ValidationResult{Err: ErrRevoked}
	}

	if key.ExpiresAt != nil && key.ExpiresAt.Before(time.Now()) {
		// Best effort: the verdict stands even if the status write fails.
		if err := s.atomic.MarkExpired(ctx, key.ID); err != nil {
			zapLog.Warn("failed to persist expired status", zap.String("key_id", key.ID), zap.Error(err))
		}
		return ValidationResult{Err: ErrExpired}
	}

	if key.DownloadCount >= key.MaxDownloads {
		return ValidationResult{Err: ErrQuotaExceeded}
	}

	entry := &DownloadLog{
		ID:           s.node.Generate().String(),
		LicenseKeyID: key.ID,
		Platform:     platform,
		Version:      version,
		DownloadDate: time.Now(),
		Success:      true,
	}

	updated, err := s.atomic.ConsumeDownload(ctx, key.ID, entry)
	if err != nil {
		if errors.Is(err, ErrNoRemainingDownloads) {
			return s.classifyRace(ctx, key.ID)
		}
		zapLog.Error("failed to record download", zap.String("key_id", key.ID), zap.Error(err))
		return ValidationResult{Err: ErrStorage}
	}

	zapLog.Info("download accepted",
		zap.String("key_id", updated.ID),
		zap.String("key_code", maskKeyCode(updated.KeyCode)),
		zap.Int("downloads_remaining", updated.DownloadsRemaining()),
	)

	return ValidationResult{
		Valid:              true,
		DownloadsRemaining: updated.DownloadsRemaining(),
	}
}

// classifyRace re-reads a key after the conditional increment matched no
// row and names the reason. A concurrent revocation wins over quota.
func (s *Service) classifyRace(ctx context.Context, keyID string) ValidationResult {
	key, err := s.keys.FindOne(ctx, &LicenseKey{ID: keyID})
	if err != nil || key == nil {
		return ValidationResult{Err: ErrStorage}
	}

	switch key.Status {
	case StatusRevoked:
		return ValidationResult{Err: ErrRevoked}
	case StatusExpired:
		return ValidationResult{Err: ErrExpired}
	default:
		return ValidationResult{Err: ErrQuotaExceeded}
	}
}

// Revoke disables a key unconditionally. Revoking an already revoked key is
// a no-op success.
func (s *Service) Revoke(ctx context.Context, rawKey string) error {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	keyCode, ok := NormalizeKeyCode(rawKey)
	if !ok {
		return errutil.BadRequest("malformed license key")
	}

	key, err := s.keys.FindOne(ctx, &LicenseKey{KeyCode: keyCode})
	if err != nil {
		zap.L().Error("failed to look up license key for revocation", zap.Error(err))
		return errutil.Internal("failed to revoke license key", errutil.WithErr(err))
	}
	if key == nil {
		return errutil.NotFound("license key not found")
	}

	if key.Status == StatusRevoked {
		return nil
	}

	now := time.Now()
	if err := s.db.WithContext(ctx).Model(&LicenseKey{}).
		Where("id = ?", key.ID).
		Updates(map[string]interface{}{
			"status":     StatusRevoked,
			"revoked_at": now,
		}).Error; err != nil {
		zap.L().Error("failed to revoke license key", zap.String("key_id", key.ID), zap.Error(err))
		return errutil.Internal("failed to revoke license key", errutil.WithErr(err))
	}

	zap.L().Info("license key revoked",
		zap.String("key_id", key.ID),
		zap.String("key_code", maskKeyCode(key.KeyCode)),
	)

	return nil
}

// Get fetches a single key by its code.
func (s *Service) Get(ctx context.Context, rawKey string) (*LicenseKey, error) {
	keyCode, ok := NormalizeKeyCode(rawKey)
	if !ok {
		return nil, errutil.BadRequest("malformed license key")
	}

	key, err := s.keys.FindOne(ctx, &LicenseKey{KeyCode: keyCode})
	if err != nil {
		return nil, errutil.Internal("failed to fetch license key", errutil.WithErr(err))
	}
	if key == nil {
		return nil, errutil.NotFound("license key not found")
	}
	return key, nil
}

// List returns keys for the admin table, newest first.
func (s *Service) List(ctx context.Context, page pagination.Pagination) ([]*LicenseKey, error) {
	keys, err := s.keys.Find(ctx, &LicenseKey{},
		option.ApplyPagination(page),
		option.WithSortBy(option.QuerySortBy{Field: "created_at", OrderBy: "DESC"}),
	)
	if err != nil {
		return nil, errutil.Internal("failed to list license keys", errutil.WithErr(err))
	}
	return keys, nil
}
