package release

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"scosmb-portal/pkg/config"
	"scosmb-portal/pkg/errutil"
)

const cacheKey = "release:latest"

type Service struct {
	github *GitHubClient
	cache  *redis.Client
	minio  *minio.Client
	cfg    *config.Config
}

type ServiceParams struct {
	fx.In
	GitHub *GitHubClient
	Cache  *redis.Client
	Minio  *minio.Client `optional:"true"`
	Config *config.Config
}

func NewService(p ServiceParams) *Service {
	return &Service{
		github: p.GitHub,
		cache:  p.Cache,
		minio:  p.Minio,
		cfg:    p.Config,
	}
}

// Latest returns the current release, served from the redis cache when
// fresh. A GitHub outage with a warm cache is invisible to callers.
func (s *Service) Latest(ctx context.Context) (*Release, error) {
	if rel := s.fromCache(ctx); rel != nil {
		return rel, nil
	}

	rel, err := s.github.LatestRelease(ctx)
	if err != nil {
		zap.L().Error("failed to fetch release from github", zap.Error(err))
		return nil, errutil.BadGateway("release metadata unavailable", errutil.WithErr(err))
	}

	s.rewriteSelfHosted(ctx, rel)
	s.store(ctx, rel)

	return rel, nil
}

// LatestFor narrows Latest to a single platform.
func (s *Service) LatestFor(ctx context.Context, platform Platform) (*Release, *Asset, error) {
	rel, err := s.Latest(ctx)
	if err != nil {
		return nil, nil, err
	}

	asset, ok := rel.AssetFor(platform)
	if !ok {
		return nil, nil, errutil.NotFound(fmt.Sprintf("no %s build in the latest release", platform))
	}
	return rel, asset, nil
}

func (s *Service) fromCache(ctx context.Context) *Release {
	raw, err := s.cache.Get(ctx, cacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			zap.L().Warn("release cache read failed", zap.Error(err))
		}
		return nil
	}

	var rel Release
	if err := json.Unmarshal(raw, &rel); err != nil {
		zap.L().Warn("release cache entry corrupt, refetching", zap.Error(err))
		return nil
	}
	return &rel
}

func (s *Service) store(ctx context.Context, rel *Release) {
	raw, err := json.Marshal(rel)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey, raw, s.cfg.GitHub.CacheTTL).Err(); err != nil {
		zap.L().Warn("release cache write failed", zap.Error(err))
	}
}

// rewriteSelfHosted swaps GitHub asset URLs for presigned MinIO URLs when
// a matching object exists in the release bucket. Installers mirrored
// there download faster for on-prem customers.
func (s *Service) rewriteSelfHosted(ctx context.Context, rel *Release) {
	if s.minio == nil {
		return
	}

	bucket := s.cfg.Minio.BucketName
	for i := range rel.Assets {
		object := fmt.Sprintf("%s/%s", rel.Version, rel.Assets[i].Name)
		if _, err := s.minio.StatObject(ctx, bucket, object, minio.StatObjectOptions{}); err != nil {
			continue
		}

		presigned, err := s.minio.PresignedGetObject(ctx, bucket, object, s.cfg.Minio.URLExpiry, url.Values{})
		if err != nil {
			zap.L().Warn("failed to presign release asset",
				zap.String("object", object),
				zap.Error(err),
			)
			continue
		}
		rel.Assets[i].DownloadURL = presigned.String()
	}
}

// Invalidate drops the cached release so the next read refetches.
func (s *Service) Invalidate(ctx context.Context) error {
	if err := s.cache.Del(ctx, cacheKey).Err(); err != nil {
		return errutil.Internal("failed to invalidate release cache", errutil.WithErr(err))
	}
	return nil
}
