package analytics

import (
	"context"
	"sort"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"scosmb-portal/pkg/errutil"
	"scosmb-portal/services/license"
)

const (
	monthlyWindow    = 6
	topCustomerLimit = 5
	recentEvents     = 8
)

type Service struct {
	db *gorm.DB
}

type ServiceParams struct {
	fx.In
	DB *gorm.DB
}

func NewService(p ServiceParams) *Service {
	return &Service{db: p.DB}
}

// Summarize recomputes the dashboard snapshot from the current datastore
// content. Read-only; an empty datastore yields zero counts and empty
// slices, never an error.
func (s *Service) Summarize(ctx context.Context, r Range) (*Snapshot, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	now := time.Now()
	snap := &Snapshot{
		Range:          r,
		GeneratedAt:    now,
		StatusCounts:   make([]StatusCount, 0),
		PlatformShare:  make([]PlatformShare, 0),
		Monthly:        make([]MonthlyPoint, 0, monthlyWindow),
		TopCustomers:   make([]CustomerStat, 0),
		RecentActivity: make([]Event, 0),
	}

	if err := s.db.WithContext(ctx).Model(&license.LicenseKey{}).
		Select("COALESCE(SUM(download_count), 0)").
		Scan(&snap.TotalDownloads).Error; err != nil {
		return nil, s.storageErr("total downloads", err)
	}

	if err := s.db.WithContext(ctx).Model(&license.LicenseKey{}).
		Count(&snap.TotalKeys).Error; err != nil {
		return nil, s.storageErr("total keys", err)
	}

	issued, err := s.keysIssuedComparison(ctx, now, r.Duration())
	if err != nil {
		return nil, err
	}
	snap.KeysIssued = issued

	if err := s.db.WithContext(ctx).Model(&license.LicenseKey{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&snap.StatusCounts).Error; err != nil {
		return nil, s.storageErr("status counts", err)
	}

	share, err := s.platformShare(ctx)
	if err != nil {
		return nil, err
	}
	snap.PlatformShare = share

	monthly, err := s.monthlySeries(ctx, now)
	if err != nil {
		return nil, err
	}
	snap.Monthly = monthly

	top, err := s.topCustomers(ctx)
	if err != nil {
		return nil, err
	}
	snap.TopCustomers = top

	recent, err := s.recentActivity(ctx)
	if err != nil {
		return nil, err
	}
	snap.RecentActivity = recent

	return snap, nil
}

func (s *Service) storageErr(what string, err error) error {
	zap.L().Error("analytics query failed", zap.String("query", what), zap.Error(err))
	return errutil.Internal("failed to compute analytics", errutil.WithErr(err))
}

// keysIssuedComparison counts keys created in the current window against
// the window before it. A zero previous count yields zero growth, not an
// error.
func (s *Service) keysIssuedComparison(ctx context.Context, now time.Time, window time.Duration) (PeriodComparison, error) {
	var cmp PeriodComparison

	currentStart := now.Add(-window)
	previousStart := now.Add(-2 * window)

	if err := s.db.WithContext(ctx).Model(&license.LicenseKey{}).
		Where("created_at >= ?", currentStart).
		Count(&cmp.Current).Error; err != nil {
		return cmp, s.storageErr("keys issued current period", err)
	}

	if err := s.db.WithContext(ctx).Model(&license.LicenseKey{}).
		Where("created_at >= ? AND created_at < ?", previousStart, currentStart).
		Count(&cmp.Previous).Error; err != nil {
		return cmp, s.storageErr("keys issued previous period", err)
	}

	if cmp.Previous > 0 {
		cmp.GrowthPct = float64(cmp.Current-cmp.Previous) / float64(cmp.Previous) * 100
	}

	return cmp, nil
}

func (s *Service) platformShare(ctx context.Context) ([]PlatformShare, error) {
	shares := make([]PlatformShare, 0)

	if err := s.db.WithContext(ctx).Model(&license.DownloadLog{}).
		Select("platform, COUNT(*) AS downloads").
		Group("platform").
		Order("downloads DESC").
		Scan(&shares).Error; err != nil {
		return nil, s.storageErr("platform share", err)
	}

	var total int64
	for _, sh := range shares {
		total += sh.Downloads
	}
	if total == 0 {
		return shares, nil
	}

	for i := range shares {
		shares[i].SharePct = float64(shares[i].Downloads) / float64(total) * 100
	}
	return shares, nil
}

// monthlySeries walks the trailing months in Go instead of relying on
// dialect-specific date truncation, so sqlite and postgres agree.
func (s *Service) monthlySeries(ctx context.Context, now time.Time) ([]MonthlyPoint, error) {
	points := make([]MonthlyPoint, 0, monthlyWindow)

	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	for i := monthlyWindow - 1; i >= 0; i-- {
		start := firstOfMonth.AddDate(0, -i, 0)
		end := start.AddDate(0, 1, 0)

		point := MonthlyPoint{Month: start.Format("2006-01")}

		if err := s.db.WithContext(ctx).Model(&license.DownloadLog{}).
			Where("download_date >= ? AND download_date < ?", start, end).
			Count(&point.Downloads).Error; err != nil {
			return nil, s.storageErr("monthly downloads", err)
		}

		if err := s.db.WithContext(ctx).Model(&license.LicenseKey{}).
			Where("created_at >= ? AND created_at < ?", start, end).
			Count(&point.KeysIssued).Error; err != nil {
			return nil, s.storageErr("monthly keys issued", err)
		}

		points = append(points, point)
	}

	return points, nil
}

func (s *Service) topCustomers(ctx context.Context) ([]CustomerStat, error) {
	stats := make([]CustomerStat, 0)

	// Ties resolve to the customer seen first.
	if err := s.db.WithContext(ctx).Model(&license.LicenseKey{}).
		Select("customer_email AS email, MAX(customer_name) AS name, COUNT(*) AS keys, COALESCE(SUM(download_count), 0) AS total_downloads").
		Where("customer_email <> ''").
		Group("customer_email").
		Order("total_downloads DESC, MIN(created_at) ASC").
		Limit(topCustomerLimit).
		Scan(&stats).Error; err != nil {
		return nil, s.storageErr("top customers", err)
	}

	return stats, nil
}

// recentActivity interleaves downloads, issuances and revocations into one
// time-sorted feed.
func (s *Service) recentActivity(ctx context.Context) ([]Event, error) {
	events := make([]Event, 0, 3*recentEvents)

	var logs []license.DownloadLog
	if err := s.db.WithContext(ctx).Model(&license.DownloadLog{}).
		Preload("LicenseKey").
		Order("download_date DESC").
		Limit(recentEvents).
		Find(&logs).Error; err != nil {
		return nil, s.storageErr("recent downloads", err)
	}
	for _, l := range logs {
		ev := Event{Type: EventDownload, Platform: l.Platform, At: l.DownloadDate}
		if l.LicenseKey != nil {
			ev.KeyCode = l.LicenseKey.KeyCode
			ev.Customer = l.LicenseKey.CustomerName
		}
		events = append(events, ev)
	}

	var issued []license.LicenseKey
	if err := s.db.WithContext(ctx).Model(&license.LicenseKey{}).
		Order("created_at DESC").
		Limit(recentEvents).
		Find(&issued).Error; err != nil {
		return nil, s.storageErr("recent issuances", err)
	}
	for _, k := range issued {
		events = append(events, Event{
			Type:     EventIssued,
			KeyCode:  k.KeyCode,
			Customer: k.CustomerName,
			At:       k.CreatedAt,
		})
	}

	var revoked []license.LicenseKey
	if err := s.db.WithContext(ctx).Model(&license.LicenseKey{}).
		Where("revoked_at IS NOT NULL").
		Order("revoked_at DESC").
		Limit(recentEvents).
		Find(&revoked).Error; err != nil {
		return nil, s.storageErr("recent revocations", err)
	}
	for _, k := range revoked {
		events = append(events, Event{
			Type:     EventRevoked,
			KeyCode:  k.KeyCode,
			Customer: k.CustomerName,
			At:       *k.RevokedAt,
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].At.After(events[j].At)
	})

	if len(events) > recentEvents {
		events = events[:recentEvents]
	}
	return events, nil
}
