package analytics

import "time"

// Range is the reporting window for period-over-period comparisons.
type Range string

const (
	Range7d  Range = "7d"
	Range30d Range = "30d"
	Range90d Range = "90d"
	Range1y  Range = "1y"
)

// ParseRange falls back to 30d for unrecognized values.
func ParseRange(raw string) Range {
	switch Range(raw) {
	case Range7d, Range30d, Range90d, Range1y:
		return Range(raw)
	default:
		return Range30d
	}
}

func (r Range) Duration() time.Duration {
	switch r {
	case Range7d:
		return 7 * 24 * time.Hour
	case Range90d:
		return 90 * 24 * time.Hour
	case Range1y:
		return 365 * 24 * time.Hour
	default:
		return 30 * 24 * time.Hour
	}
}

type PeriodComparison struct {
	Current   int64   `json:"current"`
	Previous  int64   `json:"previous"`
	GrowthPct float64 `json:"growthPct"`
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type PlatformShare struct {
	Platform  string  `json:"platform"`
	Downloads int64   `json:"downloads"`
	SharePct  float64 `json:"sharePct"`
}

type MonthlyPoint struct {
	Month      string `json:"month"` // YYYY-MM
	Downloads  int64  `json:"downloads"`
	KeysIssued int64  `json:"keysIssued"`
}

type CustomerStat struct {
	Email          string `json:"email"`
	Name           string `json:"name"`
	Keys           int64  `json:"keys"`
	TotalDownloads int64  `json:"totalDownloads"`
}

type EventType string

const (
	EventDownload EventType = "download"
	EventIssued   EventType = "key_issued"
	EventRevoked  EventType = "key_revoked"
)

type Event struct {
	Type     EventType `json:"type"`
	KeyCode  string    `json:"keyCode"`
	Customer string    `json:"customer,omitempty"`
	Platform string    `json:"platform,omitempty"`
	At       time.Time `json:"at"`
}

// Snapshot is the admin dashboard payload, recomputed from the datastore on
// every request.
type Snapshot struct {
	Range          Range            `json:"range"`
	GeneratedAt    time.Time        `json:"generatedAt"`
	TotalDownloads int64            `json:"totalDownloads"`
	TotalKeys      int64            `json:"totalKeys"`
	KeysIssued     PeriodComparison `json:"keysIssued"`
	StatusCounts   []StatusCount    `json:"statusCounts"`
	PlatformShare  []PlatformShare  `json:"platformShare"`
	Monthly        []MonthlyPoint   `json:"monthly"`
	TopCustomers   []CustomerStat   `json:"topCustomers"`
	RecentActivity []Event          `json:"recentActivity"`
}
