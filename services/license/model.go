package license

import (
	"time"

	"gorm.io/datatypes"
)

type Status string

const (
	StatusUnused  Status = "unused"
	StatusActive  Status = "active"
	StatusExpired Status = "expired"
	StatusRevoked Status = "revoked"
)

func (s Status) String() string {
	switch s {
	case StatusUnused, StatusActive, StatusExpired, StatusRevoked:
		return string(s)
	default:
		return ""
	}
}

// ErrorKind classifies why a validation was rejected. It is part of the
// public validation response, never an HTTP failure.
type ErrorKind string

const (
	ErrInvalidFormat ErrorKind = "invalid_format"
	ErrNotFound      ErrorKind = "not_found"
	ErrRevoked       ErrorKind = "revoked"
	ErrExpired       ErrorKind = "expired"
	ErrQuotaExceeded ErrorKind = "quota_exceeded"
	ErrStorage       ErrorKind = "storage_error"
)

// LicenseKey is one download credential sold to a customer. download_count
// never exceeds max_downloads; the revoked status is terminal.
type LicenseKey struct {
	ID              string         `gorm:"column:id;primaryKey"`
	KeyCode         string         `gorm:"column:key_code;uniqueIndex;not null"`
	Status          Status         `gorm:"column:status;not null;default:'unused'"`
	DownloadCount   int            `gorm:"column:download_count;not null;default:0"`
	MaxDownloads    int            `gorm:"column:max_downloads;not null"`
	CustomerName    string         `gorm:"column:customer_name"`
	CustomerEmail   string         `gorm:"column:customer_email;index"`
	CustomerCompany string         `gorm:"column:customer_company"`
	Metadata        datatypes.JSON `gorm:"column:metadata;type:jsonb"`
	CreatedAt       time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	ExpiresAt       *time.Time     `gorm:"column:expires_at"`
	RevokedAt       *time.Time     `gorm:"column:revoked_at"`

	// Relations
	DownloadLogs []DownloadLog `gorm:"foreignKey:LicenseKeyID;constraint:OnDelete:CASCADE"`
}

func (LicenseKey) TableName() string { return "license_keys" }

func (k *LicenseKey) DownloadsRemaining() int {
	remaining := k.MaxDownloads - k.DownloadCount
	if remaining < 0 {
		return 0
	}
	return remaining
}

// DownloadLog is an immutable record of one accounted download. Rows are
// only ever inserted.
type DownloadLog struct {
	ID           string    `gorm:"column:id;primaryKey"`
	LicenseKeyID string    `gorm:"column:license_key_id;index;not null"`
	Platform     string    `gorm:"column:platform;not null"`
	Version      string    `gorm:"column:version"`
	DownloadDate time.Time `gorm:"column:download_date;index;not null"`
	Success      bool      `gorm:"column:success;not null;default:true"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`

	// Relations
	LicenseKey *LicenseKey `gorm:"foreignKey:LicenseKeyID;references:ID"`
}

func (DownloadLog) TableName() string { return "download_logs" }

// ValidationResult is the validator's verdict for one download attempt.
type ValidationResult struct {
	Valid              bool
	DownloadsRemaining int
	Err                ErrorKind
}
