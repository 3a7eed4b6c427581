package auth

import "time"

type Role string

const (
	RoleTechnician Role = "technician"
	RoleAdmin      Role = "admin"
)

// Technician is a portal account. Admins inherit technician permissions.
type Technician struct {
	ID           string    `gorm:"column:id;primaryKey"`
	Name         string    `gorm:"column:name;not null"`
	Email        string    `gorm:"column:email;uniqueIndex;not null"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	Role         Role      `gorm:"column:role;not null;default:'technician'"`
	Active       bool      `gorm:"column:active;not null;default:true"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Technician) TableName() string { return "technicians" }

// Session is the redis-backed login state referenced by the portal cookie.
type Session struct {
	Token        string    `json:"token"`
	TechnicianID string    `json:"technician_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	IssuedAt     time.Time `json:"issued_at"`
}
