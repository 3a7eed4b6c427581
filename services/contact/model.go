package contact

import (
	"time"

	"gorm.io/datatypes"
)

type MessageStatus string

const (
	StatusNew      MessageStatus = "new"
	StatusNotified MessageStatus = "notified"
)

// Message is a contact-form submission. Delivery to the notification
// channel happens out of band via the worker.
type Message struct {
	ID        string         `gorm:"column:id;primaryKey"`
	Name      string         `gorm:"column:name;not null"`
	Email     string         `gorm:"column:email;not null"`
	Subject   string         `gorm:"column:subject"`
	Body      string         `gorm:"column:body;type:text;not null"`
	Metadata  datatypes.JSON `gorm:"column:metadata"`
	Status    MessageStatus  `gorm:"column:status;not null;default:'new'"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (Message) TableName() string { return "contact_messages" }
