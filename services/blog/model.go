package blog

import (
	"time"

	"github.com/lib/pq"
)

// Post is a knowledge-base article written by technicians.
type Post struct {
	ID        string         `gorm:"column:id;primaryKey"`
	Title     string         `gorm:"column:title;not null"`
	Slug      string         `gorm:"column:slug;uniqueIndex;not null"`
	Content   string         `gorm:"column:content;type:text"`
	Category  string         `gorm:"column:category;index"`
	Tags      pq.StringArray `gorm:"column:tags;type:text[]"`
	AuthorID  string         `gorm:"column:author_id;index;not null"`
	Views     int64          `gorm:"column:views;not null;default:0"`
	Likes     int64          `gorm:"column:likes;not null;default:0"`
	Published bool           `gorm:"column:published;not null;default:false"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (Post) TableName() string { return "blog_posts" }
