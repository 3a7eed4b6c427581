package option

import (
	"fmt"

	"gorm.io/gorm"

	"scosmb-portal/pkg/db/pagination"
)

// QueryOption mutates a gorm query before execution.
type QueryOption func(*gorm.DB) *gorm.DB

type QuerySortBy struct {
	Field   string
	OrderBy string // ASC or DESC
}

func ApplyPagination(p pagination.Pagination) QueryOption {
	return func(db *gorm.DB) *gorm.DB {
		n := p.Normalize()
		return db.Offset(p.Offset()).Limit(n.Limit)
	}
}

func WithSortBy(s QuerySortBy) QueryOption {
	return func(db *gorm.DB) *gorm.DB {
		field := s.Field
		if field == "" {
			field = "created_at"
		}
		order := s.OrderBy
		if order != "ASC" && order != "DESC" {
			order = "ASC"
		}
		return db.Order(fmt.Sprintf("%s %s", field, order))
	}
}
