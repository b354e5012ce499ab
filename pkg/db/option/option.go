package option

import (
	"fmt"
	"strings"

	"github.com/insightboard/insightboard/pkg/db/pagination"
	"gorm.io/gorm"
)

// QueryOption mutates a gorm statement before execution.
type QueryOption interface {
	Apply(*gorm.DB) *gorm.DB
}

type queryOptionFunc func(*gorm.DB) *gorm.DB

func (f queryOptionFunc) Apply(db *gorm.DB) *gorm.DB {
	return f(db)
}

type Operator string

const (
	EQ  Operator = "="
	NEQ Operator = "<>"
	GT  Operator = ">"
	GTE Operator = ">="
	LT  Operator = "<"
	LTE Operator = "<="
)

type Condition struct {
	Field    string
	Value    any
	Operator Operator
}

// ApplyOperator adds a single comparison predicate.
func ApplyOperator(cond Condition) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if cond.Field == "" {
			return db
		}
		return db.Where(fmt.Sprintf("%s %s ?", cond.Field, cond.Operator), cond.Value)
	})
}

type QuerySortBy struct {
	SortBy  string
	OrderBy string
	Allow   map[string]bool
}

// WithQuerySortBy builds a sort clause restricted to the allowed columns.
func WithQuerySortBy(sortBy, orderBy string, allow map[string]bool) QuerySortBy {
	return QuerySortBy{SortBy: sortBy, OrderBy: orderBy, Allow: allow}
}

// WithSortBy orders results by the requested column when it is allowed,
// falling back to created_at desc.
func WithSortBy(q QuerySortBy) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		column := strings.TrimSpace(q.SortBy)
		if column == "" || !q.Allow[column] {
			column = "created_at"
		}
		direction := strings.ToLower(strings.TrimSpace(q.OrderBy))
		if direction != "asc" && direction != "desc" {
			direction = "desc"
		}
		return db.Order(fmt.Sprintf("%s %s", column, direction))
	})
}

// ApplyPagination applies a cursor page token and page size. Results are
// expected to be ordered created_at desc, id desc by the caller.
func ApplyPagination(page pagination.Pagination) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		size := page.PageSize
		if size <= 0 {
			size = 10
		}
		if size > 250 {
			size = 250
		}
		if page.PageToken != "" {
			cursor, err := pagination.DecodeCursor(page.PageToken)
			if err != nil {
				_ = db.AddError(err)
				return db
			}
			if cursor.CreatedAt == "" {
				_ = db.AddError(pagination.ErrInvalidPageToken)
				return db
			}
			db = db.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
				cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
		}
		// one extra row so callers can detect another page
		return db.Limit(size + 1)
	})
}
