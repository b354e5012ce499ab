package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, tenant *Tenant) error
	FindByID(ctx context.Context, id snowflake.ID) (*Tenant, error)
	FindBySlug(ctx context.Context, slug string) (*Tenant, error)
	List(ctx context.Context) ([]*Tenant, error)
	UpdatePlan(ctx context.Context, id snowflake.ID, planID string) error
}
