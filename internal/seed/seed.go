// Package seed bootstraps the default tenant so a fresh deployment can
// record usage immediately.
package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"github.com/insightboard/insightboard/internal/plan"
	tenantdomain "github.com/insightboard/insightboard/internal/tenant/domain"
)

const (
	defaultTenantName = "Main"
	defaultTenantSlug = "main"
)

// EnsureDefaultTenant seeds the bootstrap tenant. When slugOverride is
// empty the tenant is named "main" on the starter plan. Seeding is
// idempotent: an existing tenant with the slug is left untouched.
func EnsureDefaultTenant(db *gorm.DB, slugOverride string) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	name := defaultTenantName
	tenantSlug := defaultTenantSlug
	if s := strings.TrimSpace(slugOverride); s != "" {
		name = s
		tenantSlug = slug.Make(s)
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := ensureTenantTx(ctx, tx, node, name, tenantSlug, plan.Starter)
		return err
	})
}

func ensureTenantTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, name, tenantSlug, planID string) (*tenantdomain.Tenant, error) {
	var existing tenantdomain.Tenant
	err := tx.WithContext(ctx).
		Where("slug = ?", tenantSlug).
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	tenant := tenantdomain.Tenant{
		ID:        node.Generate(),
		Name:      name,
		Slug:      tenantSlug,
		PlanID:    planID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(&tenant).Error; err != nil {
		return nil, err
	}
	return &tenant, nil
}
