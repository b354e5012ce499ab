package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/insightboard/insightboard/internal/clock"
	"github.com/insightboard/insightboard/internal/plan"
	"github.com/insightboard/insightboard/internal/tenant/domain"
	"github.com/insightboard/insightboard/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type service struct {
	db    *gorm.DB
	repo  domain.Repository
	genID *snowflake.Node
	clock clock.Clock
	log   *zap.Logger
}

func NewService(gdb *gorm.DB, repo domain.Repository, genID *snowflake.Node, clk clock.Clock, log *zap.Logger) domain.Service {
	return &service{
		db:    gdb,
		repo:  repo,
		genID: genID,
		clock: clk,
		log:   log,
	}
}

func (s *service) Create(ctx context.Context, req domain.CreateTenantRequest) (*domain.TenantResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	planID := plan.Normalize(req.PlanID)
	if planID == "" {
		planID = plan.Starter
	}
	if !plan.Valid(planID) {
		return nil, domain.ErrInvalidPlan
	}

	now := s.clock.Now().UTC()
	tenant := &domain.Tenant{
		ID:        s.genID.Generate(),
		Name:      name,
		Slug:      slug.Make(name),
		PlanID:    planID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, tenant); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrTenantExists
		}
		return nil, err
	}

	s.log.Info("tenant created",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("slug", tenant.Slug),
		zap.String("plan_id", tenant.PlanID),
	)

	return toResponse(tenant), nil
}

func (s *service) GetByID(ctx context.Context, id snowflake.ID) (*domain.TenantResponse, error) {
	tenant, err := s.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	return toResponse(tenant), nil
}

func (s *service) GetBySlug(ctx context.Context, raw string) (*domain.TenantResponse, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, domain.ErrInvalidTenant
	}

	tenant, err := s.repo.FindBySlug(ctx, value)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, domain.ErrInvalidTenant
	}
	return toResponse(tenant), nil
}

func (s *service) List(ctx context.Context) ([]domain.TenantResponse, error) {
	tenants, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.TenantResponse, 0, len(tenants))
	for _, tenant := range tenants {
		out = append(out, *toResponse(tenant))
	}
	return out, nil
}

// ChangePlan swaps the tenant's plan. In-flight periods keep the limit
// snapshot taken when their first event arrived, so the new plan only
// applies to periods opened after the change.
func (s *service) ChangePlan(ctx context.Context, id snowflake.ID, rawPlan string) (*domain.TenantResponse, error) {
	planID := plan.Normalize(rawPlan)
	if !plan.Valid(planID) {
		return nil, domain.ErrInvalidPlan
	}

	tenant, err := s.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	if tenant.PlanID != planID {
		if err := s.repo.UpdatePlan(ctx, id, planID); err != nil {
			return nil, err
		}
		s.log.Info("tenant plan changed",
			zap.String("tenant_id", id.String()),
			zap.String("from", tenant.PlanID),
			zap.String("to", planID),
		)
		tenant.PlanID = planID
	}

	return toResponse(tenant), nil
}

func (s *service) Resolve(ctx context.Context, id snowflake.ID) (*domain.Tenant, error) {
	if id == 0 {
		return nil, domain.ErrInvalidTenant
	}

	tenant, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, domain.ErrInvalidTenant
	}
	return tenant, nil
}

func toResponse(tenant *domain.Tenant) *domain.TenantResponse {
	return &domain.TenantResponse{
		ID:     tenant.ID.String(),
		Name:   tenant.Name,
		Slug:   tenant.Slug,
		PlanID: tenant.PlanID,
	}
}
