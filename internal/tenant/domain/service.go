package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Create(ctx context.Context, req CreateTenantRequest) (*TenantResponse, error)
	GetByID(ctx context.Context, id snowflake.ID) (*TenantResponse, error)
	GetBySlug(ctx context.Context, slug string) (*TenantResponse, error)
	List(ctx context.Context) ([]TenantResponse, error)
	ChangePlan(ctx context.Context, id snowflake.ID, planID string) (*TenantResponse, error)

	// Resolve returns the stored tenant record, used by auth and usage
	// aggregation to map a tenant onto its current plan.
	Resolve(ctx context.Context, id snowflake.ID) (*Tenant, error)
}

type CreateTenantRequest struct {
	Name   string `json:"name"`
	PlanID string `json:"plan_id"`
}

type ChangePlanRequest struct {
	PlanID string `json:"plan_id"`
}

type TenantResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	PlanID string `json:"plan_id"`
}

var (
	ErrInvalidName   = errors.New("invalid_name")
	ErrInvalidPlan   = errors.New("invalid_plan")
	ErrInvalidTenant = errors.New("invalid_tenant")
	ErrTenantExists  = errors.New("tenant_exists")
)
