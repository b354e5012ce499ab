package domain

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/insightboard/insightboard/pkg/db/pagination"
)

type TrackEventRequest struct {
	TenantID  snowflake.ID    `json:"tenant_id"`
	EventType EventType       `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
	Metadata  map[string]any  `json:"metadata"`
}

type ListEventsRequest struct {
	TenantID  snowflake.ID
	EventType EventType
	Period    string
	PageToken string
	PageSize  int
}

type ListEventsResponse struct {
	pagination.PageInfo
	Events []UsageEvent `json:"events"`
}

// Overages is the per-metric amount above the frozen limit,
// floored at zero. Unlimited (-1) limits never produce one.
type Overages struct {
	APICalls      int64 `json:"api_calls"`
	DataProcessed int64 `json:"data_processed"`
	Storage       int64 `json:"storage"`
}

// Charges is the monetary view of a period snapshot.
type Charges struct {
	BaseCost    float64 `json:"base_cost"`
	OverageCost float64 `json:"overage_cost"`
	TotalCost   float64 `json:"total_cost"`
}

// MetricsResponse is the full usage view for one (tenant, period).
type MetricsResponse struct {
	TenantID string        `json:"tenant_id"`
	Period   string        `json:"period"`
	Metrics  PeriodMetrics `json:"metrics"`
	Overages Overages      `json:"overages"`
	Charges  Charges       `json:"charges"`

	GeneratedAt time.Time `json:"generated_at"`
}

type Service interface {
	// TrackEvent appends the raw event and applies its counter deltas to
	// the current period's metrics row in one transaction.
	TrackEvent(ctx context.Context, req TrackEventRequest) (*UsageEvent, error)

	// GetMetrics returns the usage view for the given period, or the
	// current period when period is empty. Nil result means no usage was
	// ever recorded for that period.
	GetMetrics(ctx context.Context, tenantID snowflake.ID, period string) (*MetricsResponse, error)

	// GetSnapshot returns the bare metrics row without derived charges.
	GetSnapshot(ctx context.Context, tenantID snowflake.ID, period string) (*PeriodMetrics, error)

	// GetHistory returns up to months of period views ending at the
	// current period, most recent first. Periods with no usage are absent.
	GetHistory(ctx context.Context, tenantID snowflake.ID, months int) ([]MetricsResponse, error)

	List(ctx context.Context, req ListEventsRequest) (ListEventsResponse, error)
}

var (
	ErrInvalidTenant    = errors.New("invalid_tenant")
	ErrInvalidEventType = errors.New("invalid_event_type")
	ErrInvalidPayload   = errors.New("invalid_payload")
	ErrInvalidPeriod    = errors.New("invalid_period")
)
