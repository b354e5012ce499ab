// Package domain defines the invoice structures. Invoices are derived
// documents: computed from a period metrics snapshot on demand, never
// persisted, and generation never mutates the underlying counters.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	usagedomain "github.com/insightboard/insightboard/internal/usage/domain"
)

const (
	ItemTypeBase    = "base"
	ItemTypeOverage = "overage"
	ItemTypeCustom  = "custom"
)

// LineItem is one charge row on an invoice.
type LineItem struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	// Metric is set for overage items only.
	Metric          string  `json:"metric,omitempty"`
	Quantity        int64   `json:"quantity,omitempty"`
	QuantityDisplay string  `json:"quantity_display,omitempty"`
	UnitPrice       float64 `json:"unit_price,omitempty"`
	Amount          float64 `json:"amount"`
	AmountDisplay   string  `json:"amount_display"`
}

// CustomCharge is a caller-supplied invoice-local charge. It affects the
// invoice total only, never the stored usage snapshot. Quantity and
// UnitPrice are an optional breakdown; Amount stays authoritative.
type CustomCharge struct {
	Description string  `json:"description"`
	Quantity    int64   `json:"quantity,omitempty"`
	UnitPrice   float64 `json:"unit_price,omitempty"`
	Amount      float64 `json:"amount"`
}

// Charges breaks an invoice total into its components.
type Charges struct {
	BaseCost     float64 `json:"base_cost"`
	OverageCost  float64 `json:"overage_cost"`
	CustomCost   float64 `json:"custom_cost"`
	Total        float64 `json:"total"`
	TotalDisplay string  `json:"total_display"`
}

// InvoiceData is the full invoice document for one (tenant, period).
type InvoiceData struct {
	InvoiceNumber string    `json:"invoice_number"`
	TenantID      string    `json:"tenant_id"`
	TenantName    string    `json:"tenant_name"`
	PlanID        string    `json:"plan_id"`
	Period        string    `json:"period"`
	GeneratedAt   time.Time `json:"generated_at"`

	LineItems []LineItem           `json:"line_items"`
	Charges   Charges              `json:"charges"`
	Overages  usagedomain.Overages `json:"overages"`
	Usage     usagedomain.PeriodMetrics `json:"usage"`
}

type Service interface {
	// GenerateInvoiceData builds the invoice for the given period, or the
	// current period when period is empty. A period with no recorded
	// usage fails with ErrNoUsageData; absence is never billed as zero.
	GenerateInvoiceData(ctx context.Context, tenantID snowflake.ID, period string, custom []CustomCharge) (*InvoiceData, error)
}

var (
	ErrNoUsageData   = errors.New("no_usage_data")
	ErrInvalidTenant = errors.New("invalid_tenant")
	ErrInvalidPeriod = errors.New("invalid_period")
	ErrInvalidCharge = errors.New("invalid_charge")
)
