// Package domain contains persistence models for usage metering.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// UsageEvent is a single billable action. Rows are append-only; nothing
// mutates or deletes them within a period.
type UsageEvent struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	TenantID   snowflake.ID      `gorm:"column:tenant_id;not null;index:idx_usage_events_tenant_period,priority:1" json:"tenant_id"`
	EventType  string            `gorm:"column:event_type;type:text;not null" json:"event_type"`
	Period     string            `gorm:"type:text;not null;index:idx_usage_events_tenant_period,priority:2" json:"period"`
	Payload    datatypes.JSON    `gorm:"type:jsonb;not null;default:'{}'" json:"payload"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata"`
	OccurredAt time.Time         `gorm:"column:occurred_at;not null" json:"occurred_at"`
	CreatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (UsageEvent) TableName() string { return "usage_events" }

// PeriodMetrics is the aggregated counter row for one (tenant, period).
// Created lazily on the first event of a period; the tenant's plan limits
// are copied in at that moment and never rewritten, so a plan change
// mid-period cannot alter the limits usage already accrued against.
type PeriodMetrics struct {
	ID       snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID snowflake.ID `gorm:"column:tenant_id;not null;uniqueIndex:idx_period_metrics_tenant_period,priority:1" json:"tenant_id"`
	Period   string       `gorm:"type:text;not null;uniqueIndex:idx_period_metrics_tenant_period,priority:2" json:"period"`

	APICalls          int64 `gorm:"column:api_calls;not null;default:0" json:"api_calls"`
	DataProcessed     int64 `gorm:"column:data_processed;not null;default:0" json:"data_processed"`
	StorageUsed       int64 `gorm:"column:storage_used;not null;default:0" json:"storage_used"`
	UserSessions      int64 `gorm:"column:user_sessions;not null;default:0" json:"user_sessions"`
	DashboardViews    int64 `gorm:"column:dashboard_views;not null;default:0" json:"dashboard_views"`
	ReportGenerations int64 `gorm:"column:report_generations;not null;default:0" json:"report_generations"`
	CustomQueries     int64 `gorm:"column:custom_queries;not null;default:0" json:"custom_queries"`

	PlanID           string `gorm:"column:plan_id;type:text;not null" json:"plan_id"`
	MaxAPICalls      int64  `gorm:"column:max_api_calls;not null" json:"max_api_calls"`
	MaxDataProcessed int64  `gorm:"column:max_data_processed;not null" json:"max_data_processed"`
	MaxStorage       int64  `gorm:"column:max_storage;not null" json:"max_storage"`
	MaxUsers         int64  `gorm:"column:max_users;not null" json:"max_users"`
	MaxDashboards    int64  `gorm:"column:max_dashboards;not null" json:"max_dashboards"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (PeriodMetrics) TableName() string { return "period_metrics" }
