// Package domain contains persistence models for the tenant service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Tenant is a billed account. PlanID resolves quota limits and the base
// monthly fee through the plan catalog.
type Tenant struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"type:text;not null" json:"name"`
	Slug      string       `gorm:"type:text;not null;uniqueIndex:idx_tenants_slug" json:"slug"`
	PlanID    string       `gorm:"type:text;not null;default:'starter'" json:"plan_id"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Tenant) TableName() string { return "tenants" }
