package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/lib/pq"
)

// APIKey stores hashed ingest credentials scoped to a tenant.
type APIKey struct {
	ID         snowflake.ID   `gorm:"primaryKey"`
	TenantID   snowflake.ID   `gorm:"column:tenant_id;not null;index"`
	Name       string         `gorm:"type:text;not null"`
	Prefix     string         `gorm:"type:text;not null"`
	KeyHash    string         `gorm:"column:key_hash;type:text;not null;uniqueIndex:idx_api_keys_key_hash"`
	Scopes     pq.StringArray `gorm:"type:text[];not null"`
	LastUsedAt *time.Time     `gorm:"column:last_used_at"`
	RevokedAt  *time.Time     `gorm:"column:revoked_at"`
	CreatedAt  time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (APIKey) TableName() string { return "api_keys" }

// Revoked reports whether the key has been revoked as of now.
func (k APIKey) Revoked(now time.Time) bool {
	return k.RevokedAt != nil && !k.RevokedAt.After(now)
}
