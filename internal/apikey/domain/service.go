package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	ScopeUsageWrite = "usage:write"
	ScopeUsageRead  = "usage:read"
)

type Service interface {
	Issue(ctx context.Context, tenantID snowflake.ID, req IssueRequest) (*SecretResponse, error)
	List(ctx context.Context, tenantID snowflake.ID) ([]Response, error)
	Revoke(ctx context.Context, tenantID snowflake.ID, keyID snowflake.ID) error

	// Verify resolves a raw bearer key to the tenant it belongs to.
	// Revoked or unknown keys fail with ErrUnauthorized.
	Verify(ctx context.Context, rawKey string) (*APIKey, error)
}

type IssueRequest struct {
	Name   string   `json:"name"`
	Scopes []string `json:"scopes"`
}

type Response struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Prefix     string     `json:"prefix"`
	Scopes     []string   `json:"scopes"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at"`
	RevokedAt  *time.Time `json:"revoked_at"`
}

// SecretResponse carries the plaintext key. It is returned exactly once,
// at issue time; only the hash is stored.
type SecretResponse struct {
	ID     string `json:"id"`
	APIKey string `json:"api_key"`
}

var (
	ErrInvalidTenant = errors.New("invalid_tenant")
	ErrInvalidName   = errors.New("invalid_name")
	ErrNotFound      = errors.New("not_found")
	ErrUnauthorized  = errors.New("unauthorized")
)
