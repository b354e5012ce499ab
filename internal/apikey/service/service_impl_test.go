package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	apikeydomain "github.com/insightboard/insightboard/internal/apikey/domain"
	"github.com/insightboard/insightboard/internal/apikey/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) apikeydomain.Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&apikeydomain.APIKey{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})
}

func TestIssueAndVerify(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	tenantID := snowflake.ID(42)

	secret, err := svc.Issue(ctx, tenantID, apikeydomain.IssueRequest{Name: "ingest"})
	require.NoError(t, err)
	assert.NotEmpty(t, secret.APIKey)

	key, err := svc.Verify(ctx, secret.APIKey)
	require.NoError(t, err)
	assert.Equal(t, tenantID, key.TenantID)
	assert.Contains(t, key.Scopes, apikeydomain.ScopeUsageWrite)

	_, err = svc.Verify(ctx, "ib_live_bogus")
	assert.ErrorIs(t, err, apikeydomain.ErrUnauthorized)
}

func TestIssueValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Issue(ctx, 0, apikeydomain.IssueRequest{Name: "x"})
	assert.ErrorIs(t, err, apikeydomain.ErrInvalidTenant)

	_, err = svc.Issue(ctx, 1, apikeydomain.IssueRequest{Name: "  "})
	assert.ErrorIs(t, err, apikeydomain.ErrInvalidName)
}

func TestRevoke(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	tenantID := snowflake.ID(7)

	secret, err := svc.Issue(ctx, tenantID, apikeydomain.IssueRequest{Name: "ingest"})
	require.NoError(t, err)

	id, err := snowflake.ParseString(secret.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, tenantID, id))

	_, err = svc.Verify(ctx, secret.APIKey)
	assert.ErrorIs(t, err, apikeydomain.ErrUnauthorized)

	err = svc.Revoke(ctx, tenantID, snowflake.ID(999))
	assert.ErrorIs(t, err, apikeydomain.ErrNotFound)
}
