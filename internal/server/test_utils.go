package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type testCleanupRequest struct {
	Prefix string `json:"prefix"`
}

// TestCleanup deletes tenants whose slug matches the prefix, along with
// their keys and usage rows. Only mounted outside production.
func (s *Server) TestCleanup(c *gin.Context) {
	if s.cfg.Environment == "production" {
		AbortWithError(c, ErrNotFound)
		return
	}

	var req testCleanupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	prefix := strings.TrimSpace(req.Prefix)
	if prefix == "" {
		AbortWithError(c, newValidationError("prefix", "required", "prefix is required"))
		return
	}

	ctx := c.Request.Context()
	like := prefix + "%"

	var tenantIDs []int64
	if err := s.db.WithContext(ctx).
		Table("tenants").
		Select("id").
		Where("slug LIKE ?", like).
		Scan(&tenantIDs).Error; err != nil {
		AbortWithError(c, err)
		return
	}

	if len(tenantIDs) > 0 {
		if err := s.db.WithContext(ctx).Exec(
			`DELETE FROM usage_events WHERE tenant_id IN ?`, tenantIDs,
		).Error; err != nil {
			AbortWithError(c, err)
			return
		}
		if err := s.db.WithContext(ctx).Exec(
			`DELETE FROM period_metrics WHERE tenant_id IN ?`, tenantIDs,
		).Error; err != nil {
			AbortWithError(c, err)
			return
		}
		if err := s.db.WithContext(ctx).Exec(
			`DELETE FROM api_keys WHERE tenant_id IN ?`, tenantIDs,
		).Error; err != nil {
			AbortWithError(c, err)
			return
		}
		if err := s.db.WithContext(ctx).Exec(
			`DELETE FROM tenants WHERE id IN ?`, tenantIDs,
		).Error; err != nil {
			AbortWithError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
