package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	apikeydomain "github.com/insightboard/insightboard/internal/apikey/domain"
	tenantdomain "github.com/insightboard/insightboard/internal/tenant/domain"
)

func (s *Server) CreateTenant(c *gin.Context) {
	var req tenantdomain.CreateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	tenant, err := s.tenantSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, tenant)
}

func (s *Server) ListTenants(c *gin.Context) {
	tenants, err := s.tenantSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tenants": tenants})
}

func (s *Server) GetTenantByID(c *gin.Context) {
	id, err := parseTenantID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	tenant, err := s.tenantSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, tenant)
}

// ChangeTenantPlan switches the plan used for future billing periods.
// Periods that already have usage keep the limits they started with.
func (s *Server) ChangeTenantPlan(c *gin.Context) {
	id, err := parseTenantID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req tenantdomain.ChangePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	tenant, err := s.tenantSvc.ChangePlan(c.Request.Context(), id, req.PlanID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, tenant)
}

func (s *Server) CreateAPIKey(c *gin.Context) {
	id, err := parseTenantID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req apikeydomain.IssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	secret, err := s.apiKeySvc.Issue(c.Request.Context(), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, secret)
}

func (s *Server) ListAPIKeys(c *gin.Context) {
	id, err := parseTenantID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	keys, err := s.apiKeySvc.List(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"api_keys": keys})
}

func (s *Server) RevokeAPIKey(c *gin.Context) {
	id, err := parseTenantID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	keyID, err := snowflake.ParseString(strings.TrimSpace(c.Param("key_id")))
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.apiKeySvc.Revoke(c.Request.Context(), id, keyID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "revoked"})
}

func parseTenantID(c *gin.Context) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		return 0, invalidRequestError()
	}
	return id, nil
}
