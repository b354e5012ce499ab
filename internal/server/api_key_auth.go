package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	"github.com/insightboard/insightboard/internal/tenantctx"
)

const (
	contextAuthTypeKey = "auth_type"
	contextAPIKeyIDKey = "api_key_id"

	authTypeAPIKey = "api_key"
)

// APIKeyRequired authenticates requests with a bearer API key carrying
// the given scope. Tenant identity is derived solely from the key.
func (s *Server) APIKeyRequired(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		parts := strings.Fields(header)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		key, err := s.apiKeySvc.Verify(c.Request.Context(), parts[1])
		if err != nil {
			AbortWithError(c, err)
			return
		}

		if scope != "" && !hasScope(key.Scopes, scope) {
			AbortWithError(c, ErrForbidden)
			return
		}

		ctx := tenantctx.WithTenantID(c.Request.Context(), int64(key.TenantID))
		c.Set(contextAuthTypeKey, authTypeAPIKey)
		c.Set(contextAPIKeyIDKey, key.ID.String())

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func hasScope(scopes []string, want string) bool {
	for _, s := range scopes {
		if strings.TrimSpace(s) == want {
			return true
		}
	}
	return false
}

// tenantFromRequest returns the tenant the authenticated key resolves to.
func tenantFromRequest(c *gin.Context) (snowflake.ID, bool) {
	return tenantctx.TenantIDFromContext(c.Request.Context())
}
