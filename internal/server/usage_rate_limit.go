package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/insightboard/insightboard/internal/observability/logger"
	obsmetrics "github.com/insightboard/insightboard/internal/observability/metrics"
)

const (
	rateLimitReasonTenantRate             = "tenant-rate"
	rateLimitReasonEndpointRate           = "endpoint-rate"
	rateLimitReasonTenantEventConcurrency = "tenant-event-concurrency"
)

type usageIngestRateLimitKey struct {
	EventType string `json:"event_type"`
}

func (s *Server) UsageIngestRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.usageLimiter == nil || !s.usageLimiter.Enabled() {
			c.Next()
			return
		}

		tenantID, ok := tenantFromRequest(c)
		if !ok {
			AbortWithError(c, ErrTenantRequired)
			return
		}

		endpoint := normalizeRateLimitEndpoint(c)
		ctx := c.Request.Context()

		allowed, err := s.usageLimiter.AllowTenant(ctx, tenantID.String())
		if err != nil {
			logger.FromContext(ctx).Warn("usage ingest tenant rate limit check failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
		if !allowed {
			denyUsageIngestRateLimit(c, endpoint, tenantID.String(), rateLimitReasonTenantRate, s.obsMetrics)
			return
		}

		allowed, err = s.usageLimiter.AllowEndpoint(ctx, endpoint)
		if err != nil {
			logger.FromContext(ctx).Warn("usage ingest endpoint rate limit check failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
		if !allowed {
			denyUsageIngestRateLimit(c, endpoint, tenantID.String(), rateLimitReasonEndpointRate, s.obsMetrics)
			return
		}

		eventType, err := readUsageIngestKey(c)
		if err != nil {
			logger.FromContext(ctx).Warn("usage ingest rate limit read body failed", zap.Error(err))
			AbortWithError(c, invalidRequestError())
			return
		}

		if eventType != "" {
			lockToken, allowed, err := s.usageLimiter.TryLockTenantEvent(ctx, tenantID.String(), eventType)
			if err != nil {
				logger.FromContext(ctx).Warn("usage ingest concurrency lock failed", zap.Error(err))
				AbortWithError(c, ErrServiceUnavailable)
				return
			}
			if !allowed {
				denyUsageIngestRateLimit(c, endpoint, tenantID.String(), rateLimitReasonTenantEventConcurrency, s.obsMetrics)
				return
			}
			defer func() {
				if err := s.usageLimiter.ReleaseTenantEvent(ctx, tenantID.String(), eventType, lockToken); err != nil {
					logger.FromContext(ctx).Warn("usage ingest concurrency unlock failed", zap.Error(err))
				}
			}()
		}

		recordRateLimitAllowed(ctx, endpoint, tenantID.String(), s.obsMetrics)
		c.Next()
	}
}

func denyUsageIngestRateLimit(c *gin.Context, endpoint, tenantID, reason string, metrics *obsmetrics.Metrics) {
	ctx := c.Request.Context()
	log := logger.FromContext(ctx)
	log.Warn("usage ingest rate limit exceeded",
		zap.String("reason", reason),
		zap.String("endpoint", endpoint),
	)
	recordRateLimitDenied(ctx, endpoint, tenantID, reason, metrics)

	c.Header("Retry-After", "1")
	c.Header("X-Rate-Limited-Reason", reason)
	AbortWithError(c, ErrRateLimited)
}

func recordRateLimitAllowed(ctx context.Context, endpoint, tenantID string, metrics *obsmetrics.Metrics) {
	if metrics == nil {
		return
	}
	metrics.RecordRateLimitAllowed(ctx, tenantID, endpoint)
}

func recordRateLimitDenied(ctx context.Context, endpoint, tenantID, reason string, metrics *obsmetrics.Metrics) {
	if metrics == nil {
		return
	}
	metrics.RecordRateLimitDenied(ctx, tenantID, endpoint, reason)
}

func readUsageIngestKey(c *gin.Context) (string, error) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return "", err
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
	if len(body) == 0 {
		return "", nil
	}

	var payload usageIngestRateLimitKey
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", nil
	}

	return strings.TrimSpace(payload.EventType), nil
}

func normalizeRateLimitEndpoint(c *gin.Context) string {
	if c == nil {
		return "unknown"
	}
	endpoint := strings.TrimSpace(c.FullPath())
	if endpoint == "" {
		endpoint = strings.TrimSpace(c.Request.URL.Path)
	}
	if endpoint == "" {
		endpoint = "unknown"
	}
	return endpoint
}
