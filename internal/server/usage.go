package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	usagedomain "github.com/insightboard/insightboard/internal/usage/domain"
)

const (
	defaultHistoryMonths = 6
	maxHistoryMonths     = 24
)

func (s *Server) TrackUsageEvent(c *gin.Context) {
	tenantID, ok := tenantFromRequest(c)
	if !ok {
		AbortWithError(c, ErrTenantRequired)
		return
	}

	var req usagedomain.TrackEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.TenantID = tenantID

	if eventType := strings.TrimSpace(string(req.EventType)); eventType != "" {
		c.Set("event_type", eventType)
	}

	event, err := s.usageSvc.TrackEvent(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, event)
}

func (s *Server) ListUsageEvents(c *gin.Context) {
	tenantID, ok := tenantFromRequest(c)
	if !ok {
		AbortWithError(c, ErrTenantRequired)
		return
	}

	pageSize := 0
	if raw := strings.TrimSpace(c.Query("page_size")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			AbortWithError(c, invalidRequestError())
			return
		}
		pageSize = parsed
	}

	resp, err := s.usageSvc.List(c.Request.Context(), usagedomain.ListEventsRequest{
		TenantID:  tenantID,
		EventType: usagedomain.EventType(strings.TrimSpace(c.Query("event_type"))),
		Period:    strings.TrimSpace(c.Query("period")),
		PageToken: strings.TrimSpace(c.Query("page_token")),
		PageSize:  pageSize,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetUsageMetrics(c *gin.Context) {
	tenantID, ok := tenantFromRequest(c)
	if !ok {
		AbortWithError(c, ErrTenantRequired)
		return
	}

	metrics, err := s.usageSvc.GetMetrics(c.Request.Context(), tenantID, strings.TrimSpace(c.Query("period")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if metrics == nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	c.JSON(http.StatusOK, metrics)
}

func (s *Server) GetUsageHistory(c *gin.Context) {
	tenantID, ok := tenantFromRequest(c)
	if !ok {
		AbortWithError(c, ErrTenantRequired)
		return
	}

	months := defaultHistoryMonths
	if raw := strings.TrimSpace(c.Query("months")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			AbortWithError(c, invalidRequestError())
			return
		}
		months = parsed
	}
	if months > maxHistoryMonths {
		months = maxHistoryMonths
	}

	history, err := s.usageSvc.GetHistory(c.Request.Context(), tenantID, months)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": history})
}

func (s *Server) GetUsageAlerts(c *gin.Context) {
	tenantID, ok := tenantFromRequest(c)
	if !ok {
		AbortWithError(c, ErrTenantRequired)
		return
	}

	snapshot, err := s.usageSvc.GetSnapshot(c.Request.Context(), tenantID, strings.TrimSpace(c.Query("period")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	alerts := s.alertChecker.Check(snapshot)
	if s.obsMetrics != nil {
		s.obsMetrics.RecordAlertsEmitted(c.Request.Context(), len(alerts))
	}

	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}
