package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/insightboard/insightboard/internal/alert"
	apikeydomain "github.com/insightboard/insightboard/internal/apikey/domain"
	"github.com/insightboard/insightboard/internal/config"
	invoicedomain "github.com/insightboard/insightboard/internal/invoice/domain"
	"github.com/insightboard/insightboard/internal/observability"
	obsmiddleware "github.com/insightboard/insightboard/internal/observability/logger"
	obsmetrics "github.com/insightboard/insightboard/internal/observability/metrics"
	obstracing "github.com/insightboard/insightboard/internal/observability/tracing"
	"github.com/insightboard/insightboard/internal/providers/pdf"
	"github.com/insightboard/insightboard/internal/ratelimit"
	tenantdomain "github.com/insightboard/insightboard/internal/tenant/domain"
	usagedomain "github.com/insightboard/insightboard/internal/usage/domain"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) {
		s.RegisterAPIRoutes()
		s.RegisterAdminRoutes()
	}),
	fx.Invoke(RunHTTP),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func RunHTTP(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	db           *gorm.DB
	tenantSvc    tenantdomain.Service
	apiKeySvc    apikeydomain.Service
	usageSvc     usagedomain.Service
	invoiceSvc   invoicedomain.Service
	alertChecker *alert.Checker
	pdfProvider  pdf.Provider
	obsMetrics   *obsmetrics.Metrics
	usageLimiter *ratelimit.UsageIngestLimiter
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	DB           *gorm.DB
	TenantSvc    tenantdomain.Service
	APIKeySvc    apikeydomain.Service
	UsageSvc     usagedomain.Service
	InvoiceSvc   invoicedomain.Service
	AlertChecker *alert.Checker
	PDFProvider  pdf.Provider
	ObsMetrics   *obsmetrics.Metrics           `optional:"true"`
	UsageLimiter *ratelimit.UsageIngestLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		db:           p.DB,
		tenantSvc:    p.TenantSvc,
		apiKeySvc:    p.APIKeySvc,
		usageSvc:     p.UsageSvc,
		invoiceSvc:   p.InvoiceSvc,
		alertChecker: p.AlertChecker,
		pdfProvider:  p.PDFProvider,
		obsMetrics:   p.ObsMetrics,
		usageLimiter: p.UsageLimiter,
	}
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// RegisterAPIRoutes mounts the key-authenticated tenant surface.
func (s *Server) RegisterAPIRoutes() {
	v1 := s.engine.Group("/v1")

	usage := v1.Group("/usage")
	usage.POST("/events", s.APIKeyRequired(apikeydomain.ScopeUsageWrite), s.UsageIngestRateLimit(), s.TrackUsageEvent)
	usage.GET("/events", s.APIKeyRequired(apikeydomain.ScopeUsageRead), s.ListUsageEvents)
	usage.GET("/metrics", s.APIKeyRequired(apikeydomain.ScopeUsageRead), s.GetUsageMetrics)
	usage.GET("/history", s.APIKeyRequired(apikeydomain.ScopeUsageRead), s.GetUsageHistory)
	usage.GET("/alerts", s.APIKeyRequired(apikeydomain.ScopeUsageRead), s.GetUsageAlerts)

	invoices := v1.Group("/invoices")
	invoices.GET("/:period", s.APIKeyRequired(apikeydomain.ScopeUsageRead), s.GetInvoice)
	invoices.POST("/:period", s.APIKeyRequired(apikeydomain.ScopeUsageRead), s.GenerateInvoice)
	invoices.GET("/:period/pdf", s.APIKeyRequired(apikeydomain.ScopeUsageRead), s.RenderInvoicePDF)

	if s.cfg.Environment != "production" {
		v1.POST("/test/cleanup", s.TestCleanup)
	}
}

// RegisterAdminRoutes mounts the operator surface for tenant and key
// management. Deployments expose it on an internal network only.
func (s *Server) RegisterAdminRoutes() {
	admin := s.engine.Group("/admin")

	admin.POST("/tenants", s.CreateTenant)
	admin.GET("/tenants", s.ListTenants)
	admin.GET("/tenants/:id", s.GetTenantByID)
	admin.PUT("/tenants/:id/plan", s.ChangeTenantPlan)

	admin.POST("/tenants/:id/api-keys", s.CreateAPIKey)
	admin.GET("/tenants/:id/api-keys", s.ListAPIKeys)
	admin.POST("/tenants/:id/api-keys/:key_id/revoke", s.RevokeAPIKey)
}
