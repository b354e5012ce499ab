package cloudmetrics

import (
	"context"
	"runtime"
	"time"

	"github.com/insightboard/insightboard/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("cloud.metrics",
	fx.Provide(func() *prometheus.Registry {
		return prometheus.NewRegistry()
	}),
	fx.Provide(NewPusher),
	fx.Provide(func(cfg config.Config, registry *prometheus.Registry, pusher Pusher, logger *zap.Logger) *CloudMetrics {
		if !cfg.IsCloud() || !cfg.Cloud.Metrics.Enabled || pusher == nil {
			return nil
		}
		return New(registry, pusher, logger)
	}),
	fx.Invoke(runPushLoop),
)

func runPushLoop(lc fx.Lifecycle, cfg config.Config, c *CloudMetrics, logger *zap.Logger, db *gorm.DB) {
	if c == nil {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	interval := time.Duration(cfg.Cloud.Metrics.PushInterval) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			logger.Info("starting cloud metrics background worker",
				zap.Duration("interval", interval))
			go func() {
				ticker := time.NewTicker(interval)
				defer ticker.Stop()

				// Initial push
				collect(ctx, c, db)
				if err := c.Push(ctx); err != nil {
					logger.Error("initial cloud metrics push failed", zap.Error(err))
				}

				for {
					select {
					case <-ticker.C:
						collect(ctx, c, db)
						if err := c.Push(ctx); err != nil {
							logger.Error("periodic cloud metrics push failed", zap.Error(err))
						}
					case <-ctx.Done():
						logger.Info("stopping cloud metrics background worker")
						return
					}
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}

func collect(ctx context.Context, c *CloudMetrics, db *gorm.DB) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	c.SetMemoryUsage(m.Sys)

	if db == nil {
		return
	}
	var count int64
	if err := db.WithContext(ctx).Table("tenants").Count(&count).Error; err != nil {
		return
	}
	c.SetTenantsTotal(count)
}
