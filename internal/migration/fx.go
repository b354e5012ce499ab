package migration

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	apikeydomain "github.com/insightboard/insightboard/internal/apikey/domain"
	"github.com/insightboard/insightboard/internal/config"
	"github.com/insightboard/insightboard/internal/seed"
	tenantdomain "github.com/insightboard/insightboard/internal/tenant/domain"
	usagedomain "github.com/insightboard/insightboard/internal/usage/domain"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// mysql and sqlite deployments are single-node dev setups;
			// gorm's migrator is enough there.
			if err := conn.AutoMigrate(
				&tenantdomain.Tenant{},
				&apikeydomain.APIKey{},
				&usagedomain.UsageEvent{},
				&usagedomain.PeriodMetrics{},
			); err != nil {
				return err
			}
		}

		return seed.EnsureDefaultTenant(conn, cfg.DefaultTenantSlug)
	}),
)
