package migration

import (
	"github.com/domaehub/settle/internal/config"
	"github.com/domaehub/settle/internal/seed"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
		if cfg.DBType == "sqlite" {
			// Local single-file databases skip versioned migrations.
			if err := seed.AutoMigrate(conn); err != nil {
				return err
			}
		} else {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB, cfg.DBType); err != nil {
				return err
			}
		}

		if err := seed.EnsureCalendar(conn); err != nil {
			return err
		}
		if cfg.SeedDemoData && !cfg.IsProduction() {
			if err := seed.EnsureDemoData(conn); err != nil {
				return err
			}
			log.Info("demo data ensured")
		}
		return nil
	}),
)
