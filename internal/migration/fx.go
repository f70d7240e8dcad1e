package migration

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/merchflow/merchflow/internal/config"
	"github.com/merchflow/merchflow/internal/seed"
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
			// SQL migrations target postgres; other dialects are for local
			// development and tests, where AutoMigrate is sufficient.
			if err := conn.AutoMigrate(seed.Models()...); err != nil {
				return err
			}
		}

		if err := seed.EnsureDefaultOfferings(conn); err != nil {
			return err
		}
		if cfg.SeedDemoData {
			return seed.EnsureDemoData(conn)
		}
		return nil
	}),
)
