package migration

import (
	"github.com/megasio/payadmin/internal/config"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		// Versioned SQL migrations cover postgres. Other dialects are used
		// for local development and tests, which migrate via gorm.
		if cfg.DBType != "postgres" {
			return conn.AutoMigrate(allModels()...)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
