package migration

import (
	"github.com/smallbiznis/tillpoint/internal/config"
	"go.uber.org/zap"

	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
		var err error
		switch cfg.DBType {
		case "postgres":
			sqlDB, dbErr := conn.DB()
			if dbErr != nil {
				return dbErr
			}
			err = RunMigrations(sqlDB)
		default:
			err = Bootstrap(conn)
		}
		if err != nil {
			// An unreachable store at startup must not kill the register:
			// cart operations degrade to the fallback layer, everything
			// else reports service_unavailable until the store returns.
			log.Warn("schema provisioning failed, continuing degraded",
				zap.String("db_type", cfg.DBType),
				zap.Error(err),
			)
		}
		return nil
	}),
)
