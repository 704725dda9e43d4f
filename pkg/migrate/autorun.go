package migrate

import (
	"context"
	"fmt"

	"github.com/domeo/domeo-backend/pkg/config"
	"github.com/domeo/domeo-backend/pkg/db"
	"github.com/domeo/domeo-backend/pkg/db/models"
	"github.com/domeo/domeo-backend/pkg/logger"
)

// Models lists every table the service owns, in dependency order.
func Models() []any {
	return []any{
		&models.Handle{},
		&models.Quote{},
		&models.Invoice{},
		&models.Order{},
		&models.SupplierOrder{},
		&models.StatusHistory{},
	}
}

// AutoMigrateModels builds the schema from the gorm models. Used for SQLite,
// which the goose files do not target.
func AutoMigrateModels(ctx context.Context, client *db.Client) error {
	if err := client.DB().WithContext(ctx).AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("automigrate models: %w", err)
	}
	return nil
}

// MaybeRunDev brings the schema up to date at startup, only in dev with the
// auto-migrate flag on.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	ctx = logg.WithField(ctx, "env", cfg.App.Env)

	if cfg.FeatureFlags.UseSQLite {
		logg.Info(ctx, "sqlite schema from models")
		return AutoMigrateModels(ctx, client)
	}

	conn, err := OpenPostgres(ctx, cfg.DB.DSN)
	if err != nil {
		return err
	}
	defer conn.Close()
	provider, err := NewProvider(conn, nil)
	if err != nil {
		return err
	}
	if err := Run(ctx, logg, provider, "up"); err != nil {
		return err
	}
	logg.Info(ctx, "embedded migrations applied")
	return nil
}
