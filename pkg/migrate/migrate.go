package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"

	pkgerrors "github.com/domeo/domeo-backend/pkg/errors"
	"github.com/domeo/domeo-backend/pkg/logger"
)

// DefaultDir is where new migration files are written by Create.
const DefaultDir = "pkg/migrate/migrations"

//go:embed migrations/*.sql
var embedded embed.FS

// Migrations returns the SQL files compiled into the binary. They target
// Postgres; SQLite databases are built from the gorm models instead.
func Migrations() fs.FS {
	sub, err := fs.Sub(embedded, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// NewProvider builds a goose provider over fsys, or over the embedded
// migrations when fsys is nil.
func NewProvider(db *sql.DB, fsys fs.FS) (*goose.Provider, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	if fsys == nil {
		fsys = Migrations()
	}
	provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	return provider, nil
}

// Run executes up, down or status and logs each migration touched.
func Run(ctx context.Context, logg *logger.Logger, provider *goose.Provider, command string) error {
	switch command {
	case "up":
		results, err := provider.Up(ctx)
		logResults(ctx, logg, results)
		if err != nil {
			return fmt.Errorf("goose up: %w", err)
		}
	case "down":
		result, err := provider.Down(ctx)
		if result != nil {
			logResults(ctx, logg, []*goose.MigrationResult{result})
		}
		if err != nil {
			return fmt.Errorf("goose down: %w", err)
		}
	case "status":
		statuses, err := provider.Status(ctx)
		if err != nil {
			return fmt.Errorf("goose status: %w", err)
		}
		for _, st := range statuses {
			fields := map[string]any{
				"version": st.Source.Version,
				"file":    st.Source.Path,
				"state":   string(st.State),
			}
			if !st.AppliedAt.IsZero() {
				fields["applied_at"] = st.AppliedAt
			}
			logg.Info(logg.WithFields(ctx, fields), "migration status")
		}
	default:
		return fmt.Errorf("unknown migration command %q", command)
	}
	return nil
}

// MigrateToVersion moves the schema up or down to target.
func MigrateToVersion(ctx context.Context, logg *logger.Logger, provider *goose.Provider, target int64) error {
	current, err := provider.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}

	var results []*goose.MigrationResult
	switch {
	case current == target:
		logg.Info(logg.WithField(ctx, "version", current), "schema already at target version")
		return nil
	case current < target:
		results, err = provider.UpTo(ctx, target)
	default:
		results, err = provider.DownTo(ctx, target)
	}
	logResults(ctx, logg, results)
	if err != nil {
		return fmt.Errorf("migrate %d -> %d: %w", current, target, err)
	}
	return nil
}

func logResults(ctx context.Context, logg *logger.Logger, results []*goose.MigrationResult) {
	for _, res := range results {
		if res == nil || res.Source == nil {
			continue
		}
		fields := map[string]any{
			"version":     res.Source.Version,
			"file":        res.Source.Path,
			"direction":   res.Direction,
			"duration_ms": res.Duration.Milliseconds(),
		}
		entryCtx := logg.WithFields(ctx, fields)
		if res.Error != nil {
			logg.Error(logg.WithFields(entryCtx, pkgerrors.Diagnose(res.Error).Fields()), "migration failed", res.Error)
			continue
		}
		logg.Info(entryCtx, "migration applied")
	}
}
