package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/domeo/domeo-backend/pkg/config"
	"github.com/domeo/domeo-backend/pkg/db"
	"github.com/domeo/domeo-backend/pkg/logger"
	"github.com/domeo/domeo-backend/pkg/migrate"
)

type options struct {
	cmd     string
	dir     string
	name    string
	version string
}

func main() {
	var opts options
	flag.StringVar(&opts.cmd, "cmd", "up", "up|down|status|version|create|validate|automigrate")
	flag.StringVar(&opts.dir, "dir", "", "migrations directory on disk (default: migrations embedded in the binary)")
	flag.StringVar(&opts.name, "name", "", "migration name for -cmd=create")
	flag.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	_ = godotenv.Load()

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "migrate %s: %v\n", opts.cmd, err)
		os.Exit(1)
	}
}

func (o options) source() fs.FS {
	if o.dir == "" {
		return migrate.Migrations()
	}
	return os.DirFS(o.dir)
}

func run(opts options) error {
	// offline commands need no database
	switch opts.cmd {
	case "create":
		if opts.name == "" {
			return fmt.Errorf("-name is required")
		}
		dir := opts.dir
		if dir == "" {
			dir = migrate.DefaultDir
		}
		path, err := migrate.Create(dir, opts.name, time.Now())
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	case "validate":
		if err := migrate.Validate(opts.source()); err != nil {
			return err
		}
		fmt.Println("ok")
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logg := logger.New(logger.Options{
		ServiceName: "domeo-migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": opts.cmd,
	})

	if opts.cmd == "automigrate" {
		client, err := db.New(ctx, cfg.DB, cfg.FeatureFlags, logg)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer client.Close()
		return migrate.AutoMigrateModels(ctx, client)
	}
	if cfg.FeatureFlags.UseSQLite {
		return fmt.Errorf("goose migrations target postgres; use -cmd=automigrate with sqlite")
	}

	conn, err := migrate.OpenPostgres(ctx, cfg.DB.DSN)
	if err != nil {
		return err
	}
	defer conn.Close()
	provider, err := migrate.NewProvider(conn, opts.source())
	if err != nil {
		return err
	}

	if opts.cmd != "version" {
		return migrate.Run(ctx, logg, provider, opts.cmd)
	}
	target, err := strconv.ParseInt(opts.version, 10, 64)
	if err != nil || target < 0 {
		return fmt.Errorf("-version must be a non-negative integer, got %q", opts.version)
	}
	return migrate.MigrateToVersion(ctx, logg, provider, target)
}
