package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/shopconsole-backend/pkg/config"
	"github.com/angelmondragon/shopconsole-backend/pkg/db"
	"github.com/angelmondragon/shopconsole-backend/pkg/logger"
	"github.com/angelmondragon/shopconsole-backend/pkg/migrate"
)

const serviceName = "shopconsole-migrate"

type options struct {
	cmd     string
	dir     string
	name    string
	version string
	force   bool
}

func main() {
	_ = godotenv.Load()

	var opts options
	flag.StringVar(&opts.cmd, "cmd", "up", "migration command: up|down|reset|status|version|create|validate")
	flag.StringVar(&opts.dir, "dir", migrate.DefaultDir, "goose migrations directory")
	flag.StringVar(&opts.name, "name", "", "migration name (for create)")
	flag.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.BoolVar(&opts.force, "force", false, "allow down, reset and version in production")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "%s %s: %v\n", serviceName, opts.cmd, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	// Offline commands work without environment config.
	if !migrate.NeedsDB(opts.cmd) {
		return runOffline(opts)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := migrate.CheckAllowed(opts.cmd, cfg.App.IsProd(), opts.force); err != nil {
		return err
	}
	// Refuse to touch a database whose schema files do not validate.
	if err := migrate.ValidateDir(opts.dir); err != nil {
		return fmt.Errorf("validate %s: %w", opts.dir, err)
	}

	logg := logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithFields(ctx, map[string]any{
		"env":   cfg.App.Env,
		"cmd":   opts.cmd,
		"dir":   opts.dir,
		"force": opts.force,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		return fmt.Errorf("sql database: %w", err)
	}

	logg.Info(ctx, "migrate.start")
	if opts.cmd == "version" {
		if opts.version == "" {
			return fmt.Errorf("missing -version")
		}
		err = migrate.MigrateToVersion(ctx, sqlDB, opts.dir, opts.version)
	} else {
		err = migrate.Run(ctx, sqlDB, opts.dir, opts.cmd)
	}
	if err != nil {
		logg.Error(ctx, "migrate.failed", err)
		return err
	}
	logg.Info(ctx, "migrate.complete")
	return nil
}

func runOffline(opts options) error {
	switch opts.cmd {
	case "create":
		if opts.name == "" {
			return fmt.Errorf("missing -name")
		}
		path, err := migrate.CreateSQLMigration(opts.dir, opts.name)
		if err != nil {
			return err
		}
		fmt.Println("created migration:", path)
	case "validate":
		if err := migrate.ValidateDir(opts.dir); err != nil {
			return err
		}
		fmt.Println("migration validation passed")
	}
	return nil
}
