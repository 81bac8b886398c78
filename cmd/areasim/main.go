package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/udisondev/areaelements/internal/battle"
	"github.com/udisondev/areaelements/internal/config"
	"github.com/udisondev/areaelements/internal/content"
	"github.com/udisondev/areaelements/internal/db"
	"github.com/udisondev/areaelements/internal/scenario"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx, os.Args[1:]); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	defaultCfg, err := config.ConfigPath()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("areasim", flag.ContinueOnError)
	cfgPath := fs.String("config", defaultCfg, "path to config file (AREA_CONFIG)")
	scriptPath := fs.String("script", "config/scenario.yaml", "scenario script to run")
	importPath := fs.String("import", "", "import a content file into postgres and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.LoadAreaElements(*cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))
	slog.Info("areasim starting",
		"log_level", cfg.LogLevel,
		"content_source", cfg.ContentSource,
		"max_elements", cfg.Ledger.MaxElements,
		"overflow_policy", cfg.Ledger.OverflowPolicy,
		"stable_max_elements", cfg.Ledger.StableMaxElements)

	if *importPath != "" {
		return importContent(ctx, cfg, *importPath)
	}

	catalog, err := loadCatalog(ctx, cfg)
	if err != nil {
		return err
	}

	policy, err := cfg.Ledger.Policy()
	if err != nil {
		return err
	}
	runner := scenario.NewRunner(catalog, battle.Settings{
		MaxElements: cfg.Ledger.MaxElements,
		Policy:      policy,
		RatePercent: cfg.Ledger.RatePercent,
	}, cfg.Ledger.StableMaxElements)

	script, err := scenario.ParseFile(*scriptPath)
	if err != nil {
		return err
	}
	report, err := runner.Run(ctx, script)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("running scenario %s: %w", *scriptPath, err)
	}

	slog.Info("scenario finished", "steps", len(report.Steps), "content_digest", catalog.Digest)
	return nil
}

func loadCatalog(ctx context.Context, cfg config.AreaElements) (*content.Catalog, error) {
	if cfg.ContentSource == config.SourceFile {
		return content.LoadFile(cfg.ContentPath)
	}

	database, err := connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer database.Close()

	catalog, err := db.NewContentRepository(database.Pool()).LoadCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading content from database: %w", err)
	}
	return catalog, nil
}

func importContent(ctx context.Context, cfg config.AreaElements, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading content %s: %w", path, err)
	}
	f, err := content.Decode(data)
	if err != nil {
		return fmt.Errorf("validating content %s: %w", path, err)
	}
	if _, err := content.Build(f.Elements, f.Actions, f.Traits); err != nil {
		return fmt.Errorf("validating content %s: %w", path, err)
	}

	database, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.NewContentRepository(database.Pool()).Import(ctx, f); err != nil {
		return fmt.Errorf("importing content: %w", err)
	}
	slog.Info("content imported",
		"path", path,
		"elements", len(f.Elements),
		"actions", len(f.Actions),
		"traits", len(f.Traits))
	return nil
}

func connect(ctx context.Context, cfg config.AreaElements) (*db.DB, error) {
	dsn := cfg.Database.DSN()
	database, err := db.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	slog.Info("database connected")

	if err := db.RunMigrations(ctx, dsn); err != nil {
		database.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return database, nil
}

// parseLogLevel converts string log level to slog.Level.
// Defaults to Info if invalid or empty.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
