package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/provelabs/witnessgen/pkg/blob"
	"github.com/provelabs/witnessgen/pkg/config"
	"github.com/provelabs/witnessgen/pkg/core"
	"github.com/provelabs/witnessgen/pkg/engine"
	"github.com/provelabs/witnessgen/pkg/harness"
	"github.com/provelabs/witnessgen/pkg/keys"
	"github.com/provelabs/witnessgen/pkg/leafagg"
	"github.com/provelabs/witnessgen/pkg/observe"
	"github.com/provelabs/witnessgen/pkg/storage"
)

var (
	logLevel   string
	configPath string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "witnessgen",
	Short: "Witness generator for the proof aggregation pipeline",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the leaf-aggregation witness generator",
	RunE:  runGenerator,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (defaults apply when empty)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(jobsCmd)
}

func setupLogging() {
	var level slog.Level
	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// openDatabase selects the driver from the DSN shape: postgres URLs go to
// the postgres driver, anything else is treated as a SQLite file path.
func openDatabase(dsn string) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	}
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return gorm.Open(postgres.Open(dsn), gormCfg)
	}
	return gorm.Open(sqlite.Open(dsn), gormCfg)
}

func openStores(ctx context.Context, cfg config.Config) (*storage.GormStorage, *blob.BadgerStore, error) {
	db, err := openDatabase(cfg.Database.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	store, err := storage.NewGormStorageWithPool(db,
		storage.MaxOpenConns(cfg.Database.MaxOpenConns),
		storage.MaxIdleConns(cfg.Database.MaxIdleConns),
		storage.ConnMaxLifetime(cfg.Database.ConnMaxLifetime.Duration),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("configure store: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}

	blobs, err := blob.OpenBadger(cfg.Blob.Dir)
	if err != nil {
		return nil, nil, err
	}
	return store, blobs, nil
}

func loadRegistry(cfg config.Config) (keys.Registry, error) {
	if cfg.Keys.File == "" {
		slog.Warn("no key registry file configured, using synthetic dev keys")
		return keys.DevRegistry(), nil
	}
	return keys.LoadRegistry(cfg.Keys.File)
}

func runGenerator(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("starting witness generator",
		"dsn", cfg.Database.DSN,
		"blob_dir", cfg.Blob.Dir,
		"concurrency", cfg.Worker.Concurrency,
		"poll_interval", cfg.Worker.PollInterval.Duration,
		"requeue_enabled", cfg.Requeue.Enabled,
		"otel_enabled", cfg.Otel.Enabled,
	)

	otelShutdown, err := observe.InitTracer(cfg.Otel.Enabled, cfg.Otel.Service, cfg.Otel.Endpoint)
	if err != nil {
		return fmt.Errorf("init otel: %w", err)
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			slog.Warn("otel shutdown error", "error", err)
		}
	}()

	store, blobs, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer blobs.Close()

	registry, err := loadRegistry(cfg)
	if err != nil {
		return err
	}

	generator := leafagg.New(store, blobs, registry, harness.NewSimulated())

	if cfg.Requeue.Enabled {
		sweeper := cron.New()
		_, err := sweeper.AddFunc(cfg.Requeue.Schedule, func() {
			n, err := store.RequeueStuck(ctx, cfg.Requeue.StaleAfter.Duration)
			if err != nil {
				slog.Error("requeue sweep failed", "error", err)
				return
			}
			if n > 0 {
				slog.Info("requeued stale jobs", "count", n)
			}
		})
		if err != nil {
			return fmt.Errorf("schedule requeue sweep: %w", err)
		}
		sweeper.Start()
		defer sweeper.Stop()
	}

	eng := engine.New[uint32, *leafagg.Job, *core.ArtifactBundle](generator,
		engine.PollInterval(cfg.Worker.PollInterval.Duration),
		engine.Concurrency(cfg.Worker.Concurrency),
	)

	err = eng.Start(ctx)
	if err != nil && ctx.Err() != nil {
		slog.Info("witness generator stopped")
		return nil
	}
	return err
}
