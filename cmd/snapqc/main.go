package main

import (
	"context"
	"flag"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/snapanalyst/snapqc/internal/config"
	"github.com/snapanalyst/snapqc/internal/etl"
	"github.com/snapanalyst/snapqc/internal/logging"
	"github.com/snapanalyst/snapqc/internal/postgres"
	"github.com/snapanalyst/snapqc/internal/web"
)

func main() {
	filePath := flag.String("file", "", "load a single QC data file and exit")
	fiscalYear := flag.Int("year", 0, "fiscal year of the file given with -file")
	flag.Parse()

	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"db_max_conns", cfg.Database.MaxConns,
		"etl_chunk_size", cfg.ETL.ChunkSize,
		"etl_strict", cfg.ETL.Strict,
	)

	// Parse and configure connection pool
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		slog.Error("failed to parse database URL", "error", err)
		os.Exit(1)
	}

	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	// Connect to database
	ctx := context.Background()
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	// Log which database we connected to
	if u, err := url.Parse(cfg.Database.URL); err == nil {
		dbName := strings.TrimPrefix(u.Path, "/")
		slog.Info("connected to database", "name", dbName)
	} else {
		slog.Info("connected to database")
	}

	writer := postgres.NewWriter(pool, cfg.ETL.BatchSize)

	newLoader := func(year int) *etl.Loader {
		return etl.NewLoader(etl.LoaderConfig{
			FiscalYear:       year,
			ChunkSize:        cfg.ETL.ChunkSize,
			WholeFileMaxRows: cfg.ETL.WholeFileMaxRows,
			Strict:           cfg.ETL.Strict,
			SkipValidation:   cfg.ETL.SkipValidation,
		}, writer, writer)
	}

	// One-shot mode: load the given file, report, exit.
	if *filePath != "" {
		if *fiscalYear == 0 {
			slog.Error("-year is required with -file")
			os.Exit(1)
		}
		runOnce(ctx, newLoader(*fiscalYear), *filePath)
		return
	}

	// Server mode: job API plus background eviction.
	jobs := etl.NewJobManager()
	server := web.NewServer(cfg, jobs, newLoader)

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go jobs.StartEviction(jobCtx, cfg.Jobs.MaxAge, cfg.Jobs.EvictInterval)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}

// runOnce loads one file synchronously and exits non-zero on failure.
func runOnce(ctx context.Context, loader *etl.Loader, filePath string) {
	status := etl.NewJobStatus(etl.NewJobID())

	if err := loader.LoadFromFile(ctx, filePath, status); err != nil {
		snap := status.Snapshot()
		slog.Error("load failed",
			"file", filePath,
			"error", err,
			"rows_processed", snap.RowsProcessed,
		)
		os.Exit(1)
	}

	snap := status.Snapshot()
	slog.Info("load complete",
		"file", filePath,
		"households", snap.HouseholdsCreated,
		"members", snap.MembersCreated,
		"qc_errors", snap.ErrorsCreated,
		"rows_processed", snap.RowsProcessed,
		"validation_errors", snap.ValidationErrors,
		"validation_warnings", snap.ValidationWarnings,
	)
}
