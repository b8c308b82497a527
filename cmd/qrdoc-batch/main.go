package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/qrdoc-tracker/internal/alert"
	"github.com/joseph-ayodele/qrdoc-tracker/internal/batch"
	"github.com/joseph-ayodele/qrdoc-tracker/internal/common"
	"github.com/joseph-ayodele/qrdoc-tracker/internal/export"
	"github.com/joseph-ayodele/qrdoc-tracker/internal/extract"
	"github.com/joseph-ayodele/qrdoc-tracker/internal/metrics"
	repo "github.com/joseph-ayodele/qrdoc-tracker/internal/repository"
	"github.com/joseph-ayodele/qrdoc-tracker/internal/schedule"
	"github.com/joseph-ayodele/qrdoc-tracker/internal/transport"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

// sharedLedger keeps a process-lifetime SQLite ledger open across runs.
type sharedLedger struct {
	repo.Ledger
}

func (sharedLedger) Close() error { return nil }

func main() {
	// Parse CLI flags
	var (
		inmem      = flag.Bool("inmem", false, "use in-memory SQLite ledger")
		ledgerFile = flag.String("ledger-file", "", "use an on-disk SQLite ledger at this path")
		sourceDir  = flag.String("source-dir", "", "read documents from a local directory instead of FTP")
		spec       = flag.String("schedule", "", "cron spec (5-field or @every) for repeated runs; run once if empty")
		out        = flag.String("export", "", "write the ledger to this XLSX path after each run")
		migrate    = flag.Bool("migrate", true, "apply database migrations on startup")
		tryHarder  = flag.Bool("try-harder", true, "slower, more thorough QR search")
	)
	var uploads []string
	flag.Func("upload", "local file to upload before listing (repeatable)", func(v string) error {
		uploads = append(uploads, v)
		return nil
	})
	flag.Parse()

	if *inmem && *ledgerFile != "" {
		printError("Error: --inmem and --ledger-file are mutually exclusive\n")
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		printError("Warning: could not load .env: %v\n", err)
	}
	cfg := common.LoadConfig()

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	useSQLite := *inmem || *ledgerFile != ""
	if err := cfg.Validate(common.ValidateOptions{SkipFTP: *sourceDir != "", SkipDatabase: useSQLite}); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	sender, err := alert.NewSenderFromConfig(cfg, logger)
	if err != nil {
		logger.Error("failed to configure alerts", "error", err)
		os.Exit(1)
	}
	alerter := alert.NewAlerter(sender, m, logger)

	openLedger, cleanup, err := ledgerOpener(ctx, cfg, *inmem, *ledgerFile, *migrate, logger)
	if err != nil {
		logger.Error("failed to initialize ledger", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	runner := batch.NewRunner(batch.RunnerConfig{
		ConnectTransport: func(ctx context.Context) (batch.Transport, error) {
			if *sourceDir != "" {
				return transport.OpenDir(*sourceDir, logger)
			}
			return transport.DialFTP(ctx, cfg.FTP, logger)
		},
		ConnectLedger: func(ctx context.Context) (batch.Ledger, error) {
			return openLedger(ctx)
		},
		Extractor: extract.NewExtractor(extract.Config{TryHarder: *tryHarder}, logger),
		Notifier:  alerter,
		Recorder:  m,
		Uploads:   uploads,
		Logger:    logger,
	})

	job := func(ctx context.Context) error {
		summary, runErr := runner.RunOnce(ctx)
		if err := m.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
			logger.Warn("failed to write metrics", "error", err)
		}
		if *out != "" {
			if err := exportLedger(ctx, openLedger, *out, logger); err != nil {
				logger.Error("failed to export ledger", "output", *out, "error", err)
			}
		}
		logger.Info("batch processing complete", "summary", summary)
		return runErr
	}

	if *spec == "" {
		if err := job(ctx); err != nil {
			logger.Error("batch run failed", "error", err)
			cleanup()
			os.Exit(1)
		}
		return
	}

	scheduler, err := schedule.NewScheduler(*spec, job, logger)
	if err != nil {
		logger.Error("invalid schedule", "error", err)
		os.Exit(2)
	}
	scheduler.RunNow(ctx)
	if err := scheduler.Run(ctx); err != nil {
		logger.Error("scheduler failed", "error", err)
		cleanup()
		os.Exit(1)
	}
}

// ledgerOpener returns a per-run ledger connector. SQLite ledgers are opened once and shared;
// postgres gets a fresh pool per run.
func ledgerOpener(ctx context.Context, cfg *common.Config, inmem bool, file string, migrate bool, logger *slog.Logger) (func(context.Context) (repo.Ledger, error), func(), error) {
	if inmem || file != "" {
		db, err := repo.OpenSQLite(ctx, file, logger)
		if err != nil {
			return nil, nil, err
		}
		if migrate {
			if err := repo.Migrate(ctx, db, repo.DialectSQLite, logger); err != nil {
				_ = db.Close()
				return nil, nil, err
			}
		} else {
			logger.Info("skipping sqlite migrations", "path", file)
		}
		ledger := repo.NewSQLiteLedger(db, logger)
		cleanup := func() {
			if err := ledger.Close(); err != nil {
				logger.Warn("close sqlite ledger", "error", err)
			}
		}
		return func(context.Context) (repo.Ledger, error) { return sharedLedger{ledger}, nil }, cleanup, nil
	}

	dbCfg := repo.ConfigFrom(cfg.Database)
	migrated := !migrate
	open := func(ctx context.Context) (repo.Ledger, error) {
		pool, err := repo.Open(ctx, dbCfg, logger)
		if err != nil {
			return nil, err
		}
		if !migrated {
			if err := repo.MigratePool(ctx, pool, logger); err != nil {
				pool.Close()
				return nil, common.KindError(common.ErrLedgerConnect, "migrate", err)
			}
			migrated = true
		}
		return repo.NewPoolLedger(pool, logger), nil
	}
	return open, func() {}, nil
}

func exportLedger(ctx context.Context, openLedger func(context.Context) (repo.Ledger, error), out string, logger *slog.Logger) error {
	ledger, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := ledger.Close(); err != nil {
			logger.Warn("close ledger", "error", err)
		}
	}()

	xlsx, err := export.NewService(ledger, logger).ExportLedgerXLSX(ctx)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(out); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(out, xlsx, 0o644)
}
