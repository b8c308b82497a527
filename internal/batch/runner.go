package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/qrdoc-tracker/constants"
	"github.com/joseph-ayodele/qrdoc-tracker/internal/common"
)

// ErrBatchSkipped is returned when a connection could not be established and no file was handled.
var ErrBatchSkipped = errors.New("batch skipped")

type RunnerConfig struct {
	ConnectTransport TransportConnector
	ConnectLedger    LedgerConnector
	Extractor        Extractor
	Notifier         Notifier
	Recorder         Recorder
	// Uploads are local paths put to the transport before listing.
	Uploads []string
	Logger  *slog.Logger
}

// Runner owns one run session: it opens both connections, runs the batch and always closes them.
type Runner struct {
	cfg    RunnerConfig
	logger *slog.Logger
	now    func() time.Time
}

func NewRunner(cfg RunnerConfig) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Recorder == nil {
		cfg.Recorder = nopRecorder{}
	}
	return &Runner{cfg: cfg, logger: logger, now: time.Now}
}

// RunOnce executes one full batch. The returned error is non-nil only for batch-fatal
// conditions (connect or list failure, cancellation); per-file failures are in the Summary.
func (r *Runner) RunOnce(ctx context.Context) (summary Summary, err error) {
	runID := uuid.NewString()
	ctx = common.WithRunID(ctx, runID)
	logger := common.LoggerFrom(ctx, r.logger)
	summary = newSummary(runID)

	start := r.now()
	logger.Info("batch run started")
	defer func() {
		end := r.now()
		r.cfg.Recorder.ObserveRun(end.Sub(start), err == nil, end)
		logger.Info("batch run finished", "summary", summary, "duration_ms", end.Sub(start).Milliseconds(), "error", err)
	}()

	// both connects are attempted so that each failure is alerted
	transport, tErr := r.cfg.ConnectTransport(ctx)
	if tErr != nil {
		logger.Error("error connecting to FTP", "error", tErr)
		r.cfg.Notifier.Notify(ctx, constants.AlertFTPConnection, tErr.Error())
	} else {
		defer r.closeConn(logger, "transport", transport.Close)
	}

	ledger, lErr := r.cfg.ConnectLedger(ctx)
	if lErr != nil {
		logger.Error("error connecting to database", "error", lErr)
		r.cfg.Notifier.Notify(ctx, constants.AlertDatabaseConnection, lErr.Error())
	} else {
		defer r.closeConn(logger, "ledger", ledger.Close)
	}

	if tErr != nil || lErr != nil {
		return summary, fmt.Errorf("%w: %w", ErrBatchSkipped, errors.Join(tErr, lErr))
	}

	summary.Uploaded = r.upload(ctx, logger, transport)

	names, err := transport.List(ctx)
	if err != nil {
		logger.Error("error listing files", "error", err)
		r.cfg.Notifier.Notify(ctx, constants.AlertFTPFileList, err.Error())
		return summary, err
	}
	summary.Listed = len(names)
	logger.Info("listed remote files", "count", len(names))

	NewProcessor(transport, ledger, r.cfg.Extractor, r.cfg.Notifier, r.cfg.Recorder, r.logger).
		ProcessFiles(ctx, names, &summary)

	if summary.Cancelled {
		return summary, ctx.Err()
	}
	return summary, nil
}

func (r *Runner) upload(ctx context.Context, logger *slog.Logger, transport Transport) int {
	n := 0
	for _, path := range r.cfg.Uploads {
		if err := transport.Put(ctx, path); err != nil {
			logger.Error("error uploading file", "path", path, "error", err)
			r.cfg.Notifier.Notify(ctx, constants.AlertFTPFileUpload, err.Error())
			continue
		}
		n++
	}
	return n
}

func (r *Runner) closeConn(logger *slog.Logger, what string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logger.Warn("error closing connection", "conn", what, "error", err)
	}
}
