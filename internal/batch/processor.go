package batch

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/qrdoc-tracker/constants"
	"github.com/joseph-ayodele/qrdoc-tracker/internal/common"
	"github.com/joseph-ayodele/qrdoc-tracker/internal/payload"
)

// Processor drives each listed file through the ledger/fetch/extract/parse state machine.
type Processor struct {
	transport Transport
	ledger    Ledger
	extractor Extractor
	notifier  Notifier
	recorder  Recorder
	logger    *slog.Logger
}

func NewProcessor(transport Transport, ledger Ledger, extractor Extractor, notifier Notifier, recorder Recorder, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Processor{
		transport: transport,
		ledger:    ledger,
		extractor: extractor,
		notifier:  notifier,
		recorder:  recorder,
		logger:    logger,
	}
}

// ProcessFiles handles names sequentially in listing order. A failed file never stops the loop;
// cancellation is observed only between files.
func (p *Processor) ProcessFiles(ctx context.Context, names []string, summary *Summary) {
	fileCtx := context.WithoutCancel(ctx)
	for i, name := range names {
		if ctx.Err() != nil {
			common.LoggerFrom(ctx, p.logger).Warn("run cancelled", "remaining", len(names)-i)
			summary.Cancelled = true
			return
		}
		outcome := p.ProcessFile(fileCtx, name)
		summary.add(outcome)
		p.recorder.ObserveFile(outcome)
	}
}

// ProcessFile returns the terminal outcome for name. Failures are alerted here.
func (p *Processor) ProcessFile(ctx context.Context, name string) constants.Outcome {
	ctx = common.WithFileName(ctx, name)
	logger := common.LoggerFrom(ctx, p.logger)

	done, err := p.ledger.IsProcessed(ctx, name)
	if err != nil {
		return p.fail(ctx, logger, name, "ledger lookup failed", err)
	}
	if done {
		logger.Info("File already processed, skipping", "outcome", constants.OutcomeSkipped)
		return constants.OutcomeSkipped
	}

	if constants.FormatForName(name) == constants.Unsupported {
		if err := p.ledger.MarkSeenUnprocessed(ctx, name); err != nil {
			return p.fail(ctx, logger, name, "ledger write failed", err)
		}
		logger.Info("Unsupported file type, recorded as unprocessed", "outcome", constants.OutcomeUnsupportedType)
		return constants.OutcomeUnsupportedType
	}

	data, err := p.transport.Fetch(ctx, name)
	if err != nil {
		return p.fail(ctx, logger, name, "fetch failed", err)
	}

	raw, found, err := p.extractor.Extract(ctx, name, data)
	if err != nil {
		return p.fail(ctx, logger, name, "extraction failed", err)
	}
	if !found {
		return p.recordUnprocessed(ctx, logger, name, "No QR code found")
	}

	rec, err := payload.Parse(raw)
	if err != nil {
		logger.Warn("QR payload rejected", "error", err)
		p.notifier.Notify(ctx, name, err.Error())
		return p.recordUnprocessed(ctx, logger, name, "QR payload unusable")
	}

	if err := p.ledger.MarkExtracted(ctx, name, rec); err != nil {
		return p.fail(ctx, logger, name, "ledger write failed", err)
	}
	logger.Info("File processed successfully",
		"outcome", constants.OutcomeRecordedProcessed,
		"document_type", rec.DocumentType,
		"person_identifier", rec.PersonIdentifier)
	return constants.OutcomeRecordedProcessed
}

func (p *Processor) recordUnprocessed(ctx context.Context, logger *slog.Logger, name, reason string) constants.Outcome {
	if err := p.ledger.MarkSeenUnprocessed(ctx, name); err != nil {
		return p.fail(ctx, logger, name, "ledger write failed", err)
	}
	logger.Info(reason+", recorded as unprocessed", "outcome", constants.OutcomeRecordedUnprocessed)
	return constants.OutcomeRecordedUnprocessed
}

// fail alerts with the file name as subject and writes nothing, so the file is retried next run.
func (p *Processor) fail(ctx context.Context, logger *slog.Logger, name, msg string, err error) constants.Outcome {
	logger.Error(msg, "outcome", constants.OutcomeFailed, "code", common.Code(err), "error", err)
	p.notifier.Notify(ctx, name, err.Error())
	return constants.OutcomeFailed
}
