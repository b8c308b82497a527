package batch

import (
	"context"
	"time"

	"github.com/joseph-ayodele/qrdoc-tracker/constants"
	"github.com/joseph-ayodele/qrdoc-tracker/internal/entity"
)

// Transport is the remote file store for one run.
type Transport interface {
	List(ctx context.Context) ([]string, error)
	Fetch(ctx context.Context, name string) ([]byte, error)
	Put(ctx context.Context, localPath string) error
	Close() error
}

// Ledger is the slice of repository.Ledger the batch writes through.
type Ledger interface {
	IsProcessed(ctx context.Context, fileName string) (bool, error)
	MarkExtracted(ctx context.Context, fileName string, rec entity.ValidityRecord) error
	MarkSeenUnprocessed(ctx context.Context, fileName string) error
	Close() error
}

type Extractor interface {
	Extract(ctx context.Context, name string, data []byte) (payload string, found bool, err error)
}

// Notifier is the best-effort alert capability. It never fails the caller.
type Notifier interface {
	Notify(ctx context.Context, subjectContext, errText string)
}

type Recorder interface {
	ObserveFile(outcome constants.Outcome)
	ObserveRun(d time.Duration, succeeded bool, end time.Time)
}

// TransportConnector and LedgerConnector open the per-run handles.
type (
	TransportConnector func(ctx context.Context) (Transport, error)
	LedgerConnector    func(ctx context.Context) (Ledger, error)
)

type nopRecorder struct{}

func (nopRecorder) ObserveFile(constants.Outcome)             {}
func (nopRecorder) ObserveRun(time.Duration, bool, time.Time) {}
