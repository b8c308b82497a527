package batch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/qrdoc-tracker/constants"
	"github.com/joseph-ayodele/qrdoc-tracker/internal/common"
)

type runRecord struct {
	succeeded bool
	files     []constants.Outcome
	runs      int
}

func (r *runRecord) ObserveFile(o constants.Outcome) { r.files = append(r.files, o) }
func (r *runRecord) ObserveRun(_ time.Duration, ok bool, _ time.Time) {
	r.runs++
	r.succeeded = ok
}

func newRunner(transport Transport, tErr error, ledger Ledger, lErr error, notifier Notifier, rec Recorder, uploads ...string) *Runner {
	return NewRunner(RunnerConfig{
		ConnectTransport: func(context.Context) (Transport, error) {
			if tErr != nil {
				return nil, tErr
			}
			return transport, nil
		},
		ConnectLedger: func(context.Context) (Ledger, error) {
			if lErr != nil {
				return nil, lErr
			}
			return ledger, nil
		},
		Extractor: new(MockExtractor),
		Notifier:  notifier,
		Recorder:  rec,
		Uploads:   uploads,
	})
}

func TestRunOnce_ClosesBothConnections(t *testing.T) {
	transport := new(MockTransport)
	ledger := new(MockLedger)
	transport.On("List", mock.Anything).Return([]string{"a.pdf"}, nil).Once()
	ledger.On("IsProcessed", mock.Anything, "a.pdf").Return(true, nil).Once()
	transport.On("Close").Return(nil).Once()
	ledger.On("Close").Return(nil).Once()
	rec := &runRecord{}

	summary, err := newRunner(transport, nil, ledger, nil, &recordingNotifier{}, rec).RunOnce(context.Background())

	require.NoError(t, err)
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 1, summary.Listed)
	assert.Equal(t, 1, summary.Count(constants.OutcomeSkipped))
	assert.Equal(t, []constants.Outcome{constants.OutcomeSkipped}, rec.files)
	assert.Equal(t, 1, rec.runs)
	assert.True(t, rec.succeeded)
	transport.AssertExpectations(t)
	ledger.AssertExpectations(t)
}

func TestRunOnce_TransportConnectFailureSkipsBatch(t *testing.T) {
	ledger := new(MockLedger)
	ledger.On("Close").Return(nil).Once()
	notifier := &recordingNotifier{}
	rec := &runRecord{}
	connErr := common.KindError(common.ErrTransportConnect, "login", errors.New("530 Login incorrect."))

	_, err := newRunner(nil, connErr, ledger, nil, notifier, rec).RunOnce(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBatchSkipped)
	assert.ErrorIs(t, err, common.ErrTransportConnect)
	assert.Equal(t, []string{constants.AlertFTPConnection}, notifier.contexts())
	assert.False(t, rec.succeeded)
	ledger.AssertExpectations(t)
	ledger.AssertNotCalled(t, "IsProcessed", mock.Anything, mock.Anything)
}

func TestRunOnce_BothConnectFailuresAreAlerted(t *testing.T) {
	notifier := &recordingNotifier{}
	tErr := common.KindErrorf(common.ErrTransportConnect, "dial")
	lErr := common.KindErrorf(common.ErrLedgerConnect, "ping")

	_, err := newRunner(nil, tErr, nil, lErr, notifier, nil).RunOnce(context.Background())

	assert.ErrorIs(t, err, common.ErrTransportConnect)
	assert.ErrorIs(t, err, common.ErrLedgerConnect)
	assert.Equal(t, []string{constants.AlertFTPConnection, constants.AlertDatabaseConnection}, notifier.contexts())
}

func TestRunOnce_DatabaseConnectFailureClosesTransport(t *testing.T) {
	transport := new(MockTransport)
	transport.On("Close").Return(nil).Once()
	notifier := &recordingNotifier{}

	_, err := newRunner(transport, nil, nil, common.KindErrorf(common.ErrLedgerConnect, "refused"), notifier, nil).
		RunOnce(context.Background())

	assert.ErrorIs(t, err, ErrBatchSkipped)
	assert.Equal(t, []string{constants.AlertDatabaseConnection}, notifier.contexts())
	transport.AssertExpectations(t)
	transport.AssertNotCalled(t, "List", mock.Anything)
}

func TestRunOnce_ListFailureIsFatalButCleansUp(t *testing.T) {
	transport := new(MockTransport)
	ledger := new(MockLedger)
	listErr := common.KindError(common.ErrTransportIO, "list", errors.New("425 can't open data connection"))
	transport.On("List", mock.Anything).Return(nil, listErr).Once()
	transport.On("Close").Return(errors.New("already closed")).Once()
	ledger.On("Close").Return(nil).Once()
	notifier := &recordingNotifier{}
	rec := &runRecord{}

	_, err := newRunner(transport, nil, ledger, nil, notifier, rec).RunOnce(context.Background())

	assert.ErrorIs(t, err, common.ErrTransportIO)
	assert.Equal(t, []string{constants.AlertFTPFileList}, notifier.contexts())
	assert.False(t, rec.succeeded)
	transport.AssertExpectations(t)
	ledger.AssertExpectations(t)
}

func TestRunOnce_UploadFailureIsAlertedAndRunContinues(t *testing.T) {
	transport := new(MockTransport)
	ledger := new(MockLedger)
	transport.On("Put", mock.Anything, "/tmp/missing.pdf").Return(errors.New("no such file")).Once()
	transport.On("Put", mock.Anything, "/tmp/ok.pdf").Return(nil).Once()
	transport.On("List", mock.Anything).Return([]string{}, nil).Once()
	transport.On("Close").Return(nil).Once()
	ledger.On("Close").Return(nil).Once()
	notifier := &recordingNotifier{}

	summary, err := newRunner(transport, nil, ledger, nil, notifier, nil, "/tmp/missing.pdf", "/tmp/ok.pdf").
		RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Uploaded)
	assert.Equal(t, []string{constants.AlertFTPFileUpload}, notifier.contexts())
	transport.AssertExpectations(t)
}
