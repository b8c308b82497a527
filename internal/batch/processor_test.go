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
	"github.com/joseph-ayodele/qrdoc-tracker/internal/entity"
)

type processorFixture struct {
	transport *MockTransport
	ledger    *MockLedger
	extractor *MockExtractor
	notifier  *recordingNotifier
	processor *Processor
}

func newProcessorFixture() *processorFixture {
	f := &processorFixture{
		transport: new(MockTransport),
		ledger:    new(MockLedger),
		extractor: new(MockExtractor),
		notifier:  &recordingNotifier{},
	}
	f.processor = NewProcessor(f.transport, f.ledger, f.extractor, f.notifier, nil, nil)
	return f
}

func (f *processorFixture) assertExpectations(t *testing.T) {
	f.transport.AssertExpectations(t)
	f.ledger.AssertExpectations(t)
	f.extractor.AssertExpectations(t)
}

func TestProcessFile_AlreadyProcessedIsSkipped(t *testing.T) {
	f := newProcessorFixture()
	f.ledger.On("IsProcessed", mock.Anything, "a.pdf").Return(true, nil).Once()

	outcome := f.processor.ProcessFile(context.Background(), "a.pdf")

	assert.Equal(t, constants.OutcomeSkipped, outcome)
	f.transport.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestProcessFile_Extracted(t *testing.T) {
	f := newProcessorFixture()
	data := []byte("pdf-bytes")
	want := entity.ValidityRecord{
		DocumentType:     "ID_CARD",
		PersonIdentifier: "12345",
		StartValidity:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndValidity:      time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
	}
	f.ledger.On("IsProcessed", mock.Anything, "a.pdf").Return(false, nil).Once()
	f.transport.On("Fetch", mock.Anything, "a.pdf").Return(data, nil).Once()
	f.extractor.On("Extract", mock.Anything, "a.pdf", data).Return("ID_CARD,12345,2024-01-01,2024-12-31", true, nil).Once()
	f.ledger.On("MarkExtracted", mock.Anything, "a.pdf", want).Return(nil).Once()

	outcome := f.processor.ProcessFile(context.Background(), "a.pdf")

	assert.Equal(t, constants.OutcomeRecordedProcessed, outcome)
	assert.Empty(t, f.notifier.calls)
	f.assertExpectations(t)
}

func TestProcessFile_NoQRRecordsUnprocessed(t *testing.T) {
	f := newProcessorFixture()
	f.ledger.On("IsProcessed", mock.Anything, "b.png").Return(false, nil).Once()
	f.transport.On("Fetch", mock.Anything, "b.png").Return([]byte("png"), nil).Once()
	f.extractor.On("Extract", mock.Anything, "b.png", []byte("png")).Return("", false, nil).Once()
	f.ledger.On("MarkSeenUnprocessed", mock.Anything, "b.png").Return(nil).Once()

	outcome := f.processor.ProcessFile(context.Background(), "b.png")

	assert.Equal(t, constants.OutcomeRecordedUnprocessed, outcome)
	assert.Empty(t, f.notifier.calls)
	f.assertExpectations(t)
}

func TestProcessFile_UnsupportedTypeIsNeverFetched(t *testing.T) {
	f := newProcessorFixture()
	f.ledger.On("IsProcessed", mock.Anything, "c.txt").Return(false, nil).Once()
	f.ledger.On("MarkSeenUnprocessed", mock.Anything, "c.txt").Return(nil).Once()

	outcome := f.processor.ProcessFile(context.Background(), "c.txt")

	assert.Equal(t, constants.OutcomeUnsupportedType, outcome)
	f.transport.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
	f.extractor.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestProcessFile_BadPayloadAlertsAndRecordsUnprocessed(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		kind    error
	}{
		{"too few fields", "a,b,c", common.ErrMalformedPayload},
		{"bad date", "a,b,2024-13-40,2024-01-01", common.ErrInvalidDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newProcessorFixture()
			f.ledger.On("IsProcessed", mock.Anything, "a.jpg").Return(false, nil).Once()
			f.transport.On("Fetch", mock.Anything, "a.jpg").Return([]byte("jpg"), nil).Once()
			f.extractor.On("Extract", mock.Anything, "a.jpg", []byte("jpg")).Return(tt.payload, true, nil).Once()
			f.ledger.On("MarkSeenUnprocessed", mock.Anything, "a.jpg").Return(nil).Once()

			outcome := f.processor.ProcessFile(context.Background(), "a.jpg")

			assert.Equal(t, constants.OutcomeRecordedUnprocessed, outcome)
			require.Len(t, f.notifier.calls, 1)
			assert.Equal(t, "a.jpg", f.notifier.calls[0].Context)
			f.ledger.AssertNotCalled(t, "MarkExtracted", mock.Anything, mock.Anything, mock.Anything)
			f.assertExpectations(t)
		})
	}
}

func TestProcessFile_FailuresAreAlertedAndNotLedgered(t *testing.T) {
	ioErr := common.KindError(common.ErrTransportIO, "retr a.pdf", errors.New("550 file unavailable"))
	corrupt := common.KindError(common.ErrCorruptDocument, "open pdf", errors.New("xref missing"))

	t.Run("fetch error", func(t *testing.T) {
		f := newProcessorFixture()
		f.ledger.On("IsProcessed", mock.Anything, "a.pdf").Return(false, nil).Once()
		f.transport.On("Fetch", mock.Anything, "a.pdf").Return(nil, ioErr).Once()

		assert.Equal(t, constants.OutcomeFailed, f.processor.ProcessFile(context.Background(), "a.pdf"))
		require.Len(t, f.notifier.calls, 1)
		assert.Equal(t, alertCall{Context: "a.pdf", Err: ioErr.Error()}, f.notifier.calls[0])
		f.ledger.AssertNotCalled(t, "MarkSeenUnprocessed", mock.Anything, mock.Anything)
		f.assertExpectations(t)
	})

	t.Run("extraction error", func(t *testing.T) {
		f := newProcessorFixture()
		f.ledger.On("IsProcessed", mock.Anything, "a.pdf").Return(false, nil).Once()
		f.transport.On("Fetch", mock.Anything, "a.pdf").Return([]byte("x"), nil).Once()
		f.extractor.On("Extract", mock.Anything, "a.pdf", []byte("x")).Return("", false, corrupt).Once()

		assert.Equal(t, constants.OutcomeFailed, f.processor.ProcessFile(context.Background(), "a.pdf"))
		assert.Equal(t, []string{"a.pdf"}, f.notifier.contexts())
		f.ledger.AssertNotCalled(t, "MarkSeenUnprocessed", mock.Anything, mock.Anything)
	})

	t.Run("ledger lookup error", func(t *testing.T) {
		f := newProcessorFixture()
		f.ledger.On("IsProcessed", mock.Anything, "a.pdf").Return(false, common.KindErrorf(common.ErrLedgerRead, "down")).Once()

		assert.Equal(t, constants.OutcomeFailed, f.processor.ProcessFile(context.Background(), "a.pdf"))
		f.transport.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
		assert.Equal(t, []string{"a.pdf"}, f.notifier.contexts())
	})

	t.Run("ledger write error", func(t *testing.T) {
		f := newProcessorFixture()
		f.ledger.On("IsProcessed", mock.Anything, "a.pdf").Return(false, nil).Once()
		f.transport.On("Fetch", mock.Anything, "a.pdf").Return([]byte("x"), nil).Once()
		f.extractor.On("Extract", mock.Anything, "a.pdf", []byte("x")).Return("T,P,2024-01-01,2024-02-01", true, nil).Once()
		f.ledger.On("MarkExtracted", mock.Anything, "a.pdf", mock.Anything).Return(common.KindErrorf(common.ErrLedgerWrite, "commit")).Once()

		assert.Equal(t, constants.OutcomeFailed, f.processor.ProcessFile(context.Background(), "a.pdf"))
		assert.Equal(t, []string{"a.pdf"}, f.notifier.contexts())
	})
}

func TestProcessFiles_FailureDoesNotStopLoop(t *testing.T) {
	f := newProcessorFixture()
	f.ledger.On("IsProcessed", mock.Anything, mock.Anything).Return(false, nil)
	f.transport.On("Fetch", mock.Anything, "bad.pdf").Return(nil, errors.New("timeout")).Once()
	f.transport.On("Fetch", mock.Anything, "good.png").Return([]byte("png"), nil).Once()
	f.extractor.On("Extract", mock.Anything, "good.png", []byte("png")).Return("T,P,2024-01-01,2024-02-01", true, nil).Once()
	f.ledger.On("MarkExtracted", mock.Anything, "good.png", mock.Anything).Return(nil).Once()

	summary := newSummary("test")
	f.processor.ProcessFiles(context.Background(), []string{"bad.pdf", "good.png"}, &summary)

	assert.Equal(t, 1, summary.Count(constants.OutcomeFailed))
	assert.Equal(t, 1, summary.Count(constants.OutcomeRecordedProcessed))
	assert.Equal(t, 2, summary.Handled())
	assert.False(t, summary.Cancelled)
	f.assertExpectations(t)
}

func TestProcessFiles_StopsBetweenFilesOnCancel(t *testing.T) {
	f := newProcessorFixture()
	ctx, cancel := context.WithCancel(context.Background())
	f.ledger.On("IsProcessed", mock.Anything, "a.pdf").Return(true, nil).Once().Run(func(mock.Arguments) { cancel() })

	summary := newSummary("test")
	f.processor.ProcessFiles(ctx, []string{"a.pdf", "b.pdf"}, &summary)

	assert.True(t, summary.Cancelled)
	assert.Equal(t, 1, summary.Handled())
	f.ledger.AssertNotCalled(t, "IsProcessed", mock.Anything, "b.pdf")
}
