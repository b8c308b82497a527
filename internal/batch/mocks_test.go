package batch

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/joseph-ayodele/qrdoc-tracker/internal/entity"
)

type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) List(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	names, _ := args.Get(0).([]string)
	return names, args.Error(1)
}

func (m *MockTransport) Fetch(ctx context.Context, name string) ([]byte, error) {
	args := m.Called(ctx, name)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *MockTransport) Put(ctx context.Context, localPath string) error {
	return m.Called(ctx, localPath).Error(0)
}

func (m *MockTransport) Close() error {
	return m.Called().Error(0)
}

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) IsProcessed(ctx context.Context, fileName string) (bool, error) {
	args := m.Called(ctx, fileName)
	return args.Bool(0), args.Error(1)
}

func (m *MockLedger) MarkExtracted(ctx context.Context, fileName string, rec entity.ValidityRecord) error {
	return m.Called(ctx, fileName, rec).Error(0)
}

func (m *MockLedger) MarkSeenUnprocessed(ctx context.Context, fileName string) error {
	return m.Called(ctx, fileName).Error(0)
}

func (m *MockLedger) Close() error {
	return m.Called().Error(0)
}

type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Extract(ctx context.Context, name string, data []byte) (string, bool, error) {
	args := m.Called(ctx, name, data)
	return args.String(0), args.Bool(1), args.Error(2)
}

type alertCall struct {
	Context string
	Err     string
}

// recordingNotifier keeps every alert in order.
type recordingNotifier struct {
	mu    sync.Mutex
	calls []alertCall
}

func (n *recordingNotifier) Notify(_ context.Context, subjectContext, errText string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, alertCall{Context: subjectContext, Err: errText})
}

func (n *recordingNotifier) contexts() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.calls))
	for _, c := range n.calls {
		out = append(out, c.Context)
	}
	return out
}
