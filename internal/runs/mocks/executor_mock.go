package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/openstax/staxing/internal/runs"
)

// MockExecutor records the runs it receives and replies with canned
// results, for exercising the run manager without a browser.
type MockExecutor struct {
	mu sync.Mutex

	executed []*runs.Run
	results  map[uuid.UUID]*runs.Result
	errors   map[uuid.UUID]error

	shutdownCalled bool
}

func NewMockExecutor() *MockExecutor {
	return &MockExecutor{
		results: make(map[uuid.UUID]*runs.Result),
		errors:  make(map[uuid.UUID]error),
	}
}

// SetResult fixes the outcome returned for a run ID.
func (m *MockExecutor) SetResult(id uuid.UUID, result *runs.Result, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[id] = result
	m.errors[id] = err
}

func (m *MockExecutor) Execute(_ context.Context, run *runs.Run) (*runs.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.executed = append(m.executed, run)

	if err, ok := m.errors[run.ID]; ok && err != nil {
		return m.results[run.ID], err
	}
	if result, ok := m.results[run.ID]; ok {
		return result, nil
	}
	return &runs.Result{Success: true, Message: "mock run"}, nil
}

func (m *MockExecutor) Shutdown(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdownCalled = true
	return nil
}

// ExecutedRuns returns the runs handed to Execute, in order.
func (m *MockExecutor) ExecutedRuns() []*runs.Run {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*runs.Run, len(m.executed))
	copy(out, m.executed)
	return out
}

// WasShutdownCalled reports whether Shutdown ran.
func (m *MockExecutor) WasShutdownCalled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shutdownCalled
}
