package runs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const callbackTimeout = 10 * time.Second

// Manager queues runs, drives them through an Executor one goroutine each,
// and answers status lookups.
type Manager struct {
	executor Executor
	logger   *zap.SugaredLogger

	mu   sync.RWMutex
	runs map[uuid.UUID]*Run

	wg       sync.WaitGroup
	client   *http.Client
	baseCtx  context.Context
	shutdown context.CancelFunc
}

// NewManager builds a manager around the given executor.
func NewManager(executor Executor, logger *zap.SugaredLogger) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		executor: executor,
		logger:   logger,
		runs:     make(map[uuid.UUID]*Run),
		client:   &http.Client{Timeout: callbackTimeout},
		baseCtx:  ctx,
		shutdown: cancel,
	}
}

// Submit validates and queues a run, starting its execution immediately.
func (m *Manager) Submit(run *Run) error {
	if err := run.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.baseCtx.Err() != nil {
		return fmt.Errorf("run manager is shutting down")
	}
	if _, exists := m.runs[run.ID]; exists {
		return fmt.Errorf("run %s already exists", run.ID)
	}
	m.runs[run.ID] = run

	m.wg.Add(1)
	go m.execute(run)
	return nil
}

// Get returns a copy of the run with its current status.
func (m *Manager) Get(id uuid.UUID) (*Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, exists := m.runs[id]
	if !exists {
		return nil, fmt.Errorf("run %s not found", id)
	}
	copied := *run
	return &copied, nil
}

func (m *Manager) execute(run *Run) {
	defer m.wg.Done()

	m.setStatus(run, StatusRunning)
	m.logger.Infow("run started",
		"run", run.ID, "operation", run.Operation, "title", run.Title)

	result, err := m.executor.Execute(m.baseCtx, run)

	m.mu.Lock()
	if err != nil {
		if result == nil {
			result = &Result{}
		}
		result.Success = false
		result.Error = err.Error()
		run.Result = result
		run.Status = StatusFailed
	} else {
		run.Result = result
		run.Status = StatusCompleted
	}
	run.UpdatedAt = time.Now().UTC()
	m.mu.Unlock()

	if err != nil {
		m.logger.Errorw("run failed", "run", run.ID, "error", err)
	} else {
		m.logger.Infow("run completed", "run", run.ID)
	}

	if run.CallbackURL != "" {
		m.notifyCallback(run)
	}
}

func (m *Manager) setStatus(run *Run, status Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run.Status = status
	run.UpdatedAt = time.Now().UTC()
}

// notifyCallback posts the finished run to its callback URL.
func (m *Manager) notifyCallback(run *Run) {
	m.mu.RLock()
	body, err := json.Marshal(run)
	url := run.CallbackURL
	id := run.ID
	m.mu.RUnlock()
	if err != nil {
		m.logger.Errorw("marshal callback payload", "run", id, "error", err)
		return
	}

	req, err := http.NewRequestWithContext(
		m.baseCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		m.logger.Errorw("build callback request", "run", id, "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		m.logger.Errorw("send callback", "run", id, "error", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		m.logger.Warnw("callback rejected", "run", id, "status", resp.Status)
		return
	}
	m.logger.Debugw("callback delivered", "run", id, "url", url)
}

// Shutdown stops accepting runs, cancels in-flight ones, and waits for
// their goroutines up to the context deadline.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.shutdown()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		m.logger.Warn("run manager shutdown timed out waiting for runs")
	}

	m.mu.Lock()
	for id, run := range m.runs {
		if run.Status == StatusPending || run.Status == StatusRunning {
			m.logger.Infow("cancelling run during shutdown", "run", id)
			run.Status = StatusCancelled
			run.UpdatedAt = time.Now().UTC()
		}
	}
	m.mu.Unlock()

	return m.executor.Shutdown(ctx)
}
