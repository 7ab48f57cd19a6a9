package runs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openstax/staxing/internal/assignment"
)

// testExecutor is an in-package double; the mocks package provides the
// exported one for other packages' tests.
type testExecutor struct {
	results map[uuid.UUID]*Result
	errs    map[uuid.UUID]error
	done    chan uuid.UUID
	stopped bool
}

func newTestExecutor() *testExecutor {
	return &testExecutor{
		results: make(map[uuid.UUID]*Result),
		errs:    make(map[uuid.UUID]error),
		done:    make(chan uuid.UUID, 16),
	}
}

func (e *testExecutor) Execute(_ context.Context, run *Run) (*Result, error) {
	defer func() { e.done <- run.ID }()
	if err := e.errs[run.ID]; err != nil {
		return e.results[run.ID], err
	}
	if result := e.results[run.ID]; result != nil {
		return result, nil
	}
	return &Result{Success: true, Message: "ok"}, nil
}

func (e *testExecutor) Shutdown(context.Context) error {
	e.stopped = true
	return nil
}

func testRun() *Run {
	spec := assignment.Spec{
		Kind:  assignment.Reading,
		Title: "Chapter 1 reading",
		Periods: assignment.PeriodSet{
			"all": {Opens: assignment.On("08/24/2026"), Closes: assignment.On("08/31/2026")},
		},
		Status: assignment.Publish,
	}
	return NewRun(OpAdd, "teacher", "AP Physics", "", spec, "")
}

func waitForStatus(t *testing.T, m *Manager, id uuid.UUID, want Status) *Run {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		run, err := m.Get(id)
		require.NoError(t, err)
		if run.Status == want {
			return run
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("run %s never reached status %s", id, want)
	return nil
}

func TestManagerSubmitAndComplete(t *testing.T) {
	exec := newTestExecutor()
	m := NewManager(exec, zap.NewNop().Sugar())

	run := testRun()
	require.NoError(t, m.Submit(run))

	got := waitForStatus(t, m, run.ID, StatusCompleted)
	require.NotNil(t, got.Result)
	assert.True(t, got.Result.Success)
	assert.Equal(t, "ok", got.Result.Message)
}

func TestManagerSubmitRejectsDuplicates(t *testing.T) {
	exec := newTestExecutor()
	m := NewManager(exec, zap.NewNop().Sugar())

	run := testRun()
	require.NoError(t, m.Submit(run))
	assert.Error(t, m.Submit(run))
}

func TestManagerSubmitValidates(t *testing.T) {
	exec := newTestExecutor()
	m := NewManager(exec, zap.NewNop().Sugar())

	run := testRun()
	run.Operation = "explode"
	assert.ErrorIs(t, m.Submit(run), ErrUnknownOperation)

	run = testRun()
	run.Role = "superuser"
	assert.Error(t, m.Submit(run))
}

func TestManagerRecordsFailure(t *testing.T) {
	exec := newTestExecutor()
	m := NewManager(exec, zap.NewNop().Sugar())

	run := testRun()
	exec.errs[run.ID] = errors.New("login: wait timed out")
	exec.results[run.ID] = &Result{Snapshot: "<body>login form</body>"}
	require.NoError(t, m.Submit(run))

	got := waitForStatus(t, m, run.ID, StatusFailed)
	require.NotNil(t, got.Result)
	assert.False(t, got.Result.Success)
	assert.Contains(t, got.Result.Error, "wait timed out")
	assert.Equal(t, "<body>login form</body>", got.Result.Snapshot)
}

func TestManagerGetUnknownRun(t *testing.T) {
	m := NewManager(newTestExecutor(), zap.NewNop().Sugar())
	_, err := m.Get(uuid.New())
	assert.Error(t, err)
}

func TestManagerCallback(t *testing.T) {
	received := make(chan map[string]interface{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		received <- payload
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	exec := newTestExecutor()
	m := NewManager(exec, zap.NewNop().Sugar())

	run := testRun()
	run.CallbackURL = srv.URL
	require.NoError(t, m.Submit(run))

	select {
	case payload := <-received:
		assert.Equal(t, run.ID.String(), payload["id"])
		assert.Equal(t, string(StatusCompleted), payload["status"])
	case <-time.After(2 * time.Second):
		t.Fatal("callback never arrived")
	}
}

func TestManagerShutdown(t *testing.T) {
	exec := newTestExecutor()
	m := NewManager(exec, zap.NewNop().Sugar())

	run := testRun()
	require.NoError(t, m.Submit(run))
	waitForStatus(t, m, run.ID, StatusCompleted)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, m.Shutdown(ctx))
	assert.True(t, exec.stopped)

	// New submissions are refused after shutdown.
	assert.Error(t, m.Submit(testRun()))
}
