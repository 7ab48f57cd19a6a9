package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openstax/staxing/internal/assignment"
	"github.com/openstax/staxing/internal/runs"
	"github.com/openstax/staxing/internal/runs/mocks"
)

func testRouter(t *testing.T) (*chi.Mux, *mocks.MockExecutor) {
	t.Helper()
	exec := mocks.NewMockExecutor()
	manager := runs.NewManager(exec, zap.NewNop().Sugar())
	handler := NewAPIHandler(manager, zap.NewNop().Sugar())

	router := chi.NewRouter()
	router.Post("/api/v1/runs", handler.HandleSubmitRun)
	router.Get("/api/v1/runs/{runID}", handler.HandleGetRun)
	return router, exec
}

func submitBody() map[string]interface{} {
	return map[string]interface{}{
		"operation": "add",
		"kind":      "reading",
		"title":     "Chapter 1 reading",
		"course":    "AP Physics",
		"periods": map[string]interface{}{
			"all": map[string]interface{}{
				"opens":  map[string]string{"date": "08/24/2026"},
				"closes": map[string]string{"date": "08/31/2026", "time": "8:00 pm"},
			},
		},
		"readings": []string{"1.1", "1.2"},
	}
}

func postRun(t *testing.T, router http.Handler, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/runs", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleSubmitRun(t *testing.T) {
	router, exec := testRouter(t)

	rec := postRun(t, router, submitBody())
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp SubmitRunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RunID)

	// The run reaches the executor with the decoded spec.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && len(exec.ExecutedRuns()) == 0 {
		time.Sleep(10 * time.Millisecond)
	}
	executed := exec.ExecutedRuns()
	require.Len(t, executed, 1)
	assert.Equal(t, runs.OpAdd, executed[0].Operation)
	assert.Equal(t, assignment.Reading, executed[0].Spec.Kind)
	assert.Equal(t, "AP Physics", executed[0].Course)
	assert.Equal(t, "8:00 pm", executed[0].Spec.Periods["all"].Closes.Time)
	// Status defaults to publish when the request omits it.
	assert.Equal(t, assignment.Publish, executed[0].Spec.Status)
}

func TestHandleSubmitRunRejectsBadOperation(t *testing.T) {
	router, _ := testRouter(t)

	body := submitBody()
	body["operation"] = "explode"
	rec := postRun(t, router, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSubmitRunRejectsBadRole(t *testing.T) {
	router, _ := testRouter(t)

	body := submitBody()
	body["role"] = "superuser"
	rec := postRun(t, router, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSubmitRunRejectsBadJSON(t *testing.T) {
	router, _ := testRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/runs", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSubmitRunRejectsAmbiguousSelection(t *testing.T) {
	router, _ := testRouter(t)

	body := submitBody()
	body["kind"] = "homework"
	body["problems"] = map[string]interface{}{
		"sections": map[string]interface{}{
			"1.1": map[string]interface{}{"all": true, "first": 3},
		},
	}
	rec := postRun(t, router, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGetRun(t *testing.T) {
	router, _ := testRouter(t)

	rec := postRun(t, router, submitBody())
	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp SubmitRunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+resp.RunID, nil)
	getRec := httptest.NewRecorder()
	router.ServeHTTP(getRec, req)
	require.Equal(t, http.StatusOK, getRec.Code)

	var run map[string]interface{}
	require.NoError(t, json.Unmarshal(getRec.Body.Bytes(), &run))
	assert.Equal(t, resp.RunID, run["id"])
	assert.Equal(t, "Chapter 1 reading", run["title"])
}

func TestHandleGetRunNotFound(t *testing.T) {
	router, _ := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs/7b0c0f5e-0000-0000-0000-000000000000", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleGetRunBadID(t *testing.T) {
	router, _ := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSelectionRequestConversions(t *testing.T) {
	sel, err := SelectionRequest{All: true}.toSelection()
	require.NoError(t, err)
	assert.IsType(t, assignment.SelectAll{}, sel)

	three := 3
	sel, err = SelectionRequest{First: &three}.toSelection()
	require.NoError(t, err)
	assert.Equal(t, assignment.SelectFirst(3), sel)

	one, five := 1, 5
	sel, err = SelectionRequest{Low: &one, High: &five}.toSelection()
	require.NoError(t, err)
	assert.Equal(t, assignment.SelectRange{Low: 1, High: 5}, sel)

	sel, err = SelectionRequest{IDs: []string{"100@1"}}.toSelection()
	require.NoError(t, err)
	assert.Equal(t, assignment.SelectIDs{"100@1"}, sel)

	_, err = SelectionRequest{}.toSelection()
	assert.Error(t, err, "empty selection")

	_, err = SelectionRequest{Low: &one}.toSelection()
	assert.Error(t, err, "half a range")
}

func TestAPIKeyAuth(t *testing.T) {
	protected := APIKeyAuth("sekrit")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-API-Key", "wrong")
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-API-Key", "sekrit")
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Bearer tokens are accepted as an alternative.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer sekrit")
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
