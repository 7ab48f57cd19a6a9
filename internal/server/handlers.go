package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openstax/staxing/internal/assignment"
	"github.com/openstax/staxing/internal/config"
	"github.com/openstax/staxing/internal/runs"
)

type APIHandler struct {
	manager *runs.Manager
	logger  *zap.SugaredLogger
}

func NewAPIHandler(manager *runs.Manager, logger *zap.SugaredLogger) *APIHandler {
	return &APIHandler{
		manager: manager,
		logger:  logger,
	}
}

// DateRequest is one side of an assignment window on the wire.
type DateRequest struct {
	Date string `json:"date"`
	Time string `json:"time,omitempty"`
}

// PeriodRequest is the open/close window assigned to one period.
type PeriodRequest struct {
	Opens  DateRequest `json:"opens"`
	Closes DateRequest `json:"closes"`
}

// SelectionRequest is the wire form of one problem-selection clause.
// Exactly one of the fields may be set.
type SelectionRequest struct {
	All   bool     `json:"all,omitempty"`
	First *int     `json:"first,omitempty"`
	Low   *int     `json:"low,omitempty"`
	High  *int     `json:"high,omitempty"`
	IDs   []string `json:"ids,omitempty"`
}

func (s SelectionRequest) toSelection() (assignment.Selection, error) {
	set := 0
	if s.All {
		set++
	}
	if s.First != nil {
		set++
	}
	if s.Low != nil || s.High != nil {
		set++
	}
	if len(s.IDs) > 0 {
		set++
	}
	if set != 1 {
		return nil, fmt.Errorf("selection must set exactly one of all, first, low/high, or ids")
	}
	switch {
	case s.All:
		return assignment.SelectAll{}, nil
	case s.First != nil:
		return assignment.SelectFirst(*s.First), nil
	case s.Low != nil || s.High != nil:
		if s.Low == nil || s.High == nil {
			return nil, fmt.Errorf("ranged selection requires both low and high")
		}
		return assignment.SelectRange{Low: *s.Low, High: *s.High}, nil
	default:
		return assignment.SelectIDs(s.IDs), nil
	}
}

// ProblemsRequest is the wire form of a homework problem set.
type ProblemsRequest struct {
	Sections map[string]SelectionRequest `json:"sections"`
	Tutor    int                         `json:"tutor,omitempty"`
}

func (p *ProblemsRequest) toProblemSet() (*assignment.ProblemSet, error) {
	if p == nil {
		return nil, nil
	}
	sections := make(map[string]assignment.Selection, len(p.Sections))
	for key, req := range p.Sections {
		sel, err := req.toSelection()
		if err != nil {
			return nil, fmt.Errorf("section %q: %w", key, err)
		}
		sections[key] = sel
	}
	return &assignment.ProblemSet{Sections: sections, Tutor: p.Tutor}, nil
}

// SubmitRunRequest queues one assignment workflow.
type SubmitRunRequest struct {
	Operation  string `json:"operation"`
	Role       string `json:"role,omitempty"`
	Course     string `json:"course,omitempty"`
	Appearance string `json:"appearance,omitempty"`
	Breakpoint string `json:"breakpoint,omitempty"`

	Kind        string                   `json:"kind"`
	Title       string                   `json:"title"`
	Description string                   `json:"description,omitempty"`
	Periods     map[string]PeriodRequest `json:"periods"`
	Readings    []string                 `json:"readings,omitempty"`
	Problems    *ProblemsRequest         `json:"problems,omitempty"`
	URL         string                   `json:"url,omitempty"`
	Feedback    string                   `json:"feedback,omitempty"`
	Status      string                   `json:"status,omitempty"`

	CallbackURL string `json:"callback_url,omitempty"`
}

func (r SubmitRunRequest) toSpec() (assignment.Spec, error) {
	problems, err := r.Problems.toProblemSet()
	if err != nil {
		return assignment.Spec{}, err
	}
	periods := make(assignment.PeriodSet, len(r.Periods))
	for name, window := range r.Periods {
		periods[name] = assignment.PeriodWindow{
			Opens:  assignment.DateSpec{Date: window.Opens.Date, Time: window.Opens.Time},
			Closes: assignment.DateSpec{Date: window.Closes.Date, Time: window.Closes.Time},
		}
	}
	status := assignment.Status(r.Status)
	if status == "" {
		status = assignment.Publish
	}
	return assignment.Spec{
		Kind:        assignment.Kind(r.Kind),
		Title:       r.Title,
		Description: r.Description,
		Periods:     periods,
		Readings:    r.Readings,
		Problems:    problems,
		URL:         r.URL,
		Feedback:    assignment.Feedback(r.Feedback),
		Status:      status,
	}, nil
}

type SubmitRunResponse struct {
	RunID string `json:"run_id"`
}

func (h *APIHandler) HandleSubmitRun(w http.ResponseWriter, r *http.Request) {
	var req SubmitRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body: %v", err)
		return
	}
	defer r.Body.Close()

	spec, err := req.toSpec()
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "%v", err)
		return
	}

	role := req.Role
	if role == "" {
		role = config.RoleTeacher
	}
	run := runs.NewRun(
		runs.Operation(req.Operation), role,
		req.Course, req.Appearance, spec, req.CallbackURL,
	)
	run.Breakpoint = assignment.Breakpoint(req.Breakpoint)

	if err := h.manager.Submit(run); err != nil {
		if errors.Is(err, runs.ErrUnknownOperation) || strings.Contains(err.Error(), "unknown role") {
			h.respondError(w, http.StatusBadRequest, "%v", err)
			return
		}
		h.logger.Errorw("submit run", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to submit run: %v", err)
		return
	}

	h.logger.Infow("run accepted", "run", run.ID, "operation", run.Operation, "title", run.Title)
	h.respondJSON(w, http.StatusAccepted, SubmitRunResponse{RunID: run.ID.String()})
}

func (h *APIHandler) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "runID")
	id, err := uuid.Parse(idStr)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid run ID: %v", err)
		return
	}

	run, err := h.manager.Get(id)
	if err != nil {
		h.respondError(w, http.StatusNotFound, "run not found")
		return
	}
	h.respondJSON(w, http.StatusOK, run)
}

func (h *APIHandler) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.Errorw("marshal response", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to marshal response")
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(response); err != nil {
		h.logger.Errorw("write response", "error", err)
	}
}

func (h *APIHandler) respondError(w http.ResponseWriter, status int, format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	body, err := json.Marshal(map[string]string{"error": message})
	if err != nil {
		body = []byte(fmt.Sprintf(`{"error":%q}`, message))
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		h.logger.Errorw("write error response", "error", err)
	}
}
