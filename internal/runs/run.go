package runs

import (
	"time"

	"github.com/google/uuid"

	"github.com/openstax/staxing/internal/assignment"
	"github.com/openstax/staxing/internal/config"
)

// Operation names the workflow a run performs against an assignment.
type Operation string

const (
	OpAdd    Operation = "add"
	OpChange Operation = "change"
	OpDelete Operation = "delete"
)

// Status tracks a run through its lifecycle.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Result carries the outcome of a finished run. Snapshot holds a simplified
// rendering of the page at the point of failure, when one could be taken.
type Result struct {
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
	Snapshot string `json:"snapshot,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Run is one assignment workflow queued for execution: log in as Role,
// open Course, and apply Operation with Spec.
type Run struct {
	ID        uuid.UUID `json:"id"`
	Operation Operation `json:"operation"`
	Role      string    `json:"role"`
	Course    string    `json:"course,omitempty"`
	// Appearance selects the course by book theme when Course is empty.
	Appearance string `json:"appearance,omitempty"`

	// Kind and Title echo the spec for status readers; the full spec is
	// not serialized since Selection values have no stable wire form.
	Kind  assignment.Kind `json:"kind"`
	Title string          `json:"title"`

	Spec       assignment.Spec       `json:"-"`
	Breakpoint assignment.Breakpoint `json:"-"`

	Status      Status    `json:"status"`
	Result      *Result   `json:"result,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	CallbackURL string    `json:"callback_url,omitempty"`
}

// NewRun builds a pending run for the given workflow.
func NewRun(op Operation, role string, course, appearance string, spec assignment.Spec, callback string) *Run {
	now := time.Now().UTC()
	return &Run{
		ID:          uuid.New(),
		Operation:   op,
		Role:        role,
		Course:      course,
		Appearance:  appearance,
		Kind:        spec.Kind,
		Title:       spec.Title,
		Spec:        spec,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
		CallbackURL: callback,
	}
}

// Validate checks the run's own fields; the spec is validated by the
// assignment flows.
func (r *Run) Validate() error {
	switch r.Operation {
	case OpAdd, OpChange, OpDelete:
	default:
		return ErrUnknownOperation
	}
	if _, err := config.ParseRole(r.Role); err != nil {
		return err
	}
	return nil
}
