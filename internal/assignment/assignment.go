package assignment

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/openstax/staxing/internal/browser"
)

// Kind identifies one of the four assignment form flows.
type Kind string

const (
	Reading  Kind = "reading"
	Homework Kind = "homework"
	External Kind = "external"
	Event    Kind = "event"
)

// Status is the terminal action applied in the form footer.
type Status string

const (
	Publish Status = "publish"
	Draft   Status = "draft"
	Cancel  Status = "cancel"
	Delete  Status = "delete"
)

// Breakpoint names a checkpoint at which a workflow halts before acting,
// leaving every later form field untouched for test inspection.
type Breakpoint string

const (
	BeforeTitle         Breakpoint = "title"
	BeforeDescription   Breakpoint = "description"
	BeforePeriod        Breakpoint = "period"
	BeforeSectionSelect Breakpoint = "section"
	BeforeReadingSelect Breakpoint = "reading"
	BeforeExercise      Breakpoint = "exercise"
	BeforeURL           Breakpoint = "url"
	BeforeStatusSelect  Breakpoint = "status"
)

// Feedback controls when homework solutions are shown to students.
type Feedback string

const (
	FeedbackImmediate Feedback = "immediate"
	FeedbackOnDue     Feedback = "due_at"
)

var (
	ErrUnknownKind    = errors.New("unknown assignment kind")
	ErrUnknownStatus  = errors.New("unknown assignment status")
	ErrNoPeriodMatch  = errors.New("no periods matched")
	ErrMissingPeriods = errors.New("assignment requires at least one period")
)

// Spec describes one assignment. Kind selects the form flow; the remaining
// fields are consumed by the flows that need them (Readings for reading,
// Problems and Feedback for homework, URL for external).
type Spec struct {
	Kind        Kind
	Title       string
	Description string
	Periods     PeriodSet
	Readings    []string
	Problems    *ProblemSet
	URL         string
	Feedback    Feedback
	Status      Status
}

func (s Spec) validate() error {
	switch s.Kind {
	case Reading, Homework, External, Event:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, s.Kind)
	}
	if s.Title == "" {
		return fmt.Errorf("assignment title cannot be empty")
	}
	if len(s.Periods) == 0 {
		return ErrMissingPeriods
	}
	if s.Kind == Homework && s.Problems == nil {
		return fmt.Errorf("homework assignment requires a problem set")
	}
	if s.Kind == External && s.URL == "" {
		return fmt.Errorf("external assignment requires a URL")
	}
	return nil
}

// Option adjusts a single workflow invocation.
type Option func(*flowOptions)

type flowOptions struct {
	breakpoint Breakpoint
	rnd        *rand.Rand
}

// WithBreakpoint halts the flow immediately before the named step.
func WithBreakpoint(bp Breakpoint) Option {
	return func(o *flowOptions) { o.breakpoint = bp }
}

// WithRand fixes the randomness source used by ranged problem selection.
func WithRand(rnd *rand.Rand) Option {
	return func(o *flowOptions) { o.rnd = rnd }
}

func newFlowOptions(opts []Option) *flowOptions {
	o := &flowOptions{
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *flowOptions) stopAt(bp Breakpoint) bool {
	return o.breakpoint == bp
}

// Builder drives the assignment create/edit/delete form flows against a
// teacher's calendar session.
type Builder struct {
	logger *zap.SugaredLogger
}

func NewBuilder(logger *zap.SugaredLogger) *Builder {
	return &Builder{logger: logger}
}

// Add creates a new assignment through the sidebar form flow for spec.Kind.
func (b *Builder) Add(sess *browser.Session, spec Spec, opts ...Option) error {
	if err := spec.validate(); err != nil {
		return err
	}
	o := newFlowOptions(opts)
	switch spec.Kind {
	case Reading:
		return b.addReading(sess, spec, o)
	case Homework:
		return b.addHomework(sess, spec, o)
	case External:
		return b.addExternal(sess, spec, o)
	case Event:
		return b.addEvent(sess, spec, o)
	}
	return fmt.Errorf("%w: %q", ErrUnknownKind, spec.Kind)
}

// Change edits an existing assignment located by title on the calendar month
// derived from its close date, then re-applies the provided fields.
func (b *Builder) Change(sess *browser.Session, spec Spec, opts ...Option) error {
	switch spec.Kind {
	case Reading, Homework, External, Event:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, spec.Kind)
	}
	if spec.Title == "" {
		return fmt.Errorf("assignment title cannot be empty")
	}
	if len(spec.Periods) == 0 {
		return ErrMissingPeriods
	}
	o := newFlowOptions(opts)
	return b.changeAssignment(sess, spec, o)
}

// Delete removes an existing assignment located by title. The same calendar
// flow serves all four kinds.
func (b *Builder) Delete(sess *browser.Session, spec Spec) error {
	if spec.Title == "" {
		return fmt.Errorf("assignment title cannot be empty")
	}
	if len(spec.Periods) == 0 {
		return ErrMissingPeriods
	}
	return b.deleteAssignment(sess, spec)
}
