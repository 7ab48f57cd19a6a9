package workflow

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/openstax/staxing/internal/assignment"
	"github.com/openstax/staxing/internal/browser"
	"github.com/openstax/staxing/internal/config"
	"github.com/openstax/staxing/internal/roles"
	"github.com/openstax/staxing/internal/runs"
)

// Executor drives queued runs through a real browser: one session per run,
// teacher login, course selection, then the assignment workflow.
type Executor struct {
	browsers *browser.Manager
	tutor    *config.TutorConfig
	logger   *zap.SugaredLogger
}

func NewExecutor(browsers *browser.Manager, tutor *config.TutorConfig, logger *zap.SugaredLogger) *Executor {
	return &Executor{
		browsers: browsers,
		tutor:    tutor,
		logger:   logger,
	}
}

// Execute performs one run. Assignment workflows always act as the teacher
// whose credentials the role names.
func (e *Executor) Execute(ctx context.Context, run *runs.Run) (*runs.Result, error) {
	creds, err := e.tutor.ForRole(run.Role)
	if err != nil {
		return nil, err
	}

	sess, err := e.browsers.NewSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("browser session: %w", err)
	}
	defer sess.Close()

	teacher, err := roles.NewTeacher(sess, creds, e.tutor.ServerURL, e.logger)
	if err != nil {
		return nil, err
	}
	if err := teacher.Login(); err != nil {
		return e.failed(sess, fmt.Errorf("login: %w", err))
	}
	if err := teacher.SelectCourse(run.Course, run.Appearance); err != nil {
		return e.failed(sess, fmt.Errorf("select course: %w", err))
	}

	var opts []assignment.Option
	if run.Breakpoint != "" {
		opts = append(opts, assignment.WithBreakpoint(run.Breakpoint))
	}

	switch run.Operation {
	case runs.OpAdd:
		err = teacher.AddAssignment(run.Spec, opts...)
	case runs.OpChange:
		err = teacher.ChangeAssignment(run.Spec, opts...)
	case runs.OpDelete:
		err = teacher.DeleteAssignment(run.Spec)
	default:
		return nil, fmt.Errorf("%w: %q", runs.ErrUnknownOperation, run.Operation)
	}
	if err != nil {
		return e.failed(sess, err)
	}

	return &runs.Result{
		Success: true,
		Message: fmt.Sprintf("%s %s %q", run.Operation, run.Kind, run.Title),
	}, nil
}

// failed attaches a simplified page snapshot to the error for diagnostics.
// Snapshot failures are logged and dropped; the original error wins.
func (e *Executor) failed(sess *browser.Session, err error) (*runs.Result, error) {
	result := &runs.Result{}
	snapshot, snapErr := sess.Snapshot()
	if snapErr != nil {
		e.logger.Debugw("failure snapshot unavailable", "error", snapErr)
	} else {
		result.Snapshot = snapshot
	}
	return result, err
}

// Shutdown closes the browser pool.
func (e *Executor) Shutdown(ctx context.Context) error {
	return e.browsers.Shutdown(ctx)
}
