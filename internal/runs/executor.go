package runs

import (
	"context"
	"errors"
)

// ErrUnknownOperation reports a run whose operation is not add, change, or
// delete.
var ErrUnknownOperation = errors.New("unknown run operation")

// Executor performs one queued run end to end: browser session, login,
// course selection, and the assignment workflow.
type Executor interface {
	Execute(ctx context.Context, run *Run) (*Result, error)
	Shutdown(ctx context.Context) error
}
