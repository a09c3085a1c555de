// Package saga runs a sequence of steps and undoes the completed ones when a
// later step fails.
package saga

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Step is one unit of work. Compensate may be nil for steps with nothing to undo.
type Step struct {
	Name       string
	Action     func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// Error reports the step that failed.
type Error struct {
	Step string
	Err  error
}

func (e *Error) Error() string { return fmt.Sprintf("saga step %q: %v", e.Step, e.Err) }

func (e *Error) Unwrap() error { return e.Err }

// Run executes steps in order. When a step fails, the compensations of every
// step that already completed run in reverse order. Compensation errors are
// logged and do not stop the remaining compensations.
//
// Compensations run on a context that is not cancelled with ctx, so a client
// disconnect cannot leave half the work behind.
func Run(ctx context.Context, logger *logrus.Logger, steps ...Step) error {
	done := make([]Step, 0, len(steps))
	for _, s := range steps {
		if err := s.Action(ctx); err != nil {
			compensate(context.WithoutCancel(ctx), logger, s.Name, done)
			return &Error{Step: s.Name, Err: err}
		}
		done = append(done, s)
	}
	return nil
}

func compensate(ctx context.Context, logger *logrus.Logger, failed string, done []Step) {
	for i := len(done) - 1; i >= 0; i-- {
		s := done[i]
		if s.Compensate == nil {
			continue
		}
		if err := s.Compensate(ctx); err != nil && logger != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"step":        s.Name,
				"failed_step": failed,
			}).Error("saga compensation failed")
		}
	}
}
