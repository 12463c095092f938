package lifecycle

import (
	"context"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// step is one unit of a transition.
//
// A failing blocking step ends the transition and its error becomes the
// surfaced failure of the Outcome. A failing non-blocking step is logged,
// added to Outcome.Warnings and the transition moves on.
type step struct {
	name     string
	blocking bool

	// effect names the durable change this step commits on success.
	effect string

	// when gates the step. Nil means the step always runs.
	when func(r *run) bool

	do func(ctx context.Context, r *run) error

	// fail builds the notice for a blocking failure. Nil keeps it silent.
	fail func(err error) *Notice
}

// transition is an ordered list of steps plus the final report shown when
// every step ran to completion.
type transition struct {
	steps  []step
	report func(r *run) *Notice
}

// run is the mutable state of one transition execution.
type run struct {
	outcome Outcome
	done    bool

	symbolsAvailable bool
	registered       bool
}

// finish ends the transition early with success. Remaining steps and the
// final report are skipped.
func (r *run) finish(n *Notice) {
	r.done = true
	r.outcome.Notice = n
}

func (c *Controller) execute(ctx context.Context, cmd Command, t transition) Outcome {
	r := &run{outcome: Outcome{Command: cmd}}
	logger := c.logger.With(zap.Stringer("command", cmd))

	for _, s := range t.steps {
		if r.done {
			break
		}
		if s.when != nil && !s.when(r) {
			logger.Debug("Skipping step", zap.String("step", s.name))
			r.outcome.Steps = append(r.outcome.Steps, StepRecord{Name: s.name, Blocking: s.blocking, Skipped: true})
			continue
		}

		logger.Debug("Running step", zap.String("step", s.name), zap.Bool("blocking", s.blocking))
		err := s.do(ctx, r)
		r.outcome.Steps = append(r.outcome.Steps, StepRecord{Name: s.name, Blocking: s.blocking, Err: err})

		if err == nil {
			if s.effect != "" {
				r.outcome.Committed = append(r.outcome.Committed, s.effect)
			}
			continue
		}

		if !s.blocking {
			logger.Warn("Best-effort step failed", zap.String("step", s.name), zap.Error(err))
			r.outcome.Warnings = multierr.Append(r.outcome.Warnings, err)
			continue
		}

		logger.Error("Step failed", zap.String("step", s.name), zap.Error(err))
		r.outcome.Err = err
		if s.fail != nil {
			r.outcome.Notice = s.fail(err)
		}
		return r.outcome
	}

	if !r.done && t.report != nil {
		r.outcome.Notice = t.report(r)
	}
	return r.outcome
}
