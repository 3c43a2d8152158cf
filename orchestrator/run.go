package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/papercomputeco/switchboard/pkg/assistant"
	"github.com/papercomputeco/switchboard/pkg/metrics"
)

const cancelTimeout = 5 * time.Second

// ErrRunTimeout matches every *RunTimeoutError.
var ErrRunTimeout = errors.New("run did not finish before the deadline")

// RunTimeoutError is returned when a run is still pending after the configured
// timeout or poll budget.
type RunTimeoutError struct {
	ThreadID   string
	RunID      string
	LastStatus assistant.RunStatus
	Polls      int
	Elapsed    time.Duration
}

func (e *RunTimeoutError) Error() string {
	return fmt.Sprintf("run %s on thread %s still %s after %d polls (%s)",
		e.RunID, e.ThreadID, e.LastStatus, e.Polls, e.Elapsed.Round(time.Millisecond))
}

func (e *RunTimeoutError) Is(target error) bool {
	return target == ErrRunTimeout
}

// awaitRun polls run until it leaves the pending states. The wait is bounded
// by Config.Timeout, Config.MaxPolls and ctx. On timeout the run is cancelled
// on a best-effort basis.
func (o *Orchestrator) awaitRun(ctx context.Context, run assistant.Run, st *turnState) (assistant.Run, error) {
	started := time.Now()
	defer func() {
		metrics.RunDurationSeconds.WithLabelValues(run.Status.String()).Observe(time.Since(started).Seconds())
	}()

	deadline, cancel := context.WithTimeout(ctx, o.config.Timeout)
	defer cancel()

	timer := time.NewTimer(o.config.PollInterval)
	defer timer.Stop()

	for run.Status.Pending() {
		if o.config.MaxPolls > 0 && st.polls >= o.config.MaxPolls {
			return run, o.timeout(ctx, run, st.polls, started)
		}

		select {
		case <-deadline.Done():
			if err := ctx.Err(); err != nil {
				return run, fmt.Errorf("waiting for run %s: %w", run.ID, err)
			}
			return run, o.timeout(ctx, run, st.polls, started)
		case <-timer.C:
		}

		next, err := o.client.RetrieveRun(deadline, run.ThreadID, run.ID)
		st.polls++
		metrics.RunPollsTotal.Inc()
		if err != nil {
			if deadline.Err() != nil && ctx.Err() == nil {
				return run, o.timeout(ctx, run, st.polls, started)
			}
			return run, err
		}

		run = next
		st.run = run
		timer.Reset(o.config.PollInterval)

		o.logger.Debug("run polled",
			zap.String("run_id", run.ID),
			zap.String("status", run.Status.String()),
			zap.Int("polls", st.polls),
		)
	}

	return run, nil
}

func (o *Orchestrator) timeout(ctx context.Context, run assistant.Run, polls int, started time.Time) error {
	cancelCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cancelTimeout)
	defer cancel()

	if _, err := o.client.CancelRun(cancelCtx, run.ThreadID, run.ID); err != nil {
		o.logger.Warn("failed to cancel timed out run",
			zap.String("run_id", run.ID),
			zap.Error(err),
		)
	}

	return &RunTimeoutError{
		ThreadID:   run.ThreadID,
		RunID:      run.ID,
		LastStatus: run.Status,
		Polls:      polls,
		Elapsed:    time.Since(started),
	}
}
