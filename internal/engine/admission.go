package engine

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/semaphore"
)

// admission bounds concurrent generations. A nil sem admits everything.
type admission struct {
	sem     *semaphore.Weighted
	maxWait time.Duration
}

func newAdmission(maxConcurrent int, maxWait time.Duration) *admission {
	a := &admission{maxWait: maxWait}
	if maxConcurrent > 0 {
		a.sem = semaphore.NewWeighted(int64(maxConcurrent))
	}
	return a
}

// acquire reserves a generation slot, waiting at most maxWait.
// Returns a release func to be deferred.
func (a *admission) acquire(ctx context.Context) (func(), error) {
	if err := ctx.Err(); err != nil {
		return func() {}, err
	}
	if a.sem == nil {
		generationsInflight.Inc()
		return func() { generationsInflight.Dec() }, nil
	}
	if a.sem.TryAcquire(1) {
		generationsInflight.Inc()
		return a.releaser(), nil
	}
	waitCtx := ctx
	if a.maxWait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, a.maxWait)
		defer cancel()
	}
	if err := a.sem.Acquire(waitCtx, 1); err != nil {
		// Parent cancellation wins over our own wait deadline.
		if ctx.Err() != nil {
			return func() {}, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			admissionRejectedTotal.Inc()
			return func() {}, ErrTooBusy(a.maxWait)
		}
		return func() {}, err
	}
	generationsInflight.Inc()
	return a.releaser(), nil
}

func (a *admission) releaser() func() {
	return func() {
		generationsInflight.Dec()
		a.sem.Release(1)
	}
}
