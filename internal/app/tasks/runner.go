// Package tasks runs the long-lived loops of the box. Each loop is an
// independent unit of work bound to the root context: a stalled or failing
// loop never delays the others, and cancellation is observed at iteration
// boundaries.
package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hnodriturbo/Project-5-Security-Box/internal/ports"
)

// Runner owns the lifecycle of named loops. Loops are expected to run until
// the context is cancelled; a loop that panics is logged and restarted after
// a short delay rather than taking the process down.
type Runner struct {
	obs ports.Observability
	wg  sync.WaitGroup
}

func NewRunner(obs ports.Observability) *Runner {
	return &Runner{obs: obs}
}

// Go launches fn as a supervised loop. fn must return promptly once ctx is
// done; any other return is treated as a transient failure and the loop is
// relaunched.
func (r *Runner) Go(ctx context.Context, name string, fn func(ctx context.Context)) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			r.runOnce(ctx, name, fn)
			if ctx.Err() != nil {
				return
			}
			r.obs.LogError("task_restarted", fmt.Errorf("task %s exited early", name))
			select {
			case <-ctx.Done():
				return
			case <-time.After(100 * time.Millisecond):
			}
		}
	}()
}

func (r *Runner) runOnce(ctx context.Context, name string, fn func(ctx context.Context)) {
	defer func() {
		if rec := recover(); rec != nil {
			r.obs.LogCritical("task_panic", fmt.Errorf("task %s: %v", name, rec))
		}
	}()
	fn(ctx)
}

// Wait blocks until every launched loop has returned.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Sleep waits for d or until ctx is cancelled, reporting whether the full
// delay elapsed. Loop bodies use it as their yield point.
func Sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
