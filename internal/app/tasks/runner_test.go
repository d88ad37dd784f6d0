package tasks

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hnodriturbo/Project-5-Security-Box/internal/ports"
)

type recordObs struct {
	criticals atomic.Int32
	errors    atomic.Int32
}

func (o *recordObs) LogInfo(string, ...ports.Field) {}
func (o *recordObs) LogError(string, error, ...ports.Field) {
	o.errors.Add(1)
}
func (o *recordObs) LogCritical(string, error, ...ports.Field) {
	o.criticals.Add(1)
}
func (o *recordObs) IncCounter(string, float64) {}
func (o *recordObs) SetGauge(string, float64)   {}

func TestRunnerStopsOnCancel(t *testing.T) {
	obs := &recordObs{}
	r := NewRunner(obs)
	ctx, cancel := context.WithCancel(context.Background())

	var ticks atomic.Int32
	r.Go(ctx, "ticker", func(ctx context.Context) {
		for Sleep(ctx, time.Millisecond) {
			ticks.Add(1)
		}
	})

	time.Sleep(20 * time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() {
		r.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("runner did not stop after cancel")
	}
	if ticks.Load() == 0 {
		t.Fatalf("loop never ran")
	}
}

func TestRunnerRecoversPanicAndRestarts(t *testing.T) {
	obs := &recordObs{}
	r := NewRunner(obs)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int32
	r.Go(ctx, "flaky", func(ctx context.Context) {
		if runs.Add(1) == 1 {
			panic("boom")
		}
		<-ctx.Done()
	})

	deadline := time.Now().Add(time.Second)
	for runs.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if runs.Load() < 2 {
		t.Fatalf("panicked loop was not restarted")
	}
	if obs.criticals.Load() == 0 {
		t.Fatalf("panic was not logged as critical")
	}

	cancel()
	r.Wait()
}

func TestSleepReturnsFalseWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if Sleep(ctx, time.Hour) {
		t.Fatalf("Sleep should observe cancellation immediately")
	}
}
