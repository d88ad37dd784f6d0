// Package feedback drives the LED strip animations. At most one animation
// runs at a time; starting a new one cancels the previous at its next frame
// boundary, and the strip is forced off on every exit path, including
// cancellation.
package feedback

import (
	"context"
	"sync"
	"time"

	"github.com/hnodriturbo/Project-5-Security-Box/internal/app/tasks"
	"github.com/hnodriturbo/Project-5-Security-Box/internal/ports"
)

// Animation renders frames until done or until ctx is cancelled. It must
// yield between frames and may leave the strip lit; the animator clears it.
type Animation func(ctx context.Context, strip ports.LightStrip)

type Animator struct {
	strip ports.LightStrip

	// mu is held across the whole supersede (cancel previous, wait for its
	// cleanup, register the next) so concurrent Start calls serialize and
	// at most one animation goroutine ever holds the strip.
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewAnimator(strip ports.LightStrip) *Animator {
	return &Animator{strip: strip}
}

// Start cancels any running animation, waits for its cleanup, and launches
// the new one. The returned channel closes when the animation finishes or
// is cancelled.
func (a *Animator) Start(ctx context.Context, anim Animation) <-chan struct{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cancelLocked()

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	a.cancel = cancel
	a.done = done

	go func() {
		defer close(done)
		defer a.strip.Off()
		anim(runCtx, a.strip)
	}()
	return done
}

// Cancel stops the running animation, if any, and waits for its cleanup.
func (a *Animator) Cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cancelLocked()
}

// cancelLocked requires a.mu. The animation goroutine never takes the lock,
// so waiting on done here cannot deadlock.
func (a *Animator) cancelLocked() {
	if a.cancel == nil {
		return
	}
	a.cancel()
	<-a.done
	a.cancel = nil
	a.done = nil
}

// Flow is the circular comet: a bright head with a fading five-pixel tail
// walking around the strip for the given number of cycles.
func Flow(r, g, b, cycles, delayMs int) Animation {
	if cycles <= 0 {
		cycles = 1
	}
	if delayMs <= 0 {
		delayMs = 40
	}
	tail := []float64{1.0, 0.6, 0.35, 0.2, 0.1}

	return func(ctx context.Context, strip ports.LightStrip) {
		n := strip.Len()
		if n <= 0 {
			return
		}
		steps := n * cycles
		for step := 0; step < steps; step++ {
			head := step % n
			strip.Fill(0, 0, 0)
			for offset, strength := range tail {
				// Normalizing modulo: stays in range even when the strip is
				// shorter than the tail.
				idx := ((head-offset)%n + n) % n
				strip.SetPixel(idx,
					int(float64(r)*strength),
					int(float64(g)*strength),
					int(float64(b)*strength))
			}
			strip.Show()
			if !tasks.Sleep(ctx, time.Duration(delayMs)*time.Millisecond) {
				return
			}
		}
	}
}

// Granted is the unlock feedback: a green comet.
func Granted() Animation {
	return Flow(0, 255, 0, 3, 40)
}

// Denied flashes the whole strip red.
func Denied() Animation {
	return Flash(255, 0, 0, 3, 180*time.Millisecond)
}

// Flash blinks the strip in one color a fixed number of times.
func Flash(r, g, b, times int, hold time.Duration) Animation {
	if times <= 0 {
		times = 1
	}
	return func(ctx context.Context, strip ports.LightStrip) {
		for i := 0; i < times; i++ {
			strip.Fill(r, g, b)
			strip.Show()
			if !tasks.Sleep(ctx, hold) {
				return
			}
			strip.Off()
			if !tasks.Sleep(ctx, hold) {
				return
			}
		}
	}
}
