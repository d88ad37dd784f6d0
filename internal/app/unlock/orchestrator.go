// Package unlock sequences the solenoid pulse and its feedback under a
// re-entrancy guard: at most one unlock runs at a time, and a request that
// arrives mid-sequence is reported and dropped, never queued.
package unlock

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/hnodriturbo/Project-5-Security-Box/internal/app/feedback"
	"github.com/hnodriturbo/Project-5-Security-Box/internal/app/tasks"
	"github.com/hnodriturbo/Project-5-Security-Box/internal/domain"
	"github.com/hnodriturbo/Project-5-Security-Box/internal/ports"
)

// ErrUnlockInProgress reports a rejected re-entrant unlock request.
var ErrUnlockInProgress = errors.New("unlock: sequence already running")

// Telemetry is the slice of the link manager the orchestrator needs.
type Telemetry interface {
	PublishState(name string, value any, extra domain.Payload)
	PublishEvent(name string, extra domain.Payload)
}

type Options struct {
	PulseDuration  time.Duration
	ConfirmTimeout time.Duration
}

type Orchestrator struct {
	actuator ports.Actuator
	display  ports.Display
	animator *feedback.Animator
	link     Telemetry
	contact  ports.ContactSensor // nil when the box is not assembled
	obs      ports.Observability

	pulse          time.Duration
	confirmTimeout time.Duration

	inProgress atomic.Bool
}

func New(actuator ports.Actuator, display ports.Display, animator *feedback.Animator, link Telemetry, contact ports.ContactSensor, obs ports.Observability, opts Options) *Orchestrator {
	if opts.PulseDuration <= 0 {
		opts.PulseDuration = 5 * time.Second
	}
	if opts.ConfirmTimeout <= 0 {
		opts.ConfirmTimeout = 1200 * time.Millisecond
	}
	return &Orchestrator{
		actuator:       actuator,
		display:        display,
		animator:       animator,
		link:           link,
		contact:        contact,
		obs:            obs,
		pulse:          opts.PulseDuration,
		confirmTimeout: opts.ConfirmTimeout,
	}
}

// Unlock runs the full sequence for the given trigger reason ("rfid" or
// "remote"). The guard clears and the idle prompt returns on every path.
func (o *Orchestrator) Unlock(ctx context.Context, reason string) error {
	if !o.inProgress.CompareAndSwap(false, true) {
		o.obs.IncCounter("secbox_unlock_rejected_total", 1)
		o.obs.LogInfo("unlock_ignored", ports.Field{Key: "reason", Value: "already running"})
		o.link.PublishEvent("unlock_ignored", domain.Payload{"trigger": reason})
		return ErrUnlockInProgress
	}
	defer func() {
		o.inProgress.Store(false)
		o.idlePrompt()
	}()

	animDone := o.animator.Start(ctx, feedback.Granted())

	o.link.PublishState("lock", "unlocking", domain.Payload{"reason": reason})
	o.display.MarkActivity()
	o.display.ShowLines("UNLOCK", "Solenoid pulse", "")

	o.holdActuator(ctx)

	// The feedback task owns its own cancellation; its channel closes even
	// when it was superseded or failed.
	<-animDone

	o.confirmDrawer(ctx)

	o.link.PublishState("lock", "locked", domain.Payload{"reason": reason})
	o.obs.IncCounter("secbox_unlocks_total", 1)
	return nil
}

// Denied runs the shorter sibling flow: feedback only, no actuator, no
// guard. It terminates back at the idle prompt regardless of unlock state.
func (o *Orchestrator) Denied(ctx context.Context, event domain.SensorEvent) {
	o.display.MarkActivity()
	o.display.ShowLines("ACCESS", "DENIED", event.ShortID())

	done := o.animator.Start(ctx, feedback.Denied())
	<-done

	if !o.inProgress.Load() {
		o.idlePrompt()
	}
}

// Granted shows the accepted credential before Unlock takes over the
// display.
func (o *Orchestrator) Granted(event domain.SensorEvent) {
	label := event.Label
	if label == "" {
		label = event.ShortID()
	}
	o.display.MarkActivity()
	o.display.ShowLines("ACCESS", "GRANTED", label)
}

// holdActuator drives the unlock window: on, timed wait, off. Release is
// guaranteed even if the wait is cut short by cancellation.
func (o *Orchestrator) holdActuator(ctx context.Context) {
	o.actuator.Engage()
	defer o.actuator.Release()
	tasks.Sleep(ctx, o.pulse)
}

// confirmDrawer watches the reed switch for movement after the pulse and
// reports the outcome. Skipped when no contact sensor is fitted.
func (o *Orchestrator) confirmDrawer(ctx context.Context) {
	if o.contact == nil {
		return
	}

	baseline := o.contact.Read()
	deadline := time.Now().Add(o.confirmTimeout)
	for time.Now().Before(deadline) {
		if !tasks.Sleep(ctx, 15*time.Millisecond) {
			return
		}
		if state := o.contact.Read(); state != baseline {
			o.link.PublishEvent("unlock_confirmed", domain.Payload{"state": drawerState(state)})
			return
		}
	}
	o.link.PublishEvent("unlock_fault", domain.Payload{"reason": "no movement"})
}

func (o *Orchestrator) idlePrompt() {
	o.display.ShowLines("Enter PIN", "or", "Scan card")
}

func drawerState(closed bool) string {
	if closed {
		return "closed"
	}
	return "open"
}
