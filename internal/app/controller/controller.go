// Package controller is the main loop of the box: it consumes sensor events
// from the mailbox, routes remote commands, watches the drawer contact, and
// feeds the audit trail. Each responsibility runs as its own loop so a slow
// unlock sequence never blocks command reception.
package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/hnodriturbo/Project-5-Security-Box/internal/app/feedback"
	"github.com/hnodriturbo/Project-5-Security-Box/internal/app/tasks"
	"github.com/hnodriturbo/Project-5-Security-Box/internal/app/unlock"
	"github.com/hnodriturbo/Project-5-Security-Box/internal/domain"
	"github.com/hnodriturbo/Project-5-Security-Box/internal/mailbox"
	"github.com/hnodriturbo/Project-5-Security-Box/internal/ports"
)

// Telemetry is the slice of the link manager the controller publishes on.
type Telemetry interface {
	PublishEvent(name string, extra domain.Payload)
}

// AuditStore persists access decisions; best effort, never on the hot path.
type AuditStore interface {
	WriteBatch(events []domain.SensorEvent) error
}

type Options struct {
	PollInterval    time.Duration
	ContactDebounce time.Duration
}

type Controller struct {
	events   *mailbox.Mailbox[domain.SensorEvent]
	commands <-chan domain.Command
	orch     *unlock.Orchestrator
	link     Telemetry
	display  ports.Display
	strip    ports.LightStrip
	animator *feedback.Animator
	contact  ports.ContactSensor
	obs      ports.Observability

	pollInterval    time.Duration
	contactDebounce time.Duration

	handled  uint64
	auditCh  chan domain.SensorEvent
	audit    AuditStore
}

func New(
	events *mailbox.Mailbox[domain.SensorEvent],
	commands <-chan domain.Command,
	orch *unlock.Orchestrator,
	link Telemetry,
	display ports.Display,
	strip ports.LightStrip,
	animator *feedback.Animator,
	contact ports.ContactSensor,
	audit AuditStore,
	obs ports.Observability,
	opts Options,
) *Controller {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 30 * time.Millisecond
	}
	if opts.ContactDebounce <= 0 {
		opts.ContactDebounce = 30 * time.Millisecond
	}
	return &Controller{
		events:          events,
		commands:        commands,
		orch:            orch,
		link:            link,
		display:         display,
		strip:           strip,
		animator:        animator,
		contact:         contact,
		audit:           audit,
		obs:             obs,
		pollInterval:    opts.PollInterval,
		contactDebounce: opts.ContactDebounce,
		auditCh:         make(chan domain.SensorEvent, 16),
	}
}

// RunEvents polls the sensor mailbox and reacts to the latest event. The
// unlock sequence runs inline here; events arriving meanwhile supersede
// each other in the mailbox and only the newest is handled afterwards.
func (c *Controller) RunEvents(ctx context.Context) {
	for tasks.Sleep(ctx, c.pollInterval) {
		event, seq := c.events.Peek()
		if seq == c.handled {
			continue
		}
		c.handled = seq
		c.handleEvent(ctx, event)
	}
}

func (c *Controller) handleEvent(ctx context.Context, event domain.SensorEvent) {
	c.recordAudit(event)

	if event.Allowed {
		c.link.PublishEvent("rfid_allowed", domain.Payload{
			"uid":    event.Identifier,
			"label":  event.Label,
			"method": string(event.Method),
			"ts":     event.Timestamp.Format(time.RFC3339),
		})
		c.orch.Granted(event)
		if err := c.orch.Unlock(ctx, "rfid"); err != nil {
			c.obs.LogInfo("unlock_skipped", ports.Field{Key: "uid", Value: event.Identifier})
		}
		return
	}

	c.link.PublishEvent("rfid_denied", domain.Payload{
		"uid": event.Identifier,
		"ts":  event.Timestamp.Format(time.RFC3339),
	})
	c.orch.Denied(ctx, event)
}

// RunCommands executes validated remote commands from the dispatcher.
func (c *Controller) RunCommands(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-c.commands:
			c.execute(ctx, cmd)
		}
	}
}

func (c *Controller) execute(ctx context.Context, cmd domain.Command) {
	switch v := cmd.(type) {
	case domain.CmdUnlock:
		if err := c.orch.Unlock(ctx, "remote"); err != nil {
			c.obs.LogInfo("unlock_skipped", ports.Field{Key: "trigger", Value: "remote"})
		}
	case domain.CmdLightFlow:
		c.animator.Start(ctx, feedback.Flow(v.R, v.G, v.B, v.Cycles, v.DelayMs))
	case domain.CmdLightOff:
		c.animator.Cancel()
		c.strip.Off()
	case domain.CmdLightBrightness:
		c.strip.SetBrightness(v.Level)
	case domain.CmdShowStatus:
		c.display.MarkActivity()
		c.display.ShowLines(v.Title, v.Line1, v.Line2)
	default:
		c.obs.LogError("command_unhandled", fmt.Errorf("no executor for %T", cmd))
	}
}

// RunContact publishes drawer open/close transitions. Double sampling over
// the debounce window filters switch bounce.
func (c *Controller) RunContact(ctx context.Context) {
	if c.contact == nil {
		return
	}

	last := c.contact.Read()
	for tasks.Sleep(ctx, c.contactDebounce) {
		first := c.contact.Read()
		if first == last {
			continue
		}
		if !tasks.Sleep(ctx, c.contactDebounce) {
			return
		}
		if second := c.contact.Read(); second == first {
			last = second
			c.link.PublishEvent("drawer_state", domain.Payload{"state": drawerState(second)})
		}
	}
}

// RunAudit drains queued access events into the store in small batches so
// database latency stays off the event loop.
func (c *Controller) RunAudit(ctx context.Context) {
	if c.audit == nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case first := <-c.auditCh:
			batch := []domain.SensorEvent{first}
			for len(batch) < 16 {
				select {
				case ev := <-c.auditCh:
					batch = append(batch, ev)
				default:
					goto flush
				}
			}
		flush:
			if err := c.audit.WriteBatch(batch); err != nil {
				c.obs.LogError("audit_write_failed", err)
			}
		}
	}
}

func (c *Controller) recordAudit(event domain.SensorEvent) {
	if c.audit == nil {
		return
	}
	select {
	case c.auditCh <- event:
	default:
		c.obs.LogError("audit_overflow", fmt.Errorf("audit buffer full, dropping %s", event.Identifier))
	}
}

func drawerState(closed bool) string {
	if closed {
		return "closed"
	}
	return "open"
}
