// Package dispatch validates inbound remote commands and turns them into
// the closed set of command variants the controller executes. Validation is
// a static whitelist; anything outside it is reported and discarded without
// side effects.
package dispatch

import (
	"fmt"

	"github.com/hnodriturbo/Project-5-Security-Box/internal/domain"
	"github.com/hnodriturbo/Project-5-Security-Box/internal/ports"
)

// allowedCalls is the full remote-call surface: target name to the set of
// callable method names. Nothing outside this table is ever resolved.
var allowedCalls = map[string]map[string]bool{
	"led": {
		"flow":           true,
		"turn_off":       true,
		"set_brightness": true,
	},
	"oled": {
		"show_status": true,
	},
}

// EventReporter publishes rejection telemetry; the link manager satisfies it.
type EventReporter interface {
	PublishEvent(name string, extra domain.Payload)
}

type Dispatcher struct {
	obs      ports.Observability
	events   EventReporter
	commands chan<- domain.Command
}

// New wires a dispatcher that delivers accepted commands into the given
// channel. Delivery never blocks: the channel should be buffered, and a
// full channel drops the command with a log line rather than stalling the
// network RX path.
func New(obs ports.Observability, events EventReporter, commands chan<- domain.Command) *Dispatcher {
	return &Dispatcher{obs: obs, events: events, commands: commands}
}

// Handle is the inbound message callback registered with the link manager.
func (d *Dispatcher) Handle(topic string, payload domain.Payload) {
	cmd, err := d.parse(payload)
	if err != nil {
		d.reject(err)
		return
	}
	if cmd == nil {
		// Not a command payload (telemetry echo on a shared topic): ignore.
		return
	}

	select {
	case d.commands <- cmd:
	default:
		d.obs.LogError("dispatch_overflow", fmt.Errorf("command channel full, dropping %T", cmd))
	}
}

func (d *Dispatcher) parse(payload domain.Payload) (domain.Command, error) {
	name, ok := payload["command"].(string)
	if !ok {
		if _, isEvent := payload["event"]; isEvent {
			return nil, nil
		}
		return nil, fmt.Errorf("payload without command discriminator")
	}

	switch name {
	case "unlock":
		return domain.CmdUnlock{}, nil
	case "call":
		return d.parseCall(payload)
	default:
		return nil, fmt.Errorf("unknown command %q", name)
	}
}

func (d *Dispatcher) parseCall(payload domain.Payload) (domain.Command, error) {
	target, _ := payload["target"].(string)
	method, _ := payload["method"].(string)

	methods, ok := allowedCalls[target]
	if !ok {
		return nil, fmt.Errorf("call target %q not whitelisted", target)
	}
	if !methods[method] {
		return nil, fmt.Errorf("method %q not allowed on target %q", method, target)
	}

	args, _ := payload["args"].(map[string]any)

	switch target + "." + method {
	case "led.flow":
		return domain.CmdLightFlow{
			R:       intArg(args, "r", 0),
			G:       intArg(args, "g", 0),
			B:       intArg(args, "b", 200),
			Cycles:  intArg(args, "cycles", 3),
			DelayMs: intArg(args, "delay_ms", 40),
		}, nil
	case "led.turn_off":
		return domain.CmdLightOff{}, nil
	case "led.set_brightness":
		return domain.CmdLightBrightness{Level: floatArg(args, "level", 0.15)}, nil
	case "oled.show_status":
		return domain.CmdShowStatus{
			Title: strArg(args, "title"),
			Line1: strArg(args, "line1"),
			Line2: strArg(args, "line2"),
		}, nil
	}
	// Unreachable while the switch covers the whitelist table.
	return nil, fmt.Errorf("call %s.%s has no decoder", target, method)
}

func (d *Dispatcher) reject(err error) {
	d.obs.IncCounter("secbox_commands_rejected_total", 1)
	d.obs.LogError("dispatch_rejected", err)
	if d.events != nil {
		d.events.PublishEvent("command_rejected", domain.Payload{"reason": err.Error()})
	}
}

func intArg(args map[string]any, key string, def int) int {
	if v, ok := args[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

func floatArg(args map[string]any, key string, def float64) float64 {
	if v, ok := args[key]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		}
	}
	return def
}

func strArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}
