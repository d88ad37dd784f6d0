package sim

import (
	"log"
	"sync"
	"time"

	"github.com/hnodriturbo/Project-5-Security-Box/internal/ports"
)

// Display writes screens to the process log instead of an OLED.
type Display struct {
	mu   sync.Mutex
	last [3]string
}

func NewDisplay() *Display {
	return &Display{}
}

func (d *Display) ShowLines(title, line1, line2 string) {
	d.mu.Lock()
	d.last = [3]string{title, line1, line2}
	d.mu.Unlock()
	log.Printf("display | %-10s | %-14s | %s", title, line1, line2)
}

func (d *Display) MarkActivity() {}

// Last returns the most recent screen, for tests.
func (d *Display) Last() (title, line1, line2 string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last[0], d.last[1], d.last[2]
}

// Bench couples a simulated solenoid to a simulated drawer contact: engaging
// the solenoid makes the drawer swing open after openDelay, so the full
// unlock-and-confirm sequence works end to end without hardware.
type Bench struct {
	mu        sync.Mutex
	engaged   bool
	opensAt   time.Time
	openDelay time.Duration
}

func NewBench(openDelay time.Duration) *Bench {
	if openDelay <= 0 {
		openDelay = 200 * time.Millisecond
	}
	return &Bench{openDelay: openDelay}
}

// Actuator returns the solenoid side of the bench.
func (b *Bench) Actuator() ports.Actuator { return (*benchActuator)(b) }

// Contact returns the drawer switch side of the bench.
func (b *Bench) Contact() ports.ContactSensor { return (*benchContact)(b) }

type benchActuator Bench

func (a *benchActuator) Engage() {
	a.mu.Lock()
	a.engaged = true
	a.opensAt = time.Now().Add(a.openDelay)
	a.mu.Unlock()
	log.Printf("actuator | engaged")
}

func (a *benchActuator) Release() {
	a.mu.Lock()
	a.engaged = false
	a.mu.Unlock()
	log.Printf("actuator | released")
}

type benchContact Bench

// Read reports true while the drawer is closed, matching the reed switch.
func (c *benchContact) Read() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.opensAt.IsZero() {
		return true
	}
	return time.Now().Before(c.opensAt)
}

var (
	_ ports.Display = (*Display)(nil)
)
