package scanner

import (
	"context"
	"testing"

	"github.com/hnodriturbo/Project-5-Security-Box/internal/domain"
	"github.com/hnodriturbo/Project-5-Security-Box/internal/mailbox"
	"github.com/hnodriturbo/Project-5-Security-Box/internal/ports"
)

// scriptReader replays a fixed sequence of readings; "" means no tag in the
// field. The last reading repeats once the script runs out.
type scriptReader struct {
	script []string
	pos    int
}

func (r *scriptReader) current() string {
	if r.pos >= len(r.script) {
		return r.script[len(r.script)-1]
	}
	return r.script[r.pos]
}

func (r *scriptReader) RequestPresent() bool {
	present := r.current() != ""
	if !present {
		r.pos++
	}
	return present
}

func (r *scriptReader) ReadIdentifier() (string, error) {
	id := r.current()
	r.pos++
	return id, nil
}

type nopObs struct{}

func (nopObs) LogInfo(string, ...ports.Field)            {}
func (nopObs) LogError(string, error, ...ports.Field)    {}
func (nopObs) LogCritical(string, error, ...ports.Field) {}
func (nopObs) IncCounter(string, float64)                {}
func (nopObs) SetGauge(string, float64)                  {}

func newTestScanner(r ports.CredentialReader, box *mailbox.Mailbox[domain.SensorEvent]) *Scanner {
	return New(r, box, nopObs{}, Options{
		DebounceSamples: 1,
		Whitelist:       map[string]string{"AABBCC": "card"},
		AllowPrefixes:   []string{"08"},
	})
}

func TestSameTagHeldEmitsOnce(t *testing.T) {
	box := mailbox.New[domain.SensorEvent]()
	r := &scriptReader{script: []string{"AABBCC", "AABBCC", "AABBCC", "AABBCC"}}
	s := newTestScanner(r, box)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		s.poll(ctx)
	}

	if seq := box.Seq(); seq != 1 {
		t.Fatalf("holding the same tag must emit exactly one event, got %d", seq)
	}
}

func TestRemovalThenRepresentRetriggers(t *testing.T) {
	box := mailbox.New[domain.SensorEvent]()
	r := &scriptReader{script: []string{"AABBCC", "", "AABBCC"}}
	s := newTestScanner(r, box)
	ctx := context.Background()

	s.poll(ctx)
	s.poll(ctx) // no tag: clears suppression
	s.poll(ctx)

	if seq := box.Seq(); seq != 2 {
		t.Fatalf("re-presenting after removal must retrigger, got %d events", seq)
	}
}

func TestBackToBackDifferentTagsEmitTwice(t *testing.T) {
	box := mailbox.New[domain.SensorEvent]()
	r := &scriptReader{script: []string{"AABBCC", "0811FF"}}
	s := newTestScanner(r, box)
	ctx := context.Background()

	s.poll(ctx)
	s.poll(ctx)

	if seq := box.Seq(); seq != 2 {
		t.Fatalf("different tags without a gap must both trigger, got %d", seq)
	}
	ev, _ := box.Peek()
	if ev.Identifier != "0811FF" {
		t.Fatalf("latest event should be the second tag, got %s", ev.Identifier)
	}
}

func TestDecisionMatrix(t *testing.T) {
	box := mailbox.New[domain.SensorEvent]()
	s := newTestScanner(&scriptReader{script: []string{""}}, box)

	cases := []struct {
		id      string
		allowed bool
		label   string
	}{
		{"AABBCC", true, "card"},
		{"0811FF", true, ""},
		{"FFFFFF", false, ""},
	}
	for _, c := range cases {
		if got := s.IsAllowed(c.id); got != c.allowed {
			t.Fatalf("IsAllowed(%s) = %v, want %v", c.id, got, c.allowed)
		}
		if got := s.LabelFor(c.id); got != c.label {
			t.Fatalf("LabelFor(%s) = %q, want %q", c.id, got, c.label)
		}
	}
}

func TestEventCarriesMethod(t *testing.T) {
	box := mailbox.New[domain.SensorEvent]()
	r := &scriptReader{script: []string{"AABBCC", "", "0811FF", "", "FFFFFF"}}
	s := newTestScanner(r, box)
	ctx := context.Background()

	s.poll(ctx)
	ev, _ := box.Peek()
	if !ev.Allowed || ev.Method != domain.MethodWhitelist || ev.Label != "card" {
		t.Fatalf("unexpected whitelist event: %+v", ev)
	}

	s.poll(ctx)
	s.poll(ctx)
	ev, _ = box.Peek()
	if !ev.Allowed || ev.Method != domain.MethodPrefix || ev.Label != "" {
		t.Fatalf("unexpected prefix event: %+v", ev)
	}

	s.poll(ctx)
	s.poll(ctx)
	ev, _ = box.Peek()
	if ev.Allowed || ev.Identifier != "FFFFFF" {
		t.Fatalf("unexpected denied event: %+v", ev)
	}
}

func TestDebounceRejectsUnstableReading(t *testing.T) {
	box := mailbox.New[domain.SensorEvent]()
	// First sample sees AABBCC, confirmation sample sees a different UID:
	// the changed reading must not be accepted.
	r := &scriptReader{script: []string{"AABBCC", "0811FF", "", ""}}
	s := New(r, box, nopObs{}, Options{
		DebounceSamples: 2,
		Whitelist:       map[string]string{"AABBCC": "card"},
	})
	ctx := context.Background()

	s.poll(ctx)

	if seq := box.Seq(); seq != 0 {
		t.Fatalf("unconfirmed reading must not emit, got %d events", seq)
	}
}
