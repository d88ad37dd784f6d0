// Package scanner polls the credential reader, decides allow/deny, and
// hands at most one event per presented credential to the main loop.
package scanner

import (
	"context"
	"strings"
	"time"

	"github.com/hnodriturbo/Project-5-Security-Box/internal/app/tasks"
	"github.com/hnodriturbo/Project-5-Security-Box/internal/domain"
	"github.com/hnodriturbo/Project-5-Security-Box/internal/mailbox"
	"github.com/hnodriturbo/Project-5-Security-Box/internal/ports"
)

type Options struct {
	Interval        time.Duration
	DebounceSamples int
	DebounceDelay   time.Duration
	Whitelist       map[string]string
	AllowPrefixes   []string
}

type Scanner struct {
	reader ports.CredentialReader
	events *mailbox.Mailbox[domain.SensorEvent]
	obs    ports.Observability

	interval        time.Duration
	debounceSamples int
	debounceDelay   time.Duration
	whitelist       map[string]string
	prefixes        []string

	// lastSeen suppresses repeat events while the same credential stays on
	// the reader. It is owned exclusively by the scan loop.
	lastSeen string

	now func() time.Time
}

func New(reader ports.CredentialReader, events *mailbox.Mailbox[domain.SensorEvent], obs ports.Observability, opts Options) *Scanner {
	if opts.Interval <= 0 {
		opts.Interval = 150 * time.Millisecond
	}
	if opts.DebounceSamples < 1 {
		opts.DebounceSamples = 1
	}
	if opts.DebounceDelay <= 0 {
		opts.DebounceDelay = 10 * time.Millisecond
	}
	return &Scanner{
		reader:          reader,
		events:          events,
		obs:             obs,
		interval:        opts.Interval,
		debounceSamples: opts.DebounceSamples,
		debounceDelay:   opts.DebounceDelay,
		whitelist:       opts.Whitelist,
		prefixes:        opts.AllowPrefixes,
		now:             time.Now,
	}
}

// IsAllowed reports whether the identifier passes either the exact
// whitelist or any configured allow prefix.
func (s *Scanner) IsAllowed(id string) bool {
	if _, ok := s.whitelist[id]; ok {
		return true
	}
	for _, prefix := range s.prefixes {
		if strings.HasPrefix(id, prefix) {
			return true
		}
	}
	return false
}

// LabelFor returns the whitelist label for known identifiers, else empty.
func (s *Scanner) LabelFor(id string) string {
	return s.whitelist[id]
}

// Run is the scan loop. One iteration per interval; every iteration ends at
// a yield point so the loop never starves the rest of the box.
func (s *Scanner) Run(ctx context.Context) {
	for {
		s.poll(ctx)
		if !tasks.Sleep(ctx, s.interval) {
			return
		}
	}
}

func (s *Scanner) poll(ctx context.Context) {
	id, ok := s.sample()
	if !ok {
		// Any non-success poll clears the suppression state so re-presenting
		// the same credential after removal triggers a fresh event.
		s.lastSeen = ""
		return
	}

	if id == s.lastSeen {
		return
	}

	if !s.confirm(ctx, id) {
		return
	}

	s.lastSeen = id
	s.emit(id)
}

// sample performs one request/anticollision exchange.
func (s *Scanner) sample() (string, bool) {
	if !s.reader.RequestPresent() {
		return "", false
	}
	id, err := s.reader.ReadIdentifier()
	if err != nil {
		s.obs.LogError("scanner_read_failed", err)
		return "", false
	}
	return strings.ToUpper(id), true
}

// confirm re-samples a changed reading a bounded number of times before
// accepting it, filtering single-poll noise.
func (s *Scanner) confirm(ctx context.Context, id string) bool {
	for i := 1; i < s.debounceSamples; i++ {
		if !tasks.Sleep(ctx, s.debounceDelay) {
			return false
		}
		again, ok := s.sample()
		if !ok || again != id {
			return false
		}
	}
	return true
}

func (s *Scanner) emit(id string) {
	allowed := s.IsAllowed(id)
	method := domain.MethodNone
	if allowed {
		if _, ok := s.whitelist[id]; ok {
			method = domain.MethodWhitelist
		} else {
			method = domain.MethodPrefix
		}
	}

	event := domain.SensorEvent{
		Allowed:    allowed,
		Identifier: id,
		Label:      s.LabelFor(id),
		Method:     method,
		Timestamp:  s.now(),
	}
	s.events.Put(event)

	if allowed {
		s.obs.IncCounter("secbox_access_allowed_total", 1)
	} else {
		s.obs.IncCounter("secbox_access_denied_total", 1)
	}
}
