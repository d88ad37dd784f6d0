// Package sim provides in-memory peripherals so the box software can run on
// a workstation with no hardware attached. Every type satisfies the matching
// port and behaves closely enough for the application loops not to notice.
package sim

import (
	"sync"

	"github.com/hnodriturbo/Project-5-Security-Box/internal/ports"
)

// Reader replays a script of credential identifiers. An empty entry means no
// credential is present during that poll. When the script is exhausted the
// reader either wraps around or stays silent, depending on loop.
type Reader struct {
	mu      sync.Mutex
	script  []string
	pos     int
	loop    bool
	current string
}

func NewReader(script []string, loop bool) *Reader {
	return &Reader{script: script, loop: loop}
}

func (r *Reader) RequestPresent() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pos >= len(r.script) {
		if !r.loop || len(r.script) == 0 {
			r.current = ""
			return false
		}
		r.pos = 0
	}
	r.current = r.script[r.pos]
	r.pos++
	return r.current != ""
}

func (r *Reader) ReadIdentifier() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current, nil
}

// Present injects an ad-hoc credential at the front of the script, as if a
// card had just been held against the reader.
func (r *Reader) Present(identifier string) {
	r.mu.Lock()
	r.script = append([]string{identifier}, r.script[r.pos:]...)
	r.pos = 0
	r.mu.Unlock()
}

var _ ports.CredentialReader = (*Reader)(nil)
