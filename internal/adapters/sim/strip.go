package sim

import (
	"sync"

	"github.com/hnodriturbo/Project-5-Security-Box/internal/ports"
)

// Strip is an in-memory pixel buffer standing in for the LED strip.
type Strip struct {
	mu         sync.Mutex
	pixels     [][3]int
	shown      [][3]int
	brightness float64
}

func NewStrip(count int) *Strip {
	if count <= 0 {
		count = 1
	}
	return &Strip{
		pixels:     make([][3]int, count),
		shown:      make([][3]int, count),
		brightness: 1,
	}
}

func (s *Strip) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pixels)
}

func (s *Strip) SetPixel(i, r, g, b int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.pixels) {
		return
	}
	s.pixels[i] = [3]int{r, g, b}
}

func (s *Strip) Fill(r, g, b int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.pixels {
		s.pixels[i] = [3]int{r, g, b}
	}
}

// Show latches the working buffer, mirroring how a real strip only changes
// when the frame is pushed out.
func (s *Strip) Show() {
	s.mu.Lock()
	defer s.mu.Unlock()
	copy(s.shown, s.pixels)
}

func (s *Strip) Off() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.pixels {
		s.pixels[i] = [3]int{}
		s.shown[i] = [3]int{}
	}
}

func (s *Strip) SetBrightness(level float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	s.brightness = level
}

// Shown returns a copy of the last pushed frame, for tests and the console
// renderer.
func (s *Strip) Shown() [][3]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][3]int, len(s.shown))
	copy(out, s.shown)
	return out
}

var _ ports.LightStrip = (*Strip)(nil)
