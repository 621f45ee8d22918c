package instrument

import (
	"sync/atomic"
)

const (
	// ScopeSize is the length of one waveform capture.
	ScopeSize = 256
	// every scopeDecimation-th mix sample is captured
	scopeDecimation = 4
)

// Scope is the single-slot mailbox carrying a decimated copy of the mix to
// the display. The audio context writes only the front array; once full it is
// copied into the back array and the ready flag set. The control context
// reads only the back array and clears the flag. When the consumer is slow a
// completed capture is dropped rather than published, which keeps the
// handoff race-free; the loss is inaudible and invisible. This is not a
// queue: latest capture wins.
type Scope struct {
	front [ScopeSize]float32
	back  [ScopeSize]float32
	pos   int
	phase int
	ready atomic.Bool
}

// capture accumulates decimated mix samples; audio context only.
func (s *Scope) capture(mix []float32) {
	for _, v := range mix {
		if s.phase == 0 {
			s.front[s.pos] = v
			s.pos++
			if s.pos == ScopeSize {
				s.pos = 0
				if !s.ready.Load() {
					s.back = s.front
					s.ready.Store(true)
				}
			}
		}
		s.phase++
		if s.phase == scopeDecimation {
			s.phase = 0
		}
	}
}

// Latest copies the most recent completed capture into dst and clears the
// mailbox. It returns false when no new capture is available. Control
// context only.
func (s *Scope) Latest(dst []float32) bool {
	if !s.ready.Load() {
		return false
	}
	copy(dst, s.back[:])
	s.ready.Store(false)
	return true
}
