// Package sequence provides the engine's monotonic event numbering.
package sequence

import "sync/atomic"

// Sequencer hands out strictly increasing, gapless sequence numbers.
// It is replay-safe: after WAL replay it is Reset to the last
// replayed value and continues from there.
type Sequencer struct {
	last atomic.Uint64
}

// New starts numbering after start: the first Next() returns start+1.
// Fresh engines start at 0.
func New(start uint64) *Sequencer {
	s := &Sequencer{}
	s.last.Store(start)
	return s
}

// Next returns the next sequence number.
func (s *Sequencer) Next() uint64 {
	return s.last.Add(1)
}

// Current returns the last issued sequence number.
func (s *Sequencer) Current() uint64 {
	return s.last.Load()
}

// Reset rewinds or advances the counter. Only used after replay.
func (s *Sequencer) Reset(v uint64) {
	s.last.Store(v)
}
