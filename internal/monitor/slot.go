// internal/monitor/slot.go
package monitor

import "sync"

// Slot is the single-message hand-off between a watcher and the injection
// controller. It holds at most one pending message; a newer offer replaces
// an unconsumed older one (last wins). Messages are consumed exactly once.
type Slot struct {
	mu      sync.Mutex
	message string
	pending bool
}

// NewSlot creates an empty slot.
func NewSlot() *Slot {
	return &Slot{}
}

// Offer places a message in the slot, replacing any unconsumed one.
func (s *Slot) Offer(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
	s.pending = true
}

// Take removes and returns the pending message, if any.
func (s *Slot) Take() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.pending {
		return "", false
	}
	message := s.message
	s.message = ""
	s.pending = false
	return message, true
}

// Pending reports whether a message is waiting.
func (s *Slot) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}
