package llm

import (
	"context"
	"fmt"
	"sync"
)

// Scripted is a Provider that replays a fixed sequence of responses. It is
// used by the demo command and by tests that need deterministic model output
// without a network dependency.
type Scripted struct {
	mu        sync.Mutex
	responses []string
	next      int
}

// NewScripted creates a provider that returns the given responses in order.
// Once exhausted, it keeps returning the last response.
func NewScripted(responses ...string) *Scripted {
	return &Scripted{responses: responses}
}

// Complete returns the next scripted response.
func (s *Scripted) Complete(_ context.Context, _ []Message) (*Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.responses) == 0 {
		return nil, fmt.Errorf("scripted provider has no responses")
	}
	content := s.responses[s.next]
	if s.next < len(s.responses)-1 {
		s.next++
	}
	return &Response{Content: content}, nil
}
