package intake

import (
	"context"
	"sync"
)

// Sessions allows one categorisation at a time per intake session
type Sessions struct {
	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewSessions creates an empty session tracker
func NewSessions() *Sessions {
	return &Sessions{inflight: make(map[string]struct{})}
}

// Run calls c for the session. It fails with ErrIntakeInFlight while another
// call for the same session is outstanding, and drops the result when ctx
// was cancelled before the call returned.
func (s *Sessions) Run(ctx context.Context, sessionID string, c Categorizer, text string) (Proposal, error) {
	s.mu.Lock()
	if _, busy := s.inflight[sessionID]; busy {
		s.mu.Unlock()
		return Proposal{}, ErrIntakeInFlight
	}
	s.inflight[sessionID] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inflight, sessionID)
		s.mu.Unlock()
	}()

	p, err := c.Categorize(ctx, text)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Proposal{}, ctxErr
	}
	return p, err
}
