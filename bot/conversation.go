package bot

import (
	"context"
	"sync"
	"time"
)

// step consumes the next message of a pending conversation. A nil next
// ends the conversation; returning the same step re-prompts.
type step func(ctx context.Context, r *request, text string) (replies []string, next step)

type pending struct {
	next      step
	expiresAt time.Time
}

// conversationStore holds at most one pending conversation per session.
type conversationStore struct {
	mu   sync.Mutex
	data map[string]pending
	now  func() time.Time
}

func newConversationStore() *conversationStore {
	return &conversationStore{
		data: make(map[string]pending),
		now:  time.Now,
	}
}

// put replaces the session's pending conversation.
func (s *conversationStore) put(sessionID string, next step, ttl time.Duration) {
	s.mu.Lock()
	s.data[sessionID] = pending{next: next, expiresAt: s.now().Add(ttl)}
	s.mu.Unlock()
}

// take removes and returns the session's pending conversation, if it has
// not expired.
func (s *conversationStore) take(sessionID string) (step, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.data[sessionID]
	if !ok {
		return nil, false
	}
	delete(s.data, sessionID)
	if s.now().After(p.expiresAt) {
		return nil, false
	}
	return p.next, true
}

func (s *conversationStore) delete(sessionID string) {
	s.mu.Lock()
	delete(s.data, sessionID)
	s.mu.Unlock()
}

func (s *conversationStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

func (s *conversationStore) sweepExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, p := range s.data {
		if now.After(p.expiresAt) {
			delete(s.data, id)
		}
	}
}
