package session

import (
	"sync"

	"github.com/jmcleod/vrchatbot/vrchat"
)

// LastUsable is a single-slot cache of the most recently validated client
// handed out by RandomClient.
type LastUsable struct {
	mu        sync.Mutex
	sessionID string
	client    *vrchat.Client
}

// Get returns the cached client and the session it belongs to.
func (l *LastUsable) Get() (string, *vrchat.Client, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sessionID, l.client, l.client != nil
}

// Set replaces the cached client.
func (l *LastUsable) Set(sessionID string, c *vrchat.Client) {
	l.mu.Lock()
	l.sessionID, l.client = sessionID, c
	l.mu.Unlock()
}

// Reset empties the cache.
func (l *LastUsable) Reset() {
	l.mu.Lock()
	l.sessionID, l.client = "", nil
	l.mu.Unlock()
}

// invalidate empties the cache only if it still holds c, so a client
// validated concurrently by another caller is not thrown away.
func (l *LastUsable) invalidate(c *vrchat.Client) {
	l.mu.Lock()
	if l.client == c {
		l.sessionID, l.client = "", nil
	}
	l.mu.Unlock()
}

func (l *LastUsable) invalidateSession(sessionID string) {
	l.mu.Lock()
	if l.client != nil && l.sessionID == sessionID {
		l.sessionID, l.client = "", nil
	}
	l.mu.Unlock()
}
