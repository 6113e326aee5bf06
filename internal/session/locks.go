package session

import "sync"

// Locks serializes work per conversation. Inbound events, reminder firings
// and quote submissions for the same conversation never interleave.
type Locks struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

func NewLocks() *Locks {
	return &Locks{locks: make(map[string]*entry)}
}

// Lock blocks until the conversation is free and returns the unlock func.
func (l *Locks) Lock(conversationID string) func() {
	l.mu.Lock()
	e, ok := l.locks[conversationID]
	if !ok {
		e = &entry{}
		l.locks[conversationID] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.locks, conversationID)
		}
		l.mu.Unlock()
	}
}
