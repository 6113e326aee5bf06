package session

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrNotFound is returned when no session exists for a conversation.
var ErrNotFound = errors.New("session not found")

// Repository stores sessions keyed by conversation ID. Implementations hand
// out copies; callers persist changes with Save.
type Repository interface {
	Get(ctx context.Context, conversationID string) (*Session, error)
	Create(ctx context.Context, conversationID string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, conversationID string) (bool, error)
	List(ctx context.Context) ([]*Session, error)
}

// MemoryRepository is a mutex-guarded map.
type MemoryRepository struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewMemoryRepository creates an empty repository. now may be nil.
func NewMemoryRepository(now func() time.Time) *MemoryRepository {
	if now == nil {
		now = time.Now
	}
	return &MemoryRepository{
		sessions: make(map[string]*Session),
		now:      now,
	}
}

func (r *MemoryRepository) Get(_ context.Context, conversationID string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[conversationID]
	if !ok {
		return nil, ErrNotFound
	}
	return s.Clone(), nil
}

// Create replaces any existing session for the conversation with a fresh one.
func (r *MemoryRepository) Create(_ context.Context, conversationID string) (*Session, error) {
	s := New(conversationID, r.now())
	r.mu.Lock()
	r.sessions[conversationID] = s
	r.mu.Unlock()
	return s.Clone(), nil
}

func (r *MemoryRepository) Save(_ context.Context, s *Session) error {
	if s == nil || s.ConversationID == "" {
		return errors.New("session without conversation id")
	}
	stored := s.Clone()
	stored.UpdatedAt = r.now()
	r.mu.Lock()
	r.sessions[s.ConversationID] = stored
	r.mu.Unlock()
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, conversationID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[conversationID]; !ok {
		return false, nil
	}
	delete(r.sessions, conversationID)
	return true, nil
}

// List returns all sessions, most recently updated first.
func (r *MemoryRepository) List(_ context.Context) ([]*Session, error) {
	r.mu.RLock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s.Clone())
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

var _ Repository = (*MemoryRepository)(nil)
