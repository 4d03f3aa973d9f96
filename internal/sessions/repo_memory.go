package sessions

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repository used by tests.
type MemoryRepo struct {
	mu       sync.Mutex
	sessions map[string]Session
	messages map[string][]Message
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		sessions: make(map[string]Session),
		messages: make(map[string][]Message),
	}
}

func (r *MemoryRepo) Insert(ctx context.Context, s Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return s, nil
}

func (r *MemoryRepo) SetContact(ctx context.Context, id, contactNumber string) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	s.ContactNumber = contactNumber
	r.sessions[id] = s
	return s, nil
}

func (r *MemoryRepo) Close(ctx context.Context, id string, at time.Time) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	if s.Status == StatusEnded {
		return s, nil
	}
	s.Status = StatusEnded
	s.EndedAt = &at
	r.sessions[id] = s
	return s, nil
}

func (r *MemoryRepo) AppendMessage(ctx context.Context, m Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[m.SessionID]
	if !ok {
		return ErrNotFound
	}
	if s.Status == StatusEnded {
		return ErrSessionClosed
	}
	r.messages[m.SessionID] = append(r.messages[m.SessionID], m)
	return nil
}

func (r *MemoryRepo) ListMessages(ctx context.Context, sessionID string, limit int) ([]Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := r.messages[sessionID]
	out := make([]Message, len(msgs))
	copy(out, msgs)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
