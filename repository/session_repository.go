package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"complaintdraft-backend/models"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExists   = errors.New("session already exists")
)

// SessionStore holds intake sessions
type SessionStore interface {
	// Create stores a new session
	Create(ctx context.Context, session *models.Session) error

	// Get returns a snapshot of the session
	Get(ctx context.Context, id uuid.UUID) (*models.Session, error)

	// Update runs fn on a working copy of the session while holding the
	// session's lock. The copy replaces the stored session only if fn succeeds.
	Update(ctx context.Context, id uuid.UUID, fn func(*models.Session) error) error
}

type sessionEntry struct {
	mu      sync.Mutex
	session *models.Session
}

// MemorySessionStore keeps sessions in process memory. Operations on the same
// session are serialized; different sessions proceed independently. Sessions
// live until the process exits.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*sessionEntry
	now      func() time.Time
}

// NewMemorySessionStore creates an empty in-memory session store
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[uuid.UUID]*sessionEntry),
		now:      time.Now,
	}
}

// Create stores a new session
func (r *MemorySessionStore) Create(ctx context.Context, session *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[session.ID]; ok {
		return ErrSessionExists
	}

	now := r.now()
	stored := session.Clone()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	session.CreatedAt = now
	session.UpdatedAt = now

	r.sessions[session.ID] = &sessionEntry{session: stored}
	return nil
}

// Get returns a snapshot of the session
func (r *MemorySessionStore) Get(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	entry, err := r.entry(id)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.session.Clone(), nil
}

// Update applies fn to a working copy of the session
func (r *MemorySessionStore) Update(ctx context.Context, id uuid.UUID, fn func(*models.Session) error) error {
	entry, err := r.entry(id)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	working := entry.session.Clone()
	if err := fn(working); err != nil {
		return err
	}
	working.ID = entry.session.ID
	working.UpdatedAt = r.now()
	entry.session = working
	return nil
}

// Len returns the number of stored sessions
func (r *MemorySessionStore) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *MemorySessionStore) entry(id uuid.UUID) (*sessionEntry, error) {
	r.mu.RLock()
	entry, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return entry, nil
}
