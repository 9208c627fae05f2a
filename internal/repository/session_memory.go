package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meetpoint/service-pickup/internal/domain/pickup"
)

const defaultSweepInterval = time.Minute

type memoryEntry struct {
	record    sessionRecord
	expiresAt time.Time
}

// MemorySessionRepository keeps sessions in process memory with a TTL. It is
// the default store for single-instance deployments; sessions do not survive
// a restart.
type MemorySessionRepository struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]memoryEntry
	ttl     time.Duration

	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemorySessionRepository creates an in-memory store. Expired sessions are
// swept in the background until Close is called.
func NewMemorySessionRepository(ttl time.Duration) *MemorySessionRepository {
	r := &MemorySessionRepository{
		entries: make(map[uuid.UUID]memoryEntry),
		ttl:     ttl,
		stop:    make(chan struct{}),
	}
	go r.sweep()
	return r
}

// FindByID retrieves a session by its unique identifier.
func (r *MemorySessionRepository) FindByID(_ context.Context, id uuid.UUID) (*pickup.ResolutionSession, error) {
	r.mu.RLock()
	entry, ok := r.entries[id]
	r.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return nil, pickup.NewSessionNotFoundError(id.String())
	}
	return entry.record.toDomain(), nil
}

// Save persists a new session.
func (r *MemorySessionRepository) Save(_ context.Context, session *pickup.ResolutionSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[session.ID()] = memoryEntry{
		record:    newSessionRecord(session),
		expiresAt: time.Now().Add(r.ttl),
	}
	return nil
}

// Update persists changes to an existing session with optimistic locking and
// renews its TTL.
func (r *MemorySessionRepository) Update(_ context.Context, session *pickup.ResolutionSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[session.ID()]
	if !ok || time.Now().After(entry.expiresAt) {
		return pickup.NewSessionNotFoundError(session.ID().String())
	}
	if entry.record.Version != session.Version()-1 {
		return ErrVersionConflict
	}

	r.entries[session.ID()] = memoryEntry{
		record:    newSessionRecord(session),
		expiresAt: time.Now().Add(r.ttl),
	}
	return nil
}

// Delete removes a session.
func (r *MemorySessionRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
	return nil
}

// Close stops the background sweeper.
func (r *MemorySessionRepository) Close() error {
	r.stopOnce.Do(func() { close(r.stop) })
	return nil
}

func (r *MemorySessionRepository) sweep() {
	interval := r.ttl / 2
	if interval <= 0 || interval > defaultSweepInterval {
		interval = defaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case now := <-ticker.C:
			r.mu.Lock()
			for id, entry := range r.entries {
				if now.After(entry.expiresAt) {
					delete(r.entries, id)
				}
			}
			r.mu.Unlock()
		}
	}
}

var _ pickup.SessionRepository = (*MemorySessionRepository)(nil)
