package state

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/taskbot/core/logger"
)

type memoryEntry[T any] struct {
	value     T
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory. Entries expire after ttl;
// expired entries are dropped lazily on access and by Sweep.
type MemoryStore[T any] struct {
	mu       sync.RWMutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[int64]memoryEntry[T]
}

// NewMemoryStore constructs an in-memory Store. ttl <= 0 disables expiry.
func NewMemoryStore[T any](ttl time.Duration) *MemoryStore[T] {
	return &MemoryStore[T]{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[int64]memoryEntry[T]),
	}
}

// Get returns the session for a user, or the zero value if none is live.
func (m *MemoryStore[T]) Get(_ context.Context, userID int64) (T, error) {
	m.mu.RLock()
	entry, ok := m.sessions[userID]
	m.mu.RUnlock()

	var zero T
	if !ok {
		return zero, nil
	}
	if m.expired(entry) {
		m.mu.Lock()
		delete(m.sessions, userID)
		m.mu.Unlock()
		return zero, nil
	}
	return entry.value, nil
}

// Update merges mutate into the user's session and refreshes its expiry.
func (m *MemoryStore[T]) Update(_ context.Context, userID int64, mutate func(*T)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.sessions[userID]
	if !ok || m.expired(entry) {
		entry = memoryEntry[T]{}
	}
	mutate(&entry.value)
	if m.ttl > 0 {
		entry.expiresAt = m.now().Add(m.ttl)
	}
	m.sessions[userID] = entry
	return nil
}

// Delete removes the entire session for a user.
func (m *MemoryStore[T]) Delete(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}

// Len reports the number of stored sessions, expired ones included.
func (m *MemoryStore[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep drops expired sessions and returns how many were removed.
func (m *MemoryStore[T]) Sweep() int {
	m.mu.Lock()
	removed := 0
	for id, entry := range m.sessions {
		if m.expired(entry) {
			delete(m.sessions, id)
			removed++
		}
	}
	left := len(m.sessions)
	m.mu.Unlock()

	if removed > 0 {
		logger.Debug(logger.Background(), "session", "session.sweep",
			slog.String("status", "ok"),
			slog.Int("count", removed),
			slog.Int("left", left),
		)
	}
	return removed
}

func (m *MemoryStore[T]) expired(e memoryEntry[T]) bool {
	return !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt)
}
