package promptbuilder

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrConflict is returned when an atomic update lost every retry.
var ErrConflict = errors.New("form state changed concurrently")

// Store keeps one FormState per session id. Missing or expired ids read as
// the zero state.
type Store interface {
	Load(ctx context.Context, id string) (FormState, error)
	// Update runs fn on the current state and saves the result atomically.
	// fn may run more than once and must not keep side effects between runs.
	// When fn returns an error nothing is saved.
	Update(ctx context.Context, id string, fn func(*FormState) error) (FormState, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
	Close() error
}

type memoryEntry struct {
	state     FormState
	expiresAt time.Time
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	ttl     time.Duration
	now     func() time.Time

	stop      chan struct{}
	closeOnce sync.Once
}

// NewMemoryStore starts a cleanup goroutine when cleanupInterval is positive;
// Close stops it.
func NewMemoryStore(ttl, cleanupInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]*memoryEntry),
		ttl:     ttl,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go s.cleanupLoop(cleanupInterval)
	}
	return s
}

func (s *MemoryStore) Load(_ context.Context, id string) (FormState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.live(id)
	if entry == nil {
		return FormState{}, nil
	}
	return entry.state.Clone(), nil
}

func (s *MemoryStore) Update(_ context.Context, id string, fn func(*FormState) error) (FormState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var state FormState
	if entry := s.live(id); entry != nil {
		state = entry.state.Clone()
	}

	if err := fn(&state); err != nil {
		return FormState{}, err
	}

	now := s.now()
	state.UpdatedAt = now
	s.entries[id] = &memoryEntry{state: state.Clone(), expiresAt: now.Add(s.ttl)}
	return state, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() { close(s.stop) })
	return nil
}

// Len reports the number of stored sessions, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// live returns the entry for id, dropping it if expired. Caller holds mu.
func (s *MemoryStore) live(id string) *memoryEntry {
	entry, ok := s.entries[id]
	if !ok {
		return nil
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.entries, id)
		return nil
	}
	return entry
}

func (s *MemoryStore) purgeExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	purged := 0
	for id, entry := range s.entries {
		if !now.Before(entry.expiresAt) {
			delete(s.entries, id)
			purged++
		}
	}
	return purged
}

func (s *MemoryStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.purgeExpired()
		case <-s.stop:
			return
		}
	}
}
