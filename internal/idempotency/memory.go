package idempotency

import (
	"context"
	"sync"
	"time"
)

// InMemory holds records in a map with per-entry expiry. Suited to a
// single instance; distributed deployments use the Redis store.
type InMemory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	record    Record
	expiresAt time.Time
}

func NewInMemory() *InMemory {
	return &InMemory{entries: make(map[string]memoryEntry)}
}

func (s *InMemory) Get(_ context.Context, key string) (Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key]
	if !ok {
		return Record{}, false, nil
	}
	if time.Now().After(entry.expiresAt) {
		delete(s.entries, key)
		return Record{}, false, nil
	}
	return entry.record, true, nil
}

func (s *InMemory) Put(_ context.Context, key string, record Record, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.entries[key]; ok && time.Now().Before(entry.expiresAt) {
		return nil
	}
	s.entries[key] = memoryEntry{record: record, expiresAt: time.Now().Add(ttl)}
	return nil
}
