package store

import (
	"context"
	"sync"

	"github.com/manolisliolios/rwa-standard/internal/rule/models"
	"github.com/manolisliolios/rwa-standard/pkg/domain"
	"github.com/manolisliolios/rwa-standard/pkg/platform/sentinel"
)

// InMemory keeps rule records in a map.
type InMemory struct {
	mu    sync.RWMutex
	rules map[domain.Identity]*models.Rule
}

func NewInMemory() *InMemory {
	return &InMemory{rules: make(map[domain.Identity]*models.Rule)}
}

func (s *InMemory) Create(_ context.Context, r *models.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rules[r.ID]; exists {
		return sentinel.ErrConflict
	}
	s.rules[r.ID] = r.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.Identity) (*models.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rules[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return r.Clone(), nil
}

func (s *InMemory) Save(_ context.Context, r *models.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules[r.ID] = r.Clone()
	return nil
}

// Snapshot captures the current records for atomic unit rollback.
func (s *InMemory) Snapshot() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := make(map[domain.Identity]*models.Rule, len(s.rules))
	for id, r := range s.rules {
		snap[id] = r.Clone()
	}
	return snap
}

// Restore replaces the records with a previously captured snapshot.
func (s *InMemory) Restore(snapshot any) {
	snap, ok := snapshot.(map[domain.Identity]*models.Rule)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = snap
}
