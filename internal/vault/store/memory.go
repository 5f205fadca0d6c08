package store

import (
	"context"
	"sync"

	"github.com/manolisliolios/rwa-standard/internal/vault/models"
	"github.com/manolisliolios/rwa-standard/pkg/domain"
	"github.com/manolisliolios/rwa-standard/pkg/platform/sentinel"
)

// InMemory keeps vault records in a map. It favors clarity over
// performance and backs unit tests and single-node deployments.
type InMemory struct {
	mu     sync.RWMutex
	vaults map[domain.Identity]*models.Vault
}

func NewInMemory() *InMemory {
	return &InMemory{vaults: make(map[domain.Identity]*models.Vault)}
}

func (s *InMemory) Create(_ context.Context, v *models.Vault) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.vaults[v.ID]; exists {
		return sentinel.ErrConflict
	}
	s.vaults[v.ID] = v.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.Identity) (*models.Vault, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vaults[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return v.Clone(), nil
}

func (s *InMemory) Save(_ context.Context, v *models.Vault) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vaults[v.ID] = v.Clone()
	return nil
}

// Snapshot captures the current records so an aborted atomic unit can
// restore them. Called only under the unit runner's lock.
func (s *InMemory) Snapshot() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := make(map[domain.Identity]*models.Vault, len(s.vaults))
	for id, v := range s.vaults {
		snap[id] = v.Clone()
	}
	return snap
}

// Restore replaces the records with a previously captured snapshot.
func (s *InMemory) Restore(snapshot any) {
	snap, ok := snapshot.(map[domain.Identity]*models.Vault)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vaults = snap
}
