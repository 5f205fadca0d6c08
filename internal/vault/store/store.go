// Package store persists vault records. Stores are interface-driven so the
// in-memory and PostgreSQL implementations stay interchangeable behind the
// services.
package store

import (
	"context"

	"github.com/manolisliolios/rwa-standard/internal/vault/models"
	"github.com/manolisliolios/rwa-standard/pkg/domain"
)

// Store is the record-level contract. The external execution environment
// (the atomic unit runner) serializes conflicting writes; stores only need
// to keep individual operations consistent.
type Store interface {
	// Create inserts a new vault. Returns sentinel.ErrConflict when a
	// record already occupies the identity.
	Create(ctx context.Context, v *models.Vault) error

	// FindByID returns a copy of the vault, or sentinel.ErrNotFound.
	FindByID(ctx context.Context, id domain.Identity) (*models.Vault, error)

	// Save upserts the vault record's balances.
	Save(ctx context.Context, v *models.Vault) error
}
