// Package store persists rule records behind the same interface for the
// in-memory and PostgreSQL implementations.
package store

import (
	"context"

	"github.com/manolisliolios/rwa-standard/internal/rule/models"
	"github.com/manolisliolios/rwa-standard/pkg/domain"
)

type Store interface {
	// Create inserts a new rule. Returns sentinel.ErrConflict when a
	// record already occupies the identity.
	Create(ctx context.Context, r *models.Rule) error

	// FindByID returns a copy of the rule, or sentinel.ErrNotFound.
	FindByID(ctx context.Context, id domain.Identity) (*models.Rule, error)

	// Save upserts the rule record's mutable state (treasury supply and
	// command hints).
	Save(ctx context.Context, r *models.Rule) error
}
