package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/manolisliolios/rwa-standard/internal/vault/models"
	"github.com/manolisliolios/rwa-standard/pkg/domain"
	"github.com/manolisliolios/rwa-standard/pkg/platform/sentinel"
	txcontext "github.com/manolisliolios/rwa-standard/pkg/platform/tx"
)

// Postgres persists vault records in PostgreSQL. Balances are stored as a
// JSONB document: the record is always read and written whole, matching
// the single-writer-per-record execution model.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const uniqueViolation = "23505"

func (s *Postgres) Create(ctx context.Context, v *models.Vault) error {
	balances, err := json.Marshal(v.Balances)
	if err != nil {
		return fmt.Errorf("marshal balances: %w", err)
	}
	_, err = s.execer(ctx).ExecContext(ctx,
		`INSERT INTO vaults (id, owner_key, balances) VALUES ($1, $2, $3)`,
		v.ID.String(), string(v.Owner), balances,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert vault: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.Identity) (*models.Vault, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT owner_key, balances FROM vaults WHERE id = $1`, id.String(),
	)
	var owner string
	var balances []byte
	if err := row.Scan(&owner, &balances); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("select vault: %w", err)
	}
	v := models.New(id, domain.OwnerKey(owner))
	if err := json.Unmarshal(balances, &v.Balances); err != nil {
		return nil, fmt.Errorf("unmarshal balances: %w", err)
	}
	return v, nil
}

func (s *Postgres) Save(ctx context.Context, v *models.Vault) error {
	balances, err := json.Marshal(v.Balances)
	if err != nil {
		return fmt.Errorf("marshal balances: %w", err)
	}
	_, err = s.execer(ctx).ExecContext(ctx,
		`INSERT INTO vaults (id, owner_key, balances) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET balances = EXCLUDED.balances`,
		v.ID.String(), string(v.Owner), balances,
	)
	if err != nil {
		return fmt.Errorf("upsert vault: %w", err)
	}
	return nil
}

// EnsureSchema creates the vaults table when it does not exist yet.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS vaults (
			id        TEXT PRIMARY KEY,
			owner_key TEXT NOT NULL,
			balances  JSONB NOT NULL DEFAULT '{}'::jsonb
		)`)
	if err != nil {
		return fmt.Errorf("ensure vaults schema: %w", err)
	}
	return nil
}
