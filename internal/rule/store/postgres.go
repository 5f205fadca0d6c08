package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/manolisliolios/rwa-standard/internal/rule/models"
	"github.com/manolisliolios/rwa-standard/pkg/domain"
	"github.com/manolisliolios/rwa-standard/pkg/platform/sentinel"
	txcontext "github.com/manolisliolios/rwa-standard/pkg/platform/tx"
)

// Postgres persists rule records in PostgreSQL. The treasury and command
// hints travel as JSONB; the clawback flag and authorization id are
// columns because they never change after registration.
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

func (s *Postgres) Create(ctx context.Context, r *models.Rule) error {
	treasury, hints, err := marshalMutable(r)
	if err != nil {
		return err
	}
	_, err = s.execer(ctx).ExecContext(ctx,
		`INSERT INTO rules (id, asset_type, clawback_allowed, authorization_id, treasury, command_hints)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		r.ID.String(), string(r.AssetType), r.ClawbackAllowed, r.AuthorizationID, treasury, hints,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert rule: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.Identity) (*models.Rule, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT asset_type, clawback_allowed, authorization_id, treasury, command_hints
		 FROM rules WHERE id = $1`, id.String(),
	)
	var (
		asset           string
		clawbackAllowed bool
		authorizationID uuid.UUID
		treasury        []byte
		hints           []byte
	)
	if err := row.Scan(&asset, &clawbackAllowed, &authorizationID, &treasury, &hints); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("select rule: %w", err)
	}
	r := models.New(id, domain.AssetType(asset), clawbackAllowed, authorizationID)
	if len(treasury) > 0 && string(treasury) != "null" {
		r.Treasury = &models.Treasury{}
		if err := json.Unmarshal(treasury, r.Treasury); err != nil {
			return nil, fmt.Errorf("unmarshal treasury: %w", err)
		}
	}
	if len(hints) > 0 && string(hints) != "null" {
		if err := json.Unmarshal(hints, &r.CommandHints); err != nil {
			return nil, fmt.Errorf("unmarshal command hints: %w", err)
		}
	}
	return r, nil
}

func (s *Postgres) Save(ctx context.Context, r *models.Rule) error {
	treasury, hints, err := marshalMutable(r)
	if err != nil {
		return err
	}
	_, err = s.execer(ctx).ExecContext(ctx,
		`INSERT INTO rules (id, asset_type, clawback_allowed, authorization_id, treasury, command_hints)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE SET treasury = EXCLUDED.treasury, command_hints = EXCLUDED.command_hints`,
		r.ID.String(), string(r.AssetType), r.ClawbackAllowed, r.AuthorizationID, treasury, hints,
	)
	if err != nil {
		return fmt.Errorf("upsert rule: %w", err)
	}
	return nil
}

func marshalMutable(r *models.Rule) (treasury, hints []byte, err error) {
	treasury, err = json.Marshal(r.Treasury)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal treasury: %w", err)
	}
	hints, err = json.Marshal(r.CommandHints)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal command hints: %w", err)
	}
	return treasury, hints, nil
}

// EnsureSchema creates the rules table when it does not exist yet.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS rules (
			id               TEXT PRIMARY KEY,
			asset_type       TEXT NOT NULL UNIQUE,
			clawback_allowed BOOLEAN NOT NULL,
			authorization_id UUID NOT NULL,
			treasury         JSONB,
			command_hints    JSONB
		)`)
	if err != nil {
		return fmt.Errorf("ensure rules schema: %w", err)
	}
	return nil
}
