// Package service orchestrates vault lifecycle: creation at the derived
// identity, open deposits, and balance reads.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/manolisliolios/rwa-standard/internal/audit"
	"github.com/manolisliolios/rwa-standard/internal/namespace"
	"github.com/manolisliolios/rwa-standard/internal/vault/models"
	"github.com/manolisliolios/rwa-standard/internal/vault/store"
	"github.com/manolisliolios/rwa-standard/pkg/domain"
	dErrors "github.com/manolisliolios/rwa-standard/pkg/domain-errors"
	"github.com/manolisliolios/rwa-standard/pkg/platform/sentinel"
)

// Service exposes vault operations. Creation is open to any caller:
// discoverability, not guarding, is the property vaults enforce.
type Service struct {
	ns     *namespace.Namespace
	vaults store.Store
	audit  *audit.Emitter
	logger *slog.Logger
}

func New(ns *namespace.Namespace, vaults store.Store, emitter *audit.Emitter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{ns: ns, vaults: vaults, audit: emitter, logger: logger}
}

// DeriveAddress computes the vault identity for an owner without touching
// the store. Off-chain clients use this for index-free discovery.
func (s *Service) DeriveAddress(owner domain.OwnerKey) domain.Identity {
	return s.ns.VaultAddress(owner)
}

// Create registers a vault for the owner at its derived identity. One
// vault per owner: a second creation fails AlreadyExists.
func (s *Service) Create(ctx context.Context, owner domain.OwnerKey) (*models.Vault, error) {
	v := models.New(s.ns.VaultAddress(owner), owner)
	if err := s.vaults.Create(ctx, v); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Newf(dErrors.CodeAlreadyExists, "vault for owner %s already exists", owner)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create vault")
	}
	s.audit.Emit(ctx, audit.Event{
		Action: audit.ActionVaultCreated,
		Owner:  owner,
		Vault:  v.ID,
	})
	s.logger.InfoContext(ctx, "vault created", "vault", v.ID.String(), "owner", string(owner))
	return v, nil
}

// Get returns the vault record at the given identity.
func (s *Service) Get(ctx context.Context, id domain.Identity) (*models.Vault, error) {
	v, err := s.vaults.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "vault does not exist")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load vault")
	}
	return v, nil
}

// Deposit adds balance to the vault. No authorization is required; any
// caller may fund any vault.
func (s *Service) Deposit(ctx context.Context, id domain.Identity, asset domain.AssetType, amount uint64) error {
	v, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	v.Deposit(asset, amount)
	if err := s.vaults.Save(ctx, v); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save vault")
	}
	return nil
}
