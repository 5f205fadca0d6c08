// Package service implements the policy engine: rule registration and the
// capability-gated mint, burn, clawback, and command hint operations.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/manolisliolios/rwa-standard/internal/audit"
	"github.com/manolisliolios/rwa-standard/internal/namespace"
	"github.com/manolisliolios/rwa-standard/internal/platform/metrics"
	"github.com/manolisliolios/rwa-standard/internal/rule/models"
	rulestore "github.com/manolisliolios/rwa-standard/internal/rule/store"
	vaultmodels "github.com/manolisliolios/rwa-standard/internal/vault/models"
	vaultstore "github.com/manolisliolios/rwa-standard/internal/vault/store"
	"github.com/manolisliolios/rwa-standard/pkg/domain"
	dErrors "github.com/manolisliolios/rwa-standard/pkg/domain-errors"
	"github.com/manolisliolios/rwa-standard/pkg/platform/sentinel"
)

// Service orchestrates rule lifecycle and policy operations. All mutating
// operations require the capability issued at registration.
type Service struct {
	ns      *namespace.Namespace
	rules   rulestore.Store
	vaults  vaultstore.Store
	audit   *audit.Emitter
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func New(ns *namespace.Namespace, rules rulestore.Store, vaults vaultstore.Store, emitter *audit.Emitter, m *metrics.Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{ns: ns, rules: rules, vaults: vaults, audit: emitter, metrics: m, logger: logger}
}

// DeriveAddress computes the rule identity for an asset type without
// touching the store.
func (s *Service) DeriveAddress(asset domain.AssetType) domain.Identity {
	return s.ns.RuleAddress(asset)
}

// Register creates the rule for an asset type and issues its capability.
// The capability credential is returned exactly once; the service keeps
// only the identifier to compare against.
func (s *Service) Register(ctx context.Context, asset domain.AssetType, clawbackAllowed bool) (*models.Rule, models.Capability, error) {
	cap := models.IssueCapability()
	r := models.New(s.ns.RuleAddress(asset), asset, clawbackAllowed, cap.AuthorizationID())
	if err := s.create(ctx, r); err != nil {
		return nil, models.Capability{}, err
	}
	return r, cap, nil
}

// RegisterManaged registers a rule with a locked mint/burn authority. The
// treasury may only be attached while the asset's circulating supply is
// zero, so every unit of supply is accounted for from the first mint.
func (s *Service) RegisterManaged(ctx context.Context, asset domain.AssetType, clawbackAllowed bool, currentSupply uint64) (*models.Rule, models.Capability, error) {
	if currentSupply != 0 {
		return nil, models.Capability{}, dErrors.Newf(dErrors.CodeSupplyMustBeZero,
			"cannot attach treasury with %d units already circulating", currentSupply)
	}
	cap := models.IssueCapability()
	r := models.New(s.ns.RuleAddress(asset), asset, clawbackAllowed, cap.AuthorizationID())
	r.Treasury = &models.Treasury{}
	if err := s.create(ctx, r); err != nil {
		return nil, models.Capability{}, err
	}
	return r, cap, nil
}

func (s *Service) create(ctx context.Context, r *models.Rule) error {
	if err := s.rules.Create(ctx, r); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.Newf(dErrors.CodeAlreadyExists, "rule for asset %s already exists", r.AssetType)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create rule")
	}
	s.audit.Emit(ctx, audit.Event{
		Action: audit.ActionAssetRegistered,
		Asset:  r.AssetType,
		Vault:  r.ID,
	})
	s.logger.InfoContext(ctx, "asset registered",
		"asset", string(r.AssetType), "rule", r.ID.String(),
		"clawback", r.ClawbackAllowed, "managed", r.Managed())
	return nil
}

// Get returns the rule governing an asset type.
func (s *Service) Get(ctx context.Context, asset domain.AssetType) (*models.Rule, error) {
	r, err := s.rules.FindByID(ctx, s.ns.RuleAddress(asset))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "no rule registered for asset %s", asset)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load rule")
	}
	return r, nil
}

// Mint creates amount new units in the destination vault and grows the
// tracked supply. Requires a locked treasury and the rule's capability.
func (s *Service) Mint(ctx context.Context, asset domain.AssetType, destination domain.Identity, amount uint64, cap models.Capability) error {
	r, err := s.Get(ctx, asset)
	if err != nil {
		return err
	}
	if !r.Managed() {
		return dErrors.Newf(dErrors.CodeNotManagedTreasury, "asset %s has no locked treasury", asset)
	}
	if err := r.Authorize(cap); err != nil {
		return err
	}
	v, err := s.vault(ctx, destination)
	if err != nil {
		return err
	}
	v.Deposit(asset, amount)
	if err := s.vaults.Save(ctx, v); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save vault")
	}
	r.Treasury.Supply += amount
	if err := s.rules.Save(ctx, r); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save rule")
	}
	s.metrics.IncMints()
	s.audit.Emit(ctx, audit.Event{
		Action:  audit.ActionMinted,
		Asset:   asset,
		ToVault: destination,
		Amount:  amount,
	})
	return nil
}

// Burn destroys amount units held by the source vault and shrinks the
// tracked supply. Symmetric to Mint.
func (s *Service) Burn(ctx context.Context, asset domain.AssetType, source domain.Identity, amount uint64, cap models.Capability) error {
	r, err := s.Get(ctx, asset)
	if err != nil {
		return err
	}
	if !r.Managed() {
		return dErrors.Newf(dErrors.CodeNotManagedTreasury, "asset %s has no locked treasury", asset)
	}
	if err := r.Authorize(cap); err != nil {
		return err
	}
	v, err := s.vault(ctx, source)
	if err != nil {
		return err
	}
	if err := v.Withdraw(asset, amount); err != nil {
		return err
	}
	if amount > r.Treasury.Supply {
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"burn of %d exceeds tracked supply %d", amount, r.Treasury.Supply)
	}
	if err := s.vaults.Save(ctx, v); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save vault")
	}
	r.Treasury.Supply -= amount
	if err := s.rules.Save(ctx, r); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save rule")
	}
	s.metrics.IncBurns()
	s.audit.Emit(ctx, audit.Event{
		Action: audit.ActionBurned,
		Asset:  asset,
		Vault:  source,
		Amount: amount,
	})
	return nil
}

// Clawback force-moves amount from one vault to another without the
// source owner's proof. The clawback flag is checked before the
// capability: a disabled policy fails the same way for everyone.
func (s *Service) Clawback(ctx context.Context, asset domain.AssetType, from, to domain.Identity, amount uint64, cap models.Capability) error {
	r, err := s.Get(ctx, asset)
	if err != nil {
		return err
	}
	if !r.ClawbackAllowed {
		return dErrors.Newf(dErrors.CodeClawbackDisabled, "asset %s does not permit clawback", asset)
	}
	if err := r.Authorize(cap); err != nil {
		return err
	}
	source, err := s.vault(ctx, from)
	if err != nil {
		return err
	}
	destination, err := s.vault(ctx, to)
	if err != nil {
		return err
	}
	if err := source.Withdraw(asset, amount); err != nil {
		return err
	}
	destination.Deposit(asset, amount)
	if err := s.vaults.Save(ctx, source); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save source vault")
	}
	if err := s.vaults.Save(ctx, destination); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save destination vault")
	}
	s.metrics.IncClawbacks()
	s.audit.Emit(ctx, audit.Event{
		Action:  audit.ActionClawedBack,
		Asset:   asset,
		Vault:   from,
		ToVault: to,
		Amount:  amount,
	})
	return nil
}

// ClawbackWithdraw is the unsafe clawback flavor: the withdrawn balance
// returns to the caller instead of landing in a custody vault. Disallowed
// for managed assets, whose supply control already lives in the treasury.
func (s *Service) ClawbackWithdraw(ctx context.Context, asset domain.AssetType, from domain.Identity, amount uint64, cap models.Capability) (uint64, error) {
	r, err := s.Get(ctx, asset)
	if err != nil {
		return 0, err
	}
	if !r.ClawbackAllowed {
		return 0, dErrors.Newf(dErrors.CodeClawbackDisabled, "asset %s does not permit clawback", asset)
	}
	if r.Managed() {
		return 0, dErrors.Newf(dErrors.CodeCannotClawbackManaged,
			"asset %s is managed, clawback must deposit into a vault", asset)
	}
	if err := r.Authorize(cap); err != nil {
		return 0, err
	}
	source, err := s.vault(ctx, from)
	if err != nil {
		return 0, err
	}
	if err := source.Withdraw(asset, amount); err != nil {
		return 0, err
	}
	if err := s.vaults.Save(ctx, source); err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save source vault")
	}
	s.metrics.IncClawbacks()
	s.audit.Emit(ctx, audit.Event{
		Action: audit.ActionClawedBack,
		Asset:  asset,
		Vault:  from,
		Amount: amount,
	})
	return amount, nil
}

// SetCommandHint upserts the advisory descriptor for an action tag.
func (s *Service) SetCommandHint(ctx context.Context, asset domain.AssetType, tag domain.ActionTag, descriptor models.Descriptor, cap models.Capability) error {
	if err := descriptor.Validate(); err != nil {
		return err
	}
	r, err := s.Get(ctx, asset)
	if err != nil {
		return err
	}
	if err := r.Authorize(cap); err != nil {
		return err
	}
	r.SetHint(tag, descriptor)
	if err := s.rules.Save(ctx, r); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save rule")
	}
	s.audit.Emit(ctx, audit.Event{
		Action: audit.ActionHintSet,
		Asset:  asset,
	})
	return nil
}

func (s *Service) vault(ctx context.Context, id domain.Identity) (*vaultmodels.Vault, error) {
	v, err := s.vaults.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "vault does not exist")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load vault")
	}
	return v, nil
}
