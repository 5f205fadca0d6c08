package transfer

import (
	"context"
	"errors"
	"log/slog"

	"github.com/manolisliolios/rwa-standard/internal/audit"
	"github.com/manolisliolios/rwa-standard/internal/namespace"
	"github.com/manolisliolios/rwa-standard/internal/platform/metrics"
	rulemodels "github.com/manolisliolios/rwa-standard/internal/rule/models"
	rulestore "github.com/manolisliolios/rwa-standard/internal/rule/store"
	vaultmodels "github.com/manolisliolios/rwa-standard/internal/vault/models"
	vaultstore "github.com/manolisliolios/rwa-standard/internal/vault/store"
	"github.com/manolisliolios/rwa-standard/pkg/domain"
	dErrors "github.com/manolisliolios/rwa-standard/pkg/domain-errors"
	"github.com/manolisliolios/rwa-standard/pkg/platform/sentinel"
)

// Service orchestrates the transfer protocol. Transfer and resolve must
// run inside an atomic unit: the request they hand off exists only within
// that boundary.
type Service struct {
	ns      *namespace.Namespace
	vaults  vaultstore.Store
	rules   rulestore.Store
	audit   *audit.Emitter
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func New(ns *namespace.Namespace, vaults vaultstore.Store, rules rulestore.Store, emitter *audit.Emitter, m *metrics.Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{ns: ns, vaults: vaults, rules: rules, audit: emitter, metrics: m, logger: logger}
}

// Transfer withdraws from the source vault and deposits at the vault
// identity derived from the destination owner key, creating that vault
// lazily when absent. The derived identity keeps even a mistyped key
// inside the custody domain, but funds sent to a wrong key are still
// misdirected; callers holding a vault reference should prefer
// TransferToVault. The returned request must be resolved before the
// enclosing unit can commit.
func (s *Service) Transfer(ctx context.Context, fromVault domain.Identity, proof vaultmodels.Proof, to domain.OwnerKey, asset domain.AssetType, amount uint64) (*Request, error) {
	destID := s.ns.VaultAddress(to)
	return s.move(ctx, fromVault, proof, destID, to, asset, amount, true)
}

// TransferToVault is the safe flavor: the destination is a known vault
// reference and must already exist.
func (s *Service) TransferToVault(ctx context.Context, fromVault domain.Identity, proof vaultmodels.Proof, destVault domain.Identity, asset domain.AssetType, amount uint64) (*Request, error) {
	dest, err := s.vaults.FindByID(ctx, destVault)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "destination vault does not exist")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load destination vault")
	}
	return s.move(ctx, fromVault, proof, destVault, dest.Owner, asset, amount, false)
}

func (s *Service) move(ctx context.Context, fromID domain.Identity, proof vaultmodels.Proof, destID domain.Identity, to domain.OwnerKey, asset domain.AssetType, amount uint64, createDest bool) (*Request, error) {
	sc, ok := scopeFrom(ctx)
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "transfer requires an atomic unit")
	}

	from, err := s.vaults.FindByID(ctx, fromID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "source vault does not exist")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load source vault")
	}
	if err := from.AssertOwner(proof); err != nil {
		return nil, err
	}
	if err := from.Withdraw(asset, amount); err != nil {
		return nil, err
	}

	// Self-transfer: both legs act on the one record.
	if destID == fromID {
		from.Deposit(asset, amount)
		if err := s.vaults.Save(ctx, from); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save vault")
		}
		return newRequest(sc, from.Owner, to, fromID, destID, asset, amount), nil
	}

	dest, err := s.vaults.FindByID(ctx, destID)
	switch {
	case err == nil:
	case errors.Is(err, sentinel.ErrNotFound) && createDest:
		dest = vaultmodels.New(destID, to)
	case errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.New(dErrors.CodeNotFound, "destination vault does not exist")
	default:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load destination vault")
	}
	dest.Deposit(asset, amount)

	if err := s.vaults.Save(ctx, from); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save source vault")
	}
	if err := s.vaults.Save(ctx, dest); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save destination vault")
	}
	return newRequest(sc, from.Owner, to, fromID, destID, asset, amount), nil
}

// Resolve retires a pending request under the rule governing its asset.
// It is the only legal way to do so; the capability must match the
// identifier stored at registration.
func (s *Service) Resolve(ctx context.Context, req *Request, cap rulemodels.Capability) error {
	if req == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "no transfer request to resolve")
	}
	r, err := s.rules.FindByID(ctx, s.ns.RuleAddress(req.asset))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Newf(dErrors.CodeNotFound, "no rule registered for asset %s", req.asset)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load rule")
	}
	if err := r.Authorize(cap); err != nil {
		return err
	}
	if err := req.consume(); err != nil {
		return err
	}
	s.metrics.IncTransfersResolved()
	s.audit.Emit(ctx, audit.Event{
		Action:    audit.ActionTransferResolved,
		Asset:     req.asset,
		Owner:     req.from,
		Vault:     req.fromVault,
		ToVault:   req.toVault,
		Amount:    req.amount,
		RequestID: req.id,
	})
	s.logger.DebugContext(ctx, "transfer resolved",
		"asset", string(req.asset), "amount", req.amount, "request", req.id.String())
	return nil
}
