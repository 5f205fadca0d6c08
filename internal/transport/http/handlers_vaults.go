package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/manolisliolios/rwa-standard/internal/vault/models"
	"github.com/manolisliolios/rwa-standard/pkg/domain"
	"github.com/manolisliolios/rwa-standard/pkg/platform/httputil"
)

// VaultService defines the vault operations the vault endpoints need.
type VaultService interface {
	DeriveAddress(owner domain.OwnerKey) domain.Identity
	Create(ctx context.Context, owner domain.OwnerKey) (*models.Vault, error)
	Get(ctx context.Context, id domain.Identity) (*models.Vault, error)
	Deposit(ctx context.Context, id domain.Identity, asset domain.AssetType, amount uint64) error
}

// VaultsHandler wires vault creation, lookup, and deposit endpoints.
type VaultsHandler struct {
	vaults VaultService
	logger *slog.Logger
}

func NewVaultsHandler(vaults VaultService, logger *slog.Logger) *VaultsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &VaultsHandler{vaults: vaults, logger: logger}
}

// Register mounts vault endpoints on the router.
func (h *VaultsHandler) Register(r chi.Router) {
	r.Post("/vaults", h.handleCreate)
	r.Get("/vaults/{id}", h.handleGet)
	r.Post("/vaults/{id}/deposit", h.handleDeposit)
	r.Get("/addresses/vault/{owner}", h.handleVaultAddress)
}

type createVaultRequest struct {
	Owner string `json:"owner"`
}

type vaultResponse struct {
	ID       domain.Identity             `json:"id"`
	Owner    string                      `json:"owner"`
	Balances map[domain.AssetType]uint64 `json:"balances"`
}

func (h *VaultsHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[createVaultRequest](w, r)
	if !ok {
		return
	}
	owner, err := domain.ParseOwnerKey(req.Owner)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	v, err := h.vaults.Create(ctx, owner)
	if err != nil {
		h.logger.ErrorContext(ctx, "vault creation failed", "owner", req.Owner, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, vaultResponse{
		ID:       v.ID,
		Owner:    string(v.Owner),
		Balances: v.Balances,
	})
}

func (h *VaultsHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseIdentity(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	v, err := h.vaults.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, vaultResponse{
		ID:       v.ID,
		Owner:    string(v.Owner),
		Balances: v.Balances,
	})
}

type depositRequest struct {
	Asset  string `json:"asset"`
	Amount uint64 `json:"amount"`
}

func (h *VaultsHandler) handleDeposit(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseIdentity(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[depositRequest](w, r)
	if !ok {
		return
	}
	asset, err := domain.ParseAssetType(req.Asset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.vaults.Deposit(r.Context(), id, asset, req.Amount); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *VaultsHandler) handleVaultAddress(w http.ResponseWriter, r *http.Request) {
	owner, err := domain.ParseOwnerKey(chi.URLParam(r, "owner"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]domain.Identity{
		"identity": h.vaults.DeriveAddress(owner),
	})
}
