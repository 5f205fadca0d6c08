package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/manolisliolios/rwa-standard/internal/rule/models"
	"github.com/manolisliolios/rwa-standard/pkg/domain"
	"github.com/manolisliolios/rwa-standard/pkg/platform/httputil"
)

// RuleService defines the rule operations the asset endpoints need.
type RuleService interface {
	DeriveAddress(asset domain.AssetType) domain.Identity
	Register(ctx context.Context, asset domain.AssetType, clawbackAllowed bool) (*models.Rule, models.Capability, error)
	RegisterManaged(ctx context.Context, asset domain.AssetType, clawbackAllowed bool, currentSupply uint64) (*models.Rule, models.Capability, error)
	Get(ctx context.Context, asset domain.AssetType) (*models.Rule, error)
	SetCommandHint(ctx context.Context, asset domain.AssetType, tag domain.ActionTag, descriptor models.Descriptor, cap models.Capability) error
}

// AssetsHandler wires asset registration and hint endpoints.
type AssetsHandler struct {
	rules  RuleService
	logger *slog.Logger
}

func NewAssetsHandler(rules RuleService, logger *slog.Logger) *AssetsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AssetsHandler{rules: rules, logger: logger}
}

// Register mounts asset endpoints on the router.
func (h *AssetsHandler) Register(r chi.Router) {
	r.Post("/assets", h.handleRegister)
	r.Post("/assets/managed", h.handleRegisterManaged)
	r.Get("/assets/{asset}", h.handleGet)
	r.Put("/assets/{asset}/hints/{action}", h.handleSetHint)
	r.Get("/addresses/rule/{asset}", h.handleRuleAddress)
}

type registerAssetRequest struct {
	Asset           string `json:"asset"`
	ClawbackAllowed bool   `json:"clawback_allowed"`
	CurrentSupply   uint64 `json:"current_supply"`
}

type registerAssetResponse struct {
	RuleID          domain.Identity `json:"rule_id"`
	Asset           string          `json:"asset"`
	ClawbackAllowed bool            `json:"clawback_allowed"`
	Managed         bool            `json:"managed"`
	// Capability is returned exactly once; the service keeps only the
	// identifier to compare against.
	Capability string `json:"capability"`
}

func (h *AssetsHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, false)
}

func (h *AssetsHandler) handleRegisterManaged(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, true)
}

func (h *AssetsHandler) register(w http.ResponseWriter, r *http.Request, managed bool) {
	ctx := r.Context()
	req, ok := httputil.Decode[registerAssetRequest](w, r)
	if !ok {
		return
	}
	asset, err := domain.ParseAssetType(req.Asset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var (
		rule *models.Rule
		cap  models.Capability
	)
	if managed {
		rule, cap, err = h.rules.RegisterManaged(ctx, asset, req.ClawbackAllowed, req.CurrentSupply)
	} else {
		rule, cap, err = h.rules.Register(ctx, asset, req.ClawbackAllowed)
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "asset registration failed", "asset", req.Asset, "error", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, registerAssetResponse{
		RuleID:          rule.ID,
		Asset:           string(rule.AssetType),
		ClawbackAllowed: rule.ClawbackAllowed,
		Managed:         rule.Managed(),
		Capability:      cap.Credential(),
	})
}

type assetResponse struct {
	RuleID          domain.Identity `json:"rule_id"`
	Asset           string          `json:"asset"`
	ClawbackAllowed bool            `json:"clawback_allowed"`
	Managed         bool            `json:"managed"`
	Supply          *uint64         `json:"supply,omitempty"`
}

func (h *AssetsHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	asset, err := domain.ParseAssetType(chi.URLParam(r, "asset"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	rule, err := h.rules.Get(r.Context(), asset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	resp := assetResponse{
		RuleID:          rule.ID,
		Asset:           string(rule.AssetType),
		ClawbackAllowed: rule.ClawbackAllowed,
		Managed:         rule.Managed(),
	}
	if rule.Managed() {
		resp.Supply = &rule.Treasury.Supply
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

type setHintRequest struct {
	Capability string            `json:"capability"`
	Descriptor models.Descriptor `json:"descriptor"`
}

func (h *AssetsHandler) handleSetHint(w http.ResponseWriter, r *http.Request) {
	asset, err := domain.ParseAssetType(chi.URLParam(r, "asset"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	tag, err := domain.ParseActionTag(chi.URLParam(r, "action"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[setHintRequest](w, r)
	if !ok {
		return
	}
	cap, err := models.ParseCapability(req.Capability)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.rules.SetCommandHint(r.Context(), asset, tag, req.Descriptor, cap); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AssetsHandler) handleRuleAddress(w http.ResponseWriter, r *http.Request) {
	asset, err := domain.ParseAssetType(chi.URLParam(r, "asset"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]domain.Identity{
		"identity": h.rules.DeriveAddress(asset),
	})
}
