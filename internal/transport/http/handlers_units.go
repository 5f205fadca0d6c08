package httptransport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/manolisliolios/rwa-standard/internal/idempotency"
	rulemodels "github.com/manolisliolios/rwa-standard/internal/rule/models"
	"github.com/manolisliolios/rwa-standard/internal/transfer"
	vaultmodels "github.com/manolisliolios/rwa-standard/internal/vault/models"
	"github.com/manolisliolios/rwa-standard/pkg/domain"
	dErrors "github.com/manolisliolios/rwa-standard/pkg/domain-errors"
	"github.com/manolisliolios/rwa-standard/pkg/platform/httputil"
)

const idempotencyKeyHeader = "Idempotency-Key"

// UnitExecutor runs an ordered batch of steps as one atomic unit.
type UnitExecutor interface {
	Execute(ctx context.Context, steps []transfer.Step) ([]transfer.StepResult, error)
}

// UnitsHandler wires the unit submission endpoint. Committed outcomes are
// recorded under the caller's Idempotency-Key so a retried submission
// replays the original response instead of executing twice.
type UnitsHandler struct {
	executor   UnitExecutor
	idem       idempotency.Store
	idemTTL    time.Duration
	signingKey []byte
	logger     *slog.Logger
}

func NewUnitsHandler(executor UnitExecutor, idem idempotency.Store, idemTTL time.Duration, signingKey []byte, logger *slog.Logger) *UnitsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UnitsHandler{executor: executor, idem: idem, idemTTL: idemTTL, signingKey: signingKey, logger: logger}
}

// Register mounts the unit endpoint on the router.
func (h *UnitsHandler) Register(r chi.Router) {
	r.Post("/units", h.handleSubmit)
}

type unitRequest struct {
	Steps []stepRequest `json:"steps"`
}

type stepRequest struct {
	Op         string `json:"op"`
	Vault      string `json:"vault,omitempty"`
	To         string `json:"to,omitempty"`
	Owner      string `json:"owner,omitempty"`
	Asset      string `json:"asset,omitempty"`
	Amount     uint64 `json:"amount,omitempty"`
	Proof      string `json:"proof,omitempty"`
	Capability string `json:"capability,omitempty"`
	Request    *int   `json:"request,omitempty"`
}

type unitResponse struct {
	Results []transfer.StepResult `json:"results"`
}

func (h *UnitsHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	key := r.Header.Get(idempotencyKeyHeader)
	if key != "" && h.idem != nil {
		record, found, err := h.idem.Get(ctx, key)
		if err != nil {
			h.logger.ErrorContext(ctx, "idempotency lookup failed", "error", err)
		} else if found {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(record.Status)
			_, _ = w.Write(record.Body)
			return
		}
	}

	req, ok := httputil.Decode[unitRequest](w, r)
	if !ok {
		return
	}
	steps, err := parseSteps(req.Steps, h.signingKey)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	results, err := h.executor.Execute(ctx, steps)
	if err != nil {
		h.logger.WarnContext(ctx, "unit aborted", "steps", len(steps), "error", err)
		httputil.WriteError(w, err)
		return
	}

	body, err := json.Marshal(unitResponse{Results: results})
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode unit response"))
		return
	}
	if key != "" && h.idem != nil {
		if err := h.idem.Put(ctx, key, idempotency.Record{Status: http.StatusOK, Body: body}, h.idemTTL); err != nil {
			h.logger.ErrorContext(ctx, "idempotency record failed", "error", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// parseSteps validates wire steps into executor steps. Field requirements
// depend on the operation; anything malformed fails the whole submission
// before execution starts.
func parseSteps(raw []stepRequest, signingKey []byte) ([]transfer.Step, error) {
	steps := make([]transfer.Step, 0, len(raw))
	for i, sr := range raw {
		step := transfer.Step{Op: transfer.StepOp(sr.Op)}
		var err error

		switch step.Op {
		case transfer.OpTransfer:
			if step.Vault, err = domain.ParseIdentity(sr.Vault); err != nil {
				return nil, stepError(i, err)
			}
			if step.Owner, err = domain.ParseOwnerKey(sr.Owner); err != nil {
				return nil, stepError(i, err)
			}
			if step.Proof, err = vaultmodels.ProofFromToken(sr.Proof, signingKey); err != nil {
				return nil, stepError(i, err)
			}
			if step.Asset, err = domain.ParseAssetType(sr.Asset); err != nil {
				return nil, stepError(i, err)
			}
			step.Amount = sr.Amount

		case transfer.OpTransferToVault:
			if step.Vault, err = domain.ParseIdentity(sr.Vault); err != nil {
				return nil, stepError(i, err)
			}
			if step.To, err = domain.ParseIdentity(sr.To); err != nil {
				return nil, stepError(i, err)
			}
			if step.Proof, err = vaultmodels.ProofFromToken(sr.Proof, signingKey); err != nil {
				return nil, stepError(i, err)
			}
			if step.Asset, err = domain.ParseAssetType(sr.Asset); err != nil {
				return nil, stepError(i, err)
			}
			step.Amount = sr.Amount

		case transfer.OpResolve:
			if sr.Request == nil {
				return nil, stepError(i, dErrors.New(dErrors.CodeInvalidInput, "resolve requires a request index"))
			}
			step.Request = *sr.Request
			if step.Capability, err = rulemodels.ParseCapability(sr.Capability); err != nil {
				return nil, stepError(i, err)
			}

		case transfer.OpMint, transfer.OpBurn:
			if step.Vault, err = domain.ParseIdentity(sr.Vault); err != nil {
				return nil, stepError(i, err)
			}
			if step.Asset, err = domain.ParseAssetType(sr.Asset); err != nil {
				return nil, stepError(i, err)
			}
			if step.Capability, err = rulemodels.ParseCapability(sr.Capability); err != nil {
				return nil, stepError(i, err)
			}
			step.Amount = sr.Amount

		case transfer.OpClawback:
			if step.Vault, err = domain.ParseIdentity(sr.Vault); err != nil {
				return nil, stepError(i, err)
			}
			if step.To, err = domain.ParseIdentity(sr.To); err != nil {
				return nil, stepError(i, err)
			}
			if step.Asset, err = domain.ParseAssetType(sr.Asset); err != nil {
				return nil, stepError(i, err)
			}
			if step.Capability, err = rulemodels.ParseCapability(sr.Capability); err != nil {
				return nil, stepError(i, err)
			}
			step.Amount = sr.Amount

		case transfer.OpDeposit:
			if step.Vault, err = domain.ParseIdentity(sr.Vault); err != nil {
				return nil, stepError(i, err)
			}
			if step.Asset, err = domain.ParseAssetType(sr.Asset); err != nil {
				return nil, stepError(i, err)
			}
			step.Amount = sr.Amount

		default:
			return nil, dErrors.Newf(dErrors.CodeInvalidInput, "step %d: unknown operation %q", i, sr.Op)
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func stepError(index int, err error) error {
	return dErrors.Wrap(err, dErrors.CodeOf(err), fmt.Sprintf("step %d", index))
}
