package transfer

import (
	"context"

	"github.com/google/uuid"

	"github.com/manolisliolios/rwa-standard/internal/rule/models"
	ruleservice "github.com/manolisliolios/rwa-standard/internal/rule/service"
	vaultmodels "github.com/manolisliolios/rwa-standard/internal/vault/models"
	vaultservice "github.com/manolisliolios/rwa-standard/internal/vault/service"
	"github.com/manolisliolios/rwa-standard/pkg/domain"
	dErrors "github.com/manolisliolios/rwa-standard/pkg/domain-errors"
)

// StepOp names one operation inside a submitted atomic unit.
type StepOp string

const (
	OpTransfer        StepOp = "transfer"
	OpTransferToVault StepOp = "transfer_to_vault"
	OpResolve         StepOp = "resolve"
	OpMint            StepOp = "mint"
	OpBurn            StepOp = "burn"
	OpClawback        StepOp = "clawback"
	OpDeposit         StepOp = "deposit"
)

// Step is one operation in a unit. Vault is the record the operation acts
// on (source for transfers, burns, and clawbacks; destination for mints
// and deposits); To is the destination vault where one applies. Request
// is the index of the earlier transfer step a resolve consumes.
type Step struct {
	Op         StepOp
	Vault      domain.Identity
	To         domain.Identity
	Owner      domain.OwnerKey
	Asset      domain.AssetType
	Amount     uint64
	Proof      vaultmodels.Proof
	Capability models.Capability
	Request    int
}

// StepResult reports what a step produced. Transfer steps yield the
// request id; resolve steps echo the id they consumed.
type StepResult struct {
	RequestID uuid.UUID `json:"request_id,omitempty"`
}

// Executor runs submitted units: an ordered batch of steps sharing one
// atomic boundary. Within the batch, transfer steps hand their pending
// requests to later resolve steps by index; the runner guarantees the
// whole batch commits or rolls back together, and refuses to commit while
// any request is unresolved.
type Executor struct {
	runner    UnitRunner
	transfers *Service
	rules     *ruleservice.Service
	vaults    *vaultservice.Service
}

func NewExecutor(runner UnitRunner, transfers *Service, rules *ruleservice.Service, vaults *vaultservice.Service) *Executor {
	return &Executor{runner: runner, transfers: transfers, rules: rules, vaults: vaults}
}

// Execute runs the steps as one atomic unit and returns per-step results.
// Any step failure aborts and rolls back the whole unit.
func (e *Executor) Execute(ctx context.Context, steps []Step) ([]StepResult, error) {
	if len(steps) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unit has no steps")
	}
	results := make([]StepResult, len(steps))
	err := e.runner.Run(ctx, func(ctx context.Context) error {
		requests := make([]*Request, len(steps))
		for i, step := range steps {
			switch step.Op {
			case OpTransfer:
				req, err := e.transfers.Transfer(ctx, step.Vault, step.Proof, step.Owner, step.Asset, step.Amount)
				if err != nil {
					return err
				}
				requests[i] = req
				results[i] = StepResult{RequestID: req.ID()}

			case OpTransferToVault:
				req, err := e.transfers.TransferToVault(ctx, step.Vault, step.Proof, step.To, step.Asset, step.Amount)
				if err != nil {
					return err
				}
				requests[i] = req
				results[i] = StepResult{RequestID: req.ID()}

			case OpResolve:
				if step.Request < 0 || step.Request >= i || requests[step.Request] == nil {
					return dErrors.Newf(dErrors.CodeInvalidInput,
						"resolve step %d references no earlier transfer step", i)
				}
				req := requests[step.Request]
				if err := e.transfers.Resolve(ctx, req, step.Capability); err != nil {
					return err
				}
				results[i] = StepResult{RequestID: req.ID()}

			case OpMint:
				if err := e.rules.Mint(ctx, step.Asset, step.Vault, step.Amount, step.Capability); err != nil {
					return err
				}

			case OpBurn:
				if err := e.rules.Burn(ctx, step.Asset, step.Vault, step.Amount, step.Capability); err != nil {
					return err
				}

			case OpClawback:
				if err := e.rules.Clawback(ctx, step.Asset, step.Vault, step.To, step.Amount, step.Capability); err != nil {
					return err
				}

			case OpDeposit:
				if err := e.vaults.Deposit(ctx, step.Vault, step.Asset, step.Amount); err != nil {
					return err
				}

			default:
				return dErrors.Newf(dErrors.CodeInvalidInput, "unknown unit operation %q", step.Op)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}
