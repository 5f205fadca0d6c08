// Package models holds the rule aggregate: the per-asset-type policy
// record governing transfer approval, clawback, and managed supply.
package models

import (
	"maps"

	"github.com/google/uuid"

	"github.com/manolisliolios/rwa-standard/pkg/domain"
	dErrors "github.com/manolisliolios/rwa-standard/pkg/domain-errors"
)

// Rule is the per-asset-type policy record.
//
// Invariants:
//   - At most one rule exists per asset type (enforced by derived identity)
//   - ClawbackAllowed is immutable after registration
//   - Treasury may only be attached at registration, and only when the
//     asset's circulating supply is zero at that moment
//   - Treasury supply changes only through mint and burn
type Rule struct {
	ID              domain.Identity                 `json:"id"`
	AssetType       domain.AssetType                `json:"asset_type"`
	ClawbackAllowed bool                            `json:"clawback_allowed"`
	AuthorizationID uuid.UUID                       `json:"authorization_id"`
	Treasury        *Treasury                       `json:"treasury,omitempty"`
	CommandHints    map[domain.ActionTag]Descriptor `json:"command_hints,omitempty"`
}

// Treasury is the locked mint/burn authority. Its presence means all
// supply changes for the asset flow through the rule.
type Treasury struct {
	Supply uint64 `json:"supply"`
}

func New(id domain.Identity, asset domain.AssetType, clawbackAllowed bool, authorizationID uuid.UUID) *Rule {
	return &Rule{
		ID:              id,
		AssetType:       asset,
		ClawbackAllowed: clawbackAllowed,
		AuthorizationID: authorizationID,
	}
}

// Managed reports whether a locked treasury is attached.
func (r *Rule) Managed() bool { return r.Treasury != nil }

// Authorize fails unless the presented capability matches the identifier
// stored at registration. Every policy operation funnels through this.
func (r *Rule) Authorize(cap Capability) error {
	if !cap.matches(r.AuthorizationID) {
		return dErrors.Newf(dErrors.CodeInvalidAuthorization,
			"capability does not govern asset %s", r.AssetType)
	}
	return nil
}

// SetHint upserts the descriptor for an action tag. Hints are advisory
// metadata; nothing at runtime reads them.
func (r *Rule) SetHint(tag domain.ActionTag, descriptor Descriptor) {
	if r.CommandHints == nil {
		r.CommandHints = make(map[domain.ActionTag]Descriptor)
	}
	r.CommandHints[tag] = descriptor
}

// Clone returns an independent copy. Stores hand out clones so callers
// never alias the stored record.
func (r *Rule) Clone() *Rule {
	cp := *r
	if r.Treasury != nil {
		treasury := *r.Treasury
		cp.Treasury = &treasury
	}
	cp.CommandHints = maps.Clone(r.CommandHints)
	return &cp
}
