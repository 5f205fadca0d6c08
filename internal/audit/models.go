// Package audit captures the custody trail: every committed state change
// is emitted as an event and fanned out to a publisher. Events are
// transport-agnostic so sinks can vary per deployment.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/manolisliolios/rwa-standard/pkg/domain"
)

// Action names the state change an event records.
type Action string

const (
	ActionVaultCreated     Action = "vault_created"
	ActionAssetRegistered  Action = "asset_registered"
	ActionTransferResolved Action = "transfer_resolved"
	ActionMinted           Action = "minted"
	ActionBurned           Action = "burned"
	ActionClawedBack       Action = "clawed_back"
	ActionHintSet          Action = "hint_set"
)

// Event is emitted from domain logic after a state change commits.
// Fields irrelevant to an action stay zero.
type Event struct {
	ID        uuid.UUID        `json:"id"`
	Action    Action           `json:"action"`
	Timestamp time.Time        `json:"timestamp"`
	Asset     domain.AssetType `json:"asset,omitempty"`
	Owner     domain.OwnerKey  `json:"owner,omitempty"`
	Vault     domain.Identity  `json:"vault,omitempty"`
	ToVault   domain.Identity  `json:"to_vault,omitempty"`
	Amount    uint64           `json:"amount,omitempty"`
	RequestID uuid.UUID        `json:"request_id,omitempty"`
}

// Publisher delivers events to a sink.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
