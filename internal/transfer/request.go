// Package transfer implements the custody transfer protocol: the
// withdraw, pending request, resolve lifecycle that makes the policy
// check unskippable, and the atomic unit boundary it runs inside.
package transfer

import (
	"sync"

	"github.com/google/uuid"

	"github.com/manolisliolios/rwa-standard/pkg/domain"
	dErrors "github.com/manolisliolios/rwa-standard/pkg/domain-errors"
)

// Request is the ephemeral token a transfer produces and a resolve
// consumes, exactly once. Only this package constructs one, its fields
// are unexported, and no accessor leaks a second consumable reference,
// so Pending to Resolved is the only transition that exists. The unit
// runner refuses to commit while one is still pending.
type Request struct {
	id        uuid.UUID
	from      domain.OwnerKey
	to        domain.OwnerKey
	fromVault domain.Identity
	toVault   domain.Identity
	asset     domain.AssetType
	amount    uint64

	mu       sync.Mutex
	consumed bool
	sc       *scope
}

func newRequest(sc *scope, from, to domain.OwnerKey, fromVault, toVault domain.Identity, asset domain.AssetType, amount uint64) *Request {
	sc.track()
	return &Request{
		id:        uuid.New(),
		from:      from,
		to:        to,
		fromVault: fromVault,
		toVault:   toVault,
		asset:     asset,
		amount:    amount,
		sc:        sc,
	}
}

func (r *Request) ID() uuid.UUID              { return r.id }
func (r *Request) From() domain.OwnerKey      { return r.from }
func (r *Request) To() domain.OwnerKey        { return r.to }
func (r *Request) FromVault() domain.Identity { return r.fromVault }
func (r *Request) ToVault() domain.Identity   { return r.toVault }
func (r *Request) Asset() domain.AssetType    { return r.asset }
func (r *Request) Amount() uint64             { return r.amount }

// consume marks the request resolved. A second consume faults: resolution
// is terminal.
func (r *Request) consume() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.consumed {
		return dErrors.New(dErrors.CodeInvariantViolation, "transfer request already resolved")
	}
	r.consumed = true
	r.sc.release()
	return nil
}
