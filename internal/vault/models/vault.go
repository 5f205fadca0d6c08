// Package models holds the vault aggregate: the per-owner custody record
// for fungible balances.
package models

import (
	"maps"

	"github.com/manolisliolios/rwa-standard/pkg/domain"
	dErrors "github.com/manolisliolios/rwa-standard/pkg/domain-errors"
)

// Vault is a per-owner custody record.
//
// Invariants:
//   - ID is the identity derived from (namespace, owner); it never changes
//   - Owner is immutable after construction
//   - Balances change only through Deposit and Withdraw
//   - A balance entry is created lazily at zero on first deposit
type Vault struct {
	ID       domain.Identity             `json:"id"`
	Owner    domain.OwnerKey             `json:"owner"`
	Balances map[domain.AssetType]uint64 `json:"balances"`
}

func New(id domain.Identity, owner domain.OwnerKey) *Vault {
	return &Vault{
		ID:       id,
		Owner:    owner,
		Balances: make(map[domain.AssetType]uint64),
	}
}

// Balance returns the stored balance for an asset type, zero if absent.
func (v *Vault) Balance(asset domain.AssetType) uint64 {
	return v.Balances[asset]
}

// Deposit adds to the balance entry for the asset type. Deposits always
// succeed: discoverability, not guarding, is the property vaults enforce
// on inbound funds.
func (v *Vault) Deposit(asset domain.AssetType, amount uint64) {
	if v.Balances == nil {
		v.Balances = make(map[domain.AssetType]uint64)
	}
	v.Balances[asset] += amount
}

// Withdraw subtracts exactly amount from the asset's balance entry.
func (v *Vault) Withdraw(asset domain.AssetType, amount uint64) error {
	if v.Balances[asset] < amount {
		return dErrors.Newf(dErrors.CodeInsufficientBalance,
			"vault holds %d of %s, cannot withdraw %d", v.Balances[asset], asset, amount)
	}
	v.Balances[asset] -= amount
	return nil
}

// AssertOwner fails unless the proof's key matches the vault owner.
func (v *Vault) AssertOwner(proof Proof) error {
	if proof.Key() != v.Owner {
		return dErrors.New(dErrors.CodeNotOwner, "proof does not control this vault")
	}
	return nil
}

// Clone returns an independent copy. Stores hand out clones so callers
// never alias the stored record.
func (v *Vault) Clone() *Vault {
	cp := *v
	cp.Balances = maps.Clone(v.Balances)
	if cp.Balances == nil {
		cp.Balances = make(map[domain.AssetType]uint64)
	}
	return &cp
}
