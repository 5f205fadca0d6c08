// Package namespace implements the root identity from which every vault
// and rule address is derived. Derivation is a pure function of
// (namespace identity, entity kind, key): no index or store lookup is
// needed to locate a record, and identity spaces for different entity
// kinds cannot collide.
package namespace

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/manolisliolios/rwa-standard/pkg/domain"
)

// Kind is the domain-separation tag for an entity kind. Two keys under
// different kinds never derive the same identity.
type Kind string

const (
	KindVault Kind = "vault"
	KindRule  Kind = "rule"
)

// Namespace is the root identity. It carries no state besides its own
// identity; record existence is the stores' concern.
type Namespace struct {
	id domain.Identity
}

// New wraps an externally bootstrapped root identity. The bootstrap itself
// (a one-time singleton) happens outside this service.
func New(id domain.Identity) *Namespace {
	return &Namespace{id: id}
}

func (n *Namespace) ID() domain.Identity { return n.id }

// Derive computes the identity of the entity addressed by (kind, key).
// HKDF-SHA256 keeps derivation one-way and collision-free; the salt binds
// the entity kind so vault and rule spaces are disjoint.
func (n *Namespace) Derive(kind Kind, key []byte) domain.Identity {
	r := hkdf.New(sha256.New, n.id[:], []byte("rwa/"+kind), key)
	var id domain.Identity
	if _, err := io.ReadFull(r, id[:]); err != nil {
		// hkdf.Reader only fails past its expansion limit, far beyond 32 bytes.
		panic("namespace: hkdf expand failed: " + err.Error())
	}
	return id
}

// VaultAddress derives the vault identity for an owner key.
func (n *Namespace) VaultAddress(owner domain.OwnerKey) domain.Identity {
	return n.Derive(KindVault, []byte(owner))
}

// RuleAddress derives the rule identity for an asset type.
func (n *Namespace) RuleAddress(asset domain.AssetType) domain.Identity {
	return n.Derive(KindRule, []byte(asset))
}
