package namespace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manolisliolios/rwa-standard/pkg/domain"
)

func testRoot(b byte) domain.Identity {
	var id domain.Identity
	for i := range id {
		id[i] = b
	}
	return id
}

func TestDeriveDeterministic(t *testing.T) {
	ns := New(testRoot(1))

	first := ns.VaultAddress("alice")
	second := ns.VaultAddress("alice")
	assert.Equal(t, first, second, "identical inputs must derive identical identities")
	assert.False(t, first.IsZero())
}

func TestDeriveCollisionFree(t *testing.T) {
	ns := New(testRoot(1))

	seen := map[domain.Identity]string{}
	owners := []domain.OwnerKey{"alice", "bob", "carol", "alicf", "0x1", "0x2"}
	for _, owner := range owners {
		id := ns.VaultAddress(owner)
		prev, dup := seen[id]
		require.False(t, dup, "owner %q collides with %q", owner, prev)
		seen[id] = string(owner)
	}
}

func TestDeriveKindSeparation(t *testing.T) {
	ns := New(testRoot(1))

	// The same key under different entity kinds must land in disjoint
	// identity spaces.
	vault := ns.Derive(KindVault, []byte("USDX"))
	rule := ns.Derive(KindRule, []byte("USDX"))
	assert.NotEqual(t, vault, rule)
}

func TestDeriveBoundToNamespace(t *testing.T) {
	a := New(testRoot(1))
	b := New(testRoot(2))

	assert.NotEqual(t, a.VaultAddress("alice"), b.VaultAddress("alice"),
		"distinct namespaces must derive distinct identities")
}
