package models

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manolisliolios/rwa-standard/pkg/domain"
	dErrors "github.com/manolisliolios/rwa-standard/pkg/domain-errors"
)

func testIdentity(b byte) domain.Identity {
	var id domain.Identity
	for i := range id {
		id[i] = b
	}
	return id
}

func TestDepositAndWithdraw(t *testing.T) {
	v := New(testIdentity(1), "alice")

	t.Run("deposit creates the entry lazily", func(t *testing.T) {
		assert.Zero(t, v.Balance("USDX"))
		v.Deposit("USDX", 100)
		assert.Equal(t, uint64(100), v.Balance("USDX"))
	})

	t.Run("withdraw subtracts exactly the amount", func(t *testing.T) {
		require.NoError(t, v.Withdraw("USDX", 40))
		assert.Equal(t, uint64(60), v.Balance("USDX"))
	})

	t.Run("withdraw beyond balance fails", func(t *testing.T) {
		err := v.Withdraw("USDX", 61)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInsufficientBalance))
		assert.Equal(t, uint64(60), v.Balance("USDX"), "failed withdraw must not mutate")
	})

	t.Run("withdraw from a missing entry fails", func(t *testing.T) {
		err := v.Withdraw("GOV", 1)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInsufficientBalance))
	})

	t.Run("asset types are independent", func(t *testing.T) {
		v.Deposit("GOV", 5)
		assert.Equal(t, uint64(60), v.Balance("USDX"))
		assert.Equal(t, uint64(5), v.Balance("GOV"))
	})
}

func TestAssertOwner(t *testing.T) {
	v := New(testIdentity(1), "alice")

	require.NoError(t, v.AssertOwner(Proof{key: "alice"}))

	err := v.AssertOwner(Proof{key: "mallory"})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotOwner))
}

func TestCloneIsIndependent(t *testing.T) {
	v := New(testIdentity(1), "alice")
	v.Deposit("USDX", 10)

	cp := v.Clone()
	cp.Deposit("USDX", 90)

	assert.Equal(t, uint64(10), v.Balance("USDX"))
	assert.Equal(t, uint64(100), cp.Balance("USDX"))
}

func mintToken(t *testing.T, subject string, key []byte, method jwt.SigningMethod) string {
	t.Helper()
	token := jwt.NewWithClaims(method, jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestProofFromToken(t *testing.T) {
	signingKey := []byte("secret")

	t.Run("authenticates a valid token", func(t *testing.T) {
		proof, err := ProofFromToken(mintToken(t, "alice", signingKey, jwt.SigningMethodHS256), signingKey)
		require.NoError(t, err)
		assert.Equal(t, domain.OwnerKey("alice"), proof.Key())
	})

	t.Run("rejects a token signed with another key", func(t *testing.T) {
		_, err := ProofFromToken(mintToken(t, "alice", []byte("other"), jwt.SigningMethodHS256), signingKey)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotOwner))
	})

	t.Run("rejects a token without a subject", func(t *testing.T) {
		_, err := ProofFromToken(mintToken(t, "", signingKey, jwt.SigningMethodHS256), signingKey)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotOwner))
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := ProofFromToken("not-a-token", signingKey)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotOwner))
	})
}

func TestProofForObject(t *testing.T) {
	id := testIdentity(7)
	proof := ProofForObject(id)
	assert.Equal(t, domain.OwnerKey(id.String()), proof.Key())
}
