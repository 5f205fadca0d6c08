// Package testutil provides helpers shared across package tests.
package testutil

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/manolisliolios/rwa-standard/internal/vault/models"
	"github.com/manolisliolios/rwa-standard/pkg/domain"
)

// SigningKey is the HS256 key tests mint owner tokens with.
var SigningKey = []byte("test-signing-key")

// MintOwnerToken signs an owner token for the given key, the way an
// authenticated client would present one.
func MintOwnerToken(t *testing.T, owner domain.OwnerKey, signingKey []byte) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": string(owner),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(signingKey)
	if err != nil {
		t.Fatalf("sign owner token: %v", err)
	}
	return signed
}

// OwnerProof authenticates a freshly minted token and returns the proof.
func OwnerProof(t *testing.T, owner domain.OwnerKey) models.Proof {
	t.Helper()
	proof, err := models.ProofFromToken(MintOwnerToken(t, owner, SigningKey), SigningKey)
	if err != nil {
		t.Fatalf("authenticate owner token: %v", err)
	}
	return proof
}
