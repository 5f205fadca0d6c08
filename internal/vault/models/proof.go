package models

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/manolisliolios/rwa-standard/pkg/domain"
	dErrors "github.com/manolisliolios/rwa-standard/pkg/domain-errors"
)

// Proof is the capability value proving control of an owner key. It is
// constructible only from an authenticated caller token or from another
// record's own identity, so holding a Proof is holding the right to act
// as that owner.
type Proof struct {
	key domain.OwnerKey
}

func (p Proof) Key() domain.OwnerKey { return p.key }

// ProofForObject builds a proof for an entity that owns a vault through
// its own identity rather than an account address. Possession of the
// record implies control of its identity.
func ProofForObject(id domain.Identity) Proof {
	return Proof{key: domain.OwnerKey(id.String())}
}

// ProofFromToken verifies an owner token (HS256, subject = owner key) and
// returns the proof it authenticates. This is the only path from a wire
// credential to a Proof value.
func ProofFromToken(token string, signingKey []byte) (Proof, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, dErrors.Newf(dErrors.CodeNotOwner, "unexpected signing method %v", t.Header["alg"])
		}
		return signingKey, nil
	})
	if err != nil || !parsed.Valid {
		return Proof{}, dErrors.Wrap(err, dErrors.CodeNotOwner, "owner token is invalid")
	}
	subject, err := parsed.Claims.GetSubject()
	if err != nil || subject == "" {
		return Proof{}, dErrors.New(dErrors.CodeNotOwner, "owner token has no subject")
	}
	key, err := domain.ParseOwnerKey(subject)
	if err != nil {
		return Proof{}, dErrors.Wrap(err, dErrors.CodeNotOwner, "owner token subject is not a valid owner key")
	}
	return Proof{key: key}, nil
}
