package models

import (
	"github.com/google/uuid"

	dErrors "github.com/manolisliolios/rwa-standard/pkg/domain-errors"
)

// Capability proves the right to exercise a rule's policy operations. The
// identifier is unexported: a Capability exists only by being issued at
// registration or by authenticating the credential the registrant was
// handed, so holding one is holding the authority itself.
type Capability struct {
	id uuid.UUID
}

// IssueCapability mints a fresh capability. Called once, at registration.
func IssueCapability() Capability {
	return Capability{id: uuid.New()}
}

// ParseCapability authenticates a credential string at the transport
// boundary. The credential is bearer-style: knowledge of it is authority.
func ParseCapability(credential string) (Capability, error) {
	id, err := uuid.Parse(credential)
	if err != nil || id == uuid.Nil {
		return Capability{}, dErrors.New(dErrors.CodeInvalidAuthorization, "capability credential is malformed")
	}
	return Capability{id: id}, nil
}

// Credential returns the string form handed to the registrant. It is
// shown exactly once, at registration.
func (c Capability) Credential() string {
	return c.id.String()
}

func (c Capability) matches(authorizationID uuid.UUID) bool {
	return c.id != uuid.Nil && c.id == authorizationID
}

// AuthorizationID is the identifier stored on the rule at registration.
func (c Capability) AuthorizationID() uuid.UUID {
	return c.id
}
