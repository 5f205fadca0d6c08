// Package domain defines the typed identifiers shared across the custody
// protocol. Parse functions sit at trust boundaries: anything arriving from
// a wire format goes through them before reaching services.
package domain

import (
	"encoding/hex"
	"unicode"
	"unicode/utf8"

	dErrors "github.com/manolisliolios/rwa-standard/pkg/domain-errors"
)

// IdentitySize is the byte length of every derived identity.
const IdentitySize = 32

// Identity is a deterministically derived 32-byte address for a vault,
// rule, or namespace root. The zero value is not a valid identity.
type Identity [IdentitySize]byte

func (i Identity) String() string {
	return hex.EncodeToString(i[:])
}

func (i Identity) IsZero() bool {
	return i == Identity{}
}

// MarshalText renders the identity as hex for JSON and log output.
func (i Identity) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText parses a hex identity, applying the same checks as
// ParseIdentity.
func (i *Identity) UnmarshalText(text []byte) error {
	id, err := ParseIdentity(string(text))
	if err != nil {
		return err
	}
	*i = id
	return nil
}

// ParseIdentity decodes a 64-character hex identity.
func ParseIdentity(s string) (Identity, error) {
	var id Identity
	if len(s) != IdentitySize*2 {
		return id, dErrors.New(dErrors.CodeInvalidInput, "identity must be 64 hex characters")
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return id, dErrors.Wrap(err, dErrors.CodeInvalidInput, "identity is not valid hex")
	}
	copy(id[:], raw)
	if id.IsZero() {
		return Identity{}, dErrors.New(dErrors.CodeInvalidInput, "identity cannot be zero")
	}
	return id, nil
}

// OwnerKey identifies the controller of a vault. It is an opaque caller
// supplied key: an account address, or the string form of another record's
// identity when a non-address entity owns the vault.
type OwnerKey string

const maxOwnerKeyLen = 128

// ParseOwnerKey validates an owner key arriving from a wire format.
func ParseOwnerKey(s string) (OwnerKey, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "owner key is required")
	}
	if len(s) > maxOwnerKeyLen {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "owner key must be at most %d bytes", maxOwnerKeyLen)
	}
	if !utf8.ValidString(s) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "owner key must be valid UTF-8")
	}
	for _, r := range s {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return "", dErrors.New(dErrors.CodeInvalidInput, "owner key cannot contain whitespace or control characters")
		}
	}
	return OwnerKey(s), nil
}

// AssetType names a fungible asset governed by exactly one rule.
type AssetType string

const maxAssetTypeLen = 64

// ParseAssetType validates an asset type arriving from a wire format.
// Asset types are short symbols: letters, digits, and ._- separators.
func ParseAssetType(s string) (AssetType, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "asset type is required")
	}
	if len(s) > maxAssetTypeLen {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "asset type must be at most %d bytes", maxAssetTypeLen)
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.' || r == '_' || r == '-':
		default:
			return "", dErrors.New(dErrors.CodeInvalidInput, "asset type may contain only letters, digits, and ._-")
		}
	}
	return AssetType(s), nil
}

// ActionTag keys a command hint on a rule (for example "transfer" or
// "mint"). Same character set as asset types.
type ActionTag string

// ParseActionTag validates an action tag arriving from a wire format.
func ParseActionTag(s string) (ActionTag, error) {
	asset, err := ParseAssetType(s)
	if err != nil {
		return "", dErrors.New(dErrors.CodeInvalidInput, "action tag may contain only letters, digits, and ._- (max 64 bytes)")
	}
	return ActionTag(asset), nil
}
