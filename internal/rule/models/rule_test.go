package models

import (
	"testing"

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

func TestAuthorize(t *testing.T) {
	cap := IssueCapability()
	r := New(testIdentity(1), "USDX", false, cap.AuthorizationID())

	t.Run("accepts the issued capability", func(t *testing.T) {
		require.NoError(t, r.Authorize(cap))
	})

	t.Run("rejects a different capability", func(t *testing.T) {
		err := r.Authorize(IssueCapability())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidAuthorization))
	})

	t.Run("rejects the zero capability", func(t *testing.T) {
		err := r.Authorize(Capability{})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidAuthorization))
	})
}

func TestCapabilityCredentialRoundTrip(t *testing.T) {
	cap := IssueCapability()
	r := New(testIdentity(1), "USDX", false, cap.AuthorizationID())

	parsed, err := ParseCapability(cap.Credential())
	require.NoError(t, err)
	require.NoError(t, r.Authorize(parsed))

	_, err = ParseCapability("not-a-credential")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidAuthorization))
}

func TestCloneIsIndependent(t *testing.T) {
	cap := IssueCapability()
	r := New(testIdentity(1), "GOV", true, cap.AuthorizationID())
	r.Treasury = &Treasury{Supply: 100}
	r.SetHint("transfer", Descriptor{
		Target:       TargetRef{Alias: "registry"},
		ModuleName:   "token",
		FunctionName: "approve",
	})

	cp := r.Clone()
	cp.Treasury.Supply = 999
	cp.SetHint("transfer", Descriptor{ModuleName: "other"})

	assert.Equal(t, uint64(100), r.Treasury.Supply)
	assert.Equal(t, "token", r.CommandHints["transfer"].ModuleName)
}

func TestDescriptorValidate(t *testing.T) {
	static := testIdentity(2)
	valid := Descriptor{
		Target:       TargetRef{Static: &static},
		ModuleName:   "token",
		FunctionName: "approve",
		Arguments: []Argument{
			{Kind: ArgSharedRef, Ref: &static},
			{Kind: ArgPayment, AssetType: "USDX", Amount: 5},
			{Kind: ArgPlaceholder, Tag: "recipient"},
		},
		TypeArguments: []TypeArgument{
			{System: true},
			{Concrete: "0x2::token::USDX"},
		},
	}
	require.NoError(t, valid.Validate())

	t.Run("rejects missing names", func(t *testing.T) {
		d := valid
		d.ModuleName = ""
		require.Error(t, d.Validate())
	})

	t.Run("rejects target with both sides", func(t *testing.T) {
		d := valid
		d.Target = TargetRef{Static: &static, Alias: "registry"}
		require.Error(t, d.Validate())
	})

	t.Run("rejects target with neither side", func(t *testing.T) {
		d := valid
		d.Target = TargetRef{}
		require.Error(t, d.Validate())
	})

	t.Run("rejects reference argument without ref", func(t *testing.T) {
		d := valid
		d.Arguments = []Argument{{Kind: ArgMutSharedRef}}
		require.Error(t, d.Validate())
	})

	t.Run("rejects unknown argument kind", func(t *testing.T) {
		d := valid
		d.Arguments = []Argument{{Kind: "mystery"}}
		require.Error(t, d.Validate())
	})

	t.Run("rejects ambiguous type argument", func(t *testing.T) {
		d := valid
		d.TypeArguments = []TypeArgument{{System: true, Concrete: "both"}}
		require.Error(t, d.Validate())
	})
}
