package models

import (
	"fmt"

	"github.com/manolisliolios/rwa-standard/pkg/domain"
	dErrors "github.com/manolisliolios/rwa-standard/pkg/domain-errors"
)

// Descriptor is the declarative command hint attached to a rule. It is
// consumed by off-chain tooling only: no runtime path reads its contents,
// so validation here covers shape, never semantics.
type Descriptor struct {
	Target        TargetRef      `json:"target"`
	ModuleName    string         `json:"module_name"`
	FunctionName  string         `json:"function_name"`
	Arguments     []Argument     `json:"arguments,omitempty"`
	TypeArguments []TypeArgument `json:"type_arguments,omitempty"`
}

// TargetRef addresses the command target either statically or through a
// named alias resolved by the consuming tool. Exactly one side is set.
type TargetRef struct {
	Static *domain.Identity `json:"static,omitempty"`
	Alias  string           `json:"alias,omitempty"`
}

// ArgumentKind discriminates the Argument union.
type ArgumentKind string

const (
	ArgSharedRef    ArgumentKind = "shared_ref"
	ArgMutSharedRef ArgumentKind = "mut_shared_ref"
	ArgImmutableRef ArgumentKind = "immutable_ref"
	ArgPayment      ArgumentKind = "payment"
	ArgPlaceholder  ArgumentKind = "placeholder"
)

// Argument is one ordered command argument. Kind decides which of the
// remaining fields are meaningful.
type Argument struct {
	Kind      ArgumentKind     `json:"kind"`
	Ref       *domain.Identity `json:"ref,omitempty"`
	AssetType domain.AssetType `json:"asset_type,omitempty"`
	Amount    uint64           `json:"amount,omitempty"`
	Tag       string           `json:"tag,omitempty"`
}

// TypeArgument is one ordered type argument: either the system
// placeholder filled in by the consuming tool, or a concrete type name.
type TypeArgument struct {
	System   bool   `json:"system,omitempty"`
	Concrete string `json:"concrete,omitempty"`
}

// Validate checks structural consistency of the descriptor.
func (d Descriptor) Validate() error {
	if d.ModuleName == "" || d.FunctionName == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "descriptor requires module and function names")
	}
	if (d.Target.Static == nil) == (d.Target.Alias == "") {
		return dErrors.New(dErrors.CodeInvalidInput, "descriptor target must set exactly one of static address or alias")
	}
	for i, arg := range d.Arguments {
		if err := arg.validate(); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInvalidInput, fmt.Sprintf("descriptor argument %d is invalid", i))
		}
	}
	for i, ta := range d.TypeArguments {
		if ta.System == (ta.Concrete != "") {
			return dErrors.Newf(dErrors.CodeInvalidInput, "descriptor type argument %d must be system or concrete, not both", i)
		}
	}
	return nil
}

func (a Argument) validate() error {
	switch a.Kind {
	case ArgSharedRef, ArgMutSharedRef, ArgImmutableRef:
		if a.Ref == nil {
			return dErrors.New(dErrors.CodeInvalidInput, "reference argument requires a ref identity")
		}
	case ArgPayment:
		if a.AssetType == "" {
			return dErrors.New(dErrors.CodeInvalidInput, "payment argument requires an asset type")
		}
	case ArgPlaceholder:
		if a.Tag == "" {
			return dErrors.New(dErrors.CodeInvalidInput, "placeholder argument requires a tag")
		}
	default:
		return dErrors.New(dErrors.CodeInvalidInput, "unknown argument kind")
	}
	return nil
}
