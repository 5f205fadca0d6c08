package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/manolisliolios/rwa-standard/internal/audit"
	"github.com/manolisliolios/rwa-standard/internal/namespace"
	"github.com/manolisliolios/rwa-standard/internal/rule/models"
	rulestore "github.com/manolisliolios/rwa-standard/internal/rule/store"
	vaultmodels "github.com/manolisliolios/rwa-standard/internal/vault/models"
	vaultstore "github.com/manolisliolios/rwa-standard/internal/vault/store"
	"github.com/manolisliolios/rwa-standard/pkg/domain"
	dErrors "github.com/manolisliolios/rwa-standard/pkg/domain-errors"
)

type RuleServiceSuite struct {
	suite.Suite
	ctx context.Context

	ns     *namespace.Namespace
	vaults *vaultstore.InMemory
	sink   *audit.Memory
	svc    *Service
}

func (s *RuleServiceSuite) SetupTest() {
	s.ctx = context.Background()
	var root domain.Identity
	root[0] = 0x42
	s.ns = namespace.New(root)
	s.vaults = vaultstore.NewInMemory()
	s.sink = audit.NewMemory()
	s.svc = New(s.ns, rulestore.NewInMemory(), s.vaults, audit.NewEmitter(s.sink, nil), nil, nil)
}

func TestRuleServiceSuite(t *testing.T) {
	suite.Run(t, new(RuleServiceSuite))
}

func (s *RuleServiceSuite) vault(owner domain.OwnerKey) domain.Identity {
	id := s.ns.VaultAddress(owner)
	s.Require().NoError(s.vaults.Create(s.ctx, vaultmodels.New(id, owner)))
	return id
}

func (s *RuleServiceSuite) balance(id domain.Identity, asset domain.AssetType) uint64 {
	v, err := s.vaults.FindByID(s.ctx, id)
	s.Require().NoError(err)
	return v.Balances[asset]
}

func (s *RuleServiceSuite) TestRegister() {
	s.Run("registers a rule at its derived address", func() {
		r, cap, err := s.svc.Register(s.ctx, "USDX", true)
		s.Require().NoError(err)
		s.Equal(s.ns.RuleAddress("USDX"), r.ID)
		s.True(r.ClawbackAllowed)
		s.False(r.Managed())
		s.NoError(r.Authorize(cap))
	})

	s.Run("rejects a second rule for the same asset", func() {
		_, _, err := s.svc.Register(s.ctx, "USDX", false)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeAlreadyExists))
	})

	s.Run("each registration mints a distinct capability", func() {
		_, capA, err := s.svc.Register(s.ctx, "AAA", false)
		s.Require().NoError(err)
		r, _, err := s.svc.Register(s.ctx, "BBB", false)
		s.Require().NoError(err)
		err = r.Authorize(capA)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeInvalidAuthorization))
	})
}

func (s *RuleServiceSuite) TestRegisterManaged() {
	s.Run("attaches a treasury at supply zero", func() {
		r, _, err := s.svc.RegisterManaged(s.ctx, "GOV", true, 0)
		s.Require().NoError(err)
		s.True(r.Managed())
		s.Equal(uint64(0), r.Treasury.Supply)
	})

	s.Run("refuses a treasury over circulating supply", func() {
		_, _, err := s.svc.RegisterManaged(s.ctx, "BTCX", true, 21)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeSupplyMustBeZero))
	})
}

func (s *RuleServiceSuite) TestMint() {
	_, cap, err := s.svc.RegisterManaged(s.ctx, "GOV", true, 0)
	s.Require().NoError(err)
	holder := s.vault("holder")

	s.Run("mints into the destination vault and grows supply", func() {
		s.Require().NoError(s.svc.Mint(s.ctx, "GOV", holder, 1000, cap))
		s.Equal(uint64(1000), s.balance(holder, "GOV"))
		r, err := s.svc.Get(s.ctx, "GOV")
		s.Require().NoError(err)
		s.Equal(uint64(1000), r.Treasury.Supply)
	})

	s.Run("requires the registration capability", func() {
		err := s.svc.Mint(s.ctx, "GOV", holder, 1, models.IssueCapability())
		s.Require().True(dErrors.HasCode(err, dErrors.CodeInvalidAuthorization))
	})

	s.Run("rejects unmanaged assets before checking the capability", func() {
		_, _, err := s.svc.Register(s.ctx, "USDX", false)
		s.Require().NoError(err)
		err = s.svc.Mint(s.ctx, "USDX", holder, 1, models.IssueCapability())
		s.Require().True(dErrors.HasCode(err, dErrors.CodeNotManagedTreasury))
	})
}

func (s *RuleServiceSuite) TestBurn() {
	_, cap, err := s.svc.RegisterManaged(s.ctx, "GOV", true, 0)
	s.Require().NoError(err)
	holder := s.vault("holder")
	s.Require().NoError(s.svc.Mint(s.ctx, "GOV", holder, 1000, cap))

	s.Run("burns from the source vault and shrinks supply", func() {
		s.Require().NoError(s.svc.Burn(s.ctx, "GOV", holder, 400, cap))
		s.Equal(uint64(600), s.balance(holder, "GOV"))
		r, err := s.svc.Get(s.ctx, "GOV")
		s.Require().NoError(err)
		s.Equal(uint64(600), r.Treasury.Supply)
	})

	s.Run("fails on insufficient balance", func() {
		err := s.svc.Burn(s.ctx, "GOV", holder, 601, cap)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeInsufficientBalance))
	})

	s.Run("requires the registration capability", func() {
		err := s.svc.Burn(s.ctx, "GOV", holder, 1, models.IssueCapability())
		s.Require().True(dErrors.HasCode(err, dErrors.CodeInvalidAuthorization))
	})
}

func (s *RuleServiceSuite) TestClawback() {
	_, cap, err := s.svc.RegisterManaged(s.ctx, "GOV", true, 0)
	s.Require().NoError(err)
	holder := s.vault("holder")
	treasurer := s.vault("treasurer")
	s.Require().NoError(s.svc.Mint(s.ctx, "GOV", holder, 1000, cap))

	s.Run("force-moves balance without owner proof", func() {
		s.Require().NoError(s.svc.Clawback(s.ctx, "GOV", holder, treasurer, 300, cap))
		s.Equal(uint64(700), s.balance(holder, "GOV"))
		s.Equal(uint64(300), s.balance(treasurer, "GOV"))
	})

	s.Run("disabled policy fails before the capability check", func() {
		_, _, err := s.svc.Register(s.ctx, "USDX", false)
		s.Require().NoError(err)
		err = s.svc.Clawback(s.ctx, "USDX", holder, treasurer, 1, models.IssueCapability())
		s.Require().True(dErrors.HasCode(err, dErrors.CodeClawbackDisabled))
	})

	s.Run("requires the registration capability when enabled", func() {
		err := s.svc.Clawback(s.ctx, "GOV", holder, treasurer, 1, models.IssueCapability())
		s.Require().True(dErrors.HasCode(err, dErrors.CodeInvalidAuthorization))
	})
}

func (s *RuleServiceSuite) TestClawbackWithdraw() {
	holder := s.vault("holder")

	s.Run("returns the withdrawn amount for unmanaged assets", func() {
		_, cap, err := s.svc.Register(s.ctx, "USDX", true)
		s.Require().NoError(err)
		s.Require().NoError(s.vaults.Save(s.ctx, mustFund(s, holder, "USDX", 50)))

		got, err := s.svc.ClawbackWithdraw(s.ctx, "USDX", holder, 30, cap)
		s.Require().NoError(err)
		s.Equal(uint64(30), got)
		s.Equal(uint64(20), s.balance(holder, "USDX"))
	})

	s.Run("refuses managed assets even with the right capability", func() {
		_, cap, err := s.svc.RegisterManaged(s.ctx, "GOV", true, 0)
		s.Require().NoError(err)
		s.Require().NoError(s.svc.Mint(s.ctx, "GOV", holder, 10, cap))

		_, err = s.svc.ClawbackWithdraw(s.ctx, "GOV", holder, 5, cap)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeCannotClawbackManaged))
	})
}

func (s *RuleServiceSuite) TestSetCommandHint() {
	_, cap, err := s.svc.Register(s.ctx, "USDX", false)
	s.Require().NoError(err)
	descriptor := models.Descriptor{
		Target:       models.TargetRef{Alias: "registry"},
		ModuleName:   "custody",
		FunctionName: "approve",
	}

	s.Run("stores the hint under its action tag", func() {
		s.Require().NoError(s.svc.SetCommandHint(s.ctx, "USDX", "approve", descriptor, cap))
		r, err := s.svc.Get(s.ctx, "USDX")
		s.Require().NoError(err)
		s.Equal("custody", r.CommandHints["approve"].ModuleName)
	})

	s.Run("requires the registration capability", func() {
		err := s.svc.SetCommandHint(s.ctx, "USDX", "approve", descriptor, models.IssueCapability())
		s.Require().True(dErrors.HasCode(err, dErrors.CodeInvalidAuthorization))
	})

	s.Run("rejects a malformed descriptor", func() {
		err := s.svc.SetCommandHint(s.ctx, "USDX", "approve", models.Descriptor{}, cap)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func mustFund(s *RuleServiceSuite, id domain.Identity, asset domain.AssetType, amount uint64) *vaultmodels.Vault {
	v, err := s.vaults.FindByID(s.ctx, id)
	s.Require().NoError(err)
	v.Deposit(asset, amount)
	return v
}
