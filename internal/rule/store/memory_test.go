package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/manolisliolios/rwa-standard/internal/rule/models"
	"github.com/manolisliolios/rwa-standard/pkg/domain"
	"github.com/manolisliolios/rwa-standard/pkg/platform/sentinel"
)

type RuleStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *RuleStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestRuleStoreSuite(t *testing.T) {
	suite.Run(t, new(RuleStoreSuite))
}

func identity(b byte) domain.Identity {
	var id domain.Identity
	for i := range id {
		id[i] = b
	}
	return id
}

func newRule(id domain.Identity, asset domain.AssetType) *models.Rule {
	cap := models.IssueCapability()
	return models.New(id, asset, false, cap.AuthorizationID())
}

func (s *RuleStoreSuite) TestCreateAndFind() {
	s.Run("creates and finds a rule", func() {
		r := newRule(identity(1), "USDX")
		s.Require().NoError(s.store.Create(s.ctx, r))

		found, err := s.store.FindByID(s.ctx, r.ID)
		s.Require().NoError(err)
		s.Equal(r.AssetType, found.AssetType)
		s.Equal(r.AuthorizationID, found.AuthorizationID)
	})

	s.Run("returns ErrNotFound for unknown identity", func() {
		_, err := s.store.FindByID(s.ctx, identity(9))
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("rejects a second rule at the same identity", func() {
		r := newRule(identity(2), "GOV")
		s.Require().NoError(s.store.Create(s.ctx, r))
		err := s.store.Create(s.ctx, newRule(identity(2), "GOV"))
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})
}

func (s *RuleStoreSuite) TestSavePersistsMutableState() {
	r := newRule(identity(3), "GOV")
	r.Treasury = &models.Treasury{}
	s.Require().NoError(s.store.Create(s.ctx, r))

	r.Treasury.Supply = 1000
	r.SetHint("mint", models.Descriptor{
		Target:       models.TargetRef{Alias: "treasury"},
		ModuleName:   "token",
		FunctionName: "mint",
	})
	s.Require().NoError(s.store.Save(s.ctx, r))

	found, err := s.store.FindByID(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Require().NotNil(found.Treasury)
	s.Equal(uint64(1000), found.Treasury.Supply)
	s.Equal("token", found.CommandHints["mint"].ModuleName)
}

func (s *RuleStoreSuite) TestSnapshotRestore() {
	r := newRule(identity(4), "USDX")
	s.Require().NoError(s.store.Create(s.ctx, r))

	snap := s.store.Snapshot()

	r.SetHint("transfer", models.Descriptor{ModuleName: "token", FunctionName: "approve", Target: models.TargetRef{Alias: "t"}})
	s.Require().NoError(s.store.Save(s.ctx, r))

	s.store.Restore(snap)

	restored, err := s.store.FindByID(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Empty(restored.CommandHints)
}
