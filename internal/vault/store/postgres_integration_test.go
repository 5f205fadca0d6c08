//go:build integration

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/manolisliolios/rwa-standard/internal/vault/models"
	"github.com/manolisliolios/rwa-standard/pkg/platform/sentinel"
	"github.com/manolisliolios/rwa-standard/pkg/testutil/containers"
)

type VaultPostgresSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *Postgres
	ctx      context.Context
}

func TestVaultPostgresSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(VaultPostgresSuite))
}

func (s *VaultPostgresSuite) SetupSuite() {
	s.ctx = context.Background()
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = NewPostgres(s.postgres.DB)
	s.Require().NoError(s.store.EnsureSchema(s.ctx))
}

func (s *VaultPostgresSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(s.ctx, "vaults"))
}

func (s *VaultPostgresSuite) TestCreateAndFind() {
	v := models.New(identity(1), "alice")
	v.Deposit("USDX", 100)
	s.Require().NoError(s.store.Create(s.ctx, v))

	found, err := s.store.FindByID(s.ctx, v.ID)
	s.Require().NoError(err)
	s.Equal(v.Owner, found.Owner)
	s.Equal(uint64(100), found.Balances["USDX"])
}

func (s *VaultPostgresSuite) TestCreateConflict() {
	v := models.New(identity(2), "bob")
	s.Require().NoError(s.store.Create(s.ctx, v))
	s.Require().ErrorIs(s.store.Create(s.ctx, models.New(identity(2), "bob")), sentinel.ErrConflict)
}

func (s *VaultPostgresSuite) TestFindMissing() {
	_, err := s.store.FindByID(s.ctx, identity(9))
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *VaultPostgresSuite) TestSavePersistsBalances() {
	v := models.New(identity(3), "carol")
	s.Require().NoError(s.store.Create(s.ctx, v))

	v.Deposit("USDX", 40)
	s.Require().NoError(s.store.Save(s.ctx, v))

	found, err := s.store.FindByID(s.ctx, v.ID)
	s.Require().NoError(err)
	s.Equal(uint64(40), found.Balances["USDX"])
}
