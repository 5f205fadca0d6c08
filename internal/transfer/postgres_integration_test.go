//go:build integration

package transfer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/manolisliolios/rwa-standard/internal/audit"
	vaultmodels "github.com/manolisliolios/rwa-standard/internal/vault/models"
	vaultstore "github.com/manolisliolios/rwa-standard/internal/vault/store"
	"github.com/manolisliolios/rwa-standard/pkg/domain"
	"github.com/manolisliolios/rwa-standard/pkg/testutil/containers"
)

type PostgresUnitSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	vaults   *vaultstore.Postgres
	unit     *PostgresUnit
	ctx      context.Context
}

func TestPostgresUnitSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresUnitSuite))
}

func (s *PostgresUnitSuite) SetupSuite() {
	s.ctx = context.Background()
	s.postgres = containers.NewPostgresContainer(s.T())
	s.vaults = vaultstore.NewPostgres(s.postgres.DB)
	s.Require().NoError(s.vaults.EnsureSchema(s.ctx))
	s.unit = NewPostgresUnit(s.postgres.DB, audit.NewEmitter(audit.NewMemory(), nil), nil)
}

func (s *PostgresUnitSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(s.ctx, "vaults"))
}

func (s *PostgresUnitSuite) withdraw(id domain.Identity, asset domain.AssetType, amount uint64) error {
	return s.unit.Run(s.ctx, func(ctx context.Context) error {
		v, err := s.vaults.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := v.Withdraw(asset, amount); err != nil {
			return err
		}
		return s.vaults.Save(ctx, v)
	})
}

// Two units withdrawing from one vault at the same time must both land:
// the balance document is read and written whole, so without serializable
// isolation the second commit would silently discard the first withdrawal.
func (s *PostgresUnitSuite) TestConcurrentWithdrawalsBothApply() {
	v := vaultmodels.New(identity(0x51), "alice")
	v.Deposit("USDX", 100)
	s.Require().NoError(s.vaults.Create(s.ctx, v))

	start := make(chan struct{})
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = s.withdraw(v.ID, "USDX", 30)
		}(i)
	}
	close(start)
	wg.Wait()

	s.Require().NoError(errs[0])
	s.Require().NoError(errs[1])

	final, err := s.vaults.FindByID(s.ctx, v.ID)
	s.Require().NoError(err)
	s.Equal(uint64(40), final.Balance("USDX"))
}

func (s *PostgresUnitSuite) TestFailedUnitRollsBack() {
	v := vaultmodels.New(identity(0x52), "bob")
	v.Deposit("USDX", 10)
	s.Require().NoError(s.vaults.Create(s.ctx, v))

	boom := errors.New("boom")
	err := s.unit.Run(s.ctx, func(ctx context.Context) error {
		cur, err := s.vaults.FindByID(ctx, v.ID)
		if err != nil {
			return err
		}
		cur.Deposit("USDX", 5)
		if err := s.vaults.Save(ctx, cur); err != nil {
			return err
		}
		return boom
	})
	s.Require().ErrorIs(err, boom)

	final, err := s.vaults.FindByID(s.ctx, v.ID)
	s.Require().NoError(err)
	s.Equal(uint64(10), final.Balance("USDX"))
}
