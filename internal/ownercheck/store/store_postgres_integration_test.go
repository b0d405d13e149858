//go:build integration

package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"namecheck/internal/ownercheck/models"
	"namecheck/internal/ownercheck/store"
	"namecheck/pkg/platform/sentinel"
	"namecheck/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgresStore(s.postgres.DB)
	s.Require().NoError(s.store.Migrate(context.Background()))
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "bank_sessions"))
}

func (s *PostgresStoreSuite) TestRoundTripAndOverwrite() {
	ctx := context.Background()
	first := &models.SessionState{
		AccountNumber:   "19036000000000",
		AuthToken:       "first",
		RefreshToken:    "r1",
		TokenIssuedAt:   time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		IsLoggedIn:      true,
		Cookies:         []models.Cookie{{Name: "XSRF-TOKEN", Value: "abc"}},
		PendingTransfer: []string{},
	}
	s.Require().NoError(s.store.Save(ctx, first.AccountNumber, first))

	second := first.Clone()
	second.AuthToken = "second"
	s.Require().NoError(s.store.Save(ctx, first.AccountNumber, second))

	got, err := s.store.Load(ctx, first.AccountNumber)
	s.Require().NoError(err)
	s.Equal("second", got.AuthToken)
	s.Equal(first.Cookies, got.Cookies)
	s.True(first.TokenIssuedAt.Equal(got.TokenIssuedAt))
}

func (s *PostgresStoreSuite) TestMissReturnsErrNotFound() {
	_, err := s.store.Load(context.Background(), "missing")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestConcurrentSavesKeepOneRow() {
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.store.Save(ctx, "concurrent", &models.SessionState{AuthToken: string(rune('a' + i))})
		}(i)
	}
	wg.Wait()

	var rows int
	err := s.postgres.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM bank_sessions`).Scan(&rows)
	s.Require().NoError(err)
	s.Equal(1, rows)
}
