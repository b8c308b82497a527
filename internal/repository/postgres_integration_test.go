//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

type PostgresLedgerSuite struct {
	suite.Suite
	ctx       context.Context
	container *tcpostgres.PostgresContainer
	pool      *pgxpool.Pool
	ledger    *PostgresLedger
}

func TestPostgresLedgerSuite(t *testing.T) {
	suite.Run(t, new(PostgresLedgerSuite))
}

func (s *PostgresLedgerSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := tcpostgres.Run(s.ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("documents"),
		tcpostgres.WithUsername("qrdoc"),
		tcpostgres.WithPassword("qrdoc"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	dsn, err := container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	s.pool, err = Open(s.ctx, Config{DSN: dsn, MaxConns: 2, DialTimeout: 10 * time.Second}, nil)
	s.Require().NoError(err)
	s.Require().NoError(MigratePool(s.ctx, s.pool, nil))
	s.ledger = NewPostgresLedger(s.pool, nil)
}

func (s *PostgresLedgerSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *PostgresLedgerSuite) SetupTest() {
	_, err := s.pool.Exec(s.ctx, "TRUNCATE processed_files")
	s.Require().NoError(err)
}

func (s *PostgresLedgerSuite) TestHealthCheck() {
	s.NoError(HealthCheck(s.ctx, s.pool, 2*time.Second, nil))
}

func (s *PostgresLedgerSuite) TestSeenIsIdempotent() {
	s.Require().NoError(s.ledger.MarkSeenUnprocessed(s.ctx, "b.png"))
	s.Require().NoError(s.ledger.MarkSeenUnprocessed(s.ctx, "b.png"))

	entries, err := s.ledger.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.False(entries[0].Processed)
}

func (s *PostgresLedgerSuite) TestProcessedIsNeverDowngraded() {
	s.Require().NoError(s.ledger.MarkExtracted(s.ctx, "a.pdf", sampleRecord()))
	s.Require().NoError(s.ledger.MarkSeenUnprocessed(s.ctx, "a.pdf"))

	ok, err := s.ledger.IsProcessed(s.ctx, "a.pdf")
	s.Require().NoError(err)
	s.True(ok)
}

func (s *PostgresLedgerSuite) TestUpsertOverwrites() {
	s.Require().NoError(s.ledger.MarkExtracted(s.ctx, "a.pdf", sampleRecord()))
	updated := sampleRecord()
	updated.PersonIdentifier = "ID999"
	s.Require().NoError(s.ledger.MarkExtracted(s.ctx, "a.pdf", updated))

	e, found, err := s.ledger.Get(s.ctx, "a.pdf")
	s.Require().NoError(err)
	s.Require().True(found)
	s.Require().NotNil(e.Record)
	s.Equal("ID999", e.Record.PersonIdentifier)
	s.True(e.Record.StartValidity.Equal(updated.StartValidity))
}
