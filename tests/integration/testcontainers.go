// Package integration exercises the relational store against a real
// PostgreSQL instance started with testcontainers. Docker must be running.
//
// Run with: go test ./tests/integration/
package integration

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/quantfolio/quantfolio/internal/db"
)

// suiteDB holds the container and connections shared by the whole package.
// TestMain starts it once and tears it down after the run.
type suiteDB struct {
	container testcontainers.Container
	database  *db.DB
	sqlDB     *sql.DB
}

var suite *suiteDB

func setupSuite(ctx context.Context) (*suiteDB, error) {
	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("tracker_test"),
		postgres.WithUsername("tracker"),
		postgres.WithPassword("tracker"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	gdb, err := gorm.Open(gormPostgres.New(gormPostgres.Config{
		DSN:                  connStr,
		PreferSimpleProtocol: true, // disables implicit prepared statement usage
	}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}
	database := &db.DB{DB: gdb}

	if err := database.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to migrate test database: %w", err)
	}

	sqlDB, err := database.GetSQLDB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	return &suiteDB{
		container: pgContainer,
		database:  database,
		sqlDB:     sqlDB,
	}, nil
}

func (s *suiteDB) cleanup() {
	if s.database != nil {
		_ = s.database.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(context.Background())
	}
}

// getSuiteDB returns the shared pool for a test.
func getSuiteDB(t *testing.T) *sql.DB {
	t.Helper()
	if suite == nil {
		t.Fatal("suite database not initialized; TestMain did not run")
	}
	return suite.sqlDB
}
