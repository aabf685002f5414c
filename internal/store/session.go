package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Session bundles all repositories bound to one checked-out pool connection.
// Background cycles open one session per cycle and must Close it on every
// exit path; leaking sessions starves the pool under sustained cycling.
type Session struct {
	conn *sql.Conn

	Portfolios PortfolioStore
	Holdings   HoldingStore
	Alerts     AlertStore
	History    PriceHistoryStore
}

// Close returns the connection to the pool. Safe on sessions built without
// a real connection (test doubles).
func (s *Session) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// SessionFactory opens per-cycle store sessions.
type SessionFactory interface {
	NewSession(ctx context.Context) (*Session, error)
}

type sqlSessionFactory struct {
	db *sql.DB
}

// NewFactory creates a SessionFactory backed by the given connection pool.
func NewFactory(db *sql.DB) SessionFactory {
	return &sqlSessionFactory{db: db}
}

func (f *sqlSessionFactory) NewSession(ctx context.Context) (*Session, error) {
	conn, err := f.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	return &Session{
		conn:       conn,
		Portfolios: NewPortfolioRepository(conn),
		Holdings:   NewHoldingRepository(conn),
		Alerts:     NewAlertRepository(conn),
		History:    NewPriceHistoryRepository(conn),
	}, nil
}
