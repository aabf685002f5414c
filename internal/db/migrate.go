package db

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS portfolios (
		id SERIAL PRIMARY KEY,
		user_id INTEGER NOT NULL,
		name VARCHAR(255) NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS holdings (
		id SERIAL PRIMARY KEY,
		portfolio_id INTEGER NOT NULL REFERENCES portfolios(id) ON DELETE CASCADE,
		symbol VARCHAR(10) NOT NULL,
		quantity DECIMAL(18, 4) NOT NULL,
		purchase_price DECIMAL(18, 4) NOT NULL,
		purchase_date DATE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS price_history (
		id SERIAL PRIMARY KEY,
		symbol VARCHAR(10) NOT NULL,
		price DECIMAL(18, 4) NOT NULL,
		volume BIGINT DEFAULT 0,
		date TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS alerts (
		id SERIAL PRIMARY KEY,
		portfolio_id INTEGER NOT NULL REFERENCES portfolios(id) ON DELETE CASCADE,
		symbol VARCHAR(10) NOT NULL,
		price_threshold DECIMAL(18, 4) NOT NULL,
		condition VARCHAR(10) NOT NULL,
		email VARCHAR(255) NOT NULL,
		is_active BOOLEAN DEFAULT TRUE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_holdings_portfolio_id ON holdings(portfolio_id)`,
	`CREATE INDEX IF NOT EXISTS idx_price_history_symbol_date ON price_history(symbol, date)`,
	`CREATE INDEX IF NOT EXISTS idx_alerts_active ON alerts(is_active) WHERE is_active = TRUE`,
}

// Migrate creates the tracker tables if they do not exist yet.
func (db *DB) Migrate(ctx context.Context) error {
	sqlDB, err := db.GetSQLDB()
	if err != nil {
		return fmt.Errorf("failed to get SQL DB: %w", err)
	}
	for _, stmt := range schema {
		if _, err := sqlDB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
