// Package store implements the relational collaborators of the tracker:
// portfolios, holdings, alerts and the append-only price history. All
// repositories run their queries on a caller-supplied Querier so a single
// pool connection can serve a whole background cycle.
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/quantfolio/quantfolio/internal/models"
)

// Querier is the query surface shared by *sql.DB and *sql.Conn.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// PortfolioStore manages portfolio rows.
type PortfolioStore interface {
	Create(ctx context.Context, p *models.Portfolio) error
	GetByID(ctx context.Context, id int64) (*models.Portfolio, error)
	ListByUser(ctx context.Context, userID int64) ([]*models.Portfolio, error)
	Update(ctx context.Context, id int64, name string) (*models.Portfolio, error)
	Delete(ctx context.Context, id int64) error
}

// HoldingStore manages holding rows.
type HoldingStore interface {
	Create(ctx context.Context, h *models.Holding) error
	GetByID(ctx context.Context, id int64) (*models.Holding, error)
	ListByPortfolio(ctx context.Context, portfolioID int64) ([]*models.Holding, error)
	Update(ctx context.Context, h *models.Holding) error
	Delete(ctx context.Context, id int64) error
}

// AlertStore manages threshold alert rows.
type AlertStore interface {
	Create(ctx context.Context, a *models.Alert) error
	GetByID(ctx context.Context, id int64) (*models.Alert, error)
	ListByPortfolio(ctx context.Context, portfolioID int64) ([]*models.Alert, error)
	ListActive(ctx context.Context) ([]*models.Alert, error)
	Deactivate(ctx context.Context, id int64) (*models.Alert, error)
	Delete(ctx context.Context, id int64) error
}

// PriceHistoryStore is the append-only historical price record per symbol.
type PriceHistoryStore interface {
	Append(ctx context.Context, symbol string, price float64, volume int64) (*models.HistoricalPricePoint, error)
	// ListBySymbol returns up to limit points, oldest first.
	ListBySymbol(ctx context.Context, symbol string, limit int) ([]*models.HistoricalPricePoint, error)
	ListByRange(ctx context.Context, symbol string, start, end time.Time) ([]*models.HistoricalPricePoint, error)
	Latest(ctx context.Context, symbol string) (*models.HistoricalPricePoint, error)
}
