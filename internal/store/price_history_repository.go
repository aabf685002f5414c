package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/quantfolio/quantfolio/internal/models"
)

type PriceHistoryRepository struct {
	q Querier
}

func NewPriceHistoryRepository(q Querier) *PriceHistoryRepository {
	return &PriceHistoryRepository{q: q}
}

const historyColumns = "id, symbol, price, volume, date"

func (r *PriceHistoryRepository) Append(ctx context.Context, symbol string, price float64, volume int64) (*models.HistoricalPricePoint, error) {
	query := `
		INSERT INTO price_history (symbol, price, volume, date)
		VALUES ($1, $2, $3, NOW())
		RETURNING ` + historyColumns
	p := &models.HistoricalPricePoint{}
	err := r.q.QueryRowContext(ctx, query, symbol, price, volume).Scan(
		&p.ID, &p.Symbol, &p.Price, &p.Volume, &p.Date)
	if err != nil {
		return nil, fmt.Errorf("failed to append price history: %w", err)
	}
	return p, nil
}

// ListBySymbol returns the most recent points for a symbol, reordered oldest
// first so return series read forward in time.
func (r *PriceHistoryRepository) ListBySymbol(ctx context.Context, symbol string, limit int) ([]*models.HistoricalPricePoint, error) {
	query := `SELECT ` + historyColumns + ` FROM price_history
		WHERE symbol = $1 ORDER BY date DESC LIMIT $2`
	points, err := r.list(ctx, query, symbol, limit)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}
	return points, nil
}

func (r *PriceHistoryRepository) ListByRange(ctx context.Context, symbol string, start, end time.Time) ([]*models.HistoricalPricePoint, error) {
	query := `SELECT ` + historyColumns + ` FROM price_history
		WHERE symbol = $1 AND date BETWEEN $2 AND $3 ORDER BY date ASC`
	return r.list(ctx, query, symbol, start, end)
}

func (r *PriceHistoryRepository) Latest(ctx context.Context, symbol string) (*models.HistoricalPricePoint, error) {
	query := `SELECT ` + historyColumns + ` FROM price_history
		WHERE symbol = $1 ORDER BY date DESC LIMIT 1`
	p := &models.HistoricalPricePoint{}
	err := r.q.QueryRowContext(ctx, query, symbol).Scan(&p.ID, &p.Symbol, &p.Price, &p.Volume, &p.Date)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest price: %w", err)
	}
	return p, nil
}

func (r *PriceHistoryRepository) list(ctx context.Context, query string, args ...any) ([]*models.HistoricalPricePoint, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query price history: %w", err)
	}
	defer rows.Close()

	var out []*models.HistoricalPricePoint
	for rows.Next() {
		p := &models.HistoricalPricePoint{}
		if err := rows.Scan(&p.ID, &p.Symbol, &p.Price, &p.Volume, &p.Date); err != nil {
			return nil, fmt.Errorf("failed to scan price history: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
