package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/quantfolio/quantfolio/internal/models"
)

type HoldingRepository struct {
	q Querier
}

func NewHoldingRepository(q Querier) *HoldingRepository {
	return &HoldingRepository{q: q}
}

const holdingColumns = "id, portfolio_id, symbol, quantity, purchase_price, purchase_date, created_at, updated_at"

func scanHolding(row *sql.Row) (*models.Holding, error) {
	h := &models.Holding{}
	err := row.Scan(&h.ID, &h.PortfolioID, &h.Symbol, &h.Quantity, &h.PurchasePrice,
		&h.PurchaseDate, &h.CreatedAt, &h.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return h, nil
}

func (r *HoldingRepository) Create(ctx context.Context, h *models.Holding) error {
	if err := h.Validate(); err != nil {
		return err
	}
	query := `
		INSERT INTO holdings (portfolio_id, symbol, quantity, purchase_price, purchase_date)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING ` + holdingColumns
	created, err := scanHolding(r.q.QueryRowContext(ctx, query,
		h.PortfolioID, h.Symbol, h.Quantity, h.PurchasePrice))
	if err != nil {
		return fmt.Errorf("failed to create holding: %w", err)
	}
	*h = *created
	return nil
}

func (r *HoldingRepository) GetByID(ctx context.Context, id int64) (*models.Holding, error) {
	query := `SELECT ` + holdingColumns + ` FROM holdings WHERE id = $1`
	h, err := scanHolding(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get holding: %w", err)
	}
	return h, nil
}

func (r *HoldingRepository) ListByPortfolio(ctx context.Context, portfolioID int64) ([]*models.Holding, error) {
	query := `SELECT ` + holdingColumns + ` FROM holdings WHERE portfolio_id = $1 ORDER BY created_at DESC`
	rows, err := r.q.QueryContext(ctx, query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}
	defer rows.Close()

	var out []*models.Holding
	for rows.Next() {
		h := &models.Holding{}
		if err := rows.Scan(&h.ID, &h.PortfolioID, &h.Symbol, &h.Quantity, &h.PurchasePrice,
			&h.PurchaseDate, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *HoldingRepository) Update(ctx context.Context, h *models.Holding) error {
	query := `
		UPDATE holdings
		SET quantity = $1, purchase_price = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING ` + holdingColumns
	updated, err := scanHolding(r.q.QueryRowContext(ctx, query, h.Quantity, h.PurchasePrice, h.ID))
	if err != nil {
		return fmt.Errorf("failed to update holding: %w", err)
	}
	if updated != nil {
		*h = *updated
	}
	return nil
}

func (r *HoldingRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM holdings WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete holding: %w", err)
	}
	return nil
}
