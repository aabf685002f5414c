package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/quantfolio/quantfolio/internal/models"
)

type AlertRepository struct {
	q Querier
}

func NewAlertRepository(q Querier) *AlertRepository {
	return &AlertRepository{q: q}
}

const alertColumns = "id, portfolio_id, symbol, price_threshold, condition, email, is_active, created_at, updated_at"

func scanAlert(row *sql.Row) (*models.Alert, error) {
	a := &models.Alert{}
	err := row.Scan(&a.ID, &a.PortfolioID, &a.Symbol, &a.PriceThreshold, &a.Condition,
		&a.Email, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *AlertRepository) Create(ctx context.Context, a *models.Alert) error {
	if err := a.Validate(); err != nil {
		return err
	}
	query := `
		INSERT INTO alerts (portfolio_id, symbol, price_threshold, condition, email, is_active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		RETURNING ` + alertColumns
	created, err := scanAlert(r.q.QueryRowContext(ctx, query,
		a.PortfolioID, a.Symbol, a.PriceThreshold, a.Condition, a.Email))
	if err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}
	*a = *created
	return nil
}

func (r *AlertRepository) GetByID(ctx context.Context, id int64) (*models.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE id = $1`
	a, err := scanAlert(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}
	return a, nil
}

func (r *AlertRepository) ListByPortfolio(ctx context.Context, portfolioID int64) ([]*models.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts
		WHERE portfolio_id = $1 AND is_active = TRUE ORDER BY created_at DESC`
	return r.list(ctx, query, portfolioID)
}

func (r *AlertRepository) ListActive(ctx context.Context) ([]*models.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE is_active = TRUE`
	return r.list(ctx, query)
}

func (r *AlertRepository) list(ctx context.Context, query string, args ...any) ([]*models.Alert, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	var out []*models.Alert
	for rows.Next() {
		a := &models.Alert{}
		if err := rows.Scan(&a.ID, &a.PortfolioID, &a.Symbol, &a.PriceThreshold, &a.Condition,
			&a.Email, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AlertRepository) Deactivate(ctx context.Context, id int64) (*models.Alert, error) {
	query := `
		UPDATE alerts
		SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + alertColumns
	a, err := scanAlert(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to deactivate alert: %w", err)
	}
	return a, nil
}

func (r *AlertRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM alerts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete alert: %w", err)
	}
	return nil
}
