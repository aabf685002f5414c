package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/quantfolio/quantfolio/internal/models"
)

type PortfolioRepository struct {
	q Querier
}

func NewPortfolioRepository(q Querier) *PortfolioRepository {
	return &PortfolioRepository{q: q}
}

const portfolioColumns = "id, user_id, name, created_at, updated_at"

func scanPortfolio(row *sql.Row) (*models.Portfolio, error) {
	p := &models.Portfolio{}
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PortfolioRepository) Create(ctx context.Context, p *models.Portfolio) error {
	if err := p.Validate(); err != nil {
		return err
	}
	query := `
		INSERT INTO portfolios (user_id, name)
		VALUES ($1, $2)
		RETURNING ` + portfolioColumns
	created, err := scanPortfolio(r.q.QueryRowContext(ctx, query, p.UserID, p.Name))
	if err != nil {
		return fmt.Errorf("failed to create portfolio: %w", err)
	}
	*p = *created
	return nil
}

func (r *PortfolioRepository) GetByID(ctx context.Context, id int64) (*models.Portfolio, error) {
	query := `SELECT ` + portfolioColumns + ` FROM portfolios WHERE id = $1`
	p, err := scanPortfolio(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get portfolio: %w", err)
	}
	return p, nil
}

func (r *PortfolioRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Portfolio, error) {
	query := `SELECT ` + portfolioColumns + ` FROM portfolios WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list portfolios: %w", err)
	}
	defer rows.Close()

	var out []*models.Portfolio
	for rows.Next() {
		p := &models.Portfolio{}
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PortfolioRepository) Update(ctx context.Context, id int64, name string) (*models.Portfolio, error) {
	query := `
		UPDATE portfolios
		SET name = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + portfolioColumns
	p, err := scanPortfolio(r.q.QueryRowContext(ctx, query, name, id))
	if err != nil {
		return nil, fmt.Errorf("failed to update portfolio: %w", err)
	}
	return p, nil
}

func (r *PortfolioRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM portfolios WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete portfolio: %w", err)
	}
	return nil
}
