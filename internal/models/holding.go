package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantfolio/quantfolio/internal/errors"
)

// Holding is a position in a portfolio. Symbol uniqueness per portfolio is
// not enforced; the same symbol may appear as separate holdings.
type Holding struct {
	ID            int64           `json:"id" db:"id"`
	PortfolioID   int64           `json:"portfolio_id" db:"portfolio_id"`
	Symbol        string          `json:"symbol" db:"symbol"`
	Quantity      decimal.Decimal `json:"quantity" db:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchase_price" db:"purchase_price"`
	PurchaseDate  time.Time       `json:"purchase_date" db:"purchase_date"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

func (h *Holding) Validate() error {
	if h.PortfolioID <= 0 {
		return &errors.ErrValidation{Field: "portfolio_id", Message: "is required"}
	}
	if h.Symbol == "" {
		return &errors.ErrValidation{Field: "symbol", Message: "is required"}
	}
	if !h.Quantity.IsPositive() {
		return &errors.ErrValidation{Field: "quantity", Message: "must be positive"}
	}
	if h.PurchasePrice.IsNegative() {
		return &errors.ErrValidation{Field: "purchase_price", Message: "must not be negative"}
	}
	return nil
}

// CostBasis returns quantity x purchase price with exact decimal arithmetic.
func (h *Holding) CostBasis() decimal.Decimal {
	return h.Quantity.Mul(h.PurchasePrice)
}
