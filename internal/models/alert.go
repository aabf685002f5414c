package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantfolio/quantfolio/internal/errors"
)

// Alert condition values. "above" fires on price > threshold, "below" on
// price < threshold; a price exactly at the threshold never fires.
const (
	ConditionAbove = "above"
	ConditionBelow = "below"
)

// Alert is a user-defined price threshold watch. Alerts are created active
// and stay active when they fire; deactivation is always an explicit action.
type Alert struct {
	ID             int64           `json:"id" db:"id"`
	PortfolioID    int64           `json:"portfolio_id" db:"portfolio_id"`
	Symbol         string          `json:"symbol" db:"symbol"`
	PriceThreshold decimal.Decimal `json:"price_threshold" db:"price_threshold"`
	Condition      string          `json:"condition" db:"condition"`
	Email          string          `json:"email" db:"email"`
	IsActive       bool            `json:"is_active" db:"is_active"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

func (a *Alert) Validate() error {
	if a.PortfolioID <= 0 {
		return &errors.ErrValidation{Field: "portfolio_id", Message: "is required"}
	}
	if a.Symbol == "" {
		return &errors.ErrValidation{Field: "symbol", Message: "is required"}
	}
	if !a.PriceThreshold.IsPositive() {
		return &errors.ErrValidation{Field: "price_threshold", Message: "must be positive"}
	}
	if a.Condition != ConditionAbove && a.Condition != ConditionBelow {
		return &errors.ErrValidation{Field: "condition", Message: "must be above or below"}
	}
	if a.Email == "" {
		return &errors.ErrValidation{Field: "email", Message: "is required"}
	}
	return nil
}

// Triggered reports whether the alert condition holds for the given price.
// Both conditions use strict inequality.
func (a *Alert) Triggered(price decimal.Decimal) bool {
	switch a.Condition {
	case ConditionAbove:
		return price.GreaterThan(a.PriceThreshold)
	case ConditionBelow:
		return price.LessThan(a.PriceThreshold)
	}
	return false
}
