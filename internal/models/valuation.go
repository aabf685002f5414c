package models

import "github.com/shopspring/decimal"

// ValuedHolding is a Holding priced against the current market.
//
// When PriceUnavailable is set, the money pointers are nil (absent, not
// zero): the holding still contributes its cost basis to portfolio totals
// but nothing to total value or the allocation denominator.
type ValuedHolding struct {
	Holding

	CurrentPrice     *decimal.Decimal `json:"current_price"`
	CurrentValue     *decimal.Decimal `json:"current_value"`
	CostBasisValue   decimal.Decimal  `json:"cost_basis"`
	PnL              *decimal.Decimal `json:"pnl"`
	PnLPercent       *decimal.Decimal `json:"pnl_percent"`
	AllocationPct    decimal.Decimal  `json:"allocation"`
	PriceUnavailable bool             `json:"price_unavailable"`
}

// PortfolioValuationResult aggregates valued holdings.
//
// TotalValue sums CurrentValue over priced holdings only; TotalCostBasis
// sums cost basis over all holdings. Totals are rounded to 2 decimal places.
type PortfolioValuationResult struct {
	TotalValue      decimal.Decimal  `json:"total_value"`
	TotalCostBasis  decimal.Decimal  `json:"total_cost_basis"`
	TotalPnL        decimal.Decimal  `json:"total_pnl"`
	TotalPnLPercent decimal.Decimal  `json:"total_pnl_percent"`
	Holdings        []*ValuedHolding `json:"holdings"`
}
