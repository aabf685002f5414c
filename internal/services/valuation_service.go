package services

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/quantfolio/quantfolio/internal/models"
	"github.com/quantfolio/quantfolio/internal/store"
)

var oneHundred = decimal.NewFromInt(100)

type ValuationServiceImpl struct {
	quotes QuoteService
	log    *zap.Logger
}

func NewValuationService(quotes QuoteService, log *zap.Logger) ValuationService {
	return &ValuationServiceImpl{quotes: quotes, log: log.Named("valuation")}
}

// Value prices each holding against the current market and aggregates
// portfolio totals. A failed price lookup marks the holding unavailable:
// its cost basis still counts toward totals, its value does not. Totals and
// per-holding P&L are rounded to 2 decimal places for output; aggregation
// runs over the exact values.
func (s *ValuationServiceImpl) Value(ctx context.Context, holdings []*models.Holding, history store.PriceHistoryStore) (*models.PortfolioValuationResult, error) {
	result := &models.PortfolioValuationResult{
		Holdings: make([]*models.ValuedHolding, 0, len(holdings)),
	}
	if len(holdings) == 0 {
		return result, nil
	}

	totalValue := decimal.Zero
	totalCostBasis := decimal.Zero

	for _, h := range holdings {
		costBasis := h.CostBasis()
		vh := &models.ValuedHolding{
			Holding:        *h,
			CostBasisValue: costBasis,
		}
		totalCostBasis = totalCostBasis.Add(costBasis)

		quote, err := s.quotes.GetQuote(ctx, h.Symbol, history)
		if err != nil {
			s.log.Error("price lookup failed for holding",
				zap.String("symbol", h.Symbol), zap.Error(err))
			vh.PriceUnavailable = true
			result.Holdings = append(result.Holdings, vh)
			continue
		}

		currentPrice := decimal.NewFromFloat(quote.Price)
		currentValue := h.Quantity.Mul(currentPrice)
		pnl := currentValue.Sub(costBasis)
		pnlPercent := decimal.Zero
		if costBasis.IsPositive() {
			pnlPercent = pnl.Div(costBasis).Mul(oneHundred)
		}

		roundedPnL := pnl.Round(2)
		roundedPnLPercent := pnlPercent.Round(2)
		vh.CurrentPrice = &currentPrice
		vh.CurrentValue = &currentValue
		vh.PnL = &roundedPnL
		vh.PnLPercent = &roundedPnLPercent

		totalValue = totalValue.Add(currentValue)
		result.Holdings = append(result.Holdings, vh)
	}

	// Allocation needs the final total as denominator, so it is a second pass.
	for _, vh := range result.Holdings {
		if vh.CurrentValue != nil && totalValue.IsPositive() {
			vh.AllocationPct = vh.CurrentValue.Div(totalValue).Mul(oneHundred).Round(2)
		}
	}

	totalPnL := totalValue.Sub(totalCostBasis)
	totalPnLPercent := decimal.Zero
	if totalCostBasis.IsPositive() {
		totalPnLPercent = totalPnL.Div(totalCostBasis).Mul(oneHundred)
	}

	result.TotalValue = totalValue.Round(2)
	result.TotalCostBasis = totalCostBasis.Round(2)
	result.TotalPnL = totalPnL.Round(2)
	result.TotalPnLPercent = totalPnLPercent.Round(2)
	return result, nil
}
