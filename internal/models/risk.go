package models

import "github.com/shopspring/decimal"

// ValueAtRisk is the historical-variance VaR estimate for a portfolio.
type ValueAtRisk struct {
	VaR95      decimal.Decimal `json:"var95"`
	VaRPercent decimal.Decimal `json:"varPercent"`
}

// SectorExposure is a portfolio's position in one sector.
type SectorExposure struct {
	Value   decimal.Decimal `json:"value"`
	Percent decimal.Decimal `json:"percent"`
	Symbols []string        `json:"stocks"`
}
