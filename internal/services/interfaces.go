package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantfolio/quantfolio/internal/models"
	"github.com/quantfolio/quantfolio/internal/store"
)

// PriceProvider fetches a live quote for a symbol from the market data
// upstream. Implementations fail with *NetworkError or *ParseError.
type PriceProvider interface {
	FetchQuote(ctx context.Context, symbol string) (*ProviderQuote, error)
}

// QuoteService is the cache-first price lookup. GetQuote never fails because
// the upstream is down; it degrades to a synthetic quote instead. The history
// store receives an append on every genuine fetch and may be nil when the
// caller holds no storage connection.
type QuoteService interface {
	GetQuote(ctx context.Context, symbol string, history store.PriceHistoryStore) (*models.Quote, error)
	GetQuotes(ctx context.Context, symbols []string, history store.PriceHistoryStore) ([]*models.Quote, error)
	GetBeta(ctx context.Context, symbol string) (float64, error)
}

// ValuationService prices a holdings list against the current market.
type ValuationService interface {
	Value(ctx context.Context, holdings []*models.Holding, history store.PriceHistoryStore) (*models.PortfolioValuationResult, error)
}

// RiskService computes derived portfolio risk metrics, each cached for 24h
// under keys scoped by portfolio and holdings fingerprint.
type RiskService interface {
	PortfolioBeta(ctx context.Context, portfolioID int64, holdings []*models.Holding, history store.PriceHistoryStore) (decimal.Decimal, error)
	ValueAtRisk(ctx context.Context, portfolioID int64, holdings []*models.Holding, confidence float64, history store.PriceHistoryStore) (*models.ValueAtRisk, error)
	SectorConcentration(ctx context.Context, portfolioID int64, holdings []*models.Holding, history store.PriceHistoryStore) (map[string]*models.SectorExposure, error)
}

// AlertService monitors active threshold alerts in the background.
type AlertService interface {
	Start(interval time.Duration)
	Stop()
	CheckAlerts(ctx context.Context) error
}

// RefreshService keeps the price cache warm for the default symbol universe.
type RefreshService interface {
	Run(ctx context.Context) error
	RefreshOnce(ctx context.Context) error
}
