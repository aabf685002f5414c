package services

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/quantfolio/quantfolio/internal/cache"
	"github.com/quantfolio/quantfolio/internal/models"
	"github.com/quantfolio/quantfolio/internal/store"
)

const (
	riskMetricTTL = 24 * time.Hour

	// Historical window and one-tailed z-score for 95% confidence.
	varHistoryLimit = 60
	zScore95        = 1.645
)

// sectorBySymbol is a fixed classification table; unmapped symbols land in
// "Other".
var sectorBySymbol = map[string]string{
	"AAPL":  "Technology",
	"MSFT":  "Technology",
	"GOOGL": "Technology",
	"META":  "Technology",
	"NVDA":  "Technology",
	"JPM":   "Finance",
	"BAC":   "Finance",
	"GS":    "Finance",
	"JNJ":   "Healthcare",
	"UNH":   "Healthcare",
	"PFE":   "Healthcare",
	"AMZN":  "Consumer",
	"WMT":   "Consumer",
	"KO":    "Consumer",
	"XOM":   "Energy",
	"CVX":   "Energy",
	"BA":    "Industrial",
	"CAT":   "Industrial",
	"TSLA":  "Auto",
}

type RiskServiceImpl struct {
	quotes    QuoteService
	valuation ValuationService
	cache     cache.Store
	log       *zap.Logger
}

func NewRiskService(quotes QuoteService, valuation ValuationService, cacheStore cache.Store, log *zap.Logger) RiskService {
	return &RiskServiceImpl{
		quotes:    quotes,
		valuation: valuation,
		cache:     cacheStore,
		log:       log.Named("risk"),
	}
}

// holdingsFingerprint hashes the holdings set so cached metrics invalidate
// when positions change, not just when the TTL lapses.
func holdingsFingerprint(holdings []*models.Holding) string {
	parts := make([]string, 0, len(holdings))
	for _, h := range holdings {
		parts = append(parts, strings.ToUpper(h.Symbol)+":"+h.Quantity.String())
	}
	sort.Strings(parts)

	h := fnv.New64a()
	h.Write([]byte(strings.Join(parts, "|")))
	return fmt.Sprintf("%016x", h.Sum64())
}

// PortfolioBeta is the value-weighted average of per-symbol betas over
// priced holdings, cached for 24 hours.
func (s *RiskServiceImpl) PortfolioBeta(ctx context.Context, portfolioID int64, holdings []*models.Holding, history store.PriceHistoryStore) (decimal.Decimal, error) {
	key := fmt.Sprintf("portfolio:%d:beta:%s", portfolioID, holdingsFingerprint(holdings))
	if cached, err := s.cache.Get(ctx, key); err == nil && cached != nil {
		var beta float64
		if err := json.Unmarshal(cached, &beta); err == nil {
			return decimal.NewFromFloat(beta), nil
		}
	}

	valuation, err := s.valuation.Value(ctx, holdings, history)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to value portfolio: %w", err)
	}
	totalValue, _ := valuation.TotalValue.Float64()
	if totalValue <= 0 {
		return decimal.Zero, nil
	}

	var weightedBeta float64
	for _, vh := range valuation.Holdings {
		if vh.CurrentValue == nil {
			continue
		}
		beta, err := s.quotes.GetBeta(ctx, vh.Symbol)
		if err != nil {
			s.log.Warn("beta lookup failed, skipping holding",
				zap.String("symbol", vh.Symbol), zap.Error(err))
			continue
		}
		value, _ := vh.CurrentValue.Float64()
		weightedBeta += beta * (value / totalValue)
	}

	portfolioBeta := round2(weightedBeta)
	s.cacheMetric(ctx, key, portfolioBeta)
	return decimal.NewFromFloat(portfolioBeta), nil
}

// ValueAtRisk estimates the maximum expected loss from the variance of
// historical daily returns. Holdings with fewer than two history points are
// skipped. A zero-value portfolio short-circuits to a zero result.
func (s *RiskServiceImpl) ValueAtRisk(ctx context.Context, portfolioID int64, holdings []*models.Holding, confidence float64, history store.PriceHistoryStore) (*models.ValueAtRisk, error) {
	key := fmt.Sprintf("portfolio:%d:var:%g:%s", portfolioID, confidence, holdingsFingerprint(holdings))
	if cached, err := s.cache.Get(ctx, key); err == nil && cached != nil {
		v := &models.ValueAtRisk{}
		if err := json.Unmarshal(cached, v); err == nil {
			return v, nil
		}
	}

	valuation, err := s.valuation.Value(ctx, holdings, history)
	if err != nil {
		return nil, fmt.Errorf("failed to value portfolio: %w", err)
	}
	totalValue, _ := valuation.TotalValue.Float64()
	if totalValue == 0 {
		return &models.ValueAtRisk{VaR95: decimal.Zero, VaRPercent: decimal.Zero}, nil
	}

	var portfolioVariance float64
	for _, h := range holdings {
		if history == nil {
			break
		}
		points, err := history.ListBySymbol(ctx, h.Symbol, varHistoryLimit)
		if err != nil {
			s.log.Warn("price history lookup failed, skipping holding",
				zap.String("symbol", h.Symbol), zap.Error(err))
			continue
		}
		if len(points) < 2 {
			continue
		}

		returns := dailyReturns(points)
		if len(returns) == 0 {
			continue
		}
		mean := stat.Mean(returns, nil)
		variance := stat.PopVariance(returns, nil)
		s.log.Debug("return statistics",
			zap.String("symbol", h.Symbol),
			zap.Float64("mean", mean),
			zap.Float64("variance", variance))

		quantity, _ := h.Quantity.Float64()
		latest := points[len(points)-1].Price
		weight := quantity * latest / totalValue
		portfolioVariance += variance * weight
	}

	var stdDev float64
	if portfolioVariance > 0 {
		stdDev = math.Sqrt(portfolioVariance)
	}
	var95 := totalValue * zScore95 * stdDev
	varPercent := var95 / totalValue * 100

	result := &models.ValueAtRisk{
		VaR95:      decimal.NewFromFloat(round2(var95)),
		VaRPercent: decimal.NewFromFloat(round2(varPercent)),
	}
	s.cacheMetric(ctx, key, result)
	return result, nil
}

// SectorConcentration sums current value per sector over priced holdings.
func (s *RiskServiceImpl) SectorConcentration(ctx context.Context, portfolioID int64, holdings []*models.Holding, history store.PriceHistoryStore) (map[string]*models.SectorExposure, error) {
	key := fmt.Sprintf("portfolio:%d:sectors:%s", portfolioID, holdingsFingerprint(holdings))
	if cached, err := s.cache.Get(ctx, key); err == nil && cached != nil {
		out := map[string]*models.SectorExposure{}
		if err := json.Unmarshal(cached, &out); err == nil {
			return out, nil
		}
	}

	valuation, err := s.valuation.Value(ctx, holdings, history)
	if err != nil {
		return nil, fmt.Errorf("failed to value portfolio: %w", err)
	}

	concentration := make(map[string]*models.SectorExposure)
	for _, vh := range valuation.Holdings {
		if vh.CurrentValue == nil {
			continue
		}
		sector, ok := sectorBySymbol[strings.ToUpper(vh.Symbol)]
		if !ok {
			sector = "Other"
		}
		exposure, ok := concentration[sector]
		if !ok {
			exposure = &models.SectorExposure{Value: decimal.Zero}
			concentration[sector] = exposure
		}
		exposure.Value = exposure.Value.Add(*vh.CurrentValue)
		exposure.Symbols = append(exposure.Symbols, vh.Symbol)
	}

	if valuation.TotalValue.IsPositive() {
		for _, exposure := range concentration {
			exposure.Percent = exposure.Value.Div(valuation.TotalValue).Mul(oneHundred).Round(2)
		}
	}

	s.cacheMetric(ctx, key, concentration)
	return concentration, nil
}

func (s *RiskServiceImpl) cacheMetric(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		s.log.Error("failed to encode risk metric", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.cache.SetWithTTL(ctx, key, riskMetricTTL, data); err != nil {
		s.log.Error("failed to cache risk metric", zap.String("key", key), zap.Error(err))
	}
}

// dailyReturns converts an oldest-first price series to simple returns.
func dailyReturns(points []*models.HistoricalPricePoint) []float64 {
	returns := make([]float64, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		prev := points[i-1].Price
		if prev == 0 {
			continue
		}
		returns = append(returns, (points[i].Price-prev)/prev)
	}
	return returns
}
