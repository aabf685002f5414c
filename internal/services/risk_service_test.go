package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quantfolio/quantfolio/internal/models"
)

func newRiskFixture(quotes *fakeQuoteService) (RiskService, *fakeKV) {
	kv := newFakeKV()
	valuation := NewValuationService(quotes, zap.NewNop())
	return NewRiskService(quotes, valuation, kv, zap.NewNop()), kv
}

func TestPortfolioBetaWeightedAverage(t *testing.T) {
	quotes := &fakeQuoteService{
		prices: map[string]float64{"AAPL": 100, "MSFT": 300},
		betas:  map[string]float64{"AAPL": 1.2, "MSFT": 0.8},
	}
	svc, _ := newRiskFixture(quotes)

	// AAPL weight 0.25, MSFT weight 0.75: 1.2*0.25 + 0.8*0.75 = 0.9
	beta, err := svc.PortfolioBeta(context.Background(), 1, []*models.Holding{
		holding("AAPL", "1", "90"),
		holding("MSFT", "1", "250"),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "0.9", beta.String())
}

func TestPortfolioBetaCached(t *testing.T) {
	quotes := &fakeQuoteService{
		prices: map[string]float64{"AAPL": 100},
		betas:  map[string]float64{"AAPL": 1.1},
	}
	svc, _ := newRiskFixture(quotes)
	holdings := []*models.Holding{holding("AAPL", "1", "90")}
	ctx := context.Background()

	first, err := svc.PortfolioBeta(ctx, 1, holdings, nil)
	require.NoError(t, err)

	// Underlying betas change; the cached result must not.
	quotes.mu.Lock()
	quotes.betas["AAPL"] = 0.6
	quotes.mu.Unlock()

	second, err := svc.PortfolioBeta(ctx, 1, holdings, nil)
	require.NoError(t, err)
	assert.True(t, first.Equal(second))
}

func TestPortfolioBetaScopedByPortfolio(t *testing.T) {
	quotes := &fakeQuoteService{
		prices: map[string]float64{"AAPL": 100},
		betas:  map[string]float64{"AAPL": 1.1},
	}
	svc, _ := newRiskFixture(quotes)
	holdings := []*models.Holding{holding("AAPL", "1", "90")}
	ctx := context.Background()

	_, err := svc.PortfolioBeta(ctx, 1, holdings, nil)
	require.NoError(t, err)

	quotes.mu.Lock()
	quotes.betas["AAPL"] = 0.6
	quotes.mu.Unlock()

	// A different portfolio must not read portfolio 1's cached metric.
	other, err := svc.PortfolioBeta(ctx, 2, holdings, nil)
	require.NoError(t, err)
	assert.Equal(t, "0.6", other.String())
}

func TestValueAtRiskZeroPortfolio(t *testing.T) {
	// No prices at all: every holding is unpriced, total value is zero.
	svc, _ := newRiskFixture(&fakeQuoteService{})

	result, err := svc.ValueAtRisk(context.Background(), 1, []*models.Holding{
		holding("AAPL", "10", "200"),
	}, 0.95, newFakeHistory())
	require.NoError(t, err)
	assert.True(t, result.VaR95.IsZero())
	assert.True(t, result.VaRPercent.IsZero())
}

func TestValueAtRiskShortHistorySkipped(t *testing.T) {
	quotes := &fakeQuoteService{prices: map[string]float64{"AAPL": 100}}
	svc, _ := newRiskFixture(quotes)
	history := newFakeHistory()
	history.setSeries("AAPL", 100) // single point, below the 2-point minimum

	result, err := svc.ValueAtRisk(context.Background(), 1, []*models.Holding{
		holding("AAPL", "1", "90"),
	}, 0.95, history)
	require.NoError(t, err)
	assert.True(t, result.VaR95.IsZero())
	assert.True(t, result.VaRPercent.IsZero())
}

func TestValueAtRiskNilHistory(t *testing.T) {
	quotes := &fakeQuoteService{prices: map[string]float64{"AAPL": 100}}
	svc, _ := newRiskFixture(quotes)

	result, err := svc.ValueAtRisk(context.Background(), 1, []*models.Holding{
		holding("AAPL", "1", "90"),
	}, 0.95, nil)
	require.NoError(t, err)
	assert.True(t, result.VaR95.IsZero())
}

func TestValueAtRiskFromHistoricalVariance(t *testing.T) {
	// Current price 99, qty 1 => total value 99 and weight 1.
	// Returns on [100, 110, 99]: +0.1, -0.1; mean 0, population variance 0.01.
	// stddev 0.1 => VaR95 = 99 * 1.645 * 0.1 = 16.2855 -> 16.29 (16.45%).
	quotes := &fakeQuoteService{prices: map[string]float64{"AAPL": 99}}
	svc, _ := newRiskFixture(quotes)
	history := newFakeHistory()
	history.setSeries("AAPL", 100, 110, 99)

	result, err := svc.ValueAtRisk(context.Background(), 1, []*models.Holding{
		holding("AAPL", "1", "90"),
	}, 0.95, history)
	require.NoError(t, err)
	var95, _ := result.VaR95.Float64()
	varPct, _ := result.VaRPercent.Float64()
	assert.InDelta(t, 16.29, var95, 0.01)
	assert.InDelta(t, 16.45, varPct, 0.01)
}

func TestValueAtRiskHistoryErrorSkipsHolding(t *testing.T) {
	quotes := &fakeQuoteService{prices: map[string]float64{"AAPL": 100}}
	svc, _ := newRiskFixture(quotes)
	history := newFakeHistory()
	history.listErr = errBackend

	result, err := svc.ValueAtRisk(context.Background(), 1, []*models.Holding{
		holding("AAPL", "1", "90"),
	}, 0.95, history)
	require.NoError(t, err, "a per-symbol history failure must not abort the batch")
	assert.True(t, result.VaR95.IsZero())
}

func TestSectorConcentration(t *testing.T) {
	quotes := &fakeQuoteService{prices: map[string]float64{
		"AAPL": 100,
		"MSFT": 100,
		"JPM":  100,
		"ZZZZ": 100,
	}}
	svc, _ := newRiskFixture(quotes)

	result, err := svc.SectorConcentration(context.Background(), 1, []*models.Holding{
		holding("AAPL", "1", "90"),
		holding("MSFT", "1", "90"),
		holding("JPM", "1", "90"),
		holding("ZZZZ", "1", "90"),
	}, nil)
	require.NoError(t, err)
	require.Len(t, result, 3)

	tech := result["Technology"]
	require.NotNil(t, tech)
	assert.Equal(t, "200", tech.Value.String())
	assert.Equal(t, "50", tech.Percent.String())
	assert.ElementsMatch(t, []string{"AAPL", "MSFT"}, tech.Symbols)

	assert.Equal(t, "25", result["Finance"].Percent.String())
	assert.Equal(t, "25", result["Other"].Percent.String())
}

func TestSectorConcentrationSkipsUnpricedHoldings(t *testing.T) {
	quotes := &fakeQuoteService{prices: map[string]float64{"AAPL": 100}}
	svc, _ := newRiskFixture(quotes)

	result, err := svc.SectorConcentration(context.Background(), 1, []*models.Holding{
		holding("AAPL", "1", "90"),
		holding("JPM", "1", "90"), // no price available
	}, nil)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "100", result["Technology"].Percent.String())
}

func TestRiskMetricsCachedWithTTL(t *testing.T) {
	quotes := &fakeQuoteService{prices: map[string]float64{"AAPL": 100}}
	svc, kv := newRiskFixture(quotes)
	holdings := []*models.Holding{holding("AAPL", "1", "90")}
	ctx := context.Background()

	_, err := svc.SectorConcentration(ctx, 1, holdings, nil)
	require.NoError(t, err)

	require.Len(t, kv.ttls, 1)
	for _, ttl := range kv.ttls {
		assert.Equal(t, riskMetricTTL, ttl)
	}
}
