package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quantfolio/quantfolio/internal/models"
)

func newQuoteFixture(provider *fakeProvider) (*QuoteServiceImpl, *fakeKV, *fakeHistory) {
	kv := newFakeKV()
	history := newFakeHistory()
	svc := NewQuoteService(provider, kv, zap.NewNop()).(*QuoteServiceImpl)
	return svc, kv, history
}

func TestGetQuoteFetchesAndCaches(t *testing.T) {
	provider := &fakeProvider{quotes: map[string]*ProviderQuote{
		"AAPL": {Price: 245.50, Volume: 1234567, Change: 1.25, ChangePercent: 0.51},
	}}
	svc, kv, history := newQuoteFixture(provider)

	q, err := svc.GetQuote(context.Background(), "AAPL", history)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", q.Symbol)
	assert.Equal(t, 245.50, q.Price)
	assert.False(t, q.IsSynthetic)

	// Genuine quotes are cached for 5 minutes and recorded in history.
	assert.Equal(t, 300*time.Second, kv.ttl("stock:AAPL"))
	require.Equal(t, 1, history.appendCount())
	assert.Equal(t, 245.50, history.appends[0].Price)
}

func TestGetQuoteCacheHitSkipsProvider(t *testing.T) {
	provider := &fakeProvider{quotes: map[string]*ProviderQuote{
		"AAPL": {Price: 245.50},
	}}
	svc, _, history := newQuoteFixture(provider)
	ctx := context.Background()

	first, err := svc.GetQuote(ctx, "AAPL", history)
	require.NoError(t, err)
	second, err := svc.GetQuote(ctx, "AAPL", history)
	require.NoError(t, err)

	assert.Equal(t, 1, provider.callCount())
	assert.Equal(t, first, second)
	// No second history append either.
	assert.Equal(t, 1, history.appendCount())
}

func TestGetQuoteRefetchesAfterEviction(t *testing.T) {
	provider := &fakeProvider{quotes: map[string]*ProviderQuote{
		"AAPL": {Price: 245.50},
	}}
	svc, kv, history := newQuoteFixture(provider)
	ctx := context.Background()

	_, err := svc.GetQuote(ctx, "AAPL", history)
	require.NoError(t, err)

	kv.evict("stock:AAPL")

	_, err = svc.GetQuote(ctx, "AAPL", history)
	require.NoError(t, err)
	assert.Equal(t, 2, provider.callCount())
}

func TestGetQuoteProviderFailureYieldsSynthetic(t *testing.T) {
	provider := &fakeProvider{err: &NetworkError{Symbol: "AAPL", Err: context.DeadlineExceeded}}
	svc, kv, history := newQuoteFixture(provider)

	q, err := svc.GetQuote(context.Background(), "AAPL", history)
	require.NoError(t, err, "upstream failure must not surface to callers")
	require.NotNil(t, q)

	assert.True(t, q.IsSynthetic)
	assert.InDelta(t, 245.50, q.Price, 2.5, "synthetic price stays within jitter bounds of the base price")
	assert.Equal(t, int64(1_000_000), q.Volume)

	// Synthetic quotes get the short TTL and never touch price history.
	assert.Equal(t, 60*time.Second, kv.ttl("stock:AAPL"))
	assert.Equal(t, 0, history.appendCount())
}

func TestGetQuoteSyntheticUnknownSymbolUsesDefaultBase(t *testing.T) {
	provider := &fakeProvider{err: &ParseError{Symbol: "ZZZZ", Reason: "missing price field"}}
	svc, _, _ := newQuoteFixture(provider)

	q, err := svc.GetQuote(context.Background(), "ZZZZ", nil)
	require.NoError(t, err)
	assert.True(t, q.IsSynthetic)
	assert.InDelta(t, 100, q.Price, 2.5)
}

func TestGetQuoteCachedSyntheticReturnedUnchanged(t *testing.T) {
	provider := &fakeProvider{quotes: map[string]*ProviderQuote{
		"TSLA": {Price: 425.75},
	}}
	svc, kv, _ := newQuoteFixture(provider)
	ctx := context.Background()

	synthetic := &models.Quote{
		Symbol:      "TSLA",
		Price:       424.10,
		Volume:      1_000_000,
		Timestamp:   time.Now().UTC(),
		IsSynthetic: true,
	}
	data, err := json.Marshal(synthetic)
	require.NoError(t, err)
	require.NoError(t, kv.SetWithTTL(ctx, "stock:TSLA", 60*time.Second, data))

	q, err := svc.GetQuote(ctx, "TSLA", nil)
	require.NoError(t, err)
	assert.True(t, q.IsSynthetic, "a cached synthetic quote is served as-is until it expires")
	assert.Equal(t, 424.10, q.Price)
	assert.Equal(t, 0, provider.callCount())
}

func TestGetQuotesFetchesAll(t *testing.T) {
	provider := &fakeProvider{quotes: map[string]*ProviderQuote{
		"AAPL": {Price: 245.50},
		"MSFT": {Price: 420.10},
	}}
	svc, _, history := newQuoteFixture(provider)

	quotes, err := svc.GetQuotes(context.Background(), []string{"AAPL", "MSFT"}, history)
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, 2, history.appendCount())
}

func TestGetBetaRangeAndDeterminism(t *testing.T) {
	svc, kv, _ := newQuoteFixture(&fakeProvider{})
	ctx := context.Background()

	beta, err := svc.GetBeta(ctx, "AAPL")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, beta, 0.6)
	assert.LessOrEqual(t, beta, 1.4)
	assert.Equal(t, 24*time.Hour, kv.ttl("beta:AAPL"))

	// Same symbol yields the same beta, cache or no cache.
	again, err := svc.GetBeta(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, beta, again)

	fresh, _, _ := newQuoteFixture(&fakeProvider{})
	independent, err := fresh.GetBeta(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, beta, independent)
}
