package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/quantfolio/quantfolio/internal/models"
	"github.com/quantfolio/quantfolio/internal/store"
)

// ---- Test doubles for the cache, provider, stores and mailer ----

type fakeKV struct {
	mu      sync.Mutex
	entries map[string][]byte
	ttls    map[string]time.Duration
	getErr  map[string]error
}

func newFakeKV() *fakeKV {
	return &fakeKV{
		entries: make(map[string][]byte),
		ttls:    make(map[string]time.Duration),
		getErr:  make(map[string]error),
	}
}

func (f *fakeKV) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.getErr[key]; err != nil {
		return nil, err
	}
	return f.entries[key], nil
}

func (f *fakeKV) SetWithTTL(_ context.Context, key string, ttl time.Duration, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = value
	f.ttls[key] = ttl
	return nil
}

func (f *fakeKV) DeleteExpired(context.Context) (int64, error) { return 0, nil }
func (f *fakeKV) Close() error                                 { return nil }

func (f *fakeKV) evict(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, key)
	delete(f.ttls, key)
}

func (f *fakeKV) ttl(key string) time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ttls[key]
}

type fakeProvider struct {
	mu     sync.Mutex
	quotes map[string]*ProviderQuote
	err    error
	calls  int
}

func (f *fakeProvider) FetchQuote(_ context.Context, symbol string) (*ProviderQuote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	q, ok := f.quotes[symbol]
	if !ok {
		return nil, &ParseError{Symbol: symbol, Reason: "missing price field"}
	}
	return q, nil
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeHistory struct {
	mu      sync.Mutex
	appends []*models.HistoricalPricePoint
	points  map[string][]*models.HistoricalPricePoint
	listErr error
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{points: make(map[string][]*models.HistoricalPricePoint)}
}

func (f *fakeHistory) Append(_ context.Context, symbol string, price float64, volume int64) (*models.HistoricalPricePoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := &models.HistoricalPricePoint{
		ID:     int64(len(f.appends) + 1),
		Symbol: symbol,
		Price:  price,
		Volume: volume,
		Date:   time.Now(),
	}
	f.appends = append(f.appends, p)
	return p, nil
}

func (f *fakeHistory) ListBySymbol(_ context.Context, symbol string, limit int) ([]*models.HistoricalPricePoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	points := f.points[symbol]
	if len(points) > limit {
		points = points[len(points)-limit:]
	}
	return points, nil
}

func (f *fakeHistory) ListByRange(_ context.Context, symbol string, start, end time.Time) ([]*models.HistoricalPricePoint, error) {
	return f.points[symbol], nil
}

func (f *fakeHistory) Latest(_ context.Context, symbol string) (*models.HistoricalPricePoint, error) {
	points := f.points[symbol]
	if len(points) == 0 {
		return nil, nil
	}
	return points[len(points)-1], nil
}

func (f *fakeHistory) appendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.appends)
}

// setSeries loads an oldest-first price series for a symbol.
func (f *fakeHistory) setSeries(symbol string, prices ...float64) {
	points := make([]*models.HistoricalPricePoint, len(prices))
	base := time.Now().AddDate(0, 0, -len(prices))
	for i, p := range prices {
		points[i] = &models.HistoricalPricePoint{
			ID:     int64(i + 1),
			Symbol: symbol,
			Price:  p,
			Date:   base.AddDate(0, 0, i),
		}
	}
	f.points[symbol] = points
}

type fakeAlertStore struct {
	mu      sync.Mutex
	active  []*models.Alert
	listErr error
}

func (f *fakeAlertStore) Create(_ context.Context, a *models.Alert) error { return nil }
func (f *fakeAlertStore) GetByID(_ context.Context, id int64) (*models.Alert, error) {
	return nil, nil
}
func (f *fakeAlertStore) ListByPortfolio(_ context.Context, portfolioID int64) ([]*models.Alert, error) {
	return nil, nil
}
func (f *fakeAlertStore) ListActive(_ context.Context) ([]*models.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.active, nil
}
func (f *fakeAlertStore) Deactivate(_ context.Context, id int64) (*models.Alert, error) {
	return nil, nil
}
func (f *fakeAlertStore) Delete(_ context.Context, id int64) error { return nil }

type fakeSessionFactory struct {
	mu      sync.Mutex
	alerts  store.AlertStore
	history store.PriceHistoryStore
	opened  int
	openErr error
}

func (f *fakeSessionFactory) NewSession(context.Context) (*store.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return nil, f.openErr
	}
	f.opened++
	return &store.Session{Alerts: f.alerts, History: f.history}, nil
}

func (f *fakeSessionFactory) sessionCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opened
}

type sentMail struct {
	to      string
	subject string
	body    string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	fail map[string]bool // addresses whose sends report failure
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{fail: make(map[string]bool)}
}

func (f *fakeMailer) Send(to, subject, body string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{to: to, subject: subject, body: body})
	return !f.fail[to]
}

func (f *fakeMailer) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

// fakeQuoteService serves scripted prices and betas without a provider.
type fakeQuoteService struct {
	mu     sync.Mutex
	prices map[string]float64
	betas  map[string]float64
	calls  int
}

func (f *fakeQuoteService) GetQuote(_ context.Context, symbol string, _ store.PriceHistoryStore) (*models.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	price, ok := f.prices[symbol]
	if !ok {
		return nil, fmt.Errorf("no price for %s", symbol)
	}
	return &models.Quote{Symbol: symbol, Price: price, Timestamp: time.Now()}, nil
}

func (f *fakeQuoteService) GetQuotes(ctx context.Context, symbols []string, history store.PriceHistoryStore) ([]*models.Quote, error) {
	out := make([]*models.Quote, 0, len(symbols))
	for _, s := range symbols {
		q, err := f.GetQuote(ctx, s, history)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}

func (f *fakeQuoteService) GetBeta(_ context.Context, symbol string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.betas[symbol], nil
}

func (f *fakeQuoteService) quoteCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
