package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ProviderQuote is the raw quote payload from a market data provider.
type ProviderQuote struct {
	Price         float64
	Volume        int64
	Change        float64
	ChangePercent float64
}

// NetworkError indicates the provider could not be reached or answered with
// a non-success status.
type NetworkError struct {
	Symbol string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error fetching quote for %s: %v", e.Symbol, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ParseError indicates the provider answered but the payload was malformed
// or missing the price field.
type ParseError struct {
	Symbol string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid quote response for %s: %s", e.Symbol, e.Reason)
}

// AlphaVantageProvider fetches quotes from the Alpha Vantage GLOBAL_QUOTE
// endpoint. Stateless; rate limiting is the caller's concern.
type AlphaVantageProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewAlphaVantageProvider(apiKey string) PriceProvider {
	return &AlphaVantageProvider{
		apiKey:     apiKey,
		baseURL:    "https://www.alphavantage.co/query",
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func (p *AlphaVantageProvider) FetchQuote(ctx context.Context, symbol string) (*ProviderQuote, error) {
	params := url.Values{}
	params.Set("function", "GLOBAL_QUOTE")
	params.Set("symbol", symbol)
	params.Set("apikey", p.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &NetworkError{Symbol: symbol, Err: err}
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Symbol: symbol, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &NetworkError{Symbol: symbol, Err: fmt.Errorf("alphavantage status %d", resp.StatusCode)}
	}

	var payload struct {
		GlobalQuote map[string]string `json:"Global Quote"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &ParseError{Symbol: symbol, Reason: err.Error()}
	}

	priceStr, ok := payload.GlobalQuote["05. price"]
	if !ok || priceStr == "" {
		return nil, &ParseError{Symbol: symbol, Reason: "missing price field"}
	}
	price, err := strconv.ParseFloat(priceStr, 64)
	if err != nil {
		return nil, &ParseError{Symbol: symbol, Reason: "malformed price: " + priceStr}
	}

	quote := &ProviderQuote{Price: price}
	if v, err := strconv.ParseInt(payload.GlobalQuote["06. volume"], 10, 64); err == nil {
		quote.Volume = v
	}
	if c, err := strconv.ParseFloat(payload.GlobalQuote["09. change"], 64); err == nil {
		quote.Change = c
	}
	pct := strings.TrimSuffix(payload.GlobalQuote["10. change percent"], "%")
	if cp, err := strconv.ParseFloat(pct, 64); err == nil {
		quote.ChangePercent = cp
	}
	return quote, nil
}
