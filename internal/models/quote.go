package models

import "time"

// Quote is a point-in-time price observation for a symbol. Quotes are
// ephemeral: they live in the key-value cache and are never persisted as-is
// (genuine fetches write a HistoricalPricePoint instead).
type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Volume        int64     `json:"volume"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"changePercent"`
	Timestamp     time.Time `json:"timestamp"`
	// IsSynthetic marks a locally manufactured fallback price, returned when
	// the upstream market data source is unavailable.
	IsSynthetic bool `json:"isSynthetic,omitempty"`
}

// HistoricalPricePoint is an append-only historical price record for a
// symbol, ordered by date.
type HistoricalPricePoint struct {
	ID     int64     `json:"id" db:"id"`
	Symbol string    `json:"symbol" db:"symbol"`
	Price  float64   `json:"price" db:"price"`
	Volume int64     `json:"volume" db:"volume"`
	Date   time.Time `json:"date" db:"date"`
}
