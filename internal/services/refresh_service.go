package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/quantfolio/quantfolio/internal/store"
)

// symbolFetchDelay paces upstream calls inside a refresh cycle.
const symbolFetchDelay = 200 * time.Millisecond

// RefreshServiceImpl keeps the quote cache warm for a fixed symbol universe.
type RefreshServiceImpl struct {
	quotes   QuoteService
	sessions store.SessionFactory
	symbols  []string
	interval time.Duration
	log      *zap.Logger
}

func NewRefreshService(quotes QuoteService, sessions store.SessionFactory, symbols []string, interval time.Duration, log *zap.Logger) RefreshService {
	return &RefreshServiceImpl{
		quotes:   quotes,
		sessions: sessions,
		symbols:  symbols,
		interval: interval,
		log:      log.Named("refresh"),
	}
}

// Run refreshes immediately and then on every tick until ctx is cancelled.
// Cycle failures are logged; only cancellation ends the loop.
func (s *RefreshServiceImpl) Run(ctx context.Context) error {
	s.log.Info("starting price refresh loop",
		zap.Int("symbols", len(s.symbols)),
		zap.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.RefreshOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.log.Error("refresh cycle failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RefreshOnce runs one refresh cycle on a single storage connection, pacing
// upstream calls between symbols and continuing past per-symbol failures.
// The connection is released on every exit path, cancellation included.
func (s *RefreshServiceImpl) RefreshOnce(ctx context.Context) error {
	sess, err := s.sessions.NewSession(ctx)
	if err != nil {
		return fmt.Errorf("failed to open store session: %w", err)
	}
	defer sess.Close()

	for i, symbol := range s.symbols {
		if _, err := s.quotes.GetQuote(ctx, symbol, sess.History); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.log.Error("failed to refresh price",
				zap.String("symbol", symbol), zap.Error(err))
		}
		if i == len(s.symbols)-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(symbolFetchDelay):
		}
	}
	return nil
}
