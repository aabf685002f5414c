package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/quantfolio/quantfolio/internal/mail"
	"github.com/quantfolio/quantfolio/internal/models"
	"github.com/quantfolio/quantfolio/internal/store"
)

// AlertServiceImpl periodically re-evaluates all active threshold alerts
// against current prices and emails the owner of each firing alert.
type AlertServiceImpl struct {
	sessions store.SessionFactory
	quotes   QuoteService
	mailer   mail.Mailer
	log      *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewAlertService(sessions store.SessionFactory, quotes QuoteService, mailer mail.Mailer, log *zap.Logger) AlertService {
	return &AlertServiceImpl{
		sessions: sessions,
		quotes:   quotes,
		mailer:   mailer,
		log:      log.Named("alerts"),
	}
}

// Start begins periodic monitoring. Calling Start on a running monitor is a
// no-op.
func (s *AlertServiceImpl) Start(interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.log.Info("alert monitoring already running")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	s.log.Info("starting alert monitoring", zap.Duration("interval", interval))
	go s.loop(ctx, interval, done)
}

// Stop cancels monitoring and waits for the in-flight cycle to finish.
// Idempotent: stopping a stopped monitor does nothing.
func (s *AlertServiceImpl) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil
	s.log.Info("alert monitoring stopped")
}

func (s *AlertServiceImpl) loop(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := s.CheckAlerts(ctx); err != nil && ctx.Err() == nil {
			// A failed cycle must not kill the monitor.
			s.log.Error("alert check cycle failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// CheckAlerts runs one evaluation cycle on a single storage connection.
// Alerts are grouped by symbol so each distinct symbol costs one price
// lookup regardless of how many alerts watch it.
func (s *AlertServiceImpl) CheckAlerts(ctx context.Context) error {
	sess, err := s.sessions.NewSession(ctx)
	if err != nil {
		return fmt.Errorf("failed to open store session: %w", err)
	}
	defer sess.Close()

	alerts, err := sess.Alerts.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to load active alerts: %w", err)
	}
	if len(alerts) == 0 {
		return nil
	}

	bySymbol := make(map[string][]*models.Alert)
	for _, a := range alerts {
		bySymbol[a.Symbol] = append(bySymbol[a.Symbol], a)
	}

	for symbol, symbolAlerts := range bySymbol {
		quote, err := s.quotes.GetQuote(ctx, symbol, sess.History)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.log.Error("failed to check alerts for symbol",
				zap.String("symbol", symbol), zap.Error(err))
			continue
		}

		price := decimal.NewFromFloat(quote.Price)
		for _, alert := range symbolAlerts {
			if alert.Triggered(price) {
				// Alerts stay active after firing and re-fire every cycle the
				// condition holds; deactivation is an explicit user action.
				s.sendAlert(alert, quote.Price)
			}
		}
	}
	return nil
}

// sendAlert emails one firing alert. Delivery failure is logged and never
// blocks the rest of the batch.
func (s *AlertServiceImpl) sendAlert(alert *models.Alert, currentPrice float64) {
	subject := fmt.Sprintf("Price Alert: %s %s $%s",
		alert.Symbol, alert.Condition, alert.PriceThreshold.String())
	body := fmt.Sprintf(`
		<h2>Price Alert Triggered!</h2>
		<p><strong>Stock Symbol:</strong> %s</p>
		<p><strong>Current Price:</strong> $%.2f</p>
		<p><strong>Threshold:</strong> %s $%s</p>
		<p><strong>Triggered at:</strong> %s</p>`,
		alert.Symbol, currentPrice,
		alert.Condition, alert.PriceThreshold.StringFixed(2),
		time.Now().Format("2006-01-02 15:04:05"))

	if !s.mailer.Send(alert.Email, subject, body) {
		s.log.Error("failed to send alert email",
			zap.Int64("alert_id", alert.ID),
			zap.String("symbol", alert.Symbol),
			zap.String("to", alert.Email))
		return
	}
	s.log.Info("alert sent",
		zap.Int64("alert_id", alert.ID),
		zap.String("symbol", alert.Symbol),
		zap.String("to", alert.Email))
}
