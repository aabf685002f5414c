package mail

import (
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/quantfolio/quantfolio/internal/config"
)

// Mailer delivers notification emails. Send never returns an error; delivery
// failures are reported as false so callers can log and move on.
type Mailer interface {
	Send(to, subject, htmlBody string) bool
}

// SMTPMailer sends mail over SMTP. Outside production it logs the message
// instead of sending, and reports success.
type SMTPMailer struct {
	dialer     *gomail.Dialer
	from       string
	production bool
	log        *zap.Logger
}

func NewSMTPMailer(cfg *config.Config, log *zap.Logger) *SMTPMailer {
	return &SMTPMailer{
		dialer:     gomail.NewDialer(cfg.EmailHost, cfg.EmailPort, cfg.EmailUser, cfg.EmailPassword),
		from:       cfg.EmailUser,
		production: cfg.Production(),
		log:        log.Named("mailer"),
	}
}

func (m *SMTPMailer) Send(to, subject, htmlBody string) bool {
	if !m.production {
		m.log.Info("dev mode, email not sent",
			zap.String("to", to),
			zap.String("subject", subject))
		return true
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		m.log.Error("failed to send email",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err))
		return false
	}
	m.log.Info("email sent", zap.String("to", to))
	return true
}
