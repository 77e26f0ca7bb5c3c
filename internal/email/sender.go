// Package email provides outbound email delivery for campaign sends.
package email

import (
	"context"

	"outreach_backend/platform/config"
	"outreach_backend/platform/logger"
)

// OutreachMessage is a fully generated campaign email ready for delivery.
type OutreachMessage struct {
	ToEmail   string
	ToName    string
	Subject   string
	Body      string
	FromName  string
	FromEmail string
}

// Sender delivers outreach messages. Implementations must be safe for
// concurrent use.
type Sender interface {
	SendOutreachEmail(ctx context.Context, msg OutreachMessage) error
}

// NewSender selects the delivery backend from configuration. Without SMTP
// enabled it falls back to a logging no-op sender so the rest of the send
// flow stays exercisable in development.
func NewSender(cfg config.SMTPConfig, log *logger.Logger) Sender {
	if cfg.GetSMTPEnabled() && cfg.GetSMTPHost() != "" {
		return NewSMTPSender(
			cfg.GetSMTPHost(),
			cfg.GetSMTPPort(),
			cfg.GetSMTPUsername(),
			cfg.GetSMTPPassword(),
			cfg.GetEmailFromAddress(),
			cfg.GetEmailFromName(),
		)
	}
	return NewNoopSender(log)
}

// NoopSender logs instead of delivering. Used when SMTP is not configured.
type NoopSender struct {
	log *logger.Logger
}

// NewNoopSender creates a sender that only logs.
func NewNoopSender(log *logger.Logger) *NoopSender {
	return &NoopSender{log: log}
}

func (s *NoopSender) SendOutreachEmail(_ context.Context, msg OutreachMessage) error {
	if s.log != nil {
		s.log.Info("email delivery skipped (smtp disabled)",
			"to", msg.ToEmail,
			"subject", msg.Subject,
		)
	}
	return nil
}
