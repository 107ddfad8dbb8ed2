package smtp

import (
	"context"
	"log/slog"
)

// LogMailer is a Mailer that logs the email instead of sending it.
// Not meant for production: recipients and verification codes end up in the log.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendEmail(_ context.Context, to, subject, htmlBody string) error {
	m.logger.Info("send email",
		"to", to,
		"subject", subject,
		"body", htmlBody,
	)
	return nil
}
