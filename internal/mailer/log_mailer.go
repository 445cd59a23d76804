package mailer

import (
	"context"
	"log/slog"
)

// LogMailer stands in for a real transport in dev: it just logs the reset URL.
type LogMailer struct {
	log *slog.Logger
}

func NewLogMailer(log *slog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) SendPasswordReset(ctx context.Context, in PasswordResetInput) error {
	m.log.InfoContext(ctx, "mail.password_reset",
		"email", in.Email,
		"name", in.Name,
		"reset_url", in.ResetURL,
	)

	return nil
}
