package service

import (
	"context"
	"log/slog"
	"time"
)

// Mailer is the outbound email seam. The credential in SendPasswordReset is
// the full "id.secret" value destined for the reset link; implementations
// must not write it to logs or storage.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, credential string, expiresAt time.Time) error
}

// LogMailer is the development stand-in for a real mail sender: it records
// that a dispatch happened without the credential itself.
type LogMailer struct {
	Logger *slog.Logger
}

func (m *LogMailer) SendPasswordReset(ctx context.Context, email, credential string, expiresAt time.Time) error {
	m.Logger.Info("password reset mail dispatched",
		"email", email,
		"expires_at", expiresAt,
	)
	return nil
}
