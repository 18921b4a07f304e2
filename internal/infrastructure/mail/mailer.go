// Package mail provides Mailer implementations for transactional mail.
package mail

import (
	"context"

	"github.com/rs/zerolog"
)

// LogMailer writes outgoing mail to the structured log instead of sending it.
// It stands in for a real provider in development and test environments.
type LogMailer struct {
	log zerolog.Logger
}

func NewLogMailer(log zerolog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(_ context.Context, to, subject, body string) error {
	m.log.Info().
		Str("to", to).
		Str("subject", subject).
		Str("body", body).
		Msg("outgoing mail")
	return nil
}
