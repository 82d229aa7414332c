package service

import (
	"context"

	"go.uber.org/zap"
)

// Mailer delivers outbound mail. The only implementation logs instead of
// sending; delivery stays with the firm's email provider.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogMailer 只记录日志，不真正发信
type LogMailer struct {
	logger *zap.Logger
}

func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(_ context.Context, to, subject, body string) error {
	m.logger.Info("Outbound email (delivery stubbed)",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.Int("body_bytes", len(body)),
	)
	return nil
}
