package sms

import (
	"context"

	"go.uber.org/zap"
)

// LogTransport logs messages instead of sending them. Used when no Twilio
// credentials are configured and in dry runs.
type LogTransport struct {
	log *zap.Logger
}

func NewLogTransport(log *zap.Logger) *LogTransport {
	return &LogTransport{log: log}
}

func (t *LogTransport) SendBatch(_ context.Context, messages []string, recipients []string) {
	for _, m := range messages {
		t.log.Info("dry-run sms", zap.String("body", m), zap.Int("recipients", len(recipients)))
	}
}
