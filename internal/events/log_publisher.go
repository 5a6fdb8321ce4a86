package events

import (
	"context"

	"go.uber.org/zap"
)

// LogPublisher escribe cada evento en el log. Es el driver por defecto en desarrollo.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, eventName string, payload any) error {
	p.logger.Info("domain event",
		zap.String("event", eventName),
		zap.Any("data", payload),
	)
	return nil
}
