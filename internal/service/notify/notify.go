// Package notify signals a verdict to an external indicator.
package notify

import (
	"context"

	"changewatch/internal/config"
	"changewatch/internal/logger"
)

// Tokens sent to the indicator board, one per line.
const (
	TokenOn  = "LED_ON"
	TokenOff = "LED_OFF"
)

// Notifier is a fire-and-forget verdict sink. on is true when a significant
// change was detected.
type Notifier interface {
	Notify(ctx context.Context, on bool) error
}

// Noop discards notifications; used when no device is configured.
type Noop struct{}

func (Noop) Notify(context.Context, bool) error { return nil }

// Token returns the line sent for a verdict, without the newline.
func Token(on bool) string {
	if on {
		return TokenOn
	}
	return TokenOff
}

// New returns a serial notifier when a port is configured and Noop otherwise.
func New(cfg *config.Config, logger *logger.Logger) Notifier {
	if cfg.SerialPort == "" {
		return Noop{}
	}
	return NewSerial(cfg, logger)
}
