// Package notify delivers fire-and-forget operational events: circuit
// openings, rate-limit rejections, provider errors. Delivery is best-effort
// and must never slow down or fail the request that triggered the event.
package notify

import (
	"context"
	"log/slog"
	"time"
)

// Event types emitted by the resilience layer and the services.
const (
	EventCircuitOpened     = "circuit_opened"
	EventRateLimitExceeded = "rate_limit_exceeded"
	EventProviderError     = "provider_error"
)

// Event is a single operational notification.
type Event struct {
	Type     string    `json:"type"`
	Provider string    `json:"provider"`
	Detail   string    `json:"detail,omitempty"`
	At       time.Time `json:"at"`
}

// Sink receives events. Implementations must not block on delivery.
type Sink interface {
	Emit(ctx context.Context, e Event)
}

// LogSink writes events to the structured log. It is the fallback when no
// broker is configured.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a sink backed by the given logger.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Emit(ctx context.Context, e Event) {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	s.logger.WarnContext(ctx, "operational event",
		"event", e.Type,
		"provider", e.Provider,
		"detail", e.Detail,
	)
}
