package transport

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/metric"

	"github.com/xenking/orderflow/internal/session"
)

// Metrics holds the instruments for connection and protocol activity.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	sessions metric.Int64UpDownCounter
	proto    *session.Metrics
}

// NewMetrics registers all instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	sessions, err := meter.Int64UpDownCounter("orderflow.sessions.active",
		metric.WithDescription("Currently connected sessions"))
	if err != nil {
		return nil, errors.Wrap(err, "sessions counter")
	}
	commands, err := meter.Int64Counter("orderflow.commands",
		metric.WithDescription("Inbound protocol commands by name"))
	if err != nil {
		return nil, errors.Wrap(err, "commands counter")
	}
	orders, err := meter.Int64Counter("orderflow.orders.generated",
		metric.WithDescription("Synthetic orders generated"))
	if err != nil {
		return nil, errors.Wrap(err, "orders counter")
	}
	return &Metrics{
		sessions: sessions,
		proto:    &session.Metrics{Commands: commands, Orders: orders},
	}, nil
}

func (m *Metrics) protocol() *session.Metrics {
	if m == nil {
		return nil
	}
	return m.proto
}

func (m *Metrics) sessionStarted(ctx context.Context) {
	if m == nil {
		return
	}
	m.sessions.Add(ctx, 1)
}

func (m *Metrics) sessionEnded(ctx context.Context) {
	if m == nil {
		return
	}
	m.sessions.Add(ctx, -1)
}
