package session

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics counts protocol activity. A nil *Metrics (or nil instruments)
// records nothing, which keeps tests free of meter setup.
type Metrics struct {
	// Commands counts inbound commands, labeled by command name.
	Commands metric.Int64Counter
	// Orders counts generated orders, streamed and batch alike.
	Orders metric.Int64Counter
}

func (m *Metrics) command(ctx context.Context, name string) {
	if m == nil || m.Commands == nil {
		return
	}
	m.Commands.Add(ctx, 1, metric.WithAttributes(attribute.String("command", name)))
}

func (m *Metrics) order(ctx context.Context) {
	if m == nil || m.Orders == nil {
		return
	}
	m.Orders.Add(ctx, 1)
}
