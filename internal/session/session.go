package session

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/orderflow/internal/domain/order"
)

// Conn is the duplex message channel a session talks through. ReadMessage
// must deliver messages in order and block until one arrives or the
// transport fails; WriteMessage is only ever called from the session's
// write pump, one complete message at a time. Close must unblock a pending
// ReadMessage.
type Conn interface {
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte) error
	Close() error
}

// Config holds per-session tunables.
type Config struct {
	// Defaults fills optional command fields the client omits.
	Defaults Defaults
	// OutBuffer is the outbound event queue capacity. Zero means 32.
	OutBuffer int
}

// Session owns one connection's protocol state: its registry, its generator,
// and at most one active streaming task. Inbound commands are dispatched one
// at a time from the read loop, and every outbound event funnels through the
// out channel into a single write pump, so no two messages interleave on the
// wire and each actor's events keep program order.
type Session struct {
	conn     Conn
	registry *order.Registry
	gen      *order.Generator
	defaults Defaults
	metrics  *Metrics

	out chan []byte

	// stream is the handle of the active streaming task. It is only touched
	// from the read loop (and from Run after the loops have exited), so it
	// needs no lock.
	stream *streamTask
}

// streamTask is the dispatcher-owned handle of one producer. Replacement is
// cancel, wait for done, then start fresh; two producers are never live.
type streamTask struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a session with a fresh registry and generator bound to conn.
func New(conn Conn, cfg Config, metrics *Metrics) *Session {
	if cfg.OutBuffer <= 0 {
		cfg.OutBuffer = 32
	}
	registry := order.NewRegistry()
	return &Session{
		conn:     conn,
		registry: registry,
		gen:      order.NewGenerator(registry, nil),
		defaults: cfg.Defaults,
		metrics:  metrics,
		out:      make(chan []byte, cfg.OutBuffer),
	}
}

// Run drives the session until ctx is cancelled or the transport fails.
// Any active streaming task is cancelled on the way out; the registry dies
// with the session. The returned error is the transport failure, if any.
func (s *Session) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return s.writePump(ctx) })
	g.Go(func() error { return s.readLoop(ctx) })
	g.Go(func() error {
		// Unblock a pending ReadMessage once the session is over.
		<-ctx.Done()
		_ = s.conn.Close()
		return nil
	})

	err := g.Wait()
	s.stopStream()
	return err
}

// readLoop reads inbound envelopes one at a time and dispatches them.
// Commands are strictly sequential; there is no pipelining.
func (s *Session) readLoop(ctx context.Context) error {
	for {
		data, err := s.conn.ReadMessage()
		if err != nil {
			return errors.Wrap(err, "read")
		}
		s.handle(ctx, data)
	}
}

// writePump is the single writer: it drains the out channel to the
// connection, so every message hits the wire whole.
func (s *Session) writePump(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-s.out:
			if err := s.conn.WriteMessage(msg); err != nil {
				return errors.Wrap(err, "write")
			}
		}
	}
}

// send queues one event for the write pump. It gives up when the session
// context dies, so producers never block on a dead connection.
func (s *Session) send(ctx context.Context, ev Event) {
	select {
	case s.out <- EncodeEvent(ev):
	case <-ctx.Done():
	}
}

// handle dispatches one inbound envelope. Protocol and precondition failures
// are reported as error events and the session keeps going; only transport
// failures end it.
func (s *Session) handle(ctx context.Context, data []byte) {
	cmd, err := ParseCommand(data, s.defaults)
	if err != nil {
		zctx.From(ctx).Debug("Rejected envelope", zap.Error(err))
		s.send(ctx, ErrorText{Message: err.Error()})
		return
	}
	s.metrics.command(ctx, cmd.name())

	switch c := cmd.(type) {
	case StartStream:
		s.startStream(ctx, c)

	case StopStream:
		s.stopStream()
		s.send(ctx, StatusText{Message: "stream stopped"})

	case GenerateBatch:
		s.generateBatch(ctx, c)

	case ProcessOrder:
		o, err := s.registry.Process(c.OrderID, time.Now())
		if err != nil {
			s.send(ctx, ErrorText{Message: err.Error()})
			return
		}
		s.send(ctx, OrderUpdated{Order: o})
		s.send(ctx, StatusText{Message: fmt.Sprintf("order #%d is now %s", o.Number, o.Status)})

	case CloseOrder:
		o, err := s.registry.Complete(c.OrderID)
		if err != nil {
			s.send(ctx, ErrorText{Message: err.Error()})
			return
		}
		s.send(ctx, OrderUpdated{Order: o})
		s.send(ctx, StatusText{Message: fmt.Sprintf("order #%d is now %s", o.Number, o.Status)})

	case ChangeSettings:
		s.send(ctx, StatusText{Message: "settings updated"})
	}
}

// startStream replaces any active streaming task: cancel the old producer,
// wait until it has fully stopped, then launch a fresh one bound to ctx.
func (s *Session) startStream(ctx context.Context, c StartStream) {
	s.stopStream()

	// Acknowledge before the producer starts, so the ack always precedes
	// the first streamed item on the wire.
	if c.Frequency > 0 {
		s.send(ctx, StatusText{Message: fmt.Sprintf("streaming orders every %.1fs, up to %d", c.Frequency.Seconds(), c.MaxOrders)})
	} else {
		s.send(ctx, StatusText{Message: fmt.Sprintf("streaming %d orders immediately", c.MaxOrders)})
	}

	streamCtx, cancel := context.WithCancel(ctx)
	task := &streamTask{cancel: cancel, done: make(chan struct{})}
	s.stream = task

	items := s.gen.Produce(streamCtx, c.Frequency, c.MaxOrders)
	go func() {
		defer close(task.done)
		for o := range items {
			s.metrics.order(streamCtx)
			s.send(streamCtx, OrderItem{Order: o})
		}
	}()
}

// stopStream cancels the active streaming task, if any, and waits for its
// forwarder to finish. Idempotent; stopping with no active task is a no-op.
func (s *Session) stopStream() {
	if s.stream == nil {
		return
	}
	s.stream.cancel()
	<-s.stream.done
	s.stream = nil
}

// generateBatch produces c.Count orders back to back, one order_item each,
// then a single summary status. It shares GenerateOne with the streaming
// path, so batch and streamed orders have identical field semantics.
func (s *Session) generateBatch(ctx context.Context, c GenerateBatch) {
	for range c.Count {
		o := s.gen.GenerateOne(order.StatusPending)
		s.metrics.order(ctx)
		s.send(ctx, OrderItem{Order: o})
	}
	s.send(ctx, StatusText{Message: fmt.Sprintf("generated %d orders", c.Count)})
}
