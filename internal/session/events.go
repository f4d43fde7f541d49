package session

import (
	"time"

	"github.com/go-faster/jx"

	"github.com/xenking/orderflow/internal/domain/order"
)

// Event is one outbound envelope, discriminated by its type field on the wire.
type Event interface {
	encode(e *jx.Encoder)
}

// OrderItem announces one generated order, streamed or batch.
type OrderItem struct {
	Order order.Order
}

// OrderUpdated announces one successful lifecycle transition.
type OrderUpdated struct {
	Order order.Order
}

// StatusText is a human-readable acknowledgement or progress message.
type StatusText struct {
	Message string
}

// ErrorText reports a protocol or precondition failure to the client.
type ErrorText struct {
	Message string
}

// EncodeEvent serializes ev into one complete wire message.
func EncodeEvent(ev Event) []byte {
	var e jx.Encoder
	ev.encode(&e)
	return e.Bytes()
}

func (ev OrderItem) encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("type")
	e.Str("order_item")
	e.FieldStart("data")
	encodeOrder(e, ev.Order)
	e.ObjEnd()
}

func (ev OrderUpdated) encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("type")
	e.Str("order_updated")
	e.FieldStart("data")
	encodeOrder(e, ev.Order)
	e.ObjEnd()
}

func (ev StatusText) encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("type")
	e.Str("status")
	e.FieldStart("message")
	e.Str(ev.Message)
	e.ObjEnd()
}

func (ev ErrorText) encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("type")
	e.Str("error")
	e.FieldStart("message")
	e.Str(ev.Message)
	e.ObjEnd()
}

// encodeOrder writes the full order snapshot. The value is emitted as a JSON
// number with exactly two decimal places; processed_at is null until the
// order has been processed.
func encodeOrder(e *jx.Encoder, o order.Order) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(o.ID)
	e.FieldStart("order_number")
	e.Int64(o.Number)
	e.FieldStart("customer_name")
	e.Str(o.CustomerName)
	e.FieldStart("status")
	e.Str(string(o.Status))
	e.FieldStart("priority")
	e.Str(o.Priority)
	e.FieldStart("details")
	e.Str(o.Details)
	e.FieldStart("value")
	e.Raw(jx.Raw(o.Value.StringFixed(2)))
	e.FieldStart("created_at")
	e.Str(o.CreatedAt.Format(time.RFC3339Nano))
	e.FieldStart("processed_at")
	if o.ProcessedAt != nil {
		e.Str(o.ProcessedAt.Format(time.RFC3339Nano))
	} else {
		e.Null()
	}
	e.ObjEnd()
}
