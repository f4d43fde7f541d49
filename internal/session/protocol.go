// Package session implements the protocol side of one connection: parsing
// command envelopes, dispatching them against the per-session order registry,
// and owning the lifetime of the streaming task.
package session

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// Defaults supplies values for command fields the client may omit. They come
// from configuration and mirror the demo UI's initial controls.
type Defaults struct {
	// Frequency is the delay between streamed orders for start_stream.
	Frequency time.Duration
	// MaxOrders caps a started stream.
	MaxOrders int
	// BatchSize is the generate_batch count.
	BatchSize int
}

// Command is one parsed inbound envelope. Exactly one variant exists per
// protocol command; parsing validates the shape at the boundary so handlers
// never see a malformed payload.
type Command interface {
	// name returns the wire name of the command, used for logging and metrics.
	name() string
}

// StartStream starts (or replaces) the streaming task.
type StartStream struct {
	Frequency time.Duration
	MaxOrders int
}

// StopStream cancels the streaming task, if any.
type StopStream struct{}

// GenerateBatch produces Count orders immediately.
type GenerateBatch struct {
	Count int
}

// ProcessOrder requests the Pending -> Processing transition.
type ProcessOrder struct {
	OrderID string
}

// CloseOrder requests the Processing -> Done transition.
type CloseOrder struct {
	OrderID string
}

// ChangeSettings carries arbitrary settings fields. It is acknowledged only;
// the fields are kept raw for future use.
type ChangeSettings struct {
	Fields map[string]jx.Raw
}

func (StartStream) name() string    { return "start_stream" }
func (StopStream) name() string     { return "stop_stream" }
func (GenerateBatch) name() string  { return "generate_batch" }
func (ProcessOrder) name() string   { return "process_order" }
func (CloseOrder) name() string     { return "close_order" }
func (ChangeSettings) name() string { return "change_settings" }

// UnknownCommandError reports an unrecognized command value. The session
// reports it to the client and keeps going.
type UnknownCommandError struct {
	Name string
}

func (e *UnknownCommandError) Error() string {
	return "unknown command " + e.Name
}

// ParseCommand decodes one inbound envelope into its command variant,
// applying d for absent optional fields. Envelopes that are not JSON
// objects, lack a command key, or miss a required field are rejected.
func ParseCommand(data []byte, d Defaults) (Command, error) {
	var name string
	fields := make(map[string]jx.Raw)

	dec := jx.DecodeBytes(data)
	if err := dec.Obj(func(dec *jx.Decoder, key string) error {
		if key == "command" {
			v, err := dec.Str()
			if err != nil {
				return errors.Wrap(err, "command")
			}
			name = v
			return nil
		}
		raw, err := dec.Raw()
		if err != nil {
			return errors.Wrapf(err, "field %s", key)
		}
		fields[key] = raw
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "parse envelope")
	}
	if name == "" {
		return nil, errors.New("envelope has no command")
	}

	switch name {
	case "start_stream":
		cmd := StartStream{Frequency: d.Frequency, MaxOrders: d.MaxOrders}
		if raw, ok := fields["frequency"]; ok {
			secs, err := jx.DecodeBytes(raw).Float64()
			if err != nil {
				return nil, errors.Wrap(err, "frequency")
			}
			cmd.Frequency = time.Duration(secs * float64(time.Second))
		}
		if raw, ok := fields["max_orders"]; ok {
			n, err := jx.DecodeBytes(raw).Int()
			if err != nil {
				return nil, errors.Wrap(err, "max_orders")
			}
			cmd.MaxOrders = n
		}
		return cmd, nil

	case "stop_stream":
		return StopStream{}, nil

	case "generate_batch":
		cmd := GenerateBatch{Count: d.BatchSize}
		if raw, ok := fields["count"]; ok {
			n, err := jx.DecodeBytes(raw).Int()
			if err != nil {
				return nil, errors.Wrap(err, "count")
			}
			// A negative count produces nothing; keep the summary honest.
			cmd.Count = max(n, 0)
		}
		return cmd, nil

	case "process_order":
		id, err := requiredStr(fields, "order_id")
		if err != nil {
			return nil, err
		}
		return ProcessOrder{OrderID: id}, nil

	case "close_order":
		id, err := requiredStr(fields, "order_id")
		if err != nil {
			return nil, err
		}
		return CloseOrder{OrderID: id}, nil

	case "change_settings":
		return ChangeSettings{Fields: fields}, nil

	default:
		return nil, &UnknownCommandError{Name: name}
	}
}

func requiredStr(fields map[string]jx.Raw, key string) (string, error) {
	raw, ok := fields[key]
	if !ok {
		return "", errors.Errorf("%s is required", key)
	}
	v, err := jx.DecodeBytes(raw).Str()
	if err != nil {
		return "", errors.Wrap(err, key)
	}
	if v == "" {
		return "", errors.Errorf("%s is required", key)
	}
	return v, nil
}
