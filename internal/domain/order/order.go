// Package order implements the per-session order model: the lifecycle state
// machine, the registry that owns every order for one connection, and the
// synthetic generator that feeds it.
package order

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an order.
//
// Valid transitions:
//
//	Pending ──> Processing ──> Done
//	   │
//	   └──> Cancelled
//
// Done and Cancelled are final. No protocol command drives the Cancelled
// transition yet; the state machine still accepts the state and rejects any
// transition out of it.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusProcessing Status = "Processing"
	StatusDone       Status = "Done"
	StatusCancelled  Status = "Cancelled"
)

// Valid reports whether s is one of the defined lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusDone, StatusCancelled:
		return true
	}
	return false
}

// Order represents one unit of work streamed to a client. Identity and the
// descriptive payload are immutable after creation; only Status and
// ProcessedAt change, and only through the transition methods below.
type Order struct {
	ID           string
	Number       int64
	CustomerName string
	Priority     string
	Details      string
	Value        decimal.Decimal
	Status       Status
	CreatedAt    time.Time
	ProcessedAt  *time.Time
}

// NotFoundError indicates a lookup for an order id that is not in the registry.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("order %s not found", e.ID)
}

// TransitionError indicates a lifecycle transition attempted from the wrong
// state. It names the order and the state the transition requires.
type TransitionError struct {
	ID   string
	From Status
	Want Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("order %s is %s, must be %s", e.ID, e.From, e.Want)
}

// Process moves the order from Pending to Processing and stamps ProcessedAt.
// ProcessedAt is set exactly once, here.
func (o *Order) Process(now time.Time) error {
	if o.Status != StatusPending {
		return &TransitionError{ID: o.ID, From: o.Status, Want: StatusPending}
	}
	o.Status = StatusProcessing
	o.ProcessedAt = &now
	return nil
}

// Complete moves the order from Processing to Done.
func (o *Order) Complete() error {
	if o.Status != StatusProcessing {
		return &TransitionError{ID: o.ID, From: o.Status, Want: StatusProcessing}
	}
	o.Status = StatusDone
	return nil
}

// Cancel moves the order from Pending to Cancelled.
func (o *Order) Cancel() error {
	if o.Status != StatusPending {
		return &TransitionError{ID: o.ID, From: o.Status, Want: StatusPending}
	}
	o.Status = StatusCancelled
	return nil
}
