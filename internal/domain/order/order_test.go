package order

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingOrder(id string) *Order {
	return &Order{
		ID:        id,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}
}

func TestStatus_Valid(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusProcessing, StatusDone, StatusCancelled} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, Status("").Valid())
	assert.False(t, Status("Shipped").Valid())
}

func TestOrder_Process(t *testing.T) {
	o := pendingOrder("o1")
	now := time.Now()

	require.NoError(t, o.Process(now))
	assert.Equal(t, StatusProcessing, o.Status)
	require.NotNil(t, o.ProcessedAt)
	assert.Equal(t, now, *o.ProcessedAt)
	assert.False(t, o.ProcessedAt.Before(o.CreatedAt))
}

func TestOrder_Process_WrongState(t *testing.T) {
	for _, status := range []Status{StatusProcessing, StatusDone, StatusCancelled} {
		o := pendingOrder("o1")
		o.Status = status

		err := o.Process(time.Now())

		var trErr *TransitionError
		require.ErrorAs(t, err, &trErr, status)
		assert.Equal(t, "o1", trErr.ID)
		assert.Equal(t, status, trErr.From)
		assert.Equal(t, StatusPending, trErr.Want)
		assert.Nil(t, o.ProcessedAt)
		assert.Equal(t, status, o.Status, "failed transition must not mutate")
	}
}

func TestOrder_Complete(t *testing.T) {
	o := pendingOrder("o1")
	require.NoError(t, o.Process(time.Now()))

	require.NoError(t, o.Complete())
	assert.Equal(t, StatusDone, o.Status)
}

func TestOrder_Complete_WrongState(t *testing.T) {
	for _, status := range []Status{StatusPending, StatusDone, StatusCancelled} {
		o := pendingOrder("o1")
		o.Status = status

		err := o.Complete()

		var trErr *TransitionError
		require.ErrorAs(t, err, &trErr, status)
		assert.Equal(t, StatusProcessing, trErr.Want)
		assert.Equal(t, status, o.Status)
	}
}

func TestOrder_Cancel(t *testing.T) {
	o := pendingOrder("o1")
	require.NoError(t, o.Cancel())
	assert.Equal(t, StatusCancelled, o.Status)

	// Cancelled is final.
	require.Error(t, o.Process(time.Now()))
	require.Error(t, o.Complete())
	require.Error(t, o.Cancel())
}

func TestTransitionError_Message(t *testing.T) {
	err := &TransitionError{ID: "abc", From: StatusDone, Want: StatusProcessing}
	assert.Equal(t, "order abc is Done, must be Processing", err.Error())
}

func TestNotFoundError_Message(t *testing.T) {
	err := &NotFoundError{ID: "abc"}
	assert.Equal(t, "order abc not found", err.Error())
}
