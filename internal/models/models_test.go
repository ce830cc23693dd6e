package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionOrder(t *testing.T) {
	assert.True(t, CanTransitionOrder(OrderStatusPending, OrderStatusPaid))
	assert.True(t, CanTransitionOrder(OrderStatusPaid, OrderStatusShipped))
	assert.True(t, CanTransitionOrder(OrderStatusShipped, OrderStatusDelivered))

	// one-directional
	assert.False(t, CanTransitionOrder(OrderStatusPaid, OrderStatusPending))
	assert.False(t, CanTransitionOrder(OrderStatusDelivered, OrderStatusShipped))

	// cancel from any non-terminal status
	assert.True(t, CanTransitionOrder(OrderStatusPending, OrderStatusCanceled))
	assert.True(t, CanTransitionOrder(OrderStatusShipped, OrderStatusCanceled))
	assert.False(t, CanTransitionOrder(OrderStatusCanceled, OrderStatusPending))
	assert.False(t, CanTransitionOrder(OrderStatusDelivered, OrderStatusCanceled))
}

func TestValidOrderStatus(t *testing.T) {
	assert.True(t, ValidOrderStatus(OrderStatusPending))
	assert.True(t, ValidOrderStatus(OrderStatusCanceled))
	assert.False(t, ValidOrderStatus("SOMETHING_ELSE"))
}

func TestTransactionTerminal(t *testing.T) {
	assert.False(t, (&Transaction{Status: TxStatusPending}).Terminal())
	assert.True(t, (&Transaction{Status: TxStatusSuccess}).Terminal())
	assert.True(t, (&Transaction{Status: TxStatusFailed}).Terminal())
	assert.True(t, (&Transaction{Status: TxStatusExpired}).Terminal())
}

func TestPasswordChangedAfter(t *testing.T) {
	issued := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	u := &User{}
	assert.False(t, u.PasswordChangedAfter(issued))

	before := issued.Add(-time.Hour)
	u.PasswordChangedAt = &before
	assert.False(t, u.PasswordChangedAfter(issued))

	after := issued.Add(time.Hour)
	u.PasswordChangedAt = &after
	assert.True(t, u.PasswordChangedAfter(issued))
}
