package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatusTransitions(t *testing.T) {
	cases := []struct {
		name    string
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{"pending to confirmed", OrderStatusPending, OrderStatusPaymentConfirmed, true},
		{"pending to cancelled", OrderStatusPending, OrderStatusCancelled, true},
		{"pending to printing skips confirmation", OrderStatusPending, OrderStatusPrinting, false},
		{"confirmed to printing", OrderStatusPaymentConfirmed, OrderStatusPrinting, true},
		{"confirmed to refunded", OrderStatusPaymentConfirmed, OrderStatusRefunded, true},
		{"confirmed cannot cancel", OrderStatusPaymentConfirmed, OrderStatusCancelled, false},
		{"shipped to delivered", OrderStatusShipped, OrderStatusDelivered, true},
		{"delivered to refunded", OrderStatusDelivered, OrderStatusRefunded, true},
		{"cancelled is terminal", OrderStatusCancelled, OrderStatusPending, false},
		{"refunded is terminal", OrderStatusRefunded, OrderStatusPaymentConfirmed, false},
		{"no backwards moves", OrderStatusShipped, OrderStatusPrinting, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to))
		})
	}
}

func TestOrderStatusIsTerminal(t *testing.T) {
	assert.True(t, OrderStatusCancelled.IsTerminal())
	assert.True(t, OrderStatusRefunded.IsTerminal())
	assert.False(t, OrderStatusPending.IsTerminal())
	assert.False(t, OrderStatusDelivered.IsTerminal())
}

func TestOrderStatusIsPaid(t *testing.T) {
	assert.False(t, OrderStatusPending.IsPaid())
	assert.False(t, OrderStatusCancelled.IsPaid())
	assert.True(t, OrderStatusPaymentConfirmed.IsPaid())
	assert.True(t, OrderStatusRefunded.IsPaid())
}

func TestParseOrderStatus(t *testing.T) {
	status, err := ParseOrderStatus("payment_confirmed")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusPaymentConfirmed, status)

	_, err = ParseOrderStatus("confirmed")
	require.Error(t, err)
}
