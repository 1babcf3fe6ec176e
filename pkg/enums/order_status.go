package enums

import "fmt"

// OrderStatus tracks the lifecycle of a customer order.
type OrderStatus string

const (
	OrderStatusPending          OrderStatus = "pending"
	OrderStatusPaymentConfirmed OrderStatus = "payment_confirmed"
	OrderStatusPrinting         OrderStatus = "printing"
	OrderStatusShipped          OrderStatus = "shipped"
	OrderStatusDelivered        OrderStatus = "delivered"
	OrderStatusCancelled        OrderStatus = "cancelled"
	OrderStatusRefunded         OrderStatus = "refunded"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusPaymentConfirmed,
	OrderStatusPrinting,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusRefunded,
}

// orderStatusTransitions is the closed transition table. Statuses only move
// forward; cancellation is only reachable from pending, refund from any
// paid state.
var orderStatusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:          {OrderStatusPaymentConfirmed, OrderStatusCancelled},
	OrderStatusPaymentConfirmed: {OrderStatusPrinting, OrderStatusRefunded},
	OrderStatusPrinting:         {OrderStatusShipped, OrderStatusRefunded},
	OrderStatusShipped:          {OrderStatusDelivered, OrderStatusRefunded},
	OrderStatusDelivered:        {OrderStatusRefunded},
	OrderStatusCancelled:        {},
	OrderStatusRefunded:         {},
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions exist from this status.
func (o OrderStatus) IsTerminal() bool {
	return len(orderStatusTransitions[o]) == 0
}

// IsPaid reports whether the order reached payment confirmation at some point.
func (o OrderStatus) IsPaid() bool {
	switch o {
	case OrderStatusPaymentConfirmed, OrderStatusPrinting, OrderStatusShipped, OrderStatusDelivered, OrderStatusRefunded:
		return true
	}
	return false
}

// CanTransitionTo reports whether the transition table allows moving to next.
func (o OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, candidate := range orderStatusTransitions[o] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
