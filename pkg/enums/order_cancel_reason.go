package enums

import "fmt"

// OrderCancelReason records why an order was cancelled.
type OrderCancelReason string

const (
	OrderCancelReasonCheckoutExpired OrderCancelReason = "checkout_expired"
	OrderCancelReasonPaymentFailed   OrderCancelReason = "payment_failed"
	OrderCancelReasonCustomerRequest OrderCancelReason = "customer_request"
)

var validOrderCancelReasons = []OrderCancelReason{
	OrderCancelReasonCheckoutExpired,
	OrderCancelReasonPaymentFailed,
	OrderCancelReasonCustomerRequest,
}

// String implements fmt.Stringer.
func (o OrderCancelReason) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderCancelReason.
func (o OrderCancelReason) IsValid() bool {
	for _, candidate := range validOrderCancelReasons {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrderCancelReason converts raw input into an OrderCancelReason.
func ParseOrderCancelReason(value string) (OrderCancelReason, error) {
	for _, candidate := range validOrderCancelReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order cancel reason %q", value)
}
