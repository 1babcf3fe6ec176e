package enums

import "fmt"

// PromoDiscountType distinguishes percentage promos from fixed-amount ones.
type PromoDiscountType string

const (
	PromoDiscountTypePercentage PromoDiscountType = "percentage"
	PromoDiscountTypeFixed      PromoDiscountType = "fixed"
)

// String implements fmt.Stringer.
func (p PromoDiscountType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PromoDiscountType.
func (p PromoDiscountType) IsValid() bool {
	return p == PromoDiscountTypePercentage || p == PromoDiscountTypeFixed
}

// ParsePromoDiscountType converts raw input into a PromoDiscountType.
func ParsePromoDiscountType(value string) (PromoDiscountType, error) {
	switch PromoDiscountType(value) {
	case PromoDiscountTypePercentage:
		return PromoDiscountTypePercentage, nil
	case PromoDiscountTypeFixed:
		return PromoDiscountTypeFixed, nil
	}
	return "", fmt.Errorf("invalid promo discount type %q", value)
}
