package enums

import "fmt"

// PromoScope limits which products a promo applies to.
type PromoScope string

const (
	PromoScopeAll         PromoScope = "all"
	PromoScopeCategory    PromoScope = "category"
	PromoScopeSubcategory PromoScope = "subcategory"
	PromoScopeProducts    PromoScope = "products"
)

var validPromoScopes = []PromoScope{
	PromoScopeAll,
	PromoScopeCategory,
	PromoScopeSubcategory,
	PromoScopeProducts,
}

// String implements fmt.Stringer.
func (p PromoScope) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PromoScope.
func (p PromoScope) IsValid() bool {
	for _, candidate := range validPromoScopes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePromoScope converts raw input into a PromoScope.
func ParsePromoScope(value string) (PromoScope, error) {
	for _, candidate := range validPromoScopes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid promo scope %q", value)
}
