package enums

import "fmt"

// LoyaltyTransactionType classifies loyalty ledger rows.
type LoyaltyTransactionType string

const (
	LoyaltyTransactionTypeAward  LoyaltyTransactionType = "award"
	LoyaltyTransactionTypeRedeem LoyaltyTransactionType = "redeem"
)

// String implements fmt.Stringer.
func (l LoyaltyTransactionType) String() string {
	return string(l)
}

// IsValid reports whether the value is a known LoyaltyTransactionType.
func (l LoyaltyTransactionType) IsValid() bool {
	return l == LoyaltyTransactionTypeAward || l == LoyaltyTransactionTypeRedeem
}

// ParseLoyaltyTransactionType converts raw input into a LoyaltyTransactionType.
func ParseLoyaltyTransactionType(value string) (LoyaltyTransactionType, error) {
	switch LoyaltyTransactionType(value) {
	case LoyaltyTransactionTypeAward:
		return LoyaltyTransactionTypeAward, nil
	case LoyaltyTransactionTypeRedeem:
		return LoyaltyTransactionTypeRedeem, nil
	}
	return "", fmt.Errorf("invalid loyalty transaction type %q", value)
}
