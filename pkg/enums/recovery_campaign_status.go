package enums

import "fmt"

// RecoveryCampaignStatus tracks a win-back campaign for an abandoned cart.
type RecoveryCampaignStatus string

const (
	RecoveryCampaignStatusPending   RecoveryCampaignStatus = "pending"
	RecoveryCampaignStatusSent      RecoveryCampaignStatus = "sent"
	RecoveryCampaignStatusCancelled RecoveryCampaignStatus = "cancelled"
	RecoveryCampaignStatusConverted RecoveryCampaignStatus = "converted"
)

var validRecoveryCampaignStatuses = []RecoveryCampaignStatus{
	RecoveryCampaignStatusPending,
	RecoveryCampaignStatusSent,
	RecoveryCampaignStatusCancelled,
	RecoveryCampaignStatusConverted,
}

// String implements fmt.Stringer.
func (r RecoveryCampaignStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RecoveryCampaignStatus.
func (r RecoveryCampaignStatus) IsValid() bool {
	for _, candidate := range validRecoveryCampaignStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRecoveryCampaignStatus converts raw input into a RecoveryCampaignStatus.
func ParseRecoveryCampaignStatus(value string) (RecoveryCampaignStatus, error) {
	for _, candidate := range validRecoveryCampaignStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid recovery campaign status %q", value)
}
