package enums

import "fmt"

// ResolutionStatus tracks a customer claim awaiting settlement.
type ResolutionStatus string

const (
	ResolutionStatusOpen           ResolutionStatus = "open"
	ResolutionStatusAwaitingRefund ResolutionStatus = "awaiting_refund"
	ResolutionStatusCompleted      ResolutionStatus = "completed"
)

var validResolutionStatuses = []ResolutionStatus{
	ResolutionStatusOpen,
	ResolutionStatusAwaitingRefund,
	ResolutionStatusCompleted,
}

// String implements fmt.Stringer.
func (r ResolutionStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ResolutionStatus.
func (r ResolutionStatus) IsValid() bool {
	for _, candidate := range validResolutionStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseResolutionStatus converts raw input into a ResolutionStatus.
func ParseResolutionStatus(value string) (ResolutionStatus, error) {
	for _, candidate := range validResolutionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid resolution status %q", value)
}
