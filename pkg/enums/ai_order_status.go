package enums

import "fmt"

// AIOrderStatus tracks the lifecycle of a chat-extracted draft order.
type AIOrderStatus string

const (
	AIOrderStatusDraft               AIOrderStatus = "draft"
	AIOrderStatusCollectingInfo      AIOrderStatus = "collecting_info"
	AIOrderStatusPendingConfirmation AIOrderStatus = "pending_confirmation"
	AIOrderStatusCompleted           AIOrderStatus = "completed"
	AIOrderStatusCanceled            AIOrderStatus = "canceled"
)

var validAIOrderStatuses = []AIOrderStatus{
	AIOrderStatusDraft,
	AIOrderStatusCollectingInfo,
	AIOrderStatusPendingConfirmation,
	AIOrderStatusCompleted,
	AIOrderStatusCanceled,
}

// String implements fmt.Stringer.
func (s AIOrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known AIOrderStatus.
func (s AIOrderStatus) IsValid() bool {
	for _, candidate := range validAIOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseAIOrderStatus converts raw input into an AIOrderStatus.
func ParseAIOrderStatus(value string) (AIOrderStatus, error) {
	for _, candidate := range validAIOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ai order status %q", value)
}
