package enums

import (
	"fmt"
	"strings"
)

// FulfillmentStatus tracks merchant-side processing of an order,
// independent of its payment state.
type FulfillmentStatus string

const (
	FulfillmentStatusPending    FulfillmentStatus = "PENDING"
	FulfillmentStatusProcessing FulfillmentStatus = "PROCESSING"
	FulfillmentStatusShipped    FulfillmentStatus = "SHIPPED"
	FulfillmentStatusDelivered  FulfillmentStatus = "DELIVERED"
	FulfillmentStatusCompleted  FulfillmentStatus = "COMPLETED"
	FulfillmentStatusCancelled  FulfillmentStatus = "CANCELLED"
)

var validFulfillmentStatuses = []FulfillmentStatus{
	FulfillmentStatusPending,
	FulfillmentStatusProcessing,
	FulfillmentStatusShipped,
	FulfillmentStatusDelivered,
	FulfillmentStatusCompleted,
	FulfillmentStatusCancelled,
}

var fulfillmentTransitions = map[FulfillmentStatus][]FulfillmentStatus{
	FulfillmentStatusPending:    {FulfillmentStatusProcessing, FulfillmentStatusCancelled},
	FulfillmentStatusProcessing: {FulfillmentStatusShipped, FulfillmentStatusCancelled},
	FulfillmentStatusShipped:    {FulfillmentStatusDelivered, FulfillmentStatusCancelled},
	FulfillmentStatusDelivered:  {FulfillmentStatusCompleted},
}

// String implements fmt.Stringer.
func (f FulfillmentStatus) String() string {
	return string(f)
}

// IsValid reports whether the value is a known FulfillmentStatus.
func (f FulfillmentStatus) IsValid() bool {
	for _, candidate := range validFulfillmentStatuses {
		if candidate == f {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition leaves the status.
func (f FulfillmentStatus) IsTerminal() bool {
	return f == FulfillmentStatusCompleted || f == FulfillmentStatusCancelled
}

// CanTransition reports whether moving from f to next is allowed. Re-applying
// the current status is always accepted.
func (f FulfillmentStatus) CanTransition(next FulfillmentStatus) bool {
	if !next.IsValid() {
		return false
	}
	if f == next {
		return true
	}
	for _, allowed := range fulfillmentTransitions[f] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AllowedPredecessors lists the statuses from which next may be reached.
func AllowedPredecessors(next FulfillmentStatus) []FulfillmentStatus {
	out := []FulfillmentStatus{next}
	for from, targets := range fulfillmentTransitions {
		for _, target := range targets {
			if target == next {
				out = append(out, from)
			}
		}
	}
	return out
}

// ParseFulfillmentStatus converts raw input into a FulfillmentStatus.
func ParseFulfillmentStatus(value string) (FulfillmentStatus, error) {
	normalized := FulfillmentStatus(strings.ToUpper(strings.TrimSpace(value)))
	for _, candidate := range validFulfillmentStatuses {
		if candidate == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid fulfillment status %q", value)
}
