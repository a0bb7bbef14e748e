package tracking

import (
	"fmt"

	"github.com/ironpoint/steeltrack-backend/internal/domain/aggregates"
)

// statusOrder is the single source of truth for the piece-mark lifecycle.
// The order is total: forward movement is one step at a time, and the only
// legal backward movement is a single-step rollback to correct a mistaken
// advance.
var statusOrder = []Status{
	StatusNotStarted,
	StatusFabricating,
	StatusCompleted,
	StatusShipped,
	StatusInstalled,
}

// StatusChange classifies a validated status transition.
type StatusChange string

const (
	StatusChangeAdvance  StatusChange = "advance"
	StatusChangeRollback StatusChange = "rollback"
)

// Ordinal returns the position of s in the lifecycle order, or -1.
func (s Status) Ordinal() int {
	for i, v := range statusOrder {
		if v == s {
			return i
		}
	}
	return -1
}

// NextStatus returns the immediate successor of s, if any.
func NextStatus(s Status) (Status, bool) {
	i := s.Ordinal()
	if i < 0 || i+1 >= len(statusOrder) {
		return "", false
	}
	return statusOrder[i+1], true
}

// PrevStatus returns the immediate predecessor of s, if any.
func PrevStatus(s Status) (Status, bool) {
	i := s.Ordinal()
	if i <= 0 {
		return "", false
	}
	return statusOrder[i-1], true
}

// ValidateStatusChange is the single enforcement point for piece-mark status
// transitions. It accepts exactly the immediate successor (advance) or the
// immediate predecessor (single-step rollback) of from; every other (from, to)
// pair is rejected with an invalid_transition error naming the pair.
func ValidateStatusChange(from, to Status) (StatusChange, error) {
	const op = "piece_mark.status"
	if !from.Valid() || !to.Valid() {
		return "", aggregates.NewError(aggregates.CodeValidation, op,
			fmt.Sprintf("unknown status in transition %q -> %q", from, to), nil)
	}
	if next, ok := NextStatus(from); ok && to == next {
		return StatusChangeAdvance, nil
	}
	if prev, ok := PrevStatus(from); ok && to == prev {
		return StatusChangeRollback, nil
	}
	return "", aggregates.NewError(aggregates.CodeInvalidTransition, op,
		fmt.Sprintf("transition %q -> %q is not adjacent in the lifecycle order", from, to), nil)
}

// ValidateLocationChange is the single enforcement point for field-location
// updates. Locations are unordered among themselves but only legal while the
// piece mark is shipped: before shipping there is nothing in the field to
// place, and once installed the location is forced to installed and locked.
func ValidateLocationChange(status Status, to Location) error {
	const op = "piece_mark.location"
	if !to.Valid() {
		return aggregates.NewError(aggregates.CodeValidation, op,
			fmt.Sprintf("unknown location %q", to), nil)
	}
	switch status {
	case StatusInstalled:
		return aggregates.NewError(aggregates.CodeLocationLocked, op,
			"location is locked once status is installed", nil)
	case StatusShipped:
		return nil
	default:
		return aggregates.NewError(aggregates.CodeInvalidTransition, op,
			fmt.Sprintf("location update requires status %q, current status is %q", StatusShipped, status), nil)
	}
}

// DeliveryStatus lifecycle: pending -> in_transit -> delivered -> received,
// with rejected reachable from any non-terminal state. received is only
// reachable through a complete reconciliation, enforced by the delivery
// service rather than here.
var deliveryTransitions = map[DeliveryStatus][]DeliveryStatus{
	DeliveryPending:   {DeliveryInTransit, DeliveryRejected},
	DeliveryInTransit: {DeliveryDelivered, DeliveryRejected},
	DeliveryDelivered: {DeliveryReceived, DeliveryRejected},
	DeliveryReceived:  {},
	DeliveryRejected:  {},
}

// ValidateDeliveryChange enforces the delivery status table.
func ValidateDeliveryChange(from, to DeliveryStatus) error {
	const op = "delivery.status"
	next, ok := deliveryTransitions[from]
	if !ok || !to.Valid() {
		return aggregates.NewError(aggregates.CodeValidation, op,
			fmt.Sprintf("unknown delivery status in transition %q -> %q", from, to), nil)
	}
	for _, v := range next {
		if v == to {
			return nil
		}
	}
	return aggregates.NewError(aggregates.CodeInvalidTransition, op,
		fmt.Sprintf("delivery transition %q -> %q is not allowed", from, to), nil)
}

// ValidateCrewChange enforces the scheduled -> active -> completed progression.
func ValidateCrewChange(from, to CrewStatus) error {
	const op = "crew.status"
	switch {
	case from == CrewScheduled && to == CrewActive:
		return nil
	case from == CrewActive && to == CrewCompleted:
		return nil
	case !from.Valid() || !to.Valid():
		return aggregates.NewError(aggregates.CodeValidation, op,
			fmt.Sprintf("unknown crew status in transition %q -> %q", from, to), nil)
	default:
		return aggregates.NewError(aggregates.CodeInvalidTransition, op,
			fmt.Sprintf("crew transition %q -> %q is not allowed", from, to), nil)
	}
}
