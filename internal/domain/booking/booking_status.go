package booking

import "fmt"

// BookingStatus represents the current state of a booking in its lifecycle.
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusAccepted  BookingStatus = "accepted"
	StatusRejected  BookingStatus = "rejected"
	StatusCompleted BookingStatus = "completed"
	StatusCancelled BookingStatus = "cancelled"
)

// reachable lists every status each status can move to, by any actor.
var reachable = map[BookingStatus][]BookingStatus{
	StatusPending:   {StatusAccepted, StatusRejected, StatusCancelled},
	StatusAccepted:  {StatusCancelled, StatusCompleted},
	StatusRejected:  {},
	StatusCompleted: {},
	StatusCancelled: {},
}

// IsValid returns true if the status is a recognized booking status.
func (s BookingStatus) IsValid() bool {
	_, exists := reachable[s]
	return exists
}

// IsTerminal returns true if no further transitions are possible from this status.
func (s BookingStatus) IsTerminal() bool {
	next, exists := reachable[s]
	return !exists || len(next) == 0
}

// HoldsCalendar reports whether a booking in this status occupies its dates.
// Pending and accepted bookings are treated alike.
func (s BookingStatus) HoldsCalendar() bool {
	return s == StatusPending || s == StatusAccepted
}

// IsReviewable reports whether the requester may review a booking in this status.
func (s BookingStatus) IsReviewable() bool {
	return s == StatusAccepted || s == StatusCompleted
}

// String returns the string representation of the status.
func (s BookingStatus) String() string {
	return string(s)
}

// ParseBookingStatus converts a string to a BookingStatus, returning an error if invalid.
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid booking status: %s", s)
	}
	return status, nil
}

// AllStatuses returns every status in lifecycle order.
func AllStatuses() []BookingStatus {
	return []BookingStatus{StatusPending, StatusAccepted, StatusRejected, StatusCompleted, StatusCancelled}
}
