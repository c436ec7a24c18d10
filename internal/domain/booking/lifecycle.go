package booking

import (
	"github.com/google/uuid"

	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/domain"
)

// Role is the part a caller plays in one specific booking.
type Role string

const (
	RoleNone      Role = ""
	RoleRequester Role = "requester"
	RoleProvider  Role = "provider"
)

type transitionKey struct {
	from BookingStatus
	to   BookingStatus
}

// transitionRules maps each permitted (from, to) pair to the only role allowed
// to perform it. Pairs missing here are invalid for everyone.
var transitionRules = map[transitionKey]Role{
	{StatusPending, StatusAccepted}:   RoleProvider,
	{StatusPending, StatusRejected}:   RoleProvider,
	{StatusPending, StatusCancelled}:  RoleRequester,
	{StatusAccepted, StatusCancelled}: RoleRequester,
}

// ResolveRole derives the caller's role from the stored participant ids.
// providerUserID is the account that owns the booking's provider profile.
func ResolveRole(callerID, requesterID, providerUserID uuid.UUID) Role {
	switch {
	case callerID == uuid.Nil:
		return RoleNone
	case callerID == requesterID:
		return RoleRequester
	case callerID == providerUserID:
		return RoleProvider
	default:
		return RoleNone
	}
}

// AllowedRole returns the role permitted to move a booking from -> to.
func AllowedRole(from, to BookingStatus) (Role, bool) {
	role, ok := transitionRules[transitionKey{from, to}]
	return role, ok
}

// Authorize checks one transition request against the rule table. Non-participants
// and participants with the wrong role get UnauthorizedTransition; a pair that no
// role may perform gets InvalidState.
func Authorize(from, to BookingStatus, role Role) error {
	if role == RoleNone {
		return domain.NewUnauthorizedTransitionError(string(from), string(to))
	}
	allowed, ok := AllowedRole(from, to)
	if !ok {
		return domain.NewInvalidStateError(string(from), string(to))
	}
	if allowed != role {
		return domain.NewUnauthorizedTransitionError(string(from), string(to))
	}
	return nil
}
