// Package policy holds every authorization decision of the booking service.
//
// Roles map to a capability set once, when the actor is built; operations ask for
// capabilities or for one of the decision functions below instead of inspecting roles.
package policy

import (
	"github.com/gocomet/ride-booking/internal/domain/driver"
	"github.com/gocomet/ride-booking/internal/domain/ride"
	"github.com/gocomet/ride-booking/internal/domain/user"
	apperrors "github.com/gocomet/ride-booking/pkg/errors"
	"github.com/google/uuid"
)

// Capability is a single permission
type Capability uint8

const (
	BookRides Capability = 1 << iota
	DriveRides
	ManageRides
	ViewAllRides
	ViewMetrics
	ManageUsers
)

// Capabilities is a set of Capability values
type Capabilities uint8

// Has reports whether c is in the set
func (cs Capabilities) Has(c Capability) bool {
	return cs&Capabilities(c) != 0
}

var roleCapabilities = map[user.Role]Capabilities{
	user.RoleCustomer:  Capabilities(BookRides),
	user.RoleDriver:    Capabilities(BookRides | DriveRides),
	user.RoleAdmin:     Capabilities(BookRides | ManageRides | ViewAllRides | ViewMetrics | ManageUsers),
	user.RoleDeveloper: Capabilities(BookRides | ManageRides | ViewAllRides | ViewMetrics | ManageUsers),
}

// CapabilitiesFor unions the capabilities of every role
func CapabilitiesFor(roles []user.Role) Capabilities {
	var cs Capabilities
	for _, r := range roles {
		cs |= roleCapabilities[r]
	}
	return cs
}

// Actor is the authenticated identity making a request
type Actor struct {
	UserID  uuid.UUID
	Subject string
	Name    string
	Email   string
	Roles   []user.Role
	caps    Capabilities
}

// NewActor builds an actor from a stored user
func NewActor(u *user.User) Actor {
	return Actor{
		UserID:  u.ID,
		Subject: u.Subject,
		Name:    u.Name,
		Email:   u.Email,
		Roles:   u.Roles,
		caps:    CapabilitiesFor(u.Roles),
	}
}

// Can reports whether the actor holds c
func (a Actor) Can(c Capability) bool {
	return a.caps.Has(c)
}

// HasRole reports whether the actor holds role
func (a Actor) HasRole(role user.Role) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// TransitionDetails names the rejected transition in a Forbidden response
type TransitionDetails struct {
	CurrentStatus   ride.Status `json:"currentStatus"`
	RequestedStatus ride.Status `json:"requestedStatus"`
}

// Require fails with Forbidden unless the actor holds c
func Require(a Actor, c Capability) error {
	if !a.Can(c) {
		return apperrors.ErrInsufficientPermissions
	}
	return nil
}

// AuthorizeStatusUpdate allows privileged actors any status. The assigned driver
// (driverUserID is the user behind the ride's driver profile, nil when unassigned)
// may only move a confirmed ride to completed.
func AuthorizeStatusUpdate(a Actor, r *ride.Ride, driverUserID *uuid.UUID, requested ride.Status) error {
	if a.Can(ManageRides) {
		return nil
	}

	isAssignedDriver := driverUserID != nil && *driverUserID == a.UserID
	if !isAssignedDriver {
		return apperrors.ErrInsufficientPermissions.
			WithDetails("Only assigned drivers, admins, or developers can update ride status")
	}

	if r.Status != ride.StatusConfirmed || requested != ride.StatusCompleted {
		return apperrors.ErrDriverTransition.WithDetails(TransitionDetails{
			CurrentStatus:   r.Status,
			RequestedStatus: requested,
		})
	}
	return nil
}

// AuthorizeDelete allows privileged actors to delete any ride and owners to delete
// their own rides while still pending.
func AuthorizeDelete(a Actor, r *ride.Ride) error {
	if a.Can(ManageRides) {
		return nil
	}
	if !r.IsOwnedBy(a.UserID) {
		return apperrors.Forbidden("Not authorized to delete this ride", nil).
			WithDetails("Only ride owner, admin, or developer can delete rides")
	}
	if r.Status != ride.StatusPending {
		return apperrors.ErrRideNotDeletable.WithDetails("Only pending rides can be cancelled by customers")
	}
	return nil
}

// AuthorizeDriverAssignment covers both binding and unbinding a driver
func AuthorizeDriverAssignment(a Actor) error {
	return Require(a, ManageRides)
}

// AuthorizeRoleChange allows user managers to replace anyone's roles
func AuthorizeRoleChange(a Actor) error {
	return Require(a, ManageUsers)
}

// CanWatchRide reports whether the actor may follow live updates of r: staff,
// the owner, or the user behind the assigned driver profile.
func CanWatchRide(a Actor, r *ride.Ride, driverUserID *uuid.UUID) bool {
	if a.Can(ViewAllRides) || r.IsOwnedBy(a.UserID) {
		return true
	}
	return driverUserID != nil && *driverUserID == a.UserID
}

// AuthorizeAvailabilityChange allows user managers and the driver themself
func AuthorizeAvailabilityChange(a Actor, d *driver.Driver) error {
	if a.Can(ManageUsers) || d.UserID == a.UserID {
		return nil
	}
	return apperrors.ErrInsufficientPermissions
}

// ScopeKind selects which completed rides an actor may list
type ScopeKind int

const (
	ScopeOwned ScopeKind = iota
	ScopeDriven
	ScopeAll
)

// CompletedScope decides the completed-rides view. Roles are checked in the order
// customer, driver, then everyone else unrestricted.
func CompletedScope(a Actor) ScopeKind {
	switch {
	case a.HasRole(user.RoleCustomer):
		return ScopeOwned
	case a.HasRole(user.RoleDriver):
		return ScopeDriven
	default:
		return ScopeAll
	}
}
