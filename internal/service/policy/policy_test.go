package policy

import (
	"net/http"
	"testing"

	"github.com/gocomet/ride-booking/internal/domain/driver"
	"github.com/gocomet/ride-booking/internal/domain/ride"
	"github.com/gocomet/ride-booking/internal/domain/user"
	apperrors "github.com/gocomet/ride-booking/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allStatuses = []ride.Status{
	ride.StatusPending, ride.StatusConfirmed, ride.StatusCompleted, ride.StatusCancelled,
}

func actorWith(roles ...user.Role) Actor {
	return NewActor(&user.User{ID: uuid.New(), Subject: "sub-" + uuid.NewString(), Roles: roles})
}

func assertForbidden(t *testing.T, err error) *apperrors.AppError {
	t.Helper()
	require.Error(t, err)
	appErr := apperrors.GetAppError(err)
	assert.Equal(t, http.StatusForbidden, appErr.Status)
	return appErr
}

func TestCapabilitiesFor(t *testing.T) {
	customer := CapabilitiesFor([]user.Role{user.RoleCustomer})
	assert.True(t, customer.Has(BookRides))
	assert.False(t, customer.Has(DriveRides))
	assert.False(t, customer.Has(ViewMetrics))

	driverCaps := CapabilitiesFor([]user.Role{user.RoleDriver})
	assert.True(t, driverCaps.Has(DriveRides))
	assert.False(t, driverCaps.Has(ManageRides))

	for _, r := range []user.Role{user.RoleAdmin, user.RoleDeveloper} {
		cs := CapabilitiesFor([]user.Role{r})
		for _, c := range []Capability{ManageRides, ViewAllRides, ViewMetrics, ManageUsers} {
			assert.True(t, cs.Has(c), "%s should have capability %d", r, c)
		}
	}

	assert.Equal(t, Capabilities(0), CapabilitiesFor(nil))
}

func TestAuthorizeStatusUpdate_AssignedDriverOnlyConfirmedToCompleted(t *testing.T) {
	driverActor := actorWith(user.RoleDriver)
	driverUserID := driverActor.UserID

	for _, current := range allStatuses {
		for _, requested := range allStatuses {
			r := &ride.Ride{ID: uuid.New(), Status: current}
			err := AuthorizeStatusUpdate(driverActor, r, &driverUserID, requested)

			if current == ride.StatusConfirmed && requested == ride.StatusCompleted {
				assert.NoError(t, err, "%s -> %s", current, requested)
				continue
			}

			appErr := assertForbidden(t, err)
			assert.Equal(t, TransitionDetails{CurrentStatus: current, RequestedStatus: requested}, appErr.Details)
		}
	}
}

func TestAuthorizeStatusUpdate_PrivilegedAnyTransition(t *testing.T) {
	for _, role := range []user.Role{user.RoleAdmin, user.RoleDeveloper} {
		a := actorWith(role)
		for _, current := range allStatuses {
			for _, requested := range allStatuses {
				r := &ride.Ride{Status: current}
				assert.NoError(t, AuthorizeStatusUpdate(a, r, nil, requested))
			}
		}
	}
}

func TestAuthorizeStatusUpdate_PrivilegedDriverIsNotRestricted(t *testing.T) {
	a := actorWith(user.RoleDriver, user.RoleAdmin)
	r := &ride.Ride{Status: ride.StatusPending}

	assert.NoError(t, AuthorizeStatusUpdate(a, r, &a.UserID, ride.StatusCancelled))
}

func TestAuthorizeStatusUpdate_OthersForbidden(t *testing.T) {
	r := &ride.Ride{Status: ride.StatusConfirmed}
	otherDriver := uuid.New()

	// owner of the ride
	owner := actorWith(user.RoleCustomer)
	r.OwnerID = owner.UserID
	assertForbidden(t, AuthorizeStatusUpdate(owner, r, nil, ride.StatusCompleted))

	// a driver that is not the assigned one
	assertForbidden(t, AuthorizeStatusUpdate(actorWith(user.RoleDriver), r, &otherDriver, ride.StatusCompleted))
}

func TestAuthorizeDelete(t *testing.T) {
	owner := actorWith(user.RoleCustomer)

	for _, status := range allStatuses {
		r := &ride.Ride{OwnerID: owner.UserID, Status: status}

		if status == ride.StatusPending {
			assert.NoError(t, AuthorizeDelete(owner, r))
		} else {
			appErr := assertForbidden(t, AuthorizeDelete(owner, r))
			assert.Equal(t, apperrors.ErrRideNotDeletable.Message, appErr.Message)
		}

		assert.NoError(t, AuthorizeDelete(actorWith(user.RoleAdmin), r), status)
		assert.NoError(t, AuthorizeDelete(actorWith(user.RoleDeveloper), r), status)
		assertForbidden(t, AuthorizeDelete(actorWith(user.RoleCustomer), r))
	}
}

func TestAuthorizeDriverAssignment(t *testing.T) {
	assert.NoError(t, AuthorizeDriverAssignment(actorWith(user.RoleAdmin)))
	assert.NoError(t, AuthorizeDriverAssignment(actorWith(user.RoleDeveloper)))
	assertForbidden(t, AuthorizeDriverAssignment(actorWith(user.RoleDriver)))
	assertForbidden(t, AuthorizeDriverAssignment(actorWith(user.RoleCustomer)))
}

func TestAuthorizeAvailabilityChange(t *testing.T) {
	self := actorWith(user.RoleDriver)
	profile := &driver.Driver{ID: uuid.New(), UserID: self.UserID}

	assert.NoError(t, AuthorizeAvailabilityChange(self, profile))
	assert.NoError(t, AuthorizeAvailabilityChange(actorWith(user.RoleAdmin), profile))
	assertForbidden(t, AuthorizeAvailabilityChange(actorWith(user.RoleDriver), profile))
}

func TestCompletedScope(t *testing.T) {
	assert.Equal(t, ScopeOwned, CompletedScope(actorWith(user.RoleCustomer)))
	assert.Equal(t, ScopeOwned, CompletedScope(actorWith(user.RoleCustomer, user.RoleDriver)))
	assert.Equal(t, ScopeDriven, CompletedScope(actorWith(user.RoleDriver)))
	assert.Equal(t, ScopeAll, CompletedScope(actorWith(user.RoleAdmin)))
	assert.Equal(t, ScopeAll, CompletedScope(actorWith(user.RoleDeveloper)))
}

func TestAuthorizeRoleChange(t *testing.T) {
	assert.NoError(t, AuthorizeRoleChange(actorWith(user.RoleAdmin)))
	assert.NoError(t, AuthorizeRoleChange(actorWith(user.RoleDeveloper)))
	assertForbidden(t, AuthorizeRoleChange(actorWith(user.RoleDriver)))
	assertForbidden(t, AuthorizeRoleChange(actorWith(user.RoleCustomer)))
}

func TestCanWatchRide(t *testing.T) {
	owner := actorWith(user.RoleCustomer)
	drv := actorWith(user.RoleDriver)
	stranger := actorWith(user.RoleCustomer)
	r := &ride.Ride{ID: uuid.New(), OwnerID: owner.UserID, Status: ride.StatusConfirmed}

	assert.True(t, CanWatchRide(owner, r, nil))
	assert.True(t, CanWatchRide(actorWith(user.RoleAdmin), r, nil))
	assert.True(t, CanWatchRide(drv, r, &drv.UserID))
	assert.False(t, CanWatchRide(drv, r, nil))
	assert.False(t, CanWatchRide(stranger, r, &drv.UserID))
}
