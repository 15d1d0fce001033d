package users

import (
	"context"
	"net/http"
	"testing"

	"github.com/gocomet/ride-booking/internal/domain/driver"
	"github.com/gocomet/ride-booking/internal/domain/user"
	"github.com/gocomet/ride-booking/internal/repository/memory"
	"github.com/gocomet/ride-booking/internal/service/policy"
	apperrors "github.com/gocomet/ride-booking/pkg/errors"
	"github.com/gocomet/ride-booking/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testVehicle = driver.Vehicle{Make: "Honda", Model: "Civic", Color: "Red", PlateNumber: "XYZ987"}

type countingDashboard struct {
	invalidations int
}

func (d *countingDashboard) Invalidate(ctx context.Context) error {
	d.invalidations++
	return nil
}

func setup(t *testing.T) (*Service, *memory.Store, context.Context) {
	t.Helper()
	store := memory.NewStore()
	return NewService(store.Users(), store.Drivers(), nil, logger.NewNop()), store, context.Background()
}

func syncActor(t *testing.T, svc *Service, store *memory.Store, subject string, roles ...user.Role) policy.Actor {
	t.Helper()
	ctx := context.Background()
	u, _, err := svc.Sync(ctx, SyncInput{Subject: subject, Name: subject, Email: subject + "@example.com"})
	require.NoError(t, err)
	if len(roles) > 0 {
		u, err = store.Users().UpdateRoles(ctx, u.ID, roles)
		require.NoError(t, err)
	}
	return policy.NewActor(u)
}

func TestSync_CreatesCustomerThenRefreshes(t *testing.T) {
	svc, store, ctx := setup(t)

	u, created, err := svc.Sync(ctx, SyncInput{Subject: "abc", Name: "Alice", Email: "a@example.com"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, []user.Role{user.RoleCustomer}, u.Roles)

	_, err = store.Users().UpdateRoles(ctx, u.ID, []user.Role{user.RoleAdmin})
	require.NoError(t, err)

	again, created, err := svc.Sync(ctx, SyncInput{Subject: "abc", Name: "Alice B", Email: "a@example.com"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, u.ID, again.ID)
	assert.Equal(t, "Alice B", again.Name)
	assert.Equal(t, []user.Role{user.RoleAdmin}, again.Roles, "roles survive a resync")

	_, _, err = svc.Sync(ctx, SyncInput{Subject: " "})
	assert.Equal(t, http.StatusBadRequest, apperrors.GetAppError(err).Status)
}

func TestProfile(t *testing.T) {
	svc, store, ctx := setup(t)
	a := syncActor(t, svc, store, "alice")

	u, err := svc.Profile(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)

	ghost := policy.NewActor(&user.User{ID: uuid.New()})
	_, err = svc.Profile(ctx, ghost)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestLookup(t *testing.T) {
	svc, store, ctx := setup(t)
	a := syncActor(t, svc, store, "alice")

	u, err := svc.Lookup(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, a.UserID, u.ID)

	_, err = svc.Lookup(ctx, "nobody")
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestSetRoles_GrantAndRevokeDriver(t *testing.T) {
	svc, store, ctx := setup(t)
	admin := syncActor(t, svc, store, "root", user.RoleAdmin)
	target := syncActor(t, svc, store, "dave")

	updated, err := svc.SetRoles(ctx, admin, "dave", []string{"customer", "driver", "driver"})
	require.NoError(t, err)
	assert.Equal(t, []user.Role{user.RoleCustomer, user.RoleDriver}, updated.Roles)

	profile, err := store.Drivers().GetByUserID(ctx, target.UserID)
	require.NoError(t, err)
	assert.False(t, profile.IsAvailable)
	assert.Equal(t, "dave", profile.Name)

	// granting again keeps the same profile
	_, err = svc.SetRoles(ctx, admin, "dave", []string{"driver"})
	require.NoError(t, err)
	again, err := store.Drivers().GetByUserID(ctx, target.UserID)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, again.ID)

	_, err = svc.SetRoles(ctx, admin, "dave", []string{"customer"})
	require.NoError(t, err)
	_, err = store.Drivers().GetByUserID(ctx, target.UserID)
	assert.ErrorIs(t, err, driver.ErrDriverNotFound)
}

func TestSetRoles_Errors(t *testing.T) {
	svc, store, ctx := setup(t)
	admin := syncActor(t, svc, store, "root", user.RoleDeveloper)
	customer := syncActor(t, svc, store, "alice")

	_, err := svc.SetRoles(ctx, customer, "alice", []string{"admin"})
	assert.Equal(t, http.StatusForbidden, apperrors.GetAppError(err).Status)

	_, err = svc.SetRoles(ctx, admin, "alice", nil)
	assert.Equal(t, http.StatusBadRequest, apperrors.GetAppError(err).Status)

	_, err = svc.SetRoles(ctx, admin, "alice", []string{"pilot"})
	assert.Equal(t, http.StatusBadRequest, apperrors.GetAppError(err).Status)

	_, err = svc.SetRoles(ctx, admin, "nobody", []string{"customer"})
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestDriverInfo(t *testing.T) {
	svc, store, ctx := setup(t)
	admin := syncActor(t, svc, store, "root", user.RoleAdmin)
	syncActor(t, svc, store, "dave")
	customer := syncActor(t, svc, store, "alice")

	_, err := svc.SetRoles(ctx, admin, "dave", []string{"driver"})
	require.NoError(t, err)
	daveUser, err := store.Users().GetBySubject(ctx, "dave")
	require.NoError(t, err)
	dave := policy.NewActor(daveUser)

	_, err = svc.UpdateDriverInfo(ctx, dave, "555", driver.Vehicle{Make: "Honda"})
	assert.Equal(t, http.StatusBadRequest, apperrors.GetAppError(err).Status)

	updated, err := svc.UpdateDriverInfo(ctx, dave, "555-0101", testVehicle)
	require.NoError(t, err)
	assert.Equal(t, "555-0101", updated.Phone)
	assert.Equal(t, testVehicle, updated.Vehicle)

	info, err := svc.DriverInfo(ctx, dave)
	require.NoError(t, err)
	assert.Equal(t, updated.ID, info.ID)

	_, err = svc.DriverInfo(ctx, customer)
	assert.Equal(t, http.StatusForbidden, apperrors.GetAppError(err).Status)
}

func TestUpdateDriverInfo_CreatesMissingProfile(t *testing.T) {
	svc, store, ctx := setup(t)
	dave := syncActor(t, svc, store, "dave", user.RoleDriver)

	_, err := svc.DriverInfo(ctx, dave)
	assert.ErrorIs(t, err, apperrors.ErrDriverNotFound)

	d, err := svc.UpdateDriverInfo(ctx, dave, "555-0101", testVehicle)
	require.NoError(t, err)
	assert.Equal(t, dave.UserID, d.UserID)
}

func TestSetDriverAvailability(t *testing.T) {
	svc, store, ctx := setup(t)
	admin := syncActor(t, svc, store, "root", user.RoleAdmin)
	dave := syncActor(t, svc, store, "dave", user.RoleDriver)
	erin := syncActor(t, svc, store, "erin", user.RoleDriver)

	profile, err := svc.UpdateDriverInfo(ctx, dave, "555-0101", testVehicle)
	require.NoError(t, err)

	d, err := svc.SetDriverAvailability(ctx, dave, profile.ID, true)
	require.NoError(t, err)
	assert.True(t, d.IsAvailable)

	d, err = svc.SetDriverAvailability(ctx, admin, profile.ID, false)
	require.NoError(t, err)
	assert.False(t, d.IsAvailable)

	_, err = svc.SetDriverAvailability(ctx, erin, profile.ID, true)
	assert.Equal(t, http.StatusForbidden, apperrors.GetAppError(err).Status)

	_, err = svc.SetDriverAvailability(ctx, admin, uuid.New(), true)
	assert.ErrorIs(t, err, apperrors.ErrDriverNotFound)
}

func TestDeleteDriver(t *testing.T) {
	svc, store, ctx := setup(t)
	admin := syncActor(t, svc, store, "root", user.RoleAdmin)
	dave := syncActor(t, svc, store, "dave", user.RoleDriver)
	erin := syncActor(t, svc, store, "erin", user.RoleCustomer, user.RoleDriver)

	daveProfile, err := svc.UpdateDriverInfo(ctx, dave, "555-0101", testVehicle)
	require.NoError(t, err)
	erinProfile, err := svc.UpdateDriverInfo(ctx, erin, "555-0102", testVehicle)
	require.NoError(t, err)

	_, err = svc.DeleteDriver(ctx, dave, daveProfile.ID)
	assert.Equal(t, http.StatusForbidden, apperrors.GetAppError(err).Status)

	u, err := svc.DeleteDriver(ctx, admin, daveProfile.ID)
	require.NoError(t, err)
	assert.Equal(t, []user.Role{user.RoleCustomer}, u.Roles)

	u, err = svc.DeleteDriver(ctx, admin, erinProfile.ID)
	require.NoError(t, err)
	assert.Equal(t, []user.Role{user.RoleCustomer}, u.Roles)

	_, err = store.Drivers().GetByID(ctx, daveProfile.ID)
	assert.ErrorIs(t, err, driver.ErrDriverNotFound)

	_, err = svc.DeleteDriver(ctx, admin, daveProfile.ID)
	assert.ErrorIs(t, err, apperrors.ErrDriverNotFound)
}

func TestListDrivers(t *testing.T) {
	svc, store, ctx := setup(t)
	admin := syncActor(t, svc, store, "root", user.RoleAdmin)
	zed := syncActor(t, svc, store, "zed", user.RoleDriver)
	amy := syncActor(t, svc, store, "amy", user.RoleDriver)

	for _, a := range []policy.Actor{zed, amy} {
		_, err := svc.UpdateDriverInfo(ctx, a, "555", testVehicle)
		require.NoError(t, err)
	}

	list, err := svc.ListDrivers(ctx, admin)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "amy", list[0].Name)
	assert.Equal(t, "zed", list[1].Name)

	_, err = svc.ListDrivers(ctx, zed)
	assert.Equal(t, http.StatusForbidden, apperrors.GetAppError(err).Status)
}

func TestDashboardInvalidatedOnUserAndDriverChanges(t *testing.T) {
	store := memory.NewStore()
	dashboard := &countingDashboard{}
	svc := NewService(store.Users(), store.Drivers(), dashboard, logger.NewNop())
	ctx := context.Background()

	admin := syncActor(t, svc, store, "root", user.RoleAdmin)
	require.Equal(t, 1, dashboard.invalidations, "new account")

	_, _, err := svc.Sync(ctx, SyncInput{Subject: "root", Name: "Root"})
	require.NoError(t, err)
	assert.Equal(t, 1, dashboard.invalidations, "resync changes no counts")

	syncActor(t, svc, store, "dave")
	_, err = svc.SetRoles(ctx, admin, "dave", []string{"driver"})
	require.NoError(t, err)
	assert.Equal(t, 3, dashboard.invalidations)

	u, err := store.Users().GetBySubject(ctx, "dave")
	require.NoError(t, err)
	profile, err := store.Drivers().GetByUserID(ctx, u.ID)
	require.NoError(t, err)

	_, err = svc.SetDriverAvailability(ctx, admin, profile.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 4, dashboard.invalidations)

	_, err = svc.DeleteDriver(ctx, admin, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, dashboard.invalidations)
}
