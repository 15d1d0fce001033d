package users

import (
	"context"
	"errors"
	"strings"

	"github.com/gocomet/ride-booking/internal/domain/driver"
	"github.com/gocomet/ride-booking/internal/domain/user"
	"github.com/gocomet/ride-booking/internal/service/policy"
	apperrors "github.com/gocomet/ride-booking/pkg/errors"
	"github.com/gocomet/ride-booking/pkg/logger"
	"github.com/google/uuid"
)

// Service manages accounts, roles and driver profiles
type Service struct {
	users     user.Repository
	drivers   driver.Repository
	dashboard DashboardCache
	logger    *logger.Logger
}

// DashboardCache is dropped whenever user or driver counts change.
// It is satisfied by metrics.SnapshotCache.
type DashboardCache interface {
	Invalidate(ctx context.Context) error
}

// SyncInput is the identity asserted by a verified token
type SyncInput struct {
	Subject string
	Name    string
	Email   string
}

// NewService creates the service. dashboard may be nil.
func NewService(users user.Repository, drivers driver.Repository, dashboard DashboardCache, log *logger.Logger) *Service {
	return &Service{users: users, drivers: drivers, dashboard: dashboard, logger: log}
}

// Sync creates the account on first contact or refreshes its name and email.
// New accounts start as customers.
func (s *Service) Sync(ctx context.Context, in SyncInput) (*user.User, bool, error) {
	if strings.TrimSpace(in.Subject) == "" {
		return nil, false, apperrors.Validation("Subject is required", nil)
	}

	u := &user.User{
		Subject: in.Subject,
		Name:    in.Name,
		Email:   in.Email,
		Roles:   []user.Role{user.RoleCustomer},
	}
	created, err := s.users.Upsert(ctx, u)
	if err != nil {
		return nil, false, s.translate(err, "Failed to save user")
	}

	if created {
		s.logger.Info("User created", logger.String("user_id", u.ID.String()), logger.String("subject", u.Subject))
		s.invalidateDashboard(ctx)
	}
	return u, created, nil
}

// Lookup resolves a token subject to its account
func (s *Service) Lookup(ctx context.Context, subject string) (*user.User, error) {
	u, err := s.users.GetBySubject(ctx, subject)
	if err != nil {
		return nil, s.translate(err, "Failed to load user")
	}
	return u, nil
}

// Profile returns the caller's account
func (s *Service) Profile(ctx context.Context, actor policy.Actor) (*user.User, error) {
	u, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, s.translate(err, "Failed to fetch profile")
	}
	return u, nil
}

// SetRoles replaces the roles of the account identified by subject. Granting the
// driver role creates an empty driver profile; revoking it removes the profile.
func (s *Service) SetRoles(ctx context.Context, actor policy.Actor, subject string, values []string) (*user.User, error) {
	if err := policy.AuthorizeRoleChange(actor); err != nil {
		return nil, err
	}

	roles, err := user.ParseRoles(values)
	if err != nil {
		return nil, apperrors.ErrInvalidRoles.WithDetails(err.Error())
	}

	target, err := s.users.GetBySubject(ctx, subject)
	if err != nil {
		return nil, s.translate(err, "Failed to update roles")
	}

	updated, err := s.users.UpdateRoles(ctx, target.ID, roles)
	if err != nil {
		return nil, s.translate(err, "Failed to update roles")
	}

	wasDriver, isDriver := target.HasRole(user.RoleDriver), updated.HasRole(user.RoleDriver)
	switch {
	case isDriver && !wasDriver:
		if err := s.ensureProfile(ctx, updated.ID); err != nil {
			return nil, s.translate(err, "Failed to create driver profile")
		}
	case wasDriver && !isDriver:
		if err := s.removeProfile(ctx, updated.ID); err != nil {
			return nil, s.translate(err, "Failed to remove driver profile")
		}
	}

	roleNames := make([]string, len(roles))
	for i, r := range roles {
		roleNames[i] = string(r)
	}
	s.logger.Info("User roles updated",
		logger.String("user_id", updated.ID.String()),
		logger.String("by", actor.UserID.String()),
		logger.Strings("roles", roleNames),
	)
	s.invalidateDashboard(ctx)
	return updated, nil
}

// ListDrivers returns every driver profile for assignment screens
func (s *Service) ListDrivers(ctx context.Context, actor policy.Actor) ([]*driver.Driver, error) {
	if err := policy.Require(actor, policy.ManageRides); err != nil {
		return nil, err
	}
	list, err := s.drivers.List(ctx)
	if err != nil {
		return nil, s.translate(err, "Failed to fetch drivers")
	}
	return list, nil
}

// DriverInfo returns the caller's driver profile
func (s *Service) DriverInfo(ctx context.Context, actor policy.Actor) (*driver.Driver, error) {
	if err := policy.Require(actor, policy.DriveRides); err != nil {
		return nil, err
	}
	d, err := s.drivers.GetByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, s.translate(err, "Failed to fetch driver info")
	}
	return d, nil
}

// UpdateDriverInfo sets the caller's phone and vehicle, creating the profile if
// the driver role was granted without one.
func (s *Service) UpdateDriverInfo(ctx context.Context, actor policy.Actor, phone string, vehicle driver.Vehicle) (*driver.Driver, error) {
	if err := policy.Require(actor, policy.DriveRides); err != nil {
		return nil, err
	}
	if err := driver.ValidateInfo(phone, vehicle); err != nil {
		return nil, apperrors.Validation("Phone and complete vehicle details are required", err)
	}

	d, err := s.drivers.GetByUserID(ctx, actor.UserID)
	if errors.Is(err, driver.ErrDriverNotFound) {
		d = &driver.Driver{UserID: actor.UserID}
		if err = s.drivers.Create(ctx, d); err != nil {
			return nil, s.translate(err, "Failed to update driver info")
		}
	} else if err != nil {
		return nil, s.translate(err, "Failed to update driver info")
	}

	updated, err := s.drivers.UpdateInfo(ctx, d.ID, phone, vehicle)
	if err != nil {
		return nil, s.translate(err, "Failed to update driver info")
	}

	s.logger.Info("Driver info updated", logger.String("driver_id", updated.ID.String()))
	return updated, nil
}

// SetDriverAvailability toggles whether the driver can take rides
func (s *Service) SetDriverAvailability(ctx context.Context, actor policy.Actor, driverID uuid.UUID, available bool) (*driver.Driver, error) {
	d, err := s.drivers.GetByID(ctx, driverID)
	if err != nil {
		return nil, s.translate(err, "Failed to update availability")
	}
	if err := policy.AuthorizeAvailabilityChange(actor, d); err != nil {
		return nil, err
	}

	updated, err := s.drivers.SetAvailability(ctx, driverID, available)
	if err != nil {
		return nil, s.translate(err, "Failed to update availability")
	}

	s.logger.Info("Driver availability changed",
		logger.String("driver_id", driverID.String()),
		logger.Bool("available", available),
	)
	s.invalidateDashboard(ctx)
	return updated, nil
}

// DeleteDriver removes the driver profile and strips the driver role from its
// user. A user left without roles falls back to customer.
func (s *Service) DeleteDriver(ctx context.Context, actor policy.Actor, driverID uuid.UUID) (*user.User, error) {
	if err := policy.Require(actor, policy.ManageUsers); err != nil {
		return nil, err
	}

	d, err := s.drivers.GetByID(ctx, driverID)
	if err != nil {
		return nil, s.translate(err, "Error deleting driver")
	}
	if err := s.drivers.Delete(ctx, driverID); err != nil {
		return nil, s.translate(err, "Error deleting driver")
	}

	owner, err := s.users.GetByID(ctx, d.UserID)
	if err != nil {
		return nil, s.translate(err, "Error deleting driver")
	}

	roles := make([]user.Role, 0, len(owner.Roles))
	for _, r := range owner.Roles {
		if r != user.RoleDriver {
			roles = append(roles, r)
		}
	}
	if len(roles) == 0 {
		roles = []user.Role{user.RoleCustomer}
	}

	updated, err := s.users.UpdateRoles(ctx, owner.ID, roles)
	if err != nil {
		return nil, s.translate(err, "Error deleting driver")
	}

	s.logger.Info("Driver deleted",
		logger.String("driver_id", driverID.String()),
		logger.String("user_id", owner.ID.String()),
	)
	s.invalidateDashboard(ctx)
	return updated, nil
}

func (s *Service) invalidateDashboard(ctx context.Context) {
	if s.dashboard == nil {
		return
	}
	if err := s.dashboard.Invalidate(ctx); err != nil {
		s.logger.Warn("Failed to invalidate dashboard metrics", logger.Err(err))
	}
}

func (s *Service) ensureProfile(ctx context.Context, userID uuid.UUID) error {
	_, err := s.drivers.GetByUserID(ctx, userID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, driver.ErrDriverNotFound) {
		return err
	}
	return s.drivers.Create(ctx, &driver.Driver{UserID: userID})
}

func (s *Service) removeProfile(ctx context.Context, userID uuid.UUID) error {
	d, err := s.drivers.GetByUserID(ctx, userID)
	if errors.Is(err, driver.ErrDriverNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.drivers.Delete(ctx, d.ID)
}

func (s *Service) translate(err error, message string) error {
	switch {
	case apperrors.IsAppError(err):
		return err
	case errors.Is(err, user.ErrUserNotFound):
		return apperrors.ErrUserNotFound
	case errors.Is(err, driver.ErrDriverNotFound):
		return apperrors.ErrDriverNotFound
	}
	s.logger.Error(message, logger.Err(err))
	return apperrors.Internal(message, err)
}
