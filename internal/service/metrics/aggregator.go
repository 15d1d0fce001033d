package metrics

import (
	"context"
	"time"

	"github.com/gocomet/ride-booking/internal/domain/driver"
	"github.com/gocomet/ride-booking/internal/domain/ride"
	"github.com/gocomet/ride-booking/internal/domain/user"
	apperrors "github.com/gocomet/ride-booking/pkg/errors"
	"github.com/gocomet/ride-booking/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// Dashboard is the admin metrics snapshot
type Dashboard struct {
	TotalRides     int64 `json:"totalRides"`
	TotalUsers     int64 `json:"totalUsers"`
	TotalDrivers   int64 `json:"totalDrivers"`
	ActiveRides    int64 `json:"activeRides"`
	CompletedRides int64 `json:"completedRides"`
	DailyBookings  int64 `json:"dailyBookings"`
	// ActiveUsers has no activity signal behind it and mirrors TotalUsers
	ActiveUsers  int64        `json:"activeUsers"`
	NewUsers     NewUsers     `json:"newUsers"`
	RideStatus   RideStatus   `json:"rideStatus"`
	DriverStatus DriverStatus `json:"driverStatus"`
}

type NewUsers struct {
	Daily  int64 `json:"daily"`
	Weekly int64 `json:"weekly"`
}

type RideStatus struct {
	Pending    int64 `json:"pending"`
	InProgress int64 `json:"inProgress"`
	Completed  int64 `json:"completed"`
	Cancelled  int64 `json:"cancelled"`
}

type DriverStatus struct {
	Available   int64 `json:"available"`
	Unavailable int64 `json:"unavailable"`
}

// SnapshotCache stores the latest dashboard for a short time
type SnapshotCache interface {
	Get(ctx context.Context) (*Dashboard, bool, error)
	Set(ctx context.Context, d *Dashboard) error
	Invalidate(ctx context.Context) error
}

// Aggregator computes dashboard metrics from independent counts.
// The counts are not taken in one snapshot and may skew under concurrent writes.
type Aggregator struct {
	rides   ride.Repository
	users   user.Repository
	drivers driver.Repository
	cache   SnapshotCache
	logger  *logger.Logger
	loc     *time.Location
	now     func() time.Time
}

// NewAggregator creates a new aggregator. cache may be nil.
func NewAggregator(rides ride.Repository, users user.Repository, drivers driver.Repository, cache SnapshotCache, log *logger.Logger, loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.Local
	}
	return &Aggregator{
		rides:   rides,
		users:   users,
		drivers: drivers,
		cache:   cache,
		logger:  log,
		loc:     loc,
		now:     time.Now,
	}
}

// Dashboard returns the cached snapshot when fresh, otherwise recomputes it.
func (a *Aggregator) Dashboard(ctx context.Context) (*Dashboard, error) {
	if a.cache != nil {
		cached, ok, err := a.cache.Get(ctx)
		if err != nil {
			a.logger.Warn("Metrics cache read failed", logger.Err(err))
		} else if ok {
			return cached, nil
		}
	}

	d, err := a.Compute(ctx)
	if err != nil {
		return nil, err
	}

	if a.cache != nil {
		if err := a.cache.Set(ctx, d); err != nil {
			a.logger.Warn("Metrics cache write failed", logger.Err(err))
		}
	}
	return d, nil
}

// Compute issues every count concurrently and assembles the snapshot.
func (a *Aggregator) Compute(ctx context.Context) (*Dashboard, error) {
	today := StartOfDay(a.now(), a.loc)
	lastWeek := today.AddDate(0, 0, -7)

	pending, confirmed := ride.StatusPending, ride.StatusConfirmed
	completed, cancelled := ride.StatusCompleted, ride.StatusCancelled
	available, unavailable := true, false

	var d Dashboard
	g, gctx := errgroup.WithContext(ctx)

	countRides := func(dst *int64, f ride.CountFilter) {
		g.Go(func() error {
			n, err := a.rides.Count(gctx, f)
			*dst = n
			return err
		})
	}
	countUsers := func(dst *int64, f user.CountFilter) {
		g.Go(func() error {
			n, err := a.users.Count(gctx, f)
			*dst = n
			return err
		})
	}
	countDrivers := func(dst *int64, f driver.CountFilter) {
		g.Go(func() error {
			n, err := a.drivers.Count(gctx, f)
			*dst = n
			return err
		})
	}

	countRides(&d.TotalRides, ride.CountFilter{})
	countRides(&d.RideStatus.Pending, ride.CountFilter{Status: &pending})
	countRides(&d.RideStatus.InProgress, ride.CountFilter{Status: &confirmed})
	countRides(&d.RideStatus.Completed, ride.CountFilter{Status: &completed})
	countRides(&d.RideStatus.Cancelled, ride.CountFilter{Status: &cancelled})
	countRides(&d.DailyBookings, ride.CountFilter{CreatedSince: &today})

	countUsers(&d.TotalUsers, user.CountFilter{})
	countUsers(&d.NewUsers.Daily, user.CountFilter{CreatedSince: &today})
	countUsers(&d.NewUsers.Weekly, user.CountFilter{CreatedSince: &lastWeek})

	countDrivers(&d.TotalDrivers, driver.CountFilter{})
	countDrivers(&d.DriverStatus.Available, driver.CountFilter{Available: &available})
	countDrivers(&d.DriverStatus.Unavailable, driver.CountFilter{Available: &unavailable})

	if err := g.Wait(); err != nil {
		a.logger.Error("Failed to compute dashboard metrics", logger.Err(err))
		return nil, apperrors.Internal("Error fetching dashboard metrics", err)
	}

	d.ActiveRides = d.RideStatus.InProgress
	d.CompletedRides = d.RideStatus.Completed
	d.ActiveUsers = d.TotalUsers
	return &d, nil
}

// StartOfDay returns local midnight of t's date in loc
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, day := t.In(loc).Date()
	return time.Date(y, m, day, 0, 0, 0, 0, loc)
}
