package driver

import (
	"context"

	"github.com/google/uuid"
)

// CountFilter narrows driver counts
type CountFilter struct {
	Available *bool
}

// Repository defines the interface for driver data access
type Repository interface {
	Create(ctx context.Context, driver *Driver) error
	GetByID(ctx context.Context, id uuid.UUID) (*Driver, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Driver, error)
	// List returns every driver ordered by name
	List(ctx context.Context) ([]*Driver, error)
	UpdateInfo(ctx context.Context, id uuid.UUID, phone string, vehicle Vehicle) (*Driver, error)
	SetAvailability(ctx context.Context, id uuid.UUID, available bool) (*Driver, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context, filter CountFilter) (int64, error)
}
