package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BookingRepository defines the persistence contract for booking aggregates.
type BookingRepository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByCustomer retrieves bookings made by a customer with pagination,
	// newest first. Bookings whose listing no longer resolves are filtered out.
	FindByCustomer(ctx context.Context, customerID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// FindByHost retrieves bookings on a host's listings with pagination,
	// ordered by check-in ascending. Bookings whose listing no longer
	// resolves are filtered out.
	FindByHost(ctx context.Context, hostID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// ExistsOverlapping reports whether any committed booking for the listing
	// overlaps the candidate period.
	ExistsOverlapping(ctx context.Context, listingID uuid.UUID, period StayPeriod) (bool, error)

	// OccupiedWindows returns the stay periods of bookings for the listing
	// whose check-out falls on or after from, without booker identity.
	OccupiedWindows(ctx context.Context, listingID uuid.UUID, from time.Time) ([]StayPeriod, error)

	// Save persists a new booking.
	Save(ctx context.Context, bk *Booking) error

	// Delete removes a booking by ID. It returns a NotFoundError if the
	// booking does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteByListing removes every booking for the listing and returns the
	// number of bookings removed.
	DeleteByListing(ctx context.Context, listingID uuid.UUID) (int64, error)

	// DeleteOrphaned removes bookings whose listing no longer resolves and
	// returns the number removed. Used by the reconciliation sweep.
	DeleteOrphaned(ctx context.Context) (int64, error)
}
