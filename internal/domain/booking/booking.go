package booking

import (
	"time"

	"github.com/google/uuid"
	"github.com/stayhive/service-rental/internal/domain"
)

// Booking is the aggregate root for a reserved stay on a listing.
// The host reference is a snapshot of the listing owner at booking time, so
// host-side queries keep working even if the listing is later deleted or
// transferred.
type Booking struct {
	id              uuid.UUID
	listingID       uuid.UUID
	customerID      uuid.UUID
	hostID          uuid.UUID
	period          StayPeriod
	totalPriceCents int64
	createdAt       time.Time
}

// NewBooking creates a Booking for the given stay. The caller is responsible
// for the listing-level invariants (listing exists, customer is not the owner,
// no overlapping booking); the aggregate enforces the local ones.
func NewBooking(
	listingID uuid.UUID,
	customerID uuid.UUID,
	hostID uuid.UUID,
	period StayPeriod,
	totalPriceCents int64,
	now time.Time,
) (*Booking, error) {
	if listingID == uuid.Nil {
		return nil, domain.NewValidationError("listing ID is required")
	}
	if customerID == uuid.Nil {
		return nil, domain.NewValidationError("customer ID is required")
	}
	if hostID == uuid.Nil {
		return nil, domain.NewValidationError("host ID is required")
	}
	if customerID == hostID {
		return nil, domain.NewForbiddenError("cannot book your own property")
	}
	if totalPriceCents <= 0 {
		return nil, domain.NewValidationError("total price must be positive")
	}

	return &Booking{
		id:              uuid.New(),
		listingID:       listingID,
		customerID:      customerID,
		hostID:          hostID,
		period:          period,
		totalPriceCents: totalPriceCents,
		createdAt:       now.UTC(),
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id uuid.UUID,
	listingID uuid.UUID,
	customerID uuid.UUID,
	hostID uuid.UUID,
	period StayPeriod,
	totalPriceCents int64,
	createdAt time.Time,
) *Booking {
	return &Booking{
		id:              id,
		listingID:       listingID,
		customerID:      customerID,
		hostID:          hostID,
		period:          period,
		totalPriceCents: totalPriceCents,
		createdAt:       createdAt,
	}
}

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// ListingID returns the booked listing's identifier.
func (b *Booking) ListingID() uuid.UUID { return b.listingID }

// CustomerID returns the booking party's user ID.
func (b *Booking) CustomerID() uuid.UUID { return b.customerID }

// HostID returns the listing owner's user ID as snapshotted at booking time.
func (b *Booking) HostID() uuid.UUID { return b.hostID }

// Period returns the reserved stay period.
func (b *Booking) Period() StayPeriod { return b.period }

// TotalPriceCents returns the total price in cents.
func (b *Booking) TotalPriceCents() int64 { return b.totalPriceCents }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// CancellableBy reports whether the given user may cancel this booking.
// Only the booking's customer may cancel it; the listing owner's cascade
// delete bypasses per-booking authorization entirely.
func (b *Booking) CancellableBy(userID uuid.UUID) bool {
	return b.customerID == userID
}
