package events

import (
	"time"

	"github.com/google/uuid"
)

// TopicRentalEvents carries all booking and listing lifecycle events.
const TopicRentalEvents = "rental.events"

// Event types published on TopicRentalEvents.
const (
	BookingCreated   = "booking.created"
	BookingCancelled = "booking.cancelled"
	ListingDeleted   = "listing.deleted"
)

// BookingCreatedEvent is published after a booking is committed.
type BookingCreatedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	ListingID  uuid.UUID `json:"listing_id"`
	CustomerID uuid.UUID `json:"customer_id"`
	HostID     uuid.UUID `json:"host_id"`
	CheckIn    string    `json:"check_in"`
	CheckOut   string    `json:"check_out"`
	TotalCents int64     `json:"total_cents"`
	OccurredAt time.Time `json:"occurred_at"`
}

// BookingCancelledEvent is published after a booking is deleted by its customer.
type BookingCancelledEvent struct {
	BookingID   uuid.UUID `json:"booking_id"`
	ListingID   uuid.UUID `json:"listing_id"`
	CancelledBy uuid.UUID `json:"cancelled_by"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// ListingDeletedEvent is published after a listing and its bookings are removed.
type ListingDeletedEvent struct {
	ListingID       uuid.UUID `json:"listing_id"`
	HostID          uuid.UUID `json:"host_id"`
	BookingsRemoved int64     `json:"bookings_removed"`
	OccurredAt      time.Time `json:"occurred_at"`
}
