package listing

import (
	"context"

	"github.com/google/uuid"
)

// ListingFilter narrows List results.
type ListingFilter struct {
	Category string
	Search   string
	HostID   uuid.UUID
}

// ListingRepository defines the persistence contract for listing aggregates.
type ListingRepository interface {
	// FindByID retrieves a listing by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Listing, error)

	// FindByIDForUpdate retrieves a listing and takes a row-level lock on it.
	// Must be called inside a transaction; the lock is held until commit and
	// serializes concurrent check-then-insert booking attempts as well as
	// cascade deletion for the same listing.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Listing, error)

	// List retrieves listings matching the filter with pagination, newest first.
	List(ctx context.Context, filter ListingFilter, page, limit int) ([]*Listing, int64, error)

	// Save persists a new listing.
	Save(ctx context.Context, l *Listing) error

	// Delete removes a listing by ID. It returns a NotFoundError if the
	// listing does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}
