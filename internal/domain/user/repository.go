package user

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository defines the persistence contract for user accounts.
type UserRepository interface {
	// FindByID retrieves a user by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindByEmail retrieves a user by email address.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// Save persists a new user. It returns a ConflictError if the email is
	// already registered.
	Save(ctx context.Context, u *User) error
}

// WishlistRepository defines the persistence contract for a user's wishlist.
type WishlistRepository interface {
	// ListingIDs returns the listing IDs on the user's wishlist, most
	// recently added first. Dangling entries are the caller's concern.
	ListingIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)

	// Contains reports whether the listing is on the user's wishlist.
	Contains(ctx context.Context, userID, listingID uuid.UUID) (bool, error)

	// Add puts the listing on the user's wishlist. Adding twice is a no-op.
	Add(ctx context.Context, userID, listingID uuid.UUID) error

	// Remove takes the listing off the user's wishlist.
	Remove(ctx context.Context, userID, listingID uuid.UUID) error
}
