package listing

import (
	"time"

	"github.com/google/uuid"
	"github.com/stayhive/service-rental/internal/domain"
)

// Location holds the address fields of a listing.
type Location struct {
	StreetAddress string `json:"street_address"`
	City          string `json:"city"`
	Province      string `json:"province"`
	Country       string `json:"country"`
}

// Listing is the aggregate root for a rentable property.
type Listing struct {
	id                uuid.UUID
	hostID            uuid.UUID
	title             string
	description       string
	category          string
	location          Location
	nightlyPriceCents int64
	photoPaths        []string
	createdAt         time.Time
	updatedAt         time.Time
}

// NewListing creates a Listing owned by the given host.
func NewListing(
	hostID uuid.UUID,
	title string,
	description string,
	category string,
	location Location,
	nightlyPriceCents int64,
	photoPaths []string,
	now time.Time,
) (*Listing, error) {
	if hostID == uuid.Nil {
		return nil, domain.NewValidationError("host ID is required")
	}
	if title == "" {
		return nil, domain.NewValidationError("title is required")
	}
	if location.City == "" || location.Country == "" {
		return nil, domain.NewValidationError("city and country are required")
	}
	if nightlyPriceCents <= 0 {
		return nil, domain.NewValidationError("nightly price must be positive")
	}

	ts := now.UTC()
	return &Listing{
		id:                uuid.New(),
		hostID:            hostID,
		title:             title,
		description:       description,
		category:          category,
		location:          location,
		nightlyPriceCents: nightlyPriceCents,
		photoPaths:        photoPaths,
		createdAt:         ts,
		updatedAt:         ts,
	}, nil
}

// ReconstructListing rebuilds a Listing from persistence data (no validation).
func ReconstructListing(
	id uuid.UUID,
	hostID uuid.UUID,
	title string,
	description string,
	category string,
	location Location,
	nightlyPriceCents int64,
	photoPaths []string,
	createdAt time.Time,
	updatedAt time.Time,
) *Listing {
	return &Listing{
		id:                id,
		hostID:            hostID,
		title:             title,
		description:       description,
		category:          category,
		location:          location,
		nightlyPriceCents: nightlyPriceCents,
		photoPaths:        photoPaths,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
	}
}

// ID returns the listing's unique identifier.
func (l *Listing) ID() uuid.UUID { return l.id }

// HostID returns the owning user's ID.
func (l *Listing) HostID() uuid.UUID { return l.hostID }

// Title returns the listing title.
func (l *Listing) Title() string { return l.title }

// Description returns the listing description.
func (l *Listing) Description() string { return l.description }

// Category returns the listing category.
func (l *Listing) Category() string { return l.category }

// Location returns the listing's address fields.
func (l *Listing) Location() Location { return l.location }

// NightlyPriceCents returns the nightly price in cents.
func (l *Listing) NightlyPriceCents() int64 { return l.nightlyPriceCents }

// PhotoPaths returns the stored photo paths.
func (l *Listing) PhotoPaths() []string { return l.photoPaths }

// CreatedAt returns the creation timestamp.
func (l *Listing) CreatedAt() time.Time { return l.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (l *Listing) UpdatedAt() time.Time { return l.updatedAt }

// OwnedBy reports whether the given user owns this listing.
func (l *Listing) OwnedBy(userID uuid.UUID) bool {
	return l.hostID == userID
}
