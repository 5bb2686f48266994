package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/stayhive/service-rental/internal/domain"
	bookingDomain "github.com/stayhive/service-rental/internal/domain/booking"
	listingDomain "github.com/stayhive/service-rental/internal/domain/listing"
	userDomain "github.com/stayhive/service-rental/internal/domain/user"
	"github.com/stayhive/service-rental/internal/events"
	"github.com/stayhive/service-rental/internal/platform/cache"
	"github.com/stayhive/service-rental/internal/platform/kafka"
)

// CreateListingRequest holds the data needed to publish a new listing.
type CreateListingRequest struct {
	Title             string                 `json:"title" binding:"required"`
	Description       string                 `json:"description"`
	Category          string                 `json:"category"`
	Location          listingDomain.Location `json:"location" binding:"required"`
	NightlyPriceCents int64                  `json:"nightly_price_cents" binding:"required"`
	PhotoPaths        []string               `json:"photo_paths"`
}

// ListingDTO is the response representation of a listing.
type ListingDTO struct {
	ID                uuid.UUID              `json:"id"`
	HostID            uuid.UUID              `json:"host_id"`
	Title             string                 `json:"title"`
	Description       string                 `json:"description,omitempty"`
	Category          string                 `json:"category,omitempty"`
	Location          listingDomain.Location `json:"location"`
	NightlyPriceCents int64                  `json:"nightly_price_cents"`
	PhotoPaths        []string               `json:"photo_paths,omitempty"`
	CreatedAt         time.Time              `json:"created_at"`
	Host              *UserSummary           `json:"host,omitempty"`
}

// ListListingsQuery narrows the browse view.
type ListListingsQuery struct {
	Category string
	Search   string
	HostID   uuid.UUID
}

// ListingService orchestrates listing publication, browsing and the
// cascade deletion of a listing together with its bookings.
type ListingService struct {
	listings listingDomain.ListingRepository
	bookings bookingDomain.BookingRepository
	users    userDomain.UserRepository
	tx       domain.Transactor
	producer *kafka.Producer
	cache    *cache.Cache
	clock    clockwork.Clock
	logger   *zap.Logger
}

// NewListingService creates a new ListingService.
func NewListingService(
	listings listingDomain.ListingRepository,
	bookings bookingDomain.BookingRepository,
	users userDomain.UserRepository,
	tx domain.Transactor,
	producer *kafka.Producer,
	c *cache.Cache,
	clock clockwork.Clock,
	logger *zap.Logger,
) *ListingService {
	return &ListingService{
		listings: listings,
		bookings: bookings,
		users:    users,
		tx:       tx,
		producer: producer,
		cache:    c,
		clock:    clock,
		logger:   logger,
	}
}

// CreateListing publishes a new listing owned by the given host.
func (s *ListingService) CreateListing(ctx context.Context, hostID uuid.UUID, req CreateListingRequest) (*ListingDTO, error) {
	lst, err := listingDomain.NewListing(
		hostID,
		req.Title,
		req.Description,
		req.Category,
		req.Location,
		req.NightlyPriceCents,
		req.PhotoPaths,
		s.clock.Now(),
	)
	if err != nil {
		return nil, err
	}

	if err := s.listings.Save(ctx, lst); err != nil {
		return nil, fmt.Errorf("failed to save listing: %w", err)
	}

	result := s.toListingDTO(ctx, lst)
	return &result, nil
}

// GetListing retrieves a single listing by ID with host details resolved.
func (s *ListingService) GetListing(ctx context.Context, listingID uuid.UUID) (*ListingDTO, error) {
	lst, err := s.listings.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	result := s.toListingDTO(ctx, lst)
	return &result, nil
}

// ListListings retrieves paginated listings matching the query.
func (s *ListingService) ListListings(ctx context.Context, q ListListingsQuery, page, limit int) (*domain.PaginatedResult[ListingDTO], error) {
	filter := listingDomain.ListingFilter{
		Category: q.Category,
		Search:   q.Search,
		HostID:   q.HostID,
	}
	lsts, total, err := s.listings.List(ctx, filter, page, limit)
	if err != nil {
		return nil, err
	}

	dtos := make([]ListingDTO, len(lsts))
	for i, lst := range lsts {
		dtos[i] = s.toListingDTO(ctx, lst)
	}

	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// DeleteListing removes a listing and every booking that references it.
//
// The booking purge and the listing delete run inside one transaction that
// holds a row lock on the listing, so a reader never observes the listing
// gone while its bookings remain, and no booking can be inserted against a
// listing mid-deletion. A failure after the purge step rolls the whole
// cascade back and surfaces as a PartialFailureError; the reconciliation
// sweep covers stores without that transactional guarantee.
func (s *ListingService) DeleteListing(ctx context.Context, listingID, actingUserID uuid.UUID) error {
	var (
		lst     *listingDomain.Listing
		removed int64
	)

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		lst, err = s.listings.FindByIDForUpdate(ctx, listingID)
		if err != nil {
			return err
		}

		if !lst.OwnedBy(actingUserID) {
			return domain.NewForbiddenError("you can only delete your own properties")
		}

		// Bookings go first. The listing owner's authority supersedes
		// individual customers' cancellation rights, so there is no
		// per-booking authorization here.
		removed, err = s.bookings.DeleteByListing(ctx, listingID)
		if err != nil {
			return fmt.Errorf("failed to delete listing bookings: %w", err)
		}

		if err := s.listings.Delete(ctx, listingID); err != nil {
			return domain.NewPartialFailureError("listing delete failed, cascade rolled back", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.cache != nil {
		s.cache.Delete(ctx, occupiedCacheKey(listingID))
	}

	evt := events.ListingDeletedEvent{
		ListingID:       listingID,
		HostID:          lst.HostID(),
		BookingsRemoved: removed,
		OccurredAt:      s.clock.Now().UTC(),
	}
	s.publishEvent(ctx, events.ListingDeleted, evt)

	s.logger.Info("listing deleted with bookings",
		zap.String("listing_id", listingID.String()),
		zap.Int64("bookings_removed", removed),
	)
	return nil
}

func (s *ListingService) toListingDTO(ctx context.Context, lst *listingDomain.Listing) ListingDTO {
	dto := ListingDTO{
		ID:                lst.ID(),
		HostID:            lst.HostID(),
		Title:             lst.Title(),
		Description:       lst.Description(),
		Category:          lst.Category(),
		Location:          lst.Location(),
		NightlyPriceCents: lst.NightlyPriceCents(),
		PhotoPaths:        lst.PhotoPaths(),
		CreatedAt:         lst.CreatedAt(),
	}
	if u, err := s.users.FindByID(ctx, lst.HostID()); err == nil {
		dto.Host = toUserSummary(u)
	}
	return dto
}

func (s *ListingService) publishEvent(ctx context.Context, eventType string, data interface{}) {
	if s.producer == nil {
		return
	}

	cloudEvent, err := kafka.NewCloudEvent("service-rental", eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := s.producer.PublishEvent(ctx, events.TopicRentalEvents, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
