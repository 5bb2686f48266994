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

const occupiedCacheTTL = 5 * time.Minute

// CreateBookingRequest holds the data needed to create a new booking.
// The total price is the client's expected snapshot; it is verified against
// nights × the listing's nightly price before anything is persisted.
type CreateBookingRequest struct {
	ListingID       uuid.UUID `json:"listing_id" binding:"required"`
	CheckIn         string    `json:"check_in" binding:"required"`
	CheckOut        string    `json:"check_out" binding:"required"`
	TotalPriceCents int64     `json:"total_price_cents" binding:"required"`
}

// UserSummary is the display projection of a user on a booking.
type UserSummary struct {
	ID               uuid.UUID `json:"id"`
	FirstName        string    `json:"first_name"`
	LastName         string    `json:"last_name"`
	Email            string    `json:"email"`
	ProfileImagePath string    `json:"profile_image_path,omitempty"`
}

// ListingSummary is the display projection of a listing on a booking.
type ListingSummary struct {
	ID                uuid.UUID `json:"id"`
	Title             string    `json:"title"`
	City              string    `json:"city"`
	Country           string    `json:"country"`
	NightlyPriceCents int64     `json:"nightly_price_cents"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID              uuid.UUID       `json:"id"`
	ListingID       uuid.UUID       `json:"listing_id"`
	CustomerID      uuid.UUID       `json:"customer_id"`
	HostID          uuid.UUID       `json:"host_id"`
	CheckIn         string          `json:"check_in"`
	CheckOut        string          `json:"check_out"`
	Nights          int             `json:"nights"`
	TotalPriceCents int64           `json:"total_price_cents"`
	CreatedAt       time.Time       `json:"created_at"`
	Listing         *ListingSummary `json:"listing,omitempty"`
	Customer        *UserSummary    `json:"customer,omitempty"`
	Host            *UserSummary    `json:"host,omitempty"`
}

// StayWindowDTO is an occupied date window, without booker identity.
type StayWindowDTO struct {
	CheckIn  string `json:"check_in"`
	CheckOut string `json:"check_out"`
}

// BookingService orchestrates booking creation, cancellation and read views.
type BookingService struct {
	bookings bookingDomain.BookingRepository
	listings listingDomain.ListingRepository
	users    userDomain.UserRepository
	tx       domain.Transactor
	pricing  bookingDomain.PriceCalculator
	producer *kafka.Producer
	cache    *cache.Cache
	clock    clockwork.Clock
	logger   *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	bookings bookingDomain.BookingRepository,
	listings listingDomain.ListingRepository,
	users userDomain.UserRepository,
	tx domain.Transactor,
	pricing bookingDomain.PriceCalculator,
	producer *kafka.Producer,
	c *cache.Cache,
	clock clockwork.Clock,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		bookings: bookings,
		listings: listings,
		users:    users,
		tx:       tx,
		pricing:  pricing,
		producer: producer,
		cache:    c,
		clock:    clock,
		logger:   logger,
	}
}

// CreateBooking validates and persists a booking for the given customer.
//
// Preconditions are checked in order, short-circuiting on the first failure:
// listing exists, customer is not the owner, dates parse, at least one night,
// no overlapping booking, total price positive and matching the quote. The
// whole sequence runs inside a transaction that holds a row lock on the
// listing, so two concurrent attempts for the same listing cannot both pass
// the overlap check.
func (s *BookingService) CreateBooking(ctx context.Context, customerID uuid.UUID, req CreateBookingRequest) (*BookingDTO, error) {
	var created *bookingDomain.Booking

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		lst, err := s.listings.FindByIDForUpdate(ctx, req.ListingID)
		if err != nil {
			return err
		}

		if lst.OwnedBy(customerID) {
			return domain.NewForbiddenError("cannot book your own property")
		}

		period, err := bookingDomain.ParseStayPeriod(req.CheckIn, req.CheckOut)
		if err != nil {
			return err
		}

		taken, err := s.bookings.ExistsOverlapping(ctx, lst.ID(), period)
		if err != nil {
			return fmt.Errorf("failed to check availability: %w", err)
		}
		if taken {
			return domain.NewConflictError("these dates are already booked")
		}

		quoted, err := s.pricing.Quote(lst.NightlyPriceCents(), period)
		if err != nil {
			return domain.NewValidationError(fmt.Sprintf("pricing error: %v", err))
		}
		if err := bookingDomain.VerifyExpectedTotal(req.TotalPriceCents, quoted); err != nil {
			return err
		}

		bk, err := bookingDomain.NewBooking(lst.ID(), customerID, lst.HostID(), period, req.TotalPriceCents, s.clock.Now())
		if err != nil {
			return err
		}

		if err := s.bookings.Save(ctx, bk); err != nil {
			return fmt.Errorf("failed to save booking: %w", err)
		}
		created = bk
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateOccupied(ctx, created.ListingID())
	s.publishBookingCreated(ctx, created)

	result := s.toBookingDTO(ctx, created)
	return &result, nil
}

// DeleteBooking cancels a booking. Only the booking's customer may cancel;
// the listing owner removes bookings through listing deletion instead.
func (s *BookingService) DeleteBooking(ctx context.Context, bookingID, actingUserID uuid.UUID) error {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return err
	}

	if !bk.CancellableBy(actingUserID) {
		return domain.NewForbiddenError("not authorized to delete this booking")
	}

	if err := s.bookings.Delete(ctx, bookingID); err != nil {
		return err
	}

	s.invalidateOccupied(ctx, bk.ListingID())

	evt := events.BookingCancelledEvent{
		BookingID:   bk.ID(),
		ListingID:   bk.ListingID(),
		CancelledBy: actingUserID,
		OccurredAt:  s.clock.Now().UTC(),
	}
	s.publishEvent(ctx, events.BookingCancelled, evt)
	return nil
}

// GetCustomerBookings retrieves paginated bookings made by the customer
// ("trips"). Bookings whose listing no longer exists are filtered out.
func (s *BookingService) GetCustomerBookings(ctx context.Context, customerID uuid.UUID, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.bookings.FindByCustomer(ctx, customerID, page, limit)
	if err != nil {
		return nil, err
	}

	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = s.toBookingDTO(ctx, bk)
	}

	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// GetHostBookings retrieves paginated reservations on the host's listings,
// ordered by check-in ascending.
func (s *BookingService) GetHostBookings(ctx context.Context, hostID uuid.UUID, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.bookings.FindByHost(ctx, hostID, page, limit)
	if err != nil {
		return nil, err
	}

	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = s.toBookingDTO(ctx, bk)
	}

	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// GetOccupiedWindows returns the occupied date windows of a listing whose
// check-out falls on or after from. A zero from means "today" per the
// service clock. Used by detail views to grey out unavailable dates.
func (s *BookingService) GetOccupiedWindows(ctx context.Context, listingID uuid.UUID, from time.Time) ([]StayWindowDTO, error) {
	// Only the default "from today" view is cached; explicit from dates go
	// straight to storage so invalidation stays a single-key delete.
	useCache := from.IsZero() && s.cache != nil
	if from.IsZero() {
		from = s.clock.Now()
	}
	// check_out is a date column; a raw clock reading past midnight would
	// exclude stays checking out today.
	from = bookingDomain.DateOf(from)

	cacheKey := occupiedCacheKey(listingID)
	if useCache {
		var cached []StayWindowDTO
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	if _, err := s.listings.FindByID(ctx, listingID); err != nil {
		return nil, err
	}

	windows, err := s.bookings.OccupiedWindows(ctx, listingID, from)
	if err != nil {
		return nil, err
	}

	dtos := make([]StayWindowDTO, len(windows))
	for i, w := range windows {
		dtos[i] = StayWindowDTO{
			CheckIn:  w.CheckIn().Format(bookingDomain.DateLayout),
			CheckOut: w.CheckOut().Format(bookingDomain.DateLayout),
		}
	}

	if useCache {
		if err := s.cache.Set(ctx, cacheKey, dtos, occupiedCacheTTL); err != nil {
			s.logger.Warn("failed to cache occupied windows", zap.Error(err))
		}
	}
	return dtos, nil
}

// --- Helpers ---

func (s *BookingService) toBookingDTO(ctx context.Context, bk *bookingDomain.Booking) BookingDTO {
	dto := BookingDTO{
		ID:              bk.ID(),
		ListingID:       bk.ListingID(),
		CustomerID:      bk.CustomerID(),
		HostID:          bk.HostID(),
		CheckIn:         bk.Period().CheckIn().Format(bookingDomain.DateLayout),
		CheckOut:        bk.Period().CheckOut().Format(bookingDomain.DateLayout),
		Nights:          bk.Period().Nights(),
		TotalPriceCents: bk.TotalPriceCents(),
		CreatedAt:       bk.CreatedAt(),
	}

	// Referenced records may have been deleted since; the view simply omits
	// them rather than failing.
	if lst, err := s.listings.FindByID(ctx, bk.ListingID()); err == nil {
		dto.Listing = &ListingSummary{
			ID:                lst.ID(),
			Title:             lst.Title(),
			City:              lst.Location().City,
			Country:           lst.Location().Country,
			NightlyPriceCents: lst.NightlyPriceCents(),
		}
	}
	if u, err := s.users.FindByID(ctx, bk.CustomerID()); err == nil {
		dto.Customer = toUserSummary(u)
	}
	if u, err := s.users.FindByID(ctx, bk.HostID()); err == nil {
		dto.Host = toUserSummary(u)
	}
	return dto
}

func toUserSummary(u *userDomain.User) *UserSummary {
	return &UserSummary{
		ID:               u.ID(),
		FirstName:        u.FirstName(),
		LastName:         u.LastName(),
		Email:            u.Email(),
		ProfileImagePath: u.ProfileImagePath(),
	}
}

func (s *BookingService) publishBookingCreated(ctx context.Context, bk *bookingDomain.Booking) {
	evt := events.BookingCreatedEvent{
		BookingID:  bk.ID(),
		ListingID:  bk.ListingID(),
		CustomerID: bk.CustomerID(),
		HostID:     bk.HostID(),
		CheckIn:    bk.Period().CheckIn().Format(bookingDomain.DateLayout),
		CheckOut:   bk.Period().CheckOut().Format(bookingDomain.DateLayout),
		TotalCents: bk.TotalPriceCents(),
		OccurredAt: s.clock.Now().UTC(),
	}
	s.publishEvent(ctx, events.BookingCreated, evt)
}

func (s *BookingService) publishEvent(ctx context.Context, eventType string, data interface{}) {
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

func (s *BookingService) invalidateOccupied(ctx context.Context, listingID uuid.UUID) {
	if s.cache == nil {
		return
	}
	s.cache.Delete(ctx, occupiedCacheKey(listingID))
}

func occupiedCacheKey(listingID uuid.UUID) string {
	return "occupied:" + listingID.String()
}
