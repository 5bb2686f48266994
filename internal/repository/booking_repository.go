package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/stayhive/service-rental/internal/domain"
	bookingDomain "github.com/stayhive/service-rental/internal/domain/booking"
)

// Postgres error codes mapped to the Conflict taxonomy: an insert that trips
// the overlap exclusion constraint or a unique constraint is a booking
// conflict, not an internal error.
const (
	pgExclusionViolation = "23P01"
	pgUniqueViolation    = "23505"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	ListingID       uuid.UUID `gorm:"type:uuid;index;not null"`
	CustomerID      uuid.UUID `gorm:"type:uuid;index;not null"`
	HostID          uuid.UUID `gorm:"type:uuid;index;not null"`
	CheckIn         time.Time `gorm:"type:date;not null"`
	CheckOut        time.Time `gorm:"type:date;not null"`
	TotalPriceCents int64     `gorm:"not null"`
	CreatedAt       time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// listingExists filters out bookings whose listing no longer resolves, so
// read views never surface dangling references.
const listingExists = "EXISTS (SELECT 1 FROM listings WHERE listings.id = bookings.listing_id)"

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByCustomer retrieves bookings made by a customer, newest first.
func (r *GormBookingRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	db := dbFromContext(ctx, r.db).WithContext(ctx)

	var total int64
	if err := db.Model(&BookingModel{}).
		Where("customer_id = ?", customerID).
		Where(listingExists).
		Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count customer bookings: %w", err)
	}

	var models []BookingModel
	if err := db.
		Where("customer_id = ?", customerID).
		Where(listingExists).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find customer bookings: %w", err)
	}

	return toDomainBookings(models, total)
}

// FindByHost retrieves bookings on a host's listings, check-in ascending.
func (r *GormBookingRepository) FindByHost(ctx context.Context, hostID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	db := dbFromContext(ctx, r.db).WithContext(ctx)

	var total int64
	if err := db.Model(&BookingModel{}).
		Where("host_id = ?", hostID).
		Where(listingExists).
		Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count host bookings: %w", err)
	}

	var models []BookingModel
	if err := db.
		Where("host_id = ?", hostID).
		Where(listingExists).
		Order("check_in ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find host bookings: %w", err)
	}

	return toDomainBookings(models, total)
}

// ExistsOverlapping reports whether a committed booking for the listing
// overlaps the candidate period under the half-open convention: existing
// check_in < candidate check-out AND candidate check-in < existing check_out.
func (r *GormBookingRepository) ExistsOverlapping(ctx context.Context, listingID uuid.UUID, period bookingDomain.StayPeriod) (bool, error) {
	var count int64
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&BookingModel{}).
		Where("listing_id = ? AND check_in < ? AND ? < check_out", listingID, period.CheckOut(), period.CheckIn()).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check overlapping bookings: %w", err)
	}
	return count > 0, nil
}

// OccupiedWindows returns stay periods for the listing ending on or after from.
func (r *GormBookingRepository) OccupiedWindows(ctx context.Context, listingID uuid.UUID, from time.Time) ([]bookingDomain.StayPeriod, error) {
	var models []BookingModel
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Select("check_in", "check_out").
		Where("listing_id = ? AND check_out >= ?", listingID, from).
		Order("check_in ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find occupied windows: %w", err)
	}

	windows := make([]bookingDomain.StayPeriod, len(models))
	for i, m := range models {
		period, err := bookingDomain.NewStayPeriod(m.CheckIn, m.CheckOut)
		if err != nil {
			return nil, fmt.Errorf("stored booking has invalid period: %w", err)
		}
		windows[i] = period
	}
	return windows, nil
}

// Save persists a new booking. Exclusion or unique violations surface as
// ConflictError so a racing insert looks the same to callers as a losing
// overlap check.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)
	if err := dbFromContext(ctx, r.db).WithContext(ctx).Create(model).Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && (pgErr.Code == pgExclusionViolation || pgErr.Code == pgUniqueViolation) {
			return domain.NewConflictError("these dates are already booked")
		}
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

// Delete removes a booking by ID.
func (r *GormBookingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := dbFromContext(ctx, r.db).WithContext(ctx).Where("id = ?", id).Delete(&BookingModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Booking", id.String())
	}
	return nil
}

// DeleteByListing removes every booking for the listing, unconditionally.
func (r *GormBookingRepository) DeleteByListing(ctx context.Context, listingID uuid.UUID) (int64, error) {
	result := dbFromContext(ctx, r.db).WithContext(ctx).Where("listing_id = ?", listingID).Delete(&BookingModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete bookings for listing: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// DeleteOrphaned removes bookings whose listing no longer resolves.
func (r *GormBookingRepository) DeleteOrphaned(ctx context.Context) (int64, error) {
	result := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("NOT " + listingExists).
		Delete(&BookingModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete orphaned bookings: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// --- Conversion helpers ---

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	return &BookingModel{
		ID:              bk.ID(),
		ListingID:       bk.ListingID(),
		CustomerID:      bk.CustomerID(),
		HostID:          bk.HostID(),
		CheckIn:         bk.Period().CheckIn(),
		CheckOut:        bk.Period().CheckOut(),
		TotalPriceCents: bk.TotalPriceCents(),
		CreatedAt:       bk.CreatedAt(),
	}
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	period, err := bookingDomain.NewStayPeriod(m.CheckIn, m.CheckOut)
	if err != nil {
		return nil, fmt.Errorf("stored booking %s has invalid period: %w", m.ID, err)
	}
	return bookingDomain.ReconstructBooking(
		m.ID,
		m.ListingID,
		m.CustomerID,
		m.HostID,
		period,
		m.TotalPriceCents,
		m.CreatedAt,
	), nil
}

func toDomainBookings(models []BookingModel, total int64) ([]*bookingDomain.Booking, int64, error) {
	bookings := make([]*bookingDomain.Booking, len(models))
	for i, m := range models {
		bk, err := toDomainBooking(&m)
		if err != nil {
			return nil, 0, err
		}
		bookings[i] = bk
	}
	return bookings, total, nil
}
