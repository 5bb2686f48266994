package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stayhive/service-rental/internal/domain"
	listingDomain "github.com/stayhive/service-rental/internal/domain/listing"
)

// ListingModel is the GORM model for the listings table.
type ListingModel struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey"`
	HostID            uuid.UUID      `gorm:"type:uuid;index;not null"`
	Title             string         `gorm:"not null;size:200"`
	Description       string         `gorm:"size:5000"`
	Category          string         `gorm:"size:100;index"`
	StreetAddress     string         `gorm:"size:300"`
	City              string         `gorm:"not null;size:100"`
	Province          string         `gorm:"size:100"`
	Country           string         `gorm:"not null;size:100"`
	NightlyPriceCents int64          `gorm:"not null"`
	PhotoPaths        datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt         time.Time      `gorm:"not null"`
	UpdatedAt         time.Time      `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (ListingModel) TableName() string {
	return "listings"
}

// GormListingRepository is the GORM-based implementation of ListingRepository.
type GormListingRepository struct {
	db *gorm.DB
}

// NewGormListingRepository creates a new GormListingRepository.
func NewGormListingRepository(db *gorm.DB) *GormListingRepository {
	return &GormListingRepository{db: db}
}

// FindByID retrieves a listing by its unique identifier.
func (r *GormListingRepository) FindByID(ctx context.Context, id uuid.UUID) (*listingDomain.Listing, error) {
	var model ListingModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Listing", id.String())
		}
		return nil, fmt.Errorf("failed to find listing by ID: %w", err)
	}
	return toDomainListing(&model)
}

// FindByIDForUpdate retrieves a listing under a row-level lock. The lock is
// held until the surrounding transaction commits.
func (r *GormListingRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*listingDomain.Listing, error) {
	var model ListingModel
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Listing", id.String())
		}
		return nil, fmt.Errorf("failed to lock listing: %w", err)
	}
	return toDomainListing(&model)
}

// List retrieves listings matching the filter with pagination, newest first.
func (r *GormListingRepository) List(ctx context.Context, filter listingDomain.ListingFilter, page, limit int) ([]*listingDomain.Listing, int64, error) {
	db := dbFromContext(ctx, r.db).WithContext(ctx)

	apply := func(q *gorm.DB) *gorm.DB {
		if filter.Category != "" {
			q = q.Where("category = ?", filter.Category)
		}
		if filter.Search != "" {
			pattern := "%" + filter.Search + "%"
			q = q.Where("title ILIKE ? OR city ILIKE ? OR country ILIKE ?", pattern, pattern, pattern)
		}
		if filter.HostID != uuid.Nil {
			q = q.Where("host_id = ?", filter.HostID)
		}
		return q
	}

	var total int64
	if err := apply(db.Model(&ListingModel{})).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count listings: %w", err)
	}

	var models []ListingModel
	if err := apply(db.Model(&ListingModel{})).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list listings: %w", err)
	}

	listings := make([]*listingDomain.Listing, len(models))
	for i, m := range models {
		lst, err := toDomainListing(&m)
		if err != nil {
			return nil, 0, err
		}
		listings[i] = lst
	}
	return listings, total, nil
}

// Save persists a new listing.
func (r *GormListingRepository) Save(ctx context.Context, l *listingDomain.Listing) error {
	model, err := toListingModel(l)
	if err != nil {
		return fmt.Errorf("failed to convert listing to model: %w", err)
	}
	if err := dbFromContext(ctx, r.db).WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save listing: %w", err)
	}
	return nil
}

// Delete removes a listing by ID.
func (r *GormListingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := dbFromContext(ctx, r.db).WithContext(ctx).Where("id = ?", id).Delete(&ListingModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete listing: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Listing", id.String())
	}
	return nil
}

// --- Conversion helpers ---

func toListingModel(l *listingDomain.Listing) (*ListingModel, error) {
	photos, err := json.Marshal(l.PhotoPaths())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal photo paths: %w", err)
	}

	loc := l.Location()
	return &ListingModel{
		ID:                l.ID(),
		HostID:            l.HostID(),
		Title:             l.Title(),
		Description:       l.Description(),
		Category:          l.Category(),
		StreetAddress:     loc.StreetAddress,
		City:              loc.City,
		Province:          loc.Province,
		Country:           loc.Country,
		NightlyPriceCents: l.NightlyPriceCents(),
		PhotoPaths:        datatypes.JSON(photos),
		CreatedAt:         l.CreatedAt(),
		UpdatedAt:         l.UpdatedAt(),
	}, nil
}

func toDomainListing(m *ListingModel) (*listingDomain.Listing, error) {
	var photos []string
	if len(m.PhotoPaths) > 0 {
		if err := json.Unmarshal(m.PhotoPaths, &photos); err != nil {
			return nil, fmt.Errorf("failed to unmarshal photo paths: %w", err)
		}
	}

	return listingDomain.ReconstructListing(
		m.ID,
		m.HostID,
		m.Title,
		m.Description,
		m.Category,
		listingDomain.Location{
			StreetAddress: m.StreetAddress,
			City:          m.City,
			Province:      m.Province,
			Country:       m.Country,
		},
		m.NightlyPriceCents,
		photos,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}
