package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stayhive/service-rental/internal/domain"
	userDomain "github.com/stayhive/service-rental/internal/domain/user"
)

// UserModel is the GORM model for the users table.
type UserModel struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	FirstName        string    `gorm:"not null;size:100"`
	LastName         string    `gorm:"not null;size:100"`
	Email            string    `gorm:"uniqueIndex;not null;size:255"`
	PasswordHash     string    `gorm:"not null;size:255"`
	ProfileImagePath string    `gorm:"size:500"`
	CreatedAt        time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (UserModel) TableName() string {
	return "users"
}

// WishlistItemModel is the GORM model for the wishlist_items table. A user
// can hold a listing at most once.
type WishlistItemModel struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	ListingID uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (WishlistItemModel) TableName() string {
	return "wishlist_items"
}

// GormUserRepository is the GORM-based implementation of UserRepository.
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository.
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// FindByID retrieves a user by its unique identifier.
func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*userDomain.User, error) {
	var model UserModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("User", id.String())
		}
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return toDomainUser(&model), nil
}

// FindByEmail retrieves a user by email address.
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*userDomain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var model UserModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).Where("email = ?", email).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("User", email)
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return toDomainUser(&model), nil
}

// Save persists a new user. A duplicate email surfaces as a ConflictError.
func (r *GormUserRepository) Save(ctx context.Context, u *userDomain.User) error {
	model := toUserModel(u)
	if err := dbFromContext(ctx, r.db).WithContext(ctx).Create(model).Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return domain.NewConflictError("email is already registered")
		}
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// GormWishlistRepository is the GORM-based implementation of WishlistRepository.
type GormWishlistRepository struct {
	db *gorm.DB
}

// NewGormWishlistRepository creates a new GormWishlistRepository.
func NewGormWishlistRepository(db *gorm.DB) *GormWishlistRepository {
	return &GormWishlistRepository{db: db}
}

// ListingIDs returns the wishlisted listing IDs, most recently added first.
func (r *GormWishlistRepository) ListingIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&WishlistItemModel{}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Pluck("listing_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list wishlist: %w", err)
	}
	return ids, nil
}

// Contains reports whether the listing is on the user's wishlist.
func (r *GormWishlistRepository) Contains(ctx context.Context, userID, listingID uuid.UUID) (bool, error) {
	var count int64
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&WishlistItemModel{}).
		Where("user_id = ? AND listing_id = ?", userID, listingID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check wishlist: %w", err)
	}
	return count > 0, nil
}

// Add puts the listing on the user's wishlist. Adding twice is a no-op.
func (r *GormWishlistRepository) Add(ctx context.Context, userID, listingID uuid.UUID) error {
	item := WishlistItemModel{
		UserID:    userID,
		ListingID: listingID,
		CreatedAt: time.Now().UTC(),
	}
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&item).Error
	if err != nil {
		return fmt.Errorf("failed to add wishlist item: %w", err)
	}
	return nil
}

// Remove takes the listing off the user's wishlist.
func (r *GormWishlistRepository) Remove(ctx context.Context, userID, listingID uuid.UUID) error {
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("user_id = ? AND listing_id = ?", userID, listingID).
		Delete(&WishlistItemModel{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove wishlist item: %w", err)
	}
	return nil
}

// --- Conversion helpers ---

func toUserModel(u *userDomain.User) *UserModel {
	return &UserModel{
		ID:               u.ID(),
		FirstName:        u.FirstName(),
		LastName:         u.LastName(),
		Email:            u.Email(),
		PasswordHash:     u.PasswordHash(),
		ProfileImagePath: u.ProfileImagePath(),
		CreatedAt:        u.CreatedAt(),
	}
}

func toDomainUser(m *UserModel) *userDomain.User {
	return userDomain.ReconstructUser(
		m.ID,
		m.FirstName,
		m.LastName,
		m.Email,
		m.PasswordHash,
		m.ProfileImagePath,
		m.CreatedAt,
	)
}
