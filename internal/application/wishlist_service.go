package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stayhive/service-rental/internal/domain"
	listingDomain "github.com/stayhive/service-rental/internal/domain/listing"
	userDomain "github.com/stayhive/service-rental/internal/domain/user"
)

// WishlistToggleResult reports the outcome of a wishlist toggle.
type WishlistToggleResult struct {
	ListingID uuid.UUID `json:"listing_id"`
	Added     bool      `json:"added"`
}

// WishlistService manages a user's saved listings.
type WishlistService struct {
	wishlist userDomain.WishlistRepository
	listings listingDomain.ListingRepository
	users    userDomain.UserRepository
	logger   *zap.Logger
}

// NewWishlistService creates a new WishlistService.
func NewWishlistService(
	wishlist userDomain.WishlistRepository,
	listings listingDomain.ListingRepository,
	users userDomain.UserRepository,
	logger *zap.Logger,
) *WishlistService {
	return &WishlistService{
		wishlist: wishlist,
		listings: listings,
		users:    users,
		logger:   logger,
	}
}

// Toggle adds the listing to the user's wishlist, or removes it if already
// present. If the listing no longer exists, any stale wishlist entry for it
// is removed instead.
func (s *WishlistService) Toggle(ctx context.Context, userID, listingID uuid.UUID) (*WishlistToggleResult, error) {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, err
	}

	if _, err := s.listings.FindByID(ctx, listingID); err != nil {
		if domain.IsNotFound(err) {
			if rmErr := s.wishlist.Remove(ctx, userID, listingID); rmErr != nil {
				return nil, fmt.Errorf("failed to prune stale wishlist entry: %w", rmErr)
			}
			return &WishlistToggleResult{ListingID: listingID, Added: false}, nil
		}
		return nil, err
	}

	saved, err := s.wishlist.Contains(ctx, userID, listingID)
	if err != nil {
		return nil, err
	}

	if saved {
		if err := s.wishlist.Remove(ctx, userID, listingID); err != nil {
			return nil, err
		}
		return &WishlistToggleResult{ListingID: listingID, Added: false}, nil
	}

	if err := s.wishlist.Add(ctx, userID, listingID); err != nil {
		return nil, err
	}
	return &WishlistToggleResult{ListingID: listingID, Added: true}, nil
}

// List returns the listings on the user's wishlist. Entries whose listing
// has been deleted are pruned from storage and omitted from the result.
func (s *WishlistService) List(ctx context.Context, userID uuid.UUID) ([]ListingDTO, error) {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, err
	}

	ids, err := s.wishlist.ListingIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	dtos := make([]ListingDTO, 0, len(ids))
	for _, id := range ids {
		lst, err := s.listings.FindByID(ctx, id)
		if err != nil {
			if domain.IsNotFound(err) {
				if rmErr := s.wishlist.Remove(ctx, userID, id); rmErr != nil {
					s.logger.Warn("failed to prune stale wishlist entry",
						zap.String("listing_id", id.String()),
						zap.Error(rmErr),
					)
				}
				continue
			}
			return nil, err
		}
		dtos = append(dtos, ListingDTO{
			ID:                lst.ID(),
			HostID:            lst.HostID(),
			Title:             lst.Title(),
			Category:          lst.Category(),
			Location:          lst.Location(),
			NightlyPriceCents: lst.NightlyPriceCents(),
			PhotoPaths:        lst.PhotoPaths(),
			CreatedAt:         lst.CreatedAt(),
		})
	}
	return dtos, nil
}
