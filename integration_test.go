//go:build integration

package main_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stayhive/service-rental/internal/application"
	"github.com/stayhive/service-rental/internal/domain"
	rentalEvents "github.com/stayhive/service-rental/internal/events"
	rentalConsumer "github.com/stayhive/service-rental/internal/events/consumer"
	"github.com/stayhive/service-rental/internal/platform/kafka"
	"github.com/stayhive/service-rental/internal/repository"
)

// TestCreateBooking_HalfOpenOverlap verifies the half-open interval rules:
// a stay ending on day D and a stay starting on day D share no night, while
// any actual night overlap is rejected.
func TestCreateBooking_HalfOpenOverlap(t *testing.T) {
	db := setupDatabase(t)
	stack := setupStack(t, db, nil, nil)

	hostID := seedUser(t, stack, "host@example.com")
	aliceID := seedUser(t, stack, "alice@example.com")
	bobID := seedUser(t, stack, "bob@example.com")
	listingID := seedListing(t, stack, hostID, 10000)

	// First booking takes nights of Jan 10 and 11.
	first, err := book(t, stack, aliceID, listingID, "2024-01-10", "2024-01-12", 20000)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Nights)

	// Jan 11-13 shares the night of Jan 11.
	_, err = book(t, stack, bobID, listingID, "2024-01-11", "2024-01-13", 20000)
	require.Error(t, err)
	assert.True(t, domain.IsConflict(err), "expected conflict, got %v", err)

	// Same-day turnover: check-in on the first booking's check-out day.
	_, err = book(t, stack, bobID, listingID, "2024-01-12", "2024-01-14", 20000)
	require.NoError(t, err)
}

func TestCreateBooking_Preconditions(t *testing.T) {
	db := setupDatabase(t)
	stack := setupStack(t, db, nil, nil)

	hostID := seedUser(t, stack, "host@example.com")
	customerID := seedUser(t, stack, "customer@example.com")
	listingID := seedListing(t, stack, hostID, 10000)

	t.Run("unknown listing", func(t *testing.T) {
		_, err := book(t, stack, customerID, uuid.New(), "2024-01-10", "2024-01-12", 20000)
		assert.True(t, domain.IsNotFound(err), "expected not found, got %v", err)
	})

	t.Run("host books own listing", func(t *testing.T) {
		_, err := book(t, stack, hostID, listingID, "2024-01-10", "2024-01-12", 20000)
		var forbidden *domain.ForbiddenError
		assert.ErrorAs(t, err, &forbidden)
	})

	t.Run("malformed dates", func(t *testing.T) {
		_, err := book(t, stack, customerID, listingID, "10/01/2024", "2024-01-12", 20000)
		var validation *domain.ValidationError
		assert.ErrorAs(t, err, &validation)
	})

	t.Run("check-out not after check-in", func(t *testing.T) {
		_, err := book(t, stack, customerID, listingID, "2024-01-12", "2024-01-12", 20000)
		var validation *domain.ValidationError
		assert.ErrorAs(t, err, &validation)
	})

	t.Run("stale total price", func(t *testing.T) {
		_, err := book(t, stack, customerID, listingID, "2024-01-10", "2024-01-12", 15000)
		var validation *domain.ValidationError
		assert.ErrorAs(t, err, &validation)
	})
}

func TestDeleteBooking_CustomerOnlyAndIdempotence(t *testing.T) {
	db := setupDatabase(t)
	stack := setupStack(t, db, nil, nil)
	ctx := context.Background()

	hostID := seedUser(t, stack, "host@example.com")
	customerID := seedUser(t, stack, "customer@example.com")
	listingID := seedListing(t, stack, hostID, 10000)

	created, err := book(t, stack, customerID, listingID, "2024-01-10", "2024-01-12", 20000)
	require.NoError(t, err)

	// The host cannot cancel a customer's booking directly.
	err = stack.Bookings.DeleteBooking(ctx, created.ID, hostID)
	var forbidden *domain.ForbiddenError
	require.ErrorAs(t, err, &forbidden)

	require.NoError(t, stack.Bookings.DeleteBooking(ctx, created.ID, customerID))

	// A second delete reports not found rather than succeeding silently.
	err = stack.Bookings.DeleteBooking(ctx, created.ID, customerID)
	assert.True(t, domain.IsNotFound(err), "expected not found, got %v", err)

	// The freed dates are bookable again.
	_, err = book(t, stack, customerID, listingID, "2024-01-10", "2024-01-12", 20000)
	require.NoError(t, err)
}

func TestDeleteListing_CascadeRemovesBookings(t *testing.T) {
	db := setupDatabase(t)
	stack := setupStack(t, db, nil, nil)
	ctx := context.Background()

	hostID := seedUser(t, stack, "host@example.com")
	aliceID := seedUser(t, stack, "alice@example.com")
	bobID := seedUser(t, stack, "bob@example.com")
	listingID := seedListing(t, stack, hostID, 10000)
	otherListingID := seedListing(t, stack, hostID, 10000)

	_, err := book(t, stack, aliceID, listingID, "2024-01-10", "2024-01-12", 20000)
	require.NoError(t, err)
	_, err = book(t, stack, bobID, listingID, "2024-02-01", "2024-02-05", 40000)
	require.NoError(t, err)
	kept, err := book(t, stack, aliceID, otherListingID, "2024-03-01", "2024-03-03", 20000)
	require.NoError(t, err)

	// Only the owner may delete.
	err = stack.Listings.DeleteListing(ctx, listingID, aliceID)
	var forbidden *domain.ForbiddenError
	require.ErrorAs(t, err, &forbidden)

	require.NoError(t, stack.Listings.DeleteListing(ctx, listingID, hostID))

	assert.Equal(t, int64(0), countBookingsForListing(t, db, listingID))
	assert.Equal(t, int64(1), countBookingsForListing(t, db, otherListingID))

	_, err = stack.Listings.GetListing(ctx, listingID)
	assert.True(t, domain.IsNotFound(err))

	// A repeated delete reports not found.
	err = stack.Listings.DeleteListing(ctx, listingID, hostID)
	assert.True(t, domain.IsNotFound(err), "expected not found, got %v", err)

	// The other listing's booking is untouched and still visible.
	trips, err := stack.Bookings.GetCustomerBookings(ctx, aliceID, 1, 20)
	require.NoError(t, err)
	require.Len(t, trips.Items, 1)
	assert.Equal(t, kept.ID, trips.Items[0].ID)
}

// TestViews_ToleranceToOrphans deletes a listing row out from under its
// bookings, simulating a crash mid-cascade, and verifies the read views skip
// the orphans while the reconciler cleans them up.
func TestViews_ToleranceToOrphans(t *testing.T) {
	db := setupDatabase(t)
	stack := setupStack(t, db, nil, nil)
	ctx := context.Background()

	hostID := seedUser(t, stack, "host@example.com")
	customerID := seedUser(t, stack, "customer@example.com")
	listingID := seedListing(t, stack, hostID, 10000)
	goneListingID := seedListing(t, stack, hostID, 10000)

	_, err := book(t, stack, customerID, listingID, "2024-01-10", "2024-01-12", 20000)
	require.NoError(t, err)
	orphan, err := book(t, stack, customerID, goneListingID, "2024-01-10", "2024-01-12", 20000)
	require.NoError(t, err)

	// Remove the listing row directly, leaving the booking dangling.
	require.NoError(t, db.Exec("DELETE FROM listings WHERE id = ?", goneListingID).Error)

	trips, err := stack.Bookings.GetCustomerBookings(ctx, customerID, 1, 20)
	require.NoError(t, err)
	require.Len(t, trips.Items, 1)
	assert.NotEqual(t, orphan.ID, trips.Items[0].ID)

	reservations, err := stack.Bookings.GetHostBookings(ctx, hostID, 1, 20)
	require.NoError(t, err)
	require.Len(t, reservations.Items, 1)

	logger, _ := zap.NewDevelopment()
	reconciler, err := application.NewReconciler(stack.Repo, logger)
	require.NoError(t, err)

	removed, err := reconciler.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	assert.Equal(t, int64(0), countBookingsForListing(t, db, goneListingID))
}

func TestOccupiedWindows_HorizonAndAnonymity(t *testing.T) {
	db := setupDatabase(t)
	stack := setupStack(t, db, nil, nil)
	ctx := context.Background()

	hostID := seedUser(t, stack, "host@example.com")
	customerID := seedUser(t, stack, "customer@example.com")
	listingID := seedListing(t, stack, hostID, 10000)

	_, err := book(t, stack, customerID, listingID, "2024-01-10", "2024-01-12", 20000)
	require.NoError(t, err)
	_, err = book(t, stack, customerID, listingID, "2024-02-01", "2024-02-03", 20000)
	require.NoError(t, err)

	// Clock sits at 2024-01-01, so the default horizon includes both.
	windows, err := stack.Bookings.GetOccupiedWindows(ctx, listingID, time.Time{})
	require.NoError(t, err)
	require.Len(t, windows, 2)
	assert.Equal(t, "2024-01-10", windows[0].CheckIn)
	assert.Equal(t, "2024-02-01", windows[1].CheckIn)

	// An explicit from after the first stay's check-out drops it.
	later := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)
	windows, err = stack.Bookings.GetOccupiedWindows(ctx, listingID, later)
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, "2024-02-01", windows[0].CheckIn)

	// Unknown listing is an error, not an empty calendar.
	_, err = stack.Bookings.GetOccupiedWindows(ctx, uuid.New(), time.Time{})
	assert.True(t, domain.IsNotFound(err))

	// A stay checking out today stays visible after midnight passes: the
	// default horizon is the clock's date, not its time of day.
	stack.Clock.Advance(11*24*time.Hour + 15*time.Hour) // 2024-01-12 15:00
	windows, err = stack.Bookings.GetOccupiedWindows(ctx, listingID, time.Time{})
	require.NoError(t, err)
	require.Len(t, windows, 2)
	assert.Equal(t, "2024-01-10", windows[0].CheckIn)
}

// TestWishlist_PrunesDanglingListings verifies that wishlist reads and
// toggles clean up entries whose listing has since been deleted.
func TestWishlist_PrunesDanglingListings(t *testing.T) {
	db := setupDatabase(t)
	stack := setupStack(t, db, nil, nil)
	ctx := context.Background()

	hostID := seedUser(t, stack, "host@example.com")
	customerID := seedUser(t, stack, "customer@example.com")
	keptID := seedListing(t, stack, hostID, 10000)
	goneID := seedListing(t, stack, hostID, 10000)

	result, err := stack.Wishlist.Toggle(ctx, customerID, keptID)
	require.NoError(t, err)
	assert.True(t, result.Added)
	result, err = stack.Wishlist.Toggle(ctx, customerID, goneID)
	require.NoError(t, err)
	assert.True(t, result.Added)

	// Remove one listing row out from under its wishlist entry.
	require.NoError(t, db.Exec("DELETE FROM listings WHERE id = ?", goneID).Error)

	// The view omits the dangling entry and prunes it from storage.
	listings, err := stack.Wishlist.List(ctx, customerID)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, keptID, listings[0].ID)

	var stored int64
	require.NoError(t, db.Model(&repository.WishlistItemModel{}).
		Where("user_id = ?", customerID).Count(&stored).Error)
	assert.Equal(t, int64(1), stored, "stale entry should be pruned from storage")

	// Toggling a vanished listing removes any stale entry instead of adding.
	result, err = stack.Wishlist.Toggle(ctx, customerID, goneID)
	require.NoError(t, err)
	assert.False(t, result.Added)
	require.NoError(t, db.Model(&repository.WishlistItemModel{}).
		Where("user_id = ?", customerID).Count(&stored).Error)
	assert.Equal(t, int64(1), stored)

	// Toggling the surviving listing off leaves an empty wishlist.
	result, err = stack.Wishlist.Toggle(ctx, customerID, keptID)
	require.NoError(t, err)
	assert.False(t, result.Added)
	listings, err = stack.Wishlist.List(ctx, customerID)
	require.NoError(t, err)
	assert.Empty(t, listings)
}

// TestOccupiedWindowsCache_Invalidation verifies the cached default-horizon
// view never serves stale windows across booking create, delete, and the
// listing cascade.
func TestOccupiedWindowsCache_Invalidation(t *testing.T) {
	db := setupDatabase(t)
	redisCache := setupRedis(t)
	stack := setupStack(t, db, nil, redisCache)
	ctx := context.Background()

	hostID := seedUser(t, stack, "host@example.com")
	customerID := seedUser(t, stack, "customer@example.com")
	listingID := seedListing(t, stack, hostID, 10000)

	first, err := book(t, stack, customerID, listingID, "2024-01-10", "2024-01-12", 20000)
	require.NoError(t, err)

	// Prime the cache with the default-horizon view.
	windows, err := stack.Bookings.GetOccupiedWindows(ctx, listingID, time.Time{})
	require.NoError(t, err)
	require.Len(t, windows, 1)

	// A new booking must invalidate the cached view.
	_, err = book(t, stack, customerID, listingID, "2024-02-01", "2024-02-03", 20000)
	require.NoError(t, err)
	windows, err = stack.Bookings.GetOccupiedWindows(ctx, listingID, time.Time{})
	require.NoError(t, err)
	require.Len(t, windows, 2, "cached view must not survive a new booking")

	// So must a cancellation.
	require.NoError(t, stack.Bookings.DeleteBooking(ctx, first.ID, customerID))
	windows, err = stack.Bookings.GetOccupiedWindows(ctx, listingID, time.Time{})
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, "2024-02-01", windows[0].CheckIn)

	// The cascade delete invalidates too: a stale hit here would serve
	// windows for a listing that no longer exists.
	require.NoError(t, stack.Listings.DeleteListing(ctx, listingID, hostID))
	_, err = stack.Bookings.GetOccupiedWindows(ctx, listingID, time.Time{})
	assert.True(t, domain.IsNotFound(err), "expected not found, got %v", err)
}

// TestConcurrentBooking_OnlyOneWins races two customers for the same dates.
// The listing row lock serializes the attempts; exactly one succeeds.
func TestConcurrentBooking_OnlyOneWins(t *testing.T) {
	db := setupDatabase(t)
	stack := setupStack(t, db, nil, nil)

	hostID := seedUser(t, stack, "host@example.com")
	aliceID := seedUser(t, stack, "alice@example.com")
	bobID := seedUser(t, stack, "bob@example.com")
	listingID := seedListing(t, stack, hostID, 10000)

	customers := []uuid.UUID{aliceID, bobID}
	errs := make([]error, len(customers))

	var start, done sync.WaitGroup
	start.Add(1)
	for i, customerID := range customers {
		done.Add(1)
		go func(i int, customerID uuid.UUID) {
			defer done.Done()
			start.Wait()
			_, errs[i] = book(t, stack, customerID, listingID, "2024-01-10", "2024-01-12", 20000)
		}(i, customerID)
	}
	start.Done()
	done.Wait()

	var successes, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case domain.IsConflict(err):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes, "exactly one booking should win")
	assert.Equal(t, 1, conflicts, "the loser should see a conflict")

	assert.Equal(t, int64(1), countBookingsForListing(t, db, listingID))
}

// TestListingDeleted_TriggersOrphanSweep verifies that a listing.deleted
// event on the rental topic makes the consumer run the orphan sweep.
func TestListingDeleted_TriggersOrphanSweep(t *testing.T) {
	db := setupDatabase(t)
	brokers := setupKafka(t)

	logger, _ := zap.NewDevelopment()
	producer := kafka.NewProducer(brokers, logger)
	defer func() { _ = producer.Close() }()

	stack := setupStack(t, db, producer, nil)

	hostID := seedUser(t, stack, "host@example.com")
	customerID := seedUser(t, stack, "customer@example.com")
	goneListingID := seedListing(t, stack, hostID, 10000)

	_, err := book(t, stack, customerID, goneListingID, "2024-01-10", "2024-01-12", 20000)
	require.NoError(t, err)

	// Orphan the booking behind the application's back.
	require.NoError(t, db.Exec("DELETE FROM listings WHERE id = ?", goneListingID).Error)

	reconciler, err := application.NewReconciler(stack.Repo, logger)
	require.NoError(t, err)

	groupID := "test-rental-" + uuid.New().String()[:8]
	consumer := rentalConsumer.NewListingEventConsumer(brokers, groupID, reconciler, logger)
	defer func() { _ = consumer.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = consumer.Start(ctx) }()
	time.Sleep(3 * time.Second) // Wait for consumer group join.

	evt := rentalEvents.ListingDeletedEvent{
		ListingID:       goneListingID,
		HostID:          hostID,
		BookingsRemoved: 0,
		OccurredAt:      time.Now().UTC(),
	}
	ce, err := kafka.NewCloudEvent("service-rental", rentalEvents.ListingDeleted, evt)
	require.NoError(t, err)
	require.NoError(t, producer.PublishEvent(context.Background(), rentalEvents.TopicRentalEvents, ce))

	require.Eventually(t, func() bool {
		var count int64
		if err := db.Model(&repository.BookingModel{}).Where("listing_id = ?", goneListingID).Count(&count).Error; err != nil {
			return false
		}
		return count == 0
	}, 20*time.Second, 500*time.Millisecond, "orphaned booking was not swept")
}
