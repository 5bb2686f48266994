//go:build integration

package main_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/stayhive/service-rental/internal/application"
	bookingDomain "github.com/stayhive/service-rental/internal/domain/booking"
	listingDomain "github.com/stayhive/service-rental/internal/domain/listing"
	userDomain "github.com/stayhive/service-rental/internal/domain/user"
	"github.com/stayhive/service-rental/internal/platform/cache"
	"github.com/stayhive/service-rental/internal/platform/kafka"
	"github.com/stayhive/service-rental/internal/repository"
)

// testClockStart pins the service clock so date-relative queries are stable.
var testClockStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// rentalStack holds wired-up services over a shared database.
type rentalStack struct {
	DB       *gorm.DB
	Bookings *application.BookingService
	Listings *application.ListingService
	Wishlist *application.WishlistService
	Users    *repository.GormUserRepository
	Repo     *repository.GormBookingRepository
	Clock    *clockwork.FakeClock
}

// setupDatabase starts a PostgreSQL container, connects GORM and applies the
// schema including the booking exclusion constraint.
func setupDatabase(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test_rental",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	})

	pgHost, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	pgPort, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("host=%s port=%s user=test password=test dbname=test_rental sslmode=disable", pgHost, pgPort.Port())

	var db *gorm.DB
	require.Eventually(t, func() bool {
		var err error
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			return false
		}
		sqlDB, err := db.DB()
		if err != nil {
			return false
		}
		return sqlDB.Ping() == nil
	}, 30*time.Second, 1*time.Second, "PostgreSQL not ready for connections")

	require.NoError(t, db.AutoMigrate(
		&repository.UserModel{},
		&repository.ListingModel{},
		&repository.BookingModel{},
		&repository.WishlistItemModel{},
	))

	// AutoMigrate does not create the exclusion constraint; add it the way
	// the SQL migrations do.
	require.NoError(t, db.Exec(`CREATE EXTENSION IF NOT EXISTS btree_gist`).Error)
	require.NoError(t, db.Exec(`
		ALTER TABLE bookings ADD CONSTRAINT excl_bookings_no_overlap EXCLUDE USING gist (
			listing_id WITH =,
			daterange(check_in, check_out) WITH &&
		)`).Error)

	return db
}

// setupKafka starts a Kafka container and returns its broker addresses.
func setupKafka(t *testing.T) []string {
	t.Helper()
	ctx := context.Background()

	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")
	t.Cleanup(func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Kafka container: %v", err)
		}
	})

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")
	return brokers
}

// setupStack wires the full service stack over db. The producer and cache
// are optional; pass nil when the test does not assert on events or caching.
func setupStack(t *testing.T, db *gorm.DB, producer *kafka.Producer, c *cache.Cache) *rentalStack {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	bookingRepo := repository.NewGormBookingRepository(db)
	listingRepo := repository.NewGormListingRepository(db)
	userRepo := repository.NewGormUserRepository(db)
	wishlistRepo := repository.NewGormWishlistRepository(db)
	transactor := repository.NewGormTransactor(db)
	pricing := bookingDomain.NewNightlyPriceCalculator()
	clock := clockwork.NewFakeClockAt(testClockStart)

	bookingSvc := application.NewBookingService(
		bookingRepo, listingRepo, userRepo, transactor, pricing, producer, c, clock, logger,
	)
	listingSvc := application.NewListingService(
		listingRepo, bookingRepo, userRepo, transactor, producer, c, clock, logger,
	)
	wishlistSvc := application.NewWishlistService(wishlistRepo, listingRepo, userRepo, logger)

	return &rentalStack{
		DB:       db,
		Bookings: bookingSvc,
		Listings: listingSvc,
		Wishlist: wishlistSvc,
		Users:    userRepo,
		Repo:     bookingRepo,
		Clock:    clock,
	}
}

// setupRedis starts a Redis container and returns a connected cache.
func setupRedis(t *testing.T) *cache.Cache {
	t.Helper()
	ctx := context.Background()
	logger, _ := zap.NewDevelopment()

	redisReq := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor: wait.ForLog("Ready to accept connections").
			WithStartupTimeout(30 * time.Second),
	}
	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: redisReq,
		Started:          true,
	})
	require.NoError(t, err, "failed to start Redis container")
	t.Cleanup(func() {
		if err := redisContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Redis container: %v", err)
		}
	})

	redisHost, err := redisContainer.Host(ctx)
	require.NoError(t, err)
	redisPort, err := redisContainer.MappedPort(ctx, "6379")
	require.NoError(t, err)

	c, err := cache.New(fmt.Sprintf("%s:%s", redisHost, redisPort.Port()), "", 0, logger)
	require.NoError(t, err, "failed to connect to Redis")
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// seedUser inserts a user and returns its ID.
func seedUser(t *testing.T, stack *rentalStack, email string) uuid.UUID {
	t.Helper()
	u, err := userDomain.NewUser("Test", "User", email, "$2a$10$integrationtesthash", "", testClockStart)
	require.NoError(t, err)
	require.NoError(t, stack.Users.Save(context.Background(), u))
	return u.ID()
}

// seedListing inserts a listing owned by hostID and returns its ID.
func seedListing(t *testing.T, stack *rentalStack, hostID uuid.UUID, nightlyCents int64) uuid.UUID {
	t.Helper()
	lst, err := listingDomain.NewListing(
		hostID,
		"Harbour loft",
		"Integration test property",
		"apartment",
		listingDomain.Location{City: "Cape Town", Country: "South Africa"},
		nightlyCents,
		nil,
		testClockStart,
	)
	require.NoError(t, err)
	listingRepo := repository.NewGormListingRepository(stack.DB)
	require.NoError(t, listingRepo.Save(context.Background(), lst))
	return lst.ID()
}

// book creates a booking through the service with the quoted price for the
// given nightly rate.
func book(t *testing.T, stack *rentalStack, customerID, listingID uuid.UUID, checkIn, checkOut string, totalCents int64) (*application.BookingDTO, error) {
	t.Helper()
	return stack.Bookings.CreateBooking(context.Background(), customerID, application.CreateBookingRequest{
		ListingID:       listingID,
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		TotalPriceCents: totalCents,
	})
}

// countBookingsForListing counts booking rows for the listing, orphans included.
func countBookingsForListing(t *testing.T, db *gorm.DB, listingID uuid.UUID) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&repository.BookingModel{}).Where("listing_id = ?", listingID).Count(&count).Error)
	return count
}
