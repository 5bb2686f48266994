package application

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	bookingDomain "github.com/stayhive/service-rental/internal/domain/booking"
)

// Reconciler removes orphaned bookings: bookings whose listing no longer
// resolves. Cascade deletion is transactional in the normal path, so orphans
// only appear if a crash interrupts a non-transactional store or an external
// writer bypasses the service.
type Reconciler struct {
	bookings  bookingDomain.BookingRepository
	scheduler gocron.Scheduler
	logger    *zap.Logger
}

// NewReconciler creates a Reconciler.
func NewReconciler(bookings bookingDomain.BookingRepository, logger *zap.Logger) (*Reconciler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &Reconciler{
		bookings:  bookings,
		scheduler: scheduler,
		logger:    logger,
	}, nil
}

// Run performs one sweep and returns the number of orphaned bookings removed.
func (r *Reconciler) Run(ctx context.Context) (int64, error) {
	removed, err := r.bookings.DeleteOrphaned(ctx)
	if err != nil {
		return 0, fmt.Errorf("reconciliation sweep failed: %w", err)
	}
	if removed > 0 {
		r.logger.Warn("reconciliation removed orphaned bookings", zap.Int64("count", removed))
	}
	return removed, nil
}

// Start schedules the sweep at the given interval until Stop is called.
func (r *Reconciler) Start(interval time.Duration) error {
	_, err := r.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func(ctx context.Context) {
			if _, err := r.Run(ctx); err != nil {
				r.logger.Error("scheduled reconciliation failed", zap.Error(err))
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule reconciliation: %w", err)
	}

	r.scheduler.Start()
	return nil
}

// Stop shuts the scheduler down.
func (r *Reconciler) Stop() error {
	return r.scheduler.Shutdown()
}
