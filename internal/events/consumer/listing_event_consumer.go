package consumer

import (
	"context"
	"encoding/json"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/stayhive/service-rental/internal/application"
	"github.com/stayhive/service-rental/internal/events"
	"github.com/stayhive/service-rental/internal/platform/kafka"
)

// ListingEventConsumer listens to listing events and triggers the orphaned
// booking sweep after a listing deletion, covering the crash window between
// a non-transactional booking purge and listing delete.
type ListingEventConsumer struct {
	consumer   *kafka.Consumer
	reconciler *application.Reconciler
	logger     *zap.Logger
}

// NewListingEventConsumer creates a new ListingEventConsumer.
func NewListingEventConsumer(
	brokers []string,
	groupID string,
	reconciler *application.Reconciler,
	logger *zap.Logger,
) *ListingEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, events.TopicRentalEvents, logger)
	return &ListingEventConsumer{
		consumer:   consumer,
		reconciler: reconciler,
		logger:     logger,
	}
}

// Start begins consuming events. This blocks until the context is cancelled.
func (c *ListingEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *ListingEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *ListingEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	var cloudEvent kafka.CloudEvent
	if err := json.Unmarshal(msg.Value, &cloudEvent); err != nil {
		c.logger.Error("failed to parse cloud event",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case events.ListingDeleted:
		return c.handleListingDeleted(ctx, cloudEvent)
	default:
		return nil
	}
}

func (c *ListingEventConsumer) handleListingDeleted(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt events.ListingDeletedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse ListingDeletedEvent data", zap.Error(err))
		return nil // Don't retry malformed data
	}

	removed, err := c.reconciler.Run(ctx)
	if err != nil {
		c.logger.Error("reconciliation after listing deletion failed",
			zap.String("listing_id", evt.ListingID.String()),
			zap.Error(err),
		)
		return err
	}

	if removed > 0 {
		c.logger.Info("orphaned bookings removed after listing deletion",
			zap.String("listing_id", evt.ListingID.String()),
			zap.Int64("removed", removed),
		)
	}
	return nil
}
