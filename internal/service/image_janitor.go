package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"car-showroom/internal/events"
	"car-showroom/internal/storage"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ImageJanitor removes the objects of a deleted listing. It returns the keys
// that are known to be left behind.
type ImageJanitor interface {
	Cleanup(ctx context.Context, listingID string, keys []string) (orphaned []string, err error)
}

// InlineJanitor deletes objects directly from the object store.
type InlineJanitor struct {
	store  storage.ObjectStore
	logger *zap.Logger
}

func NewInlineJanitor(store storage.ObjectStore, logger *zap.Logger) *InlineJanitor {
	return &InlineJanitor{store: store, logger: logger}
}

// Cleanup deletes every key. Keys already gone count as removed.
func (j *InlineJanitor) Cleanup(ctx context.Context, listingID string, keys []string) ([]string, error) {
	var orphaned []string
	for _, key := range keys {
		err := j.store.Delete(ctx, key)
		if err == nil || errors.Is(err, storage.ErrObjectNotFound) {
			continue
		}
		j.logger.Error("Failed to delete listing image",
			zap.Error(err),
			zap.String("listing_id", listingID),
			zap.String("key", key),
		)
		orphaned = append(orphaned, key)
	}
	return orphaned, nil
}

// EnvelopePublisher queues an event envelope.
type EnvelopePublisher interface {
	PublishEnvelope(ctx context.Context, key []byte, env events.Envelope) error
}

// EventJanitor hands cleanup to the image janitor worker through a
// listing.deleted event.
type EventJanitor struct {
	publisher EnvelopePublisher
	producer  string
}

func NewEventJanitor(publisher EnvelopePublisher, producer string) *EventJanitor {
	return &EventJanitor{publisher: publisher, producer: producer}
}

// Cleanup publishes the event. When it cannot be queued every key is
// reported as orphaned.
func (j *EventJanitor) Cleanup(ctx context.Context, listingID string, keys []string) ([]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	env, err := events.NewEnvelope(events.EventListingDeleted, j.producer, events.ListingDeletedPayload{
		ListingID: listingID,
		Images:    keys,
	})
	if err != nil {
		return keys, err
	}

	if err := j.publisher.PublishEnvelope(ctx, events.PartitionKey(listingID), env); err != nil {
		return keys, fmt.Errorf("failed to publish listing deleted event: %w", err)
	}
	return nil, nil
}

// ListingDeletedHandler consumes listing.deleted events and removes the
// listed objects. Malformed messages are logged and skipped.
func ListingDeletedHandler(janitor *InlineJanitor, logger *zap.Logger) events.Handler {
	return func(ctx context.Context, m kafka.Message) error {
		var env events.Envelope
		if err := json.Unmarshal(m.Value, &env); err != nil {
			logger.Warn("Skipping malformed event", zap.Error(err), zap.Int64("offset", m.Offset))
			return nil
		}
		if env.EventType != events.EventListingDeleted {
			return nil
		}

		payload, err := events.UnwrapPayload[events.ListingDeletedPayload](env.Payload)
		if err != nil {
			logger.Warn("Skipping malformed payload", zap.Error(err), zap.String("event_id", env.EventID))
			return nil
		}

		orphaned, err := janitor.Cleanup(ctx, payload.ListingID, payload.Images)
		if err != nil {
			return err
		}
		if len(orphaned) > 0 {
			return fmt.Errorf("listing %s left %d orphaned images", payload.ListingID, len(orphaned))
		}

		logger.Info("Removed listing images",
			zap.String("listing_id", payload.ListingID),
			zap.Int("count", len(payload.Images)),
		)
		return nil
	}
}
