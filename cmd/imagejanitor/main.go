// Command imagejanitor removes the stored images of deleted listings. It
// consumes the listing.deleted events published by the API.
package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"car-showroom/internal/config"
	"car-showroom/internal/events"
	"car-showroom/internal/logger"
	"car-showroom/internal/service"
	"car-showroom/internal/storage"

	"go.uber.org/zap"
)

const workers = 4

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Server.Env, logger.WithService("imagejanitor"))
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	if !cfg.Kafka.Enabled() {
		log.Fatal("KAFKA_BROKERS is not set")
	}
	if cfg.Storage.Driver == storage.DriverMemory {
		log.Fatal("The memory storage driver cannot be shared with the API")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	objects, closeObjects, err := storage.Open(ctx, cfg.Storage.Driver, storage.GridFSOptions{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		Bucket:   cfg.Mongo.Bucket,
	})
	if err != nil {
		log.Fatal("Failed to open object store", zap.Error(err))
	}
	defer func() {
		if err := closeObjects(); err != nil {
			log.Error("Failed to close object store", zap.Error(err))
		}
	}()

	consumer := events.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.JanitorGroup, cfg.Kafka.ListingTopic, workers, log)
	handler := service.ListingDeletedHandler(service.NewInlineJanitor(objects, log), log)

	log.Info("Image janitor started",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("topic", cfg.Kafka.ListingTopic),
		zap.String("group", cfg.Kafka.JanitorGroup),
	)

	if err := consumer.Start(ctx, handler); err != nil {
		log.Error("Consumer stopped", zap.Error(err))
		return
	}
	log.Info("Image janitor stopped")
}
