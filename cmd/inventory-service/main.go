package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/sistema-granja/granja-backend/internal/inventory/events"
	"github.com/sistema-granja/granja-backend/internal/inventory/repository"
	"github.com/sistema-granja/granja-backend/internal/inventory/service"
	"github.com/sistema-granja/granja-backend/pkg/config"
	"github.com/sistema-granja/granja-backend/pkg/database"
	"github.com/sistema-granja/granja-backend/pkg/logger"
	"github.com/sistema-granja/granja-backend/pkg/messaging"
)

func main() {
	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation("inventory-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("inventory-service", cfg.Server.Environment)
	log.Info().Msg("starting Inventory Service")

	// Connect to database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Connect to RabbitMQ
	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Reconnect when the broker drops the connection. A nil close error
	// means Close was called, so the watchdog just exits.
	go func() {
		for {
			closeErr := <-rmq.Connection().NotifyClose(make(chan *amqp.Error, 1))
			if closeErr == nil {
				return
			}
			log.Warn().Str("reason", closeErr.Error()).Msg("RabbitMQ connection lost")
			if err := rmq.Reconnect(ctx); err != nil {
				log.Error().Err(err).Msg("failed to reconnect to RabbitMQ")
				return
			}
		}
	}()

	log.Info().
		Interface("database", db.Health(ctx)).
		Interface("rabbitmq", rmq.Health()).
		Msg("dependencies ready")

	// Initialize event notifier
	notifier, err := events.NewNotifier(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event notifier")
	}

	// Initialize repositories
	itemRepo := repository.NewItemRepository(db)
	alertRepo := repository.NewAlertRepository(db)

	// Initialize the alert service
	alertService := service.NewAlertService(itemRepo, alertRepo, notifier, log)

	// Start the periodic expiry sweep
	scheduler := service.NewAlertScheduler(alertService, itemRepo, cfg.Scheduler.SweepInterval, log.WithComponent("scheduler"))
	scheduler.Start(ctx)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	scheduler.Stop()
	cancel()
	log.Info().Msg("stopped")
}
