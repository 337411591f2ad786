package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"streamer/internal/broker"
	"streamer/internal/config"
	"streamer/internal/logger"
)

// Base holds what every streamer command needs: config, logger and the
// bus clients it opened.
type Base struct {
	Config     *config.Config
	Logger     logger.Logger
	Subscriber broker.Subscriber
	Publisher  broker.Publisher
}

func NewBase(cfg *config.Config, log logger.Logger) *Base {
	return &Base{
		Config: cfg,
		Logger: log,
	}
}

// InitSubscriber opens the bus subscriber. redisClient is only used by the
// redis broker.
func (b *Base) InitSubscriber(redisClient *redis.Client) error {
	subscriber, err := broker.NewSubscriber(b.Config.Broker, redisClient, b.Logger)
	if err != nil {
		return fmt.Errorf("failed to create subscriber: %w", err)
	}
	b.Subscriber = subscriber
	return nil
}

func (b *Base) InitPublisher(redisClient *redis.Client) error {
	publisher, err := broker.NewPublisher(b.Config.Broker, redisClient, b.Logger)
	if err != nil {
		return fmt.Errorf("failed to create publisher: %w", err)
	}
	b.Publisher = publisher
	return nil
}

func (b *Base) ShutdownBroker() []error {
	var errs []error

	if b.Subscriber != nil {
		if err := b.Subscriber.Close(); err != nil {
			errs = append(errs, fmt.Errorf("subscriber close error: %w", err))
		}
	}

	if b.Publisher != nil {
		if err := b.Publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher close error: %w", err))
		}
	}

	return errs
}

func (b *Base) Shutdown(ctx context.Context, additionalShutdown func(ctx context.Context) []error) error {
	b.Logger.Info("Shutting down streamer...")

	var errs []error

	errs = append(errs, b.ShutdownBroker()...)

	if additionalShutdown != nil {
		errs = append(errs, additionalShutdown(ctx)...)
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}

	b.Logger.Info("Streamer exited successfully")
	return nil
}
