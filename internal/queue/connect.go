package queue

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	maxConnectDelay = 30 * time.Second
)

// ConnectWithRetry dials RabbitMQ up to attempts times with exponential backoff starting
// at initialDelay, which covers broker start-up in compose environments.
func ConnectWithRetry(ctx context.Context, amqpURL string, attempts int, initialDelay time.Duration, logger *zap.Logger) (*RabbitMQQueue, error) {
	return connectWithRetry(ctx, attempts, initialDelay, logger, func() (*RabbitMQQueue, error) {
		return NewRabbitMQQueue(amqpURL, logger)
	})
}

func connectWithRetry[T any](ctx context.Context, attempts int, initialDelay time.Duration, logger *zap.Logger, dial func() (T, error)) (T, error) {
	var zero T
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		q, err := dial()
		if err == nil {
			return q, nil
		}
		lastErr = err
		if attempt == attempts-1 {
			break
		}

		delay := min(initialDelay<<attempt, maxConnectDelay)
		logger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", attempts),
			zap.Error(err),
			zap.Duration("retry_delay", delay),
		)
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}
	return zero, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", attempts, lastErr)
}
