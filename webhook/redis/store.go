package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/marcelsud/webhook-relay/forward"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

/* Redis implementation of forward.Recorder
 * Keeps counters and a short delivery history for the stats endpoint.
 * Payloads and headers are never written.
 */

const (
	KeyOutcomes   = "relay:outcomes"           // Hash: outcome status -> count
	KeyAttempts   = "relay:attempts"           // Hash: attempt kind -> count
	KeyDelivered  = "relay:delivered"          // Sorted set: one member per success, scored by unix time
	KeyHeartbeats = "relay:instance:heartbeat" // String per instance: relay:instance:heartbeat:{instance_id}

	// DeliveredRetention is how long successful deliveries stay in KeyDelivered
	DeliveredRetention = 15 * time.Minute

	writeTimeout = 2 * time.Second
)

type Store struct {
	client *redis.Client
	logger zerolog.Logger
	now    func() time.Time
}

// NewStore connects to Redis and checks the connection
func NewStore(addr, password string, db int, logger zerolog.Logger) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}

	return NewStoreFromClient(client, logger), nil
}

// NewStoreFromClient wraps an existing client
func NewStoreFromClient(client *redis.Client, logger zerolog.Logger) *Store {
	return &Store{
		client: client,
		logger: logger.With().Str("component", "redis").Logger(),
		now:    time.Now,
	}
}

// Client exposes the underlying connection for the metrics collector
func (s *Store) Client() *redis.Client {
	return s.client
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

// RecordAttempt counts one attempt by kind. Errors are logged, never returned to the forwarder.
func (s *Store) RecordAttempt(ctx context.Context, attempt forward.Attempt) {
	ctx, cancel := writeContext(ctx)
	defer cancel()

	if err := s.client.HIncrBy(ctx, KeyAttempts, attempt.Kind.String(), 1).Err(); err != nil {
		s.logger.Warn().Err(err).Str("kind", attempt.Kind.String()).Msg("recording attempt")
	}
}

// RecordOutcome counts one terminal outcome and tracks successes for throughput
func (s *Store) RecordOutcome(ctx context.Context, outcome forward.Outcome) {
	ctx, cancel := writeContext(ctx)
	defer cancel()

	now := s.now()
	pipe := s.client.TxPipeline()
	pipe.HIncrBy(ctx, KeyOutcomes, outcome.Status.String(), 1)
	if outcome.Status == forward.Success {
		pipe.ZAdd(ctx, KeyDelivered, redis.Z{
			Score:  float64(now.Unix()),
			Member: uuid.New().String(),
		})
		pipe.ZRemRangeByScore(ctx, KeyDelivered, "-inf", "("+strconv.FormatInt(now.Add(-DeliveredRetention).Unix(), 10))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Warn().Err(err).Str("status", outcome.Status.String()).Msg("recording outcome")
	}
}

// writeContext detaches telemetry writes from request cancellation but still bounds them
func writeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
}
