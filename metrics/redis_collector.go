package metrics

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/marcelsud/webhook-relay/forward"
	relayredis "github.com/marcelsud/webhook-relay/webhook/redis"
	"github.com/redis/go-redis/v9"
)

// RedisCollector implements the Collector interface over the keys written by webhook/redis.Store
type RedisCollector struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisCollector creates a new Redis metrics collector
func NewRedisCollector(client *redis.Client) *RedisCollector {
	return &RedisCollector{
		client: client,
		now:    time.Now,
	}
}

// Collect gathers all metrics from Redis
func (c *RedisCollector) Collect(ctx context.Context) (Metrics, error) {
	outcomes, err := c.GetOutcomeCounts(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting outcome counts: %w", err)
	}

	attempts, err := c.GetAttemptCounts(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting attempt counts: %w", err)
	}

	throughput, err := c.GetThroughput(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting throughput: %w", err)
	}

	instances, err := c.GetActiveInstances(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting active instances: %w", err)
	}

	return Metrics{
		Outcomes:   outcomes,
		Attempts:   attempts,
		Throughput: throughput,
		Instances:  instances,
		Timestamp:  c.now(),
	}, nil
}

// GetOutcomeCounts returns counts of forwards grouped by terminal status
func (c *RedisCollector) GetOutcomeCounts(ctx context.Context) (map[string]int64, error) {
	data, err := c.client.HGetAll(ctx, relayredis.KeyOutcomes).Result()
	if err != nil {
		return nil, fmt.Errorf("reading outcome counters: %w", err)
	}
	return parseCounts(data, forward.Skipped.String(), forward.Success.String(), forward.Failure.String()), nil
}

// GetAttemptCounts returns counts of attempts grouped by kind
func (c *RedisCollector) GetAttemptCounts(ctx context.Context) (map[string]int64, error) {
	data, err := c.client.HGetAll(ctx, relayredis.KeyAttempts).Result()
	if err != nil {
		return nil, fmt.Errorf("reading attempt counters: %w", err)
	}
	return parseCounts(data,
		forward.Ok.String(), forward.Timeout.String(), forward.NetworkError.String(), forward.HTTPError.String()), nil
}

// GetThroughput counts successful forwards over different time windows
func (c *RedisCollector) GetThroughput(ctx context.Context) (ThroughputMetrics, error) {
	now := c.now()

	windows := []time.Duration{time.Minute, 5 * time.Minute, 15 * time.Minute}
	counts := make([]int64, len(windows))
	for i, window := range windows {
		from := strconv.FormatInt(now.Add(-window).Unix(), 10)
		n, err := c.client.ZCount(ctx, relayredis.KeyDelivered, from, "+inf").Result()
		if err != nil {
			return ThroughputMetrics{}, fmt.Errorf("counting deliveries in %s: %w", window, err)
		}
		counts[i] = n
	}

	return ThroughputMetrics{
		LastMinute:         counts[0],
		LastFiveMinutes:    counts[1],
		LastFifteenMinutes: counts[2],
	}, nil
}

// GetActiveInstances returns the relays with a live heartbeat
func (c *RedisCollector) GetActiveInstances(ctx context.Context) ([]InstanceInfo, error) {
	heartbeats, err := relayredis.ActiveInstances(ctx, c.client)
	if err != nil {
		return nil, err
	}

	instances := make([]InstanceInfo, 0, len(heartbeats))
	for _, hb := range heartbeats {
		instances = append(instances, InstanceInfo{
			InstanceID:    hb.InstanceID,
			Destination:   hb.Destination,
			Status:        hb.Status,
			LastHeartbeat: hb.LastHeartbeat,
		})
	}
	return instances, nil
}

// parseCounts turns a counter hash into a map that always has the known fields
func parseCounts(data map[string]string, known ...string) map[string]int64 {
	counts := make(map[string]int64, len(known))
	for _, field := range known {
		counts[field] = 0
	}
	for field, raw := range data {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		counts[field] = n
	}
	return counts
}
