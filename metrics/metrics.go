package metrics

import (
	"context"
	"time"
)

// Metrics represents the relay's telemetry as recorded in Redis.
type Metrics struct {
	// Outcomes maps outcome status (skipped, success, failure) to count
	Outcomes map[string]int64 `json:"outcomes"`

	// Attempts maps attempt kind (ok, timeout, network_error, http_error) to count
	Attempts map[string]int64 `json:"attempts"`

	// Throughput represents successful forwards per time window
	Throughput ThroughputMetrics `json:"throughput"`

	// Instances lists relay processes with a live heartbeat
	Instances []InstanceInfo `json:"instances"`

	// Timestamp when metrics were collected
	Timestamp time.Time `json:"timestamp"`
}

// ThroughputMetrics represents payloads delivered over different time windows.
type ThroughputMetrics struct {
	// LastMinute is payloads delivered in the last 1 minute
	LastMinute int64 `json:"last_minute"`

	// LastFiveMinutes is payloads delivered in the last 5 minutes
	LastFiveMinutes int64 `json:"last_five_minutes"`

	// LastFifteenMinutes is payloads delivered in the last 15 minutes
	LastFifteenMinutes int64 `json:"last_fifteen_minutes"`
}

// InstanceInfo represents information about a running relay.
type InstanceInfo struct {
	InstanceID    string    `json:"instance_id"`
	Destination   string    `json:"destination"`
	Status        string    `json:"status"`
	LastHeartbeat time.Time `json:"last_heartbeat"`
}

// Collector defines the interface for reading relay telemetry.
type Collector interface {
	// Collect gathers current metrics from the system
	Collect(ctx context.Context) (Metrics, error)

	// GetOutcomeCounts returns the count of forwards by terminal status
	GetOutcomeCounts(ctx context.Context) (map[string]int64, error)

	// GetAttemptCounts returns the count of attempts by kind
	GetAttemptCounts(ctx context.Context) (map[string]int64, error)

	// GetThroughput returns payloads delivered over time windows
	GetThroughput(ctx context.Context) (ThroughputMetrics, error)

	// GetActiveInstances returns the relays with a live heartbeat
	GetActiveInstances(ctx context.Context) ([]InstanceInfo, error)
}
