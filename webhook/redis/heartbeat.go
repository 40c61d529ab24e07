package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// HeartbeatTTL is how long an instance stays listed without a new heartbeat
	HeartbeatTTL = 60 * time.Second

	// HeartbeatInterval is how often RunHeartbeat refreshes the key
	HeartbeatInterval = 30 * time.Second
)

// InstanceHeartbeat represents the heartbeat data for a relay process
type InstanceHeartbeat struct {
	InstanceID    string    `json:"instance_id"`
	Destination   string    `json:"destination"` // host of the SOAR endpoint, empty when forwarding is off
	Status        string    `json:"status"`      // "running"
	LastHeartbeat time.Time `json:"last_heartbeat"`
}

func heartbeatKey(instanceID string) string {
	return fmt.Sprintf("%s:%s", KeyHeartbeats, instanceID)
}

// SetInstanceHeartbeat stores or updates an instance's heartbeat in Redis
// The key expires after HeartbeatTTL, so a crashed instance drops out on its own
func (s *Store) SetInstanceHeartbeat(ctx context.Context, hb InstanceHeartbeat) error {
	hb.LastHeartbeat = s.now()

	data, err := json.Marshal(hb)
	if err != nil {
		return fmt.Errorf("marshaling heartbeat: %w", err)
	}

	err = s.client.Set(ctx, heartbeatKey(hb.InstanceID), data, HeartbeatTTL).Err()
	if err != nil {
		return fmt.Errorf("setting heartbeat: %w", err)
	}

	return nil
}

// RemoveInstanceHeartbeat deletes the instance's key on clean shutdown
func (s *Store) RemoveInstanceHeartbeat(ctx context.Context, instanceID string) error {
	if err := s.client.Del(ctx, heartbeatKey(instanceID)).Err(); err != nil {
		return fmt.Errorf("removing heartbeat: %w", err)
	}
	return nil
}

// GetActiveInstances retrieves every instance with a live heartbeat
func (s *Store) GetActiveInstances(ctx context.Context) ([]InstanceHeartbeat, error) {
	return ActiveInstances(ctx, s.client)
}

// ActiveInstances scans the heartbeat keys with the given client
func ActiveInstances(ctx context.Context, client *redis.Client) ([]InstanceHeartbeat, error) {
	pattern := KeyHeartbeats + ":*"
	var instances []InstanceHeartbeat

	var cursor uint64
	for {
		keys, nextCursor, err := client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("scanning heartbeat keys: %w", err)
		}

		for _, key := range keys {
			data, err := client.Get(ctx, key).Result()
			if err == redis.Nil {
				// Key expired between scan and get
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("getting instance heartbeat: %w", err)
			}

			var hb InstanceHeartbeat
			if err := json.Unmarshal([]byte(data), &hb); err != nil {
				continue
			}

			instances = append(instances, hb)
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return instances, nil
}

// RunHeartbeat refreshes the heartbeat every interval until ctx is done, then removes it
func (s *Store) RunHeartbeat(ctx context.Context, hb InstanceHeartbeat, interval time.Duration) {
	hb.Status = "running"
	if err := s.SetInstanceHeartbeat(ctx, hb); err != nil {
		s.logger.Warn().Err(err).Str("instance_id", hb.InstanceID).Msg("heartbeat failed")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			cleanup, cancel := writeContext(ctx)
			defer cancel()
			if err := s.RemoveInstanceHeartbeat(cleanup, hb.InstanceID); err != nil {
				s.logger.Warn().Err(err).Str("instance_id", hb.InstanceID).Msg("removing heartbeat")
			}
			return
		case <-ticker.C:
			if err := s.SetInstanceHeartbeat(ctx, hb); err != nil {
				s.logger.Warn().Err(err).Str("instance_id", hb.InstanceID).Msg("heartbeat failed")
			}
		}
	}
}
