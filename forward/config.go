package forward

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultTimeout     = 5 * time.Second
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 300 * time.Millisecond

	// maxBackoffShift keeps BaseDelay * 2^(attempt-1) from overflowing
	maxBackoffShift = 30
)

/* AuthScheme selects how the destination token is presented
 * FortiSOAR style triggers expect "Authorization: API-KEY <token>"
 */
type AuthScheme int

const (
	APIKey AuthScheme = iota + 1
	Bearer
	Both
)

// String returns the string representation of the auth scheme
func (a AuthScheme) String() string {
	switch a {
	case APIKey:
		return "api-key"
	case Bearer:
		return "bearer"
	case Both:
		return "both"
	default:
		return "unknown"
	}
}

// NewAuthScheme creates an AuthScheme from a string
func NewAuthScheme(s string) AuthScheme {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bearer":
		return Bearer
	case "both":
		return Both
	default:
		return APIKey
	}
}

// Validate checks if the auth scheme is valid
func (a AuthScheme) Validate() error {
	if a < APIKey || a > Both {
		return fmt.Errorf("invalid auth scheme: %d", a)
	}
	return nil
}

/* Config is the immutable forwarding configuration
 * Built once at startup and passed to New; never read from the environment afterwards
 */
type Config struct {
	// Destination is the SOAR ingestion URL. Empty disables forwarding.
	Destination string
	Token       string
	AuthScheme  AuthScheme

	// Timeout bounds each attempt, not the whole call
	Timeout     time.Duration
	MaxAttempts int
	BaseDelay   time.Duration

	// StopOnClientError ends the loop on the first 4xx instead of retrying it.
	// 408 and 429 are still retried.
	StopOnClientError bool
}

// Enabled reports whether a destination is configured
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.Destination) != ""
}

// Backoff returns the wait after a failed attempt: BaseDelay * 2^(attempt-1)
func (c Config) Backoff(attempt int) time.Duration {
	if attempt < 1 || c.BaseDelay <= 0 {
		return 0
	}
	shift := attempt - 1
	if shift > maxBackoffShift {
		shift = maxBackoffShift
	}
	return c.BaseDelay * time.Duration(1<<shift)
}

// Budget is the worst-case wall time of one Forward call:
// every attempt hitting Timeout plus every backoff wait between them
func (c Config) Budget() time.Duration {
	c = c.normalize()
	budget := time.Duration(c.MaxAttempts) * c.Timeout
	for attempt := 1; attempt < c.MaxAttempts; attempt++ {
		budget += c.Backoff(attempt)
	}
	return budget
}

// normalize clamps non-positive limits to the defaults
func (c Config) normalize() Config {
	c.Destination = strings.TrimSpace(c.Destination)
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.BaseDelay < 0 {
		c.BaseDelay = 0
	}
	if c.AuthScheme.Validate() != nil {
		c.AuthScheme = APIKey
	}
	return c
}
