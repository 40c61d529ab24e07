package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/marcelsud/webhook-relay/forward"
	"github.com/spf13/viper"
)

/* Config is read once at process start
 * Every key is optional: values come from an optional .env (toml) file,
 * overridden by environment variables, falling back to the defaults below
 */
type Config struct {
	Port        string `mapstructure:"PORT"`
	VerifyToken string `mapstructure:"VERIFY_TOKEN"`

	SOARWebhookURL        string `mapstructure:"SOAR_WEBHOOK_URL"`
	SOARToken             string `mapstructure:"SOAR_TOKEN"`
	SOARAuthScheme        string `mapstructure:"SOAR_AUTH_SCHEME"`
	SOARTimeoutMS         int    `mapstructure:"SOAR_TIMEOUT_MS"`
	SOARMaxAttempts       int    `mapstructure:"SOAR_MAX_ATTEMPTS"`
	SOARBackoffMS         int    `mapstructure:"SOAR_BACKOFF_MS"`
	SOARStopOnClientError bool   `mapstructure:"SOAR_STOP_ON_CLIENT_ERROR"`

	AckMode          string `mapstructure:"ACK_MODE"`
	LogJSON          bool   `mapstructure:"LOG_JSON"`
	MaxBodyBytes     int64  `mapstructure:"MAX_BODY_BYTES"`
	ShutdownTimeoutS int    `mapstructure:"SHUTDOWN_TIMEOUT_S"`
	SiteFile         string `mapstructure:"SITE_FILE"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
}

var defaults = map[string]any{
	"PORT":                      "3000",
	"VERIFY_TOKEN":              "",
	"SOAR_WEBHOOK_URL":          "",
	"SOAR_TOKEN":                "",
	"SOAR_AUTH_SCHEME":          "api-key",
	"SOAR_TIMEOUT_MS":           5000,
	"SOAR_MAX_ATTEMPTS":         3,
	"SOAR_BACKOFF_MS":           300,
	"SOAR_STOP_ON_CLIENT_ERROR": false,
	"ACK_MODE":                  "before",
	"LOG_JSON":                  true,
	"MAX_BODY_BYTES":            int64(1 << 20),
	"SHUTDOWN_TIMEOUT_S":        30,
	"SITE_FILE":                 "",
	"REDIS_ADDR":                "",
	"REDIS_PASSWORD":            "",
	"REDIS_DB":                  0,
}

// GetConfig loads the configuration from ./.env and the environment
func GetConfig() (*Config, error) {
	return Load(".", ".env")
}

// Load reads the named toml file from dir if it exists, then applies the environment
func Load(dir, name string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(dir)
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("parsing config data: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &config, nil
}

// Validate rejects values the forwarder would otherwise have to clamp
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.SOARWebhookURL != "" {
		u, err := url.Parse(c.SOARWebhookURL)
		if err != nil {
			return fmt.Errorf("invalid SOAR_WEBHOOK_URL: %w", err)
		}
		if u.Scheme != "https" && u.Scheme != "http" {
			return fmt.Errorf("SOAR_WEBHOOK_URL must be an http(s) URL (got scheme %q)", u.Scheme)
		}
		if u.Host == "" {
			return fmt.Errorf("SOAR_WEBHOOK_URL must include a host")
		}
	}
	switch strings.ToLower(c.SOARAuthScheme) {
	case "api-key", "bearer", "both":
	default:
		return fmt.Errorf("SOAR_AUTH_SCHEME must be api-key, bearer or both (got %q)", c.SOARAuthScheme)
	}
	if c.SOARTimeoutMS <= 0 {
		return fmt.Errorf("SOAR_TIMEOUT_MS must be positive (got %d)", c.SOARTimeoutMS)
	}
	if c.SOARMaxAttempts <= 0 {
		return fmt.Errorf("SOAR_MAX_ATTEMPTS must be positive (got %d)", c.SOARMaxAttempts)
	}
	if c.SOARBackoffMS < 0 {
		return fmt.Errorf("SOAR_BACKOFF_MS cannot be negative (got %d)", c.SOARBackoffMS)
	}
	switch strings.ToLower(c.AckMode) {
	case "before", "after":
	default:
		return fmt.Errorf("ACK_MODE must be before or after (got %q)", c.AckMode)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive (got %d)", c.MaxBodyBytes)
	}
	if c.ShutdownTimeoutS <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT_S must be positive (got %d)", c.ShutdownTimeoutS)
	}
	return nil
}

// Forward builds the immutable forwarder configuration
func (c *Config) Forward() forward.Config {
	return forward.Config{
		Destination:       c.SOARWebhookURL,
		Token:             c.SOARToken,
		AuthScheme:        forward.NewAuthScheme(c.SOARAuthScheme),
		Timeout:           time.Duration(c.SOARTimeoutMS) * time.Millisecond,
		MaxAttempts:       c.SOARMaxAttempts,
		BaseDelay:         time.Duration(c.SOARBackoffMS) * time.Millisecond,
		StopOnClientError: c.SOARStopOnClientError,
	}
}

const (
	// minRequestTimeout is the router timeout floor for routes that never forward inline
	minRequestTimeout = 30 * time.Second

	// requestTimeoutMargin covers parsing and writing the response around a forward
	requestTimeoutMargin = 5 * time.Second
)

// RequestTimeout is the per-request router deadline.
// It always covers a full retry loop so an ACK_MODE=after request can wait for the outcome.
func (c *Config) RequestTimeout() time.Duration {
	timeout := c.Forward().Budget() + requestTimeoutMargin
	if timeout < minRequestTimeout {
		return minRequestTimeout
	}
	return timeout
}

// DestinationHost returns only the host of SOAR_WEBHOOK_URL.
// The path may carry secrets, such as trigger IDs, and is kept out of output.
func (c *Config) DestinationHost() string {
	u, err := url.Parse(c.SOARWebhookURL)
	if err != nil {
		return ""
	}
	return u.Host
}

// ShutdownTimeout returns how long the server waits for in-flight work on exit
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutS) * time.Second
}

// RedisEnabled reports whether telemetry counters should go to Redis
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// MaskedToken hides all but the last four characters of the SOAR token
func (c *Config) MaskedToken() string {
	if len(c.SOARToken) <= 4 {
		return strings.Repeat("*", len(c.SOARToken))
	}
	return strings.Repeat("*", len(c.SOARToken)-4) + c.SOARToken[len(c.SOARToken)-4:]
}
