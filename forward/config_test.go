package forward

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Backoff(t *testing.T) {
	cfg := Config{BaseDelay: 300 * time.Millisecond}

	assert.Equal(t, time.Duration(0), cfg.Backoff(0))
	assert.Equal(t, 300*time.Millisecond, cfg.Backoff(1))
	assert.Equal(t, 600*time.Millisecond, cfg.Backoff(2))
	assert.Equal(t, 1200*time.Millisecond, cfg.Backoff(3))

	t.Run("zero base delay", func(t *testing.T) {
		assert.Equal(t, time.Duration(0), Config{}.Backoff(4))
	})

	t.Run("large attempt numbers do not overflow", func(t *testing.T) {
		assert.Positive(t, cfg.Backoff(200))
		assert.Equal(t, cfg.Backoff(maxBackoffShift+1), cfg.Backoff(200))
	})
}

func TestConfig_Budget(t *testing.T) {
	cfg := Config{Timeout: time.Second, MaxAttempts: 4, BaseDelay: 100 * time.Millisecond}

	// 4 timeouts plus waits of 100ms, 200ms and 400ms
	assert.Equal(t, 4*time.Second+700*time.Millisecond, cfg.Budget())

	t.Run("single attempt has no backoff", func(t *testing.T) {
		assert.Equal(t, time.Second, Config{Timeout: time.Second, MaxAttempts: 1, BaseDelay: time.Hour}.Budget())
	})

	t.Run("defaults apply to unset limits", func(t *testing.T) {
		want := DefaultMaxAttempts*DefaultTimeout + DefaultBaseDelay + 2*DefaultBaseDelay
		assert.Equal(t, want, Config{BaseDelay: DefaultBaseDelay}.Budget())
	})
}

func TestAuthScheme(t *testing.T) {
	t.Run("parse", func(t *testing.T) {
		assert.Equal(t, APIKey, NewAuthScheme("api-key"))
		assert.Equal(t, Bearer, NewAuthScheme("Bearer"))
		assert.Equal(t, Both, NewAuthScheme(" both "))
		assert.Equal(t, APIKey, NewAuthScheme("whatever"))
	})

	t.Run("string", func(t *testing.T) {
		assert.Equal(t, "api-key", APIKey.String())
		assert.Equal(t, "bearer", Bearer.String())
		assert.Equal(t, "both", Both.String())
		assert.Equal(t, "unknown", AuthScheme(0).String())
	})

	t.Run("validate", func(t *testing.T) {
		require.NoError(t, Both.Validate())
		require.Error(t, AuthScheme(7).Validate())
	})
}

func TestKinds_String(t *testing.T) {
	assert.Equal(t, "ok", Ok.String())
	assert.Equal(t, "timeout", Timeout.String())
	assert.Equal(t, "network_error", NetworkError.String())
	assert.Equal(t, "http_error", HTTPError.String())
	assert.Equal(t, "skipped", Skipped.String())
	assert.Equal(t, "success", Success.String())
	assert.Equal(t, "failure", Failure.String())
}

func TestAttempt_ClientError(t *testing.T) {
	assert.True(t, Attempt{Kind: HTTPError, StatusCode: 404}.ClientError())
	assert.False(t, Attempt{Kind: HTTPError, StatusCode: 502}.ClientError())
	assert.False(t, Attempt{Kind: Timeout}.ClientError())
	assert.False(t, Attempt{Kind: HTTPError, StatusCode: 408}.ClientError())
	assert.False(t, Attempt{Kind: HTTPError, StatusCode: 429}.ClientError())
	assert.True(t, Attempt{Kind: HTTPError, StatusCode: 499}.ClientError())
}
