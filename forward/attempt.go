package forward

import (
	"net/http"
	"time"
)

/* AttemptKind classifies the result of one POST to the destination
 * Only Ok stops the retry loop
 */
type AttemptKind int

const (
	Ok AttemptKind = iota + 1
	Timeout
	NetworkError
	HTTPError
)

// String returns the string representation of the attempt kind
func (k AttemptKind) String() string {
	switch k {
	case Ok:
		return "ok"
	case Timeout:
		return "timeout"
	case NetworkError:
		return "network_error"
	case HTTPError:
		return "http_error"
	default:
		return "unknown"
	}
}

// Attempt records a single delivery attempt
type Attempt struct {
	Number     int
	Kind       AttemptKind
	StatusCode int
	Body       string // first 1 MiB of the reply; anything past that is discarded
	Err        string
	Duration   time.Duration
}

// ClientError reports whether the destination rejected the request with a 4xx status.
// 408 and 429 ask the caller to come back later, so they are not counted.
func (a Attempt) ClientError() bool {
	if a.Kind != HTTPError {
		return false
	}
	switch a.StatusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return false
	}
	return a.StatusCode >= 400 && a.StatusCode < 500
}
