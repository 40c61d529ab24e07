package forward

import "time"

/* Status is the terminal state of a single forward call
 * Follows the lifecycle: Pending -> Attempting* -> Success/Failure/Skipped
 */
type Status int

const (
	Skipped Status = iota + 1
	Success
	Failure
)

// String returns the string representation of the status
func (s Status) String() string {
	switch s {
	case Skipped:
		return "skipped"
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return "unknown"
	}
}

// Outcome is the single terminal result of Forward
type Outcome struct {
	Status Status

	// StatusCode and Body are set on Success.
	// Body holds at most the first 1 MiB of the reply.
	StatusCode int
	Body       string

	// Error holds the last attempt's error message on Failure
	Error    string
	Attempts []Attempt
	Elapsed  time.Duration
}

// OK reports whether the payload reached the destination
func (o Outcome) OK() bool {
	return o.Status == Success
}
