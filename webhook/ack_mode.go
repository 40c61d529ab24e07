package webhook

import (
	"fmt"
	"strings"
)

/* AckMode decides when the original sender is acknowledged
 * Before acknowledges immediately and forwards in the background
 * After forwards synchronously and acknowledges once the outcome is known
 */
type AckMode int

const (
	AckBefore AckMode = iota + 1
	AckAfter
)

// String returns the string representation of the ack mode
func (m AckMode) String() string {
	switch m {
	case AckBefore:
		return "before"
	case AckAfter:
		return "after"
	default:
		return "unknown"
	}
}

// NewAckMode creates an AckMode from a string
func NewAckMode(s string) AckMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "before":
		return AckBefore
	case "after":
		return AckAfter
	default:
		return AckBefore // fast ack keeps the sender from retrying
	}
}

// Validate checks if the ack mode is valid
func (m AckMode) Validate() error {
	if m != AckBefore && m != AckAfter {
		return fmt.Errorf("invalid ack mode: %d", m)
	}
	return nil
}
