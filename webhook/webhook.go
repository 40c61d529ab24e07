package webhook

import (
	"net/http"
	"time"
)

/* Webhook represents one inbound callback on its way to the SOAR
 * Uses value semantics as it represents data, not behavior
 */
type Webhook struct {
	ID         string
	Payload    []byte
	Headers    http.Header // allow-listed correlation headers only
	ReceivedAt time.Time
}
