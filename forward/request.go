package forward

import (
	"encoding/json"
	"fmt"
	"net/http"
)

const (
	HeaderHubSignature    = "X-Hub-Signature"
	HeaderHubSignature256 = "X-Hub-Signature-256"
	HeaderRequestID       = "X-Request-Id"

	headerAPIKey           = "X-Api-Key"
	contentTypeJSON        = "application/json"
	authorizationAPIKeyFmt = "API-KEY %s"
	authorizationBearerFmt = "Bearer %s"
)

// CorrelationAllowList is the set of inbound headers copied onto outbound attempts.
// Nothing else from the inbound request is propagated.
var CorrelationAllowList = []string{
	HeaderHubSignature,
	HeaderHubSignature256,
	HeaderRequestID,
}

/* Request is a serialized payload plus its correlation headers
 * The body is fixed at construction so every attempt sends identical bytes
 */
type Request struct {
	body    []byte
	headers http.Header
}

// NewRequest serializes payload as JSON once
func NewRequest(payload any, inbound http.Header) (Request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Request{}, fmt.Errorf("marshaling payload: %w", err)
	}
	return Request{body: body, headers: CorrelationHeaders(inbound)}, nil
}

// NewRawRequest wraps an already serialized JSON body without re-encoding it
func NewRawRequest(body []byte, inbound http.Header) (Request, error) {
	if !json.Valid(body) {
		return Request{}, fmt.Errorf("body is not valid JSON")
	}
	cp := make([]byte, len(body))
	copy(cp, body)
	return Request{body: cp, headers: CorrelationHeaders(inbound)}, nil
}

// Body returns a copy of the serialized payload
func (r Request) Body() []byte {
	cp := make([]byte, len(r.body))
	copy(cp, r.body)
	return cp
}

// Headers returns a copy of the correlation headers
func (r Request) Headers() http.Header {
	return r.headers.Clone()
}

// CorrelationHeaders picks the allow-listed headers present on inbound.
// Every non-empty value is kept, in order; headers with no value are dropped.
func CorrelationHeaders(inbound http.Header) http.Header {
	headers := make(http.Header)
	for _, name := range CorrelationAllowList {
		for _, value := range inbound.Values(name) {
			if value != "" {
				headers[name] = append(headers[name], value)
			}
		}
	}
	return headers
}
