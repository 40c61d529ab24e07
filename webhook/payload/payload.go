package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ObjectWhatsApp is the "object" value of WhatsApp Business Account callbacks
const ObjectWhatsApp = "whatsapp_business_account"

// Payload is an inbound webhook body plus a summary extracted for logging.
// Raw is never rewritten; it is forwarded byte for byte.
type Payload struct {
	Raw json.RawMessage

	// Object is the top-level "object" field, when the body is a JSON object
	Object string

	// Entries is the number of items in the top-level "entry" array
	Entries int

	// Messages and Statuses count entry[].changes[].value.{messages,statuses}
	Messages int
	Statuses int
}

// envelope mirrors the Graph API webhook shape, just enough to summarize it
type envelope struct {
	Object string `json:"object"`
	Entry  []struct {
		Changes []struct {
			Field string `json:"field"`
			Value struct {
				Messages []json.RawMessage `json:"messages"`
				Statuses []json.RawMessage `json:"statuses"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// Parse validates that data is JSON and summarizes it
func Parse(data []byte) (Payload, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Payload{}, fmt.Errorf("payload is empty")
	}
	if !json.Valid(trimmed) {
		return Payload{}, fmt.Errorf("payload must be valid JSON")
	}

	p := Payload{Raw: data}
	if trimmed[0] != '{' {
		return p, nil
	}

	// Fields of an unexpected type are left at their zero value
	var env envelope
	_ = json.Unmarshal(trimmed, &env)

	p.Object = env.Object
	p.Entries = len(env.Entry)
	for _, entry := range env.Entry {
		for _, change := range entry.Changes {
			p.Messages += len(change.Value.Messages)
			p.Statuses += len(change.Value.Statuses)
		}
	}
	return p, nil
}

// IsWhatsApp reports whether the payload is a WhatsApp Business Account callback
func (p Payload) IsWhatsApp() bool {
	return p.Object == ObjectWhatsApp
}

// Pretty returns the payload indented for debug logs
func (p Payload) Pretty() string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, p.Raw, "", "  "); err != nil {
		return string(p.Raw)
	}
	return buf.String()
}
