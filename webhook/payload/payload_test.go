package payload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const whatsAppMessage = `{
  "object": "whatsapp_business_account",
  "entry": [
    {
      "id": "102290129340398",
      "changes": [
        {
          "field": "messages",
          "value": {
            "messaging_product": "whatsapp",
            "messages": [
              {"from": "15551540430", "id": "wamid.HBgL", "type": "text", "text": {"body": "hi"}},
              {"from": "15551540430", "id": "wamid.HBgM", "type": "image"}
            ]
          }
        },
        {
          "field": "messages",
          "value": {
            "statuses": [{"id": "wamid.HBgN", "status": "delivered"}]
          }
        }
      ]
    }
  ]
}`

func TestParse(t *testing.T) {
	t.Run("success - whatsapp callback", func(t *testing.T) {
		p, err := Parse([]byte(whatsAppMessage))
		require.NoError(t, err)

		assert.True(t, p.IsWhatsApp())
		assert.Equal(t, 1, p.Entries)
		assert.Equal(t, 2, p.Messages)
		assert.Equal(t, 1, p.Statuses)
	})

	t.Run("success - raw bytes are kept verbatim", func(t *testing.T) {
		data := []byte(` {"a" :  1} `)

		p, err := Parse(data)
		require.NoError(t, err)
		assert.Equal(t, data, []byte(p.Raw))
	})

	t.Run("success - arbitrary object", func(t *testing.T) {
		p, err := Parse([]byte(`{"event": "alert", "severity": 3}`))
		require.NoError(t, err)

		assert.False(t, p.IsWhatsApp())
		assert.Empty(t, p.Object)
		assert.Zero(t, p.Entries)
	})

	t.Run("success - non-object JSON values", func(t *testing.T) {
		for _, body := range []string{`[1,2,3]`, `"text"`, `42`, `null`, `true`} {
			p, err := Parse([]byte(body))
			require.NoError(t, err, body)
			assert.Empty(t, p.Object)
		}
	})

	t.Run("success - unexpected field types are ignored", func(t *testing.T) {
		p, err := Parse([]byte(`{"object": 5, "entry": "not-a-list"}`))
		require.NoError(t, err)

		assert.Empty(t, p.Object)
		assert.Zero(t, p.Entries)
	})

	t.Run("error - empty body", func(t *testing.T) {
		_, err := Parse([]byte("   "))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "payload is empty")
	})

	t.Run("error - invalid JSON", func(t *testing.T) {
		_, err := Parse([]byte(`{invalid json}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "valid JSON")
	})
}

func TestPretty(t *testing.T) {
	p, err := Parse([]byte(`{"a":{"b":1}}`))
	require.NoError(t, err)

	assert.Equal(t, "{\n  \"a\": {\n    \"b\": 1\n  }\n}", p.Pretty())
}
