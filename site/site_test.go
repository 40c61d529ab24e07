package site_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/marcelsud/webhook-relay/site"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	page := site.Default()

	require.NoError(t, page.Validate())
	assert.Equal(t, "Message Scanning Project", page.Title)
	assert.Len(t, page.Features, 3)
	assert.Equal(t, "https://wa.me/15551540430", page.WhatsAppLink())
}

func TestLoad(t *testing.T) {
	t.Run("success - overrides defaults", func(t *testing.T) {
		content := `
title: "Threat Intake"
features:
  - "Forward alerts to the SOAR"
contact:
  whatsapp: "+447700900123"
`
		path := filepath.Join(t.TempDir(), "site.yaml")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		page, err := site.Load(path)

		require.NoError(t, err)
		assert.Equal(t, "Threat Intake", page.Title)
		assert.Equal(t, []string{"Forward alerts to the SOAR"}, page.Features)
		assert.Equal(t, "https://wa.me/447700900123", page.WhatsAppLink())
		assert.Equal(t, "About Our Project", page.Heading)
	})

	t.Run("error - missing file", func(t *testing.T) {
		_, err := site.Load(filepath.Join(t.TempDir(), "missing.yaml"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "reading site file")
	})

	t.Run("error - invalid YAML", func(t *testing.T) {
		_, err := site.Parse([]byte("title: [unclosed"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing site YAML")
	})

	t.Run("empty path falls back to the default page", func(t *testing.T) {
		page, err := site.LoadOrDefault("")

		require.NoError(t, err)
		assert.Equal(t, site.Default(), page)
	})
}

func TestPage_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *site.Page)
	}{
		{name: "empty title", mutate: func(p *site.Page) { p.Title = " " }},
		{name: "number without plus", mutate: func(p *site.Page) { p.Contact.WhatsApp = "15551540430" }},
		{name: "number with letters", mutate: func(p *site.Page) { p.Contact.WhatsApp = "+1555CALLNOW" }},
		{name: "empty feature", mutate: func(p *site.Page) { p.Features = append(p.Features, "") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := site.Default()
			tt.mutate(&page)

			err := page.Validate()

			require.Error(t, err)
			assert.True(t, errors.Is(err, site.ErrInvalidPage))
		})
	}
}

func TestPage_Render(t *testing.T) {
	page := site.Default()
	page.Features = []string{"<script>alert(1)</script>"}

	var out strings.Builder
	require.NoError(t, page.Render(&out))

	html := out.String()
	assert.Contains(t, html, "<title>Message Scanning Project</title>")
	assert.Contains(t, html, `href="https://wa.me/15551540430"`)
	assert.Contains(t, html, "&lt;script&gt;")
	assert.NotContains(t, html, "<script>alert(1)</script>")
}
