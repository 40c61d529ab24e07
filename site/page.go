package site

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidPage is returned when a page document fails validation
var ErrInvalidPage = errors.New("invalid page")

var e164 = regexp.MustCompile(`^\+[1-9][0-9]{6,14}$`)

/* Page is the informational page served at /about
 * Uses value semantics as it represents data, not behavior
 */
type Page struct {
	Title       string   `yaml:"title"`
	Icon        string   `yaml:"icon"`
	Heading     string   `yaml:"heading"`
	Description string   `yaml:"description"`
	Features    []string `yaml:"features"`
	Contact     Contact  `yaml:"contact"`
}

// Contact is the WhatsApp number visitors are pointed to
type Contact struct {
	Heading  string `yaml:"heading"`
	Prompt   string `yaml:"prompt"`
	WhatsApp string `yaml:"whatsapp"` // E.164, e.g. +15551540430
}

// Validate checks if the page can be rendered
func (p Page) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("%w: title cannot be empty", ErrInvalidPage)
	}
	if !e164.MatchString(p.Contact.WhatsApp) {
		return fmt.Errorf("%w: contact.whatsapp must be an E.164 number (got %q)", ErrInvalidPage, p.Contact.WhatsApp)
	}
	for i, feature := range p.Features {
		if strings.TrimSpace(feature) == "" {
			return fmt.Errorf("%w: feature %d is empty", ErrInvalidPage, i+1)
		}
	}
	return nil
}

// WhatsAppLink returns the wa.me link for the contact number
func (p Page) WhatsAppLink() string {
	return "https://wa.me/" + strings.TrimPrefix(p.Contact.WhatsApp, "+")
}
