package site

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Default returns the built-in page used when no SITE_FILE is configured
func Default() Page {
	return Page{
		Title:   "Message Scanning Project",
		Icon:    "📩",
		Heading: "About Our Project",
		Description: "We are building a system to scan and analyze messages for security, compliance, and automation. " +
			"This helps organizations protect sensitive data, detect threats, and improve communication workflows.",
		Features: []string{
			"Automatically scan messages for keywords, risks, or compliance issues",
			"Integrate with automation workflows for alerts and responses",
			"Provide reports and dashboards for visibility",
		},
		Contact: Contact{
			Heading:  "Contact Us",
			Prompt:   "Have questions or want a demo?",
			WhatsApp: "+15551540430",
		},
	}
}

// Load reads a page from a YAML file. Missing fields keep their Default values.
func Load(filePath string) (Page, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return Page{}, fmt.Errorf("reading site file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML page over the defaults and validates it
func Parse(data []byte) (Page, error) {
	page := Default()
	if err := yaml.Unmarshal(data, &page); err != nil {
		return Page{}, fmt.Errorf("parsing site YAML: %w", err)
	}
	if err := page.Validate(); err != nil {
		return Page{}, fmt.Errorf("validating site: %w", err)
	}
	return page, nil
}

// LoadOrDefault loads filePath, or returns Default when it is empty
func LoadOrDefault(filePath string) (Page, error) {
	if filePath == "" {
		return Default(), nil
	}
	return Load(filePath)
}
