package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/marcelsud/webhook-relay/config"
	"github.com/marcelsud/webhook-relay/site"
)

/* validate-config - Standalone CLI tool to validate .env and the site page
 * Usage: go run cmd/validate-config/main.go [dir]
 * Exit codes: 0 = valid, 1 = invalid
 */

func main() {
	dir := "."
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	fmt.Printf("Validating configuration in: %s\n", dir)
	fmt.Println(strings.Repeat("-", 50))

	cfg, err := config.Load(dir, ".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ VALIDATION FAILED\n\n")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	page, err := site.LoadOrDefault(cfg.SiteFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ VALIDATION FAILED\n\n")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fc := cfg.Forward()
	fmt.Printf("✓ VALIDATION PASSED\n\n")
	fmt.Printf("Forwarding:\n")
	if fc.Enabled() {
		fmt.Printf("   Destination:   %s\n", cfg.DestinationHost())
	} else {
		fmt.Printf("   Destination:   (not set, forwarding disabled)\n")
	}
	fmt.Printf("   Token:         %s\n", cfg.MaskedToken())
	fmt.Printf("   Auth scheme:   %s\n", fc.AuthScheme)
	fmt.Printf("   Timeout:       %s\n", fc.Timeout)
	fmt.Printf("   Max attempts:  %d\n", fc.MaxAttempts)
	waits := make([]string, 0, fc.MaxAttempts)
	for n := 1; n < fc.MaxAttempts; n++ {
		waits = append(waits, fc.Backoff(n).String())
	}
	fmt.Printf("   Backoff:       [%s]\n", strings.Join(waits, ", "))
	fmt.Printf("   Stop on 4xx:   %t\n", fc.StopOnClientError)
	fmt.Printf("   Worst case:    %s\n", fc.Budget())

	fmt.Printf("\nServer:\n")
	fmt.Printf("   Port:          %s\n", cfg.Port)
	fmt.Printf("   Ack mode:      %s\n", cfg.AckMode)
	fmt.Printf("   Req. timeout:  %s\n", cfg.RequestTimeout())
	fmt.Printf("   Verify token:  %t\n", cfg.VerifyToken != "")
	fmt.Printf("   Redis:         %t\n", cfg.RedisEnabled())
	fmt.Printf("   About page:    %s (%s)\n", page.Title, page.WhatsAppLink())

	fmt.Printf("\n✓ Configuration is valid!\n")
	os.Exit(0)
}
