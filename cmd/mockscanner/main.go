// Command mockscanner starts a local stand-in for the VulnX Scan Service.
// Usage: go run ./cmd/mockscanner [-port 5000] [-delay 2s]
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/raysh454/vulnx/internal/cli"
	"github.com/raysh454/vulnx/internal/logging"
	"github.com/raysh454/vulnx/internal/mockscanner"
)

func main() {
	cfg, err := cli.ParseMockArgs(os.Args[1:])
	if err != nil {
		log.Fatalf("Invalid arguments: %v", err)
	}

	fmt.Println("===========================================")
	fmt.Println("   VulnX Mock Scan Service")
	fmt.Println("===========================================")
	fmt.Println()
	fmt.Println("Targets with query parameters report findings:")
	fmt.Println("  - basic: one reflected XSS per parameter")
	fmt.Println("  - zap:   XSS plus SQL injection per parameter")
	fmt.Println()
	fmt.Printf("Listening on http://localhost:%d/api/scan\n", cfg.Port)

	server := mockscanner.NewServer(cfg, logging.NewStdoutLogger("mockscanner"))
	if err := server.HTTPServer().ListenAndServe(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
