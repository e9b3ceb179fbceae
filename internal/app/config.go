package app

import (
	"time"

	"github.com/raysh454/vulnx/internal/session"
	"github.com/raysh454/vulnx/internal/webclient"
)

// Config contains the runtime options the console needs to wire its
// components together.
type Config struct {
	// ScanServiceURL is the full URL of the Scan Service endpoint.
	ScanServiceURL string

	// WebClient configuration for the Scan Service connection
	WebClientCfg webclient.Config

	// HistoryPath is the SQLite file for scan history. Empty disables history.
	HistoryPath string

	// Session bookkeeping
	SessionCfg session.Config

	// PruneInterval is how often idle sessions are swept. Zero disables the
	// sweeper even when SessionCfg.IdleTTL is set.
	PruneInterval time.Duration
}

// DefaultConfig returns a Config populated with sensible development defaults.
func DefaultConfig() *Config {
	return &Config{
		ScanServiceURL: "http://127.0.0.1:5000/api/scan",
		WebClientCfg: webclient.Config{
			Timeout:   0, // scans may run for minutes
			UserAgent: "vulnx-console/0.1",
		},
		HistoryPath: "",
		SessionCfg: session.Config{
			IdleTTL: 12 * time.Hour,
		},
		PruneInterval: 10 * time.Minute,
	}
}
