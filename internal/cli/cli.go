package cli

import (
	"flag"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/raysh454/vulnx/internal/app"
	"github.com/raysh454/vulnx/internal/mockscanner"
)

// ConsoleArgs are the command-line arguments of the vulnx console.
type ConsoleArgs struct {
	// ListenAddr is the HTTP listen address of the console.
	ListenAddr string

	// ScanService is the Scan Service endpoint URL.
	ScanService string

	// HistoryDB is the SQLite file for scan history; empty disables it.
	HistoryDB string

	// Timeout bounds each Scan Service call; 0 means no timeout.
	Timeout time.Duration

	// SessionTTL is how long idle sessions are kept; 0 keeps them forever.
	SessionTTL time.Duration

	// LogLevel is the minimum level written by the logger.
	LogLevel string

	// RawArgs is the original args slice (useful for debugging/tests).
	RawArgs []string
}

// ParseConsoleArgs parses a slice of args. It does not read os.Args, so
// tests can pass arbitrary slices.
func ParseConsoleArgs(args []string) (*ConsoleArgs, error) {
	defaults := app.DefaultConfig()

	fs := flag.NewFlagSet("vulnx", flag.ContinueOnError)
	var (
		listen     = fs.String("listen", ":8080", "HTTP listen address")
		service    = fs.String("scan-service", defaults.ScanServiceURL, "Scan Service endpoint URL")
		historyDB  = fs.String("history-db", "", "SQLite file for scan history (empty disables history)")
		timeout    = fs.Duration("timeout", defaults.WebClientCfg.Timeout, "Scan Service request timeout (0 = none)")
		sessionTTL = fs.Duration("session-ttl", defaults.SessionCfg.IdleTTL, "Idle session lifetime (0 = forever)")
		logLevel   = fs.String("log-level", "info", "Log level: debug|info|warn|error")
	)

	// Ensure Parse doesn't write to stdout/stderr in tests
	fs.SetOutput(io.Discard)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	u, err := url.Parse(strings.TrimSpace(*service))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid -scan-service %q: must be an http(s) URL", *service)
	}
	if *timeout < 0 || *sessionTTL < 0 {
		return nil, fmt.Errorf("durations must not be negative")
	}
	switch *logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid -log-level %q", *logLevel)
	}

	return &ConsoleArgs{
		ListenAddr:  *listen,
		ScanService: u.String(),
		HistoryDB:   *historyDB,
		Timeout:     *timeout,
		SessionTTL:  *sessionTTL,
		LogLevel:    *logLevel,
		RawArgs:     args,
	}, nil
}

// AppConfig merges the parsed flags over app.DefaultConfig.
func (a *ConsoleArgs) AppConfig() *app.Config {
	cfg := app.DefaultConfig()
	cfg.ScanServiceURL = a.ScanService
	cfg.HistoryPath = a.HistoryDB
	cfg.WebClientCfg.Timeout = a.Timeout
	cfg.SessionCfg.IdleTTL = a.SessionTTL
	return cfg
}

// ParseMockArgs parses the mock Scan Service flags.
func ParseMockArgs(args []string) (mockscanner.Config, error) {
	cfg := mockscanner.DefaultConfig()

	fs := flag.NewFlagSet("mockscanner", flag.ContinueOnError)
	port := fs.Int("port", cfg.Port, "Port to listen on")
	delay := fs.Duration("delay", cfg.Delay, "Artificial delay before each scan response")
	fs.SetOutput(io.Discard)

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if *port < 1 || *port > 65535 {
		return cfg, fmt.Errorf("invalid -port %d", *port)
	}
	cfg.Port = *port
	cfg.Delay = *delay
	return cfg, nil
}
