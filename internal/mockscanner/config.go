package mockscanner

import "time"

// Config holds configuration for the mock Scan Service.
type Config struct {
	// Port is the port on which the mock service listens.
	Port int

	// Delay is added before every scan response to mimic a slow scanner.
	Delay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Port:  5000,
		Delay: 0,
	}
}
