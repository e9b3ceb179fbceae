package webclient

import "time"

// Config controls construction of the default net/http backend.
type Config struct {
	// Timeout bounds a whole request. Zero means no timeout: a scan may run
	// as long as the Scan Service needs.
	Timeout time.Duration

	// UserAgent is sent on every request when non-empty.
	UserAgent string
}
