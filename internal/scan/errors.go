package scan

import "fmt"

// TransportError means the Scan Service could not be reached or answered
// with a non-2xx status. The body is ignored in that case.
type TransportError struct {
	StatusCode int
	// Status is the status text, or the transport error text when no
	// response arrived.
	Status string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("Scan failed: %s", e.Status)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ApplicationError means the Scan Service answered 2xx but flagged a logical
// error in the body. Its text is shown to the user verbatim.
type ApplicationError struct {
	Message string
}

func (e *ApplicationError) Error() string { return e.Message }
