package webclient

import (
	"net/http"
	"time"
)

type Request struct {
	Method  string
	URL     string
	Headers http.Header
	Body    []byte
}

type Response struct {
	Request    *Request
	Headers    http.Header
	Body       []byte
	StatusCode int
	// Status is the status line text without the code, e.g. "Not Found".
	Status    string
	FetchedAt time.Time
}

// OK reports whether the response carries a 2xx status.
func (r *Response) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}
