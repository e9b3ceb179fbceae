// Package webclient is the outbound HTTP layer used to reach the Scan Service.
package webclient

import (
	"context"
)

type WebClient interface {
	Do(ctx context.Context, req *Request) (*Response, error)

	Close() error
}
