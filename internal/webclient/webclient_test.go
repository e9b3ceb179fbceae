package webclient_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/raysh454/vulnx/internal/logging"
	"github.com/raysh454/vulnx/internal/webclient"
)

// noopLogger is a test-local logger implementation that discards all log messages
type noopLogger struct{}

func (n *noopLogger) Debug(msg string, fields ...logging.Field) {}
func (n *noopLogger) Info(msg string, fields ...logging.Field)  {}
func (n *noopLogger) Warn(msg string, fields ...logging.Field)  {}
func (n *noopLogger) Error(msg string, fields ...logging.Field) {}
func (n *noopLogger) With(fields ...logging.Field) logging.Logger {
	return n
}

func TestNewNetHTTPClient_Construct(t *testing.T) {
	t.Parallel()
	client, err := webclient.NewNetHTTPClient(webclient.Config{}, &noopLogger{}, nil)
	if err != nil {
		t.Fatalf("NewNetHTTPClient returned error: %v", err)
	}
	if client == nil {
		t.Fatal("NewNetHTTPClient returned nil client")
	}
	defer client.Close()
}

func TestNewNetHTTPClient_WithCustomClient(t *testing.T) {
	t.Parallel()
	client, err := webclient.NewNetHTTPClient(webclient.Config{}, &noopLogger{}, &http.Client{})
	if err != nil {
		t.Fatalf("NewNetHTTPClient returned error: %v", err)
	}
	defer client.Close()
}

func TestNetHTTPClient_Do_NilRequest_ReturnsError(t *testing.T) {
	t.Parallel()
	client, _ := webclient.NewNetHTTPClient(webclient.Config{}, &noopLogger{}, nil)
	defer client.Close()

	_, err := client.Do(context.Background(), nil)
	if !errors.Is(err, webclient.ErrNilRequest) {
		t.Fatalf("expected ErrNilRequest, got %v", err)
	}
}

func TestResponse_OK(t *testing.T) {
	t.Parallel()
	cases := map[int]bool{200: true, 204: true, 299: true, 199: false, 301: false, 404: false, 500: false}
	for code, want := range cases {
		r := &webclient.Response{StatusCode: code}
		if got := r.OK(); got != want {
			t.Errorf("OK() for %d = %v, want %v", code, got, want)
		}
	}
	var nilResp *webclient.Response
	if nilResp.OK() {
		t.Error("nil response should not be OK")
	}
}
