package webclient_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/raysh454/vulnx/internal/webclient"
)

func newClient(t *testing.T, cfg webclient.Config, hc *http.Client) *webclient.NetHTTPClient {
	t.Helper()
	client, err := webclient.NewNetHTTPClient(cfg, &noopLogger{}, hc)
	if err != nil {
		t.Fatalf("NewNetHTTPClient: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// ─── Do: real HTTP round-trip via httptest ──────────────────────────────

func TestNetHTTPClient_Do_JSONPost(t *testing.T) {
	t.Parallel()
	var (
		gotMethod string
		gotCT     string
		gotBody   map[string]string
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotCT = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"vulnerabilities":[]}`)
	}))
	defer ts.Close()

	client := newClient(t, webclient.Config{}, ts.Client())
	hdrs := http.Header{}
	hdrs.Set("Content-Type", "application/json")

	resp, err := client.Do(context.Background(), &webclient.Request{
		Method:  "post",
		URL:     ts.URL + "/api/scan",
		Headers: hdrs,
		Body:    []byte(`{"url":"https://example.com","mode":"zap"}`),
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}

	if gotMethod != http.MethodPost || gotCT != "application/json" {
		t.Errorf("server saw method %q content type %q", gotMethod, gotCT)
	}
	if gotBody["url"] != "https://example.com" || gotBody["mode"] != "zap" {
		t.Errorf("server saw body %v", gotBody)
	}
	if !resp.OK() || string(resp.Body) != `{"vulnerabilities":[]}` {
		t.Errorf("unexpected response %d %q", resp.StatusCode, resp.Body)
	}
	if resp.Headers.Get("Content-Type") != "application/json" {
		t.Errorf("response headers not propagated: %v", resp.Headers)
	}
	if resp.FetchedAt.IsZero() {
		t.Error("FetchedAt not set")
	}
}

func TestNetHTTPClient_Do_StatusText(t *testing.T) {
	t.Parallel()
	cases := map[int]string{
		http.StatusOK:                  "OK",
		http.StatusNotFound:            "Not Found",
		http.StatusInternalServerError: "Internal Server Error",
		http.StatusServiceUnavailable:  "Service Unavailable",
	}

	for code, want := range cases {
		code, want := code, want
		t.Run(want, func(t *testing.T) {
			t.Parallel()
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(code)
			}))
			defer ts.Close()

			resp, err := newClient(t, webclient.Config{}, ts.Client()).Get(context.Background(), ts.URL)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if resp.StatusCode != code || resp.Status != want {
				t.Errorf("got %d %q, want %d %q", resp.StatusCode, resp.Status, code, want)
			}
			if resp.OK() != (code < 300) {
				t.Errorf("OK() = %v for %d", resp.OK(), code)
			}
		})
	}
}

func TestNetHTTPClient_Do_UserAgent(t *testing.T) {
	t.Parallel()
	var seen []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("User-Agent"))
	}))
	defer ts.Close()

	client := newClient(t, webclient.Config{UserAgent: "vulnx-test"}, ts.Client())

	if _, err := client.Get(context.Background(), ts.URL); err != nil {
		t.Fatalf("Get: %v", err)
	}
	hdrs := http.Header{}
	hdrs.Set("User-Agent", "explicit")
	if _, err := client.Do(context.Background(), &webclient.Request{URL: ts.URL, Headers: hdrs}); err != nil {
		t.Fatalf("Do: %v", err)
	}

	if len(seen) != 2 || seen[0] != "vulnx-test" || seen[1] != "explicit" {
		t.Errorf("user agents = %v", seen)
	}
}

func TestNetHTTPClient_Do_ConnectionRefused(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.NotFoundHandler())
	addr := ts.URL
	ts.Close()

	client := newClient(t, webclient.Config{Timeout: time.Second}, nil)
	if _, err := client.Get(context.Background(), addr); err == nil {
		t.Fatal("expected error for closed server")
	}
}

func TestNetHTTPClient_Do_Timeout(t *testing.T) {
	t.Parallel()
	unblock := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-unblock:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(unblock)

	client := newClient(t, webclient.Config{Timeout: 50 * time.Millisecond}, nil)
	if _, err := client.Get(context.Background(), ts.URL); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestNetHTTPClient_Do_ContextCanceled(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := newClient(t, webclient.Config{}, ts.Client()).Get(ctx, ts.URL); err == nil {
		t.Fatal("expected error for canceled context")
	}
}
