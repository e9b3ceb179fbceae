package scan_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/raysh454/vulnx/internal/scan"
	"github.com/raysh454/vulnx/internal/testutil"
	"github.com/raysh454/vulnx/internal/webclient"
)

func newHTTPService(t *testing.T, handler http.HandlerFunc) *scan.HTTPService {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	logger := &testutil.DummyLogger{}
	wc, err := webclient.NewNetHTTPClient(webclient.Config{}, logger, ts.Client())
	if err != nil {
		t.Fatalf("NewNetHTTPClient: %v", err)
	}
	return scan.NewHTTPService(ts.URL+"/api/scan", wc, logger)
}

func TestHTTPService_SendsURLAndMode(t *testing.T) {
	t.Parallel()
	var got map[string]string
	var method, path, contentType string
	svc := newHTTPService(t, func(w http.ResponseWriter, r *http.Request) {
		method, path, contentType = r.Method, r.URL.Path, r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		_, _ = io.WriteString(w, `{"vulnerabilities":[]}`)
	})

	findings, err := svc.Scan(context.Background(), scan.Request{URL: "https://example.com", Mode: scan.ModeZAP})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if method != http.MethodPost || path != "/api/scan" || contentType != "application/json" {
		t.Errorf("unexpected request: %s %s (%s)", method, path, contentType)
	}
	if got["url"] != "https://example.com" || got["mode"] != "zap" {
		t.Errorf("unexpected body: %v", got)
	}
	if findings == nil || len(findings) != 0 {
		t.Errorf("expected empty non-nil findings, got %#v", findings)
	}
}

func TestHTTPService_DecodesFindings(t *testing.T) {
	t.Parallel()
	svc := newHTTPService(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"vulnerabilities":[{"type":"XSS","url":"https://example.com/search?q=1"},{"type":"SQLi","url":"u","risk":"High","description":"d"}]}`)
	})

	findings, err := svc.Scan(context.Background(), scan.Request{URL: "https://example.com", Mode: scan.ModeBasic})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	want := []scan.Finding{
		{Type: "XSS", URL: "https://example.com/search?q=1"},
		{Type: "SQLi", URL: "u", Risk: "High", Description: "d"},
	}
	if len(findings) != len(want) {
		t.Fatalf("expected %d findings, got %d", len(want), len(findings))
	}
	for i := range want {
		if findings[i] != want[i] {
			t.Errorf("finding %d: got %+v, want %+v", i, findings[i], want[i])
		}
	}
}

func TestHTTPService_MissingVulnerabilitiesMeansEmpty(t *testing.T) {
	t.Parallel()
	svc := newHTTPService(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	})

	findings, err := svc.Scan(context.Background(), scan.Request{URL: "x", Mode: scan.ModeBasic})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if findings == nil || len(findings) != 0 {
		t.Errorf("expected empty non-nil findings, got %#v", findings)
	}
}

func TestHTTPService_ErrorFieldWithOKStatus(t *testing.T) {
	t.Parallel()
	svc := newHTTPService(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"error":"invalid URL"}`)
	})

	_, err := svc.Scan(context.Background(), scan.Request{URL: "x", Mode: scan.ModeBasic})
	var appErr *scan.ApplicationError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected ApplicationError, got %T %v", err, err)
	}
	if err.Error() != "invalid URL" {
		t.Errorf("expected message 'invalid URL', got %q", err.Error())
	}
}

func TestHTTPService_NonSuccessStatusIgnoresBody(t *testing.T) {
	t.Parallel()
	svc := newHTTPService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"vulnerabilities":[{"type":"XSS","url":"x"}]}`)
	})

	_, err := svc.Scan(context.Background(), scan.Request{URL: "x", Mode: scan.ModeBasic})
	var tErr *scan.TransportError
	if !errors.As(err, &tErr) {
		t.Fatalf("expected TransportError, got %T %v", err, err)
	}
	if tErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", tErr.StatusCode)
	}
	if err.Error() != "Scan failed: Internal Server Error" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestHTTPService_InvalidJSON(t *testing.T) {
	t.Parallel()
	svc := newHTTPService(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html>not json</html>`)
	})

	_, err := svc.Scan(context.Background(), scan.Request{URL: "x", Mode: scan.ModeBasic})
	var tErr *scan.TransportError
	if !errors.As(err, &tErr) {
		t.Fatalf("expected TransportError, got %T %v", err, err)
	}
	if err.Error() != "Scan failed: invalid response body" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestHTTPService_ConnectionFailure(t *testing.T) {
	t.Parallel()
	logger := &testutil.DummyLogger{}
	wc, _ := webclient.NewNetHTTPClient(webclient.Config{}, logger, nil)
	svc := scan.NewHTTPService("http://127.0.0.1:1/api/scan", wc, logger)

	_, err := svc.Scan(context.Background(), scan.Request{URL: "x", Mode: scan.ModeBasic})
	var tErr *scan.TransportError
	if !errors.As(err, &tErr) {
		t.Fatalf("expected TransportError, got %T %v", err, err)
	}
	if tErr.Err == nil {
		t.Error("expected wrapped transport cause")
	}
}

func TestLifecycle_WithHTTPService_TransportFailure(t *testing.T) {
	t.Parallel()
	svc := newHTTPService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	l := scan.NewLifecycle(svc, &testutil.DummyLogger{})

	l.Submit(context.Background(), scan.Request{URL: "https://example.com", Mode: scan.ModeBasic})
	l.Wait()

	st := l.State()
	if st.Status != scan.StatusFailed || st.Error != "Scan failed: Bad Gateway" {
		t.Fatalf("expected Failed(Scan failed: Bad Gateway), got %q (%q)", st.Status, st.Error)
	}
}
