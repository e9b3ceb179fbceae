// Package mockscanner is a stand-in for the external Scan Service. It speaks
// the same wire contract and returns deterministic findings, so the console
// can be exercised without a real scanner.
package mockscanner

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/raysh454/vulnx/internal/logging"
	"github.com/raysh454/vulnx/internal/scan"
)

// Server is the mock Scan Service.
type Server struct {
	cfg    Config
	router chi.Router
	logger logging.Logger
	scans  atomic.Int64
}

// NewServer creates a mock service instance.
func NewServer(cfg Config, logger logging.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		router: chi.NewRouter(),
		logger: logger.With(logging.Field{Key: "component", Value: "mockscanner"}),
	}
	s.router.Post("/api/scan", s.handleScan)
	s.router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "scans": s.scans.Load()})
	})
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:        fmt.Sprintf(":%d", s.cfg.Port),
		Handler:     s,
		ReadTimeout: 15 * time.Second,
	}
}

type scanBody struct {
	URL  string `json:"url"`
	Mode string `json:"mode"`
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var body scanBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	target := strings.TrimSpace(body.URL)
	if target == "" {
		writeError(w, http.StatusBadRequest, "URL is required")
		return
	}
	mode, err := scan.ParseMode(body.Mode)
	if err != nil {
		// Application-level error on a 200, as the real service does for
		// requests it understands but cannot run.
		writeError(w, http.StatusOK, "unsupported mode")
		return
	}

	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = "https://" + target
	}
	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		writeError(w, http.StatusOK, "invalid URL")
		return
	}

	if s.cfg.Delay > 0 {
		select {
		case <-time.After(s.cfg.Delay):
		case <-r.Context().Done():
			return
		}
	}

	findings := Findings(u, mode)
	s.scans.Add(1)
	s.logger.Info("mock scan complete",
		logging.Field{Key: "url", Value: target},
		logging.Field{Key: "mode", Value: string(mode)},
		logging.Field{Key: "findings", Value: len(findings)})
	writeJSON(w, http.StatusOK, map[string]any{"vulnerabilities": findings})
}

// Findings returns the canned result for u. Targets without a query string
// are clean. Each query parameter yields a reflected XSS finding; zap mode
// adds an SQL injection finding per parameter with risk and description.
func Findings(u *url.URL, mode scan.Mode) []scan.Finding {
	out := make([]scan.Finding, 0)
	if u.RawQuery == "" {
		return out
	}
	for _, param := range sortedParams(u.Query()) {
		probe := *u
		q := probe.Query()
		q.Set(param, `<script>alert(1)</script>`)
		probe.RawQuery = q.Encode()
		out = append(out, scan.Finding{Type: "XSS", URL: probe.String()})

		if mode == scan.ModeZAP {
			probe := *u
			q := probe.Query()
			q.Set(param, `' OR '1'='1`)
			probe.RawQuery = q.Encode()
			out = append(out, scan.Finding{
				Type:        "SQL Injection",
				URL:         probe.String(),
				Risk:        "High",
				Description: fmt.Sprintf("Parameter %q appears to be injectable.", param),
			})
		}
	}
	return out
}

func sortedParams(q url.Values) []string {
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
