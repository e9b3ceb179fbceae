package server

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/raysh454/vulnx/internal/app"
	"github.com/raysh454/vulnx/internal/history"
	"github.com/raysh454/vulnx/internal/logging"
	"github.com/raysh454/vulnx/internal/navigation"
	"github.com/raysh454/vulnx/internal/report"
	"github.com/raysh454/vulnx/internal/scan"
	"github.com/raysh454/vulnx/internal/session"
	"github.com/raysh454/vulnx/internal/view"
)

// SessionCookie carries the session ID between requests.
const SessionCookie = "vulnx_session"

const wsWriteTimeout = 10 * time.Second

//go:embed templates/*.html
var templateFS embed.FS

// Server is the HTTP + WebSocket surface of the VulnX console.
type Server struct {
	cfg      Config
	app      *app.Application
	router   chi.Router
	upgrader websocket.Upgrader
	logger   logging.Logger
	pages    map[view.Kind]*template.Template
	now      func() time.Time

	closing   chan struct{}
	closeOnce sync.Once
}

// NewServer creates a Server and starts its Application.
func NewServer(cfg Config) (*Server, error) {
	if cfg.AppConfig == nil {
		cfg.AppConfig = app.DefaultConfig()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewStdoutLogger("Server")
	}

	pages, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	a, err := app.NewApplication(cfg.AppConfig, logger, cfg.Service)
	if err != nil {
		return nil, fmt.Errorf("creating application: %w", err)
	}
	if err := a.Start(); err != nil {
		return nil, fmt.Errorf("starting application: %w", err)
	}

	r := chi.NewRouter()
	s := &Server{
		cfg:    cfg,
		app:    a,
		router: r,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// TODO: restrict to the console's own origin once it sits behind a fixed hostname
				return true
			},
		},
		pages:   pages,
		now:     time.Now,
		closing: make(chan struct{}),
	}

	s.routes()
	return s, nil
}

// Application returns the underlying application for advanced use (tests, etc.).
func (s *Server) Application() *app.Application {
	return s.app
}

func parseTemplates() (map[view.Kind]*template.Template, error) {
	funcs := template.FuncMap{
		"modeOption": func(m scan.Mode) string {
			if m == scan.ModeZAP {
				return "ZAP"
			}
			return m.Label()
		},
	}
	base, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, err
	}

	kinds := []view.Kind{view.KindHome, view.KindTips, view.KindAbout, view.KindGate, view.KindScan}
	pages := make(map[view.Kind]*template.Template, len(kinds))
	for _, k := range kinds {
		t, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(templateFS, "templates/"+string(k)+".html"); err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		pages[k] = t
	}
	return pages, nil
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)

	// CORS preflight
	r.Options("/api/state", s.optionsHandler("GET"))
	r.Options("/api/history", s.optionsHandler("GET"))
	r.Options("/api/history/{id}", s.optionsHandler("GET"))
	r.Options("/api/history/{id}/diff", s.optionsHandler("GET"))

	// Pages and form actions
	r.Get("/", s.handleIndex)
	r.Post("/nav/{page}", s.handleNavigate)
	r.Post("/permission/confirm", s.handleConfirm)
	r.Post("/permission/decline", s.handleDecline)
	r.Post("/scan", s.handleScan)
	r.Get("/report", s.handleReport)

	// JSON API
	r.Get("/api/state", s.handleState)
	r.Get("/api/history", s.handleListHistory)
	r.Get("/api/history/{id}", s.handleGetHistory)
	r.Get("/api/history/{id}/diff", s.handleHistoryDiff)

	// WebSocket for lifecycle transitions
	r.Get("/ws/scan", s.handleScanWS)

	r.Get("/healthz", s.handleHealth)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []logging.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
	}

	if q := r.URL.Query(); len(q) > 0 {
		fields = append(fields, logging.Field{Key: "query", Value: q})
	}

	if r.Body != nil && r.Method == http.MethodPost {
		if bodyBytes, err := io.ReadAll(r.Body); err == nil {
			if len(bodyBytes) > 0 {
				fields = append(fields, logging.Field{Key: "body", Value: string(bodyBytes)})
			}
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}
	}

	s.logger.Info("http_request", fields...)

	s.router.ServeHTTP(w, r)
}

// Shutdown closes open websocket streams and waits for in-flight scans
// until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	s.closeOnce.Do(func() { close(s.closing) })
	return s.app.Shutdown(ctx)
}

// Close is Shutdown with a five second grace period.
func (s *Server) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		s.logger.Warn("closing server", logging.Field{Key: "error", Value: err.Error()})
	}
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // allow streaming
	}
}

// --- Session helpers ---

// session returns the caller's session, creating one and setting the cookie
// when the request carries no live session ID.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *session.Session {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if sess, ok := s.app.Sessions.Get(c.Value); ok {
			return sess
		}
	}
	sess := s.app.Sessions.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}

func renderView(sess *session.Session) (view.View, scan.State) {
	st := sess.Scan.State()
	return view.Render(sess.Nav.Current(), sess.Gate.Confirmed(), st), st
}

func backHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// --- HTML ---

func navLinks(active navigation.Page) []navLink {
	pages := navigation.Pages()
	links := make([]navLink, 0, len(pages))
	for _, p := range pages {
		links = append(links, navLink{Page: p, Title: p.Title(), Active: p == active})
	}
	return links
}

func (s *Server) renderPage(w http.ResponseWriter, v view.View) {
	t, ok := s.pages[v.Kind]
	if !ok {
		writeError(w, http.StatusInternalServerError, "no template for view "+string(v.Kind))
		return
	}

	var buf bytes.Buffer
	data := pageData{Title: v.Active.Title(), Nav: navLinks(v.Active), View: v}
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		s.logger.Error("rendering page", logging.Field{Key: "view", Value: v.Kind}, logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, "rendering page failed")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// --- HTTP handlers ---

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	v, _ := renderView(sess)
	s.renderPage(w, v)
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)

	page, err := navigation.ParsePage(chi.URLParam(r, "page"))
	if err != nil {
		s.logger.Warn("navigating", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	sess.Nav.Navigate(page)
	backHome(w, r)
}

// Permission gate

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess.Gate.Confirm() {
		s.logger.Info("scan permission confirmed", logging.Field{Key: "session", Value: sess.ID})
	}
	backHome(w, r)
}

func (s *Server) handleDecline(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	sess.Gate.Decline(sess.Nav)
	backHome(w, r)
}

// Scans

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)

	if !sess.Gate.Confirmed() {
		s.logger.Warn("scan refused: permission not confirmed", logging.Field{Key: "session", Value: sess.ID})
		writeError(w, http.StatusForbidden, "permission to scan has not been confirmed")
		return
	}

	isJSON := strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")

	var rawURL, rawMode string
	if isJSON {
		var body scan.Request
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
		rawURL, rawMode = body.URL, string(body.Mode)
	} else {
		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, "invalid form")
			return
		}
		rawURL, rawMode = r.PostForm.Get("url"), r.PostForm.Get("mode")
	}

	mode, err := scan.ParseMode(rawMode)
	req := scan.Request{URL: strings.TrimSpace(rawURL), Mode: mode}
	if err == nil {
		err = req.Validate()
	}
	if err != nil {
		s.logger.Warn("scan refused", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	gen := sess.Scan.Submit(context.WithoutCancel(r.Context()), req)
	s.logger.Info("submitted scan",
		logging.Field{Key: "session", Value: sess.ID},
		logging.Field{Key: "url", Value: req.URL},
		logging.Field{Key: "mode", Value: req.Mode},
		logging.Field{Key: "generation", Value: gen})

	if isJSON {
		writeJSON(w, http.StatusAccepted, map[string]any{"generation": gen})
		return
	}
	backHome(w, r)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)

	doc, err := report.ForState(sess.Scan.State(), s.now())
	if err != nil {
		if errors.Is(err, report.ErrNotReady) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		s.logger.Error("generating report", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, "generating report failed")
		return
	}

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Body)
	s.logger.Info("served report", logging.Field{Key: "filename", Value: doc.Filename})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	v, st := renderView(sess)
	writeJSON(w, http.StatusOK, StateResponse{
		Session:   sess.ID,
		Page:      sess.Nav.Current(),
		Permitted: sess.Gate.Confirmed(),
		View:      v,
		Scan:      st,
	})
}

// History

func (s *Server) history(w http.ResponseWriter) (*history.Store, bool) {
	if s.app.History == nil {
		writeError(w, http.StatusNotFound, history.ErrDisabled.Error())
		return nil, false
	}
	return s.app.History, true
}

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	h, ok := s.history(w)
	if !ok {
		return
	}

	limit := 0
	if ls := r.URL.Query().Get("limit"); ls != "" {
		if v, err := strconv.Atoi(ls); err == nil && v > 0 {
			limit = v
		}
	}

	entries, err := h.List(r.Context(), limit)
	if err != nil {
		s.logger.Warn("listing history", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) lookupEntry(w http.ResponseWriter, r *http.Request, h *history.Store) (*history.Entry, bool) {
	id := chi.URLParam(r, "id")
	e, err := h.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return nil, false
		}
		s.logger.Warn("getting history entry", logging.Field{Key: "id", Value: id}, logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return e, true
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	h, ok := s.history(w)
	if !ok {
		return
	}
	if e, ok := s.lookupEntry(w, r, h); ok {
		writeJSON(w, http.StatusOK, e)
	}
}

func (s *Server) handleHistoryDiff(w http.ResponseWriter, r *http.Request) {
	h, ok := s.history(w)
	if !ok {
		return
	}
	cur, ok := s.lookupEntry(w, r, h)
	if !ok {
		return
	}

	prev, err := h.Previous(r.Context(), cur)
	if err != nil && !errors.Is(err, history.ErrNotFound) {
		s.logger.Warn("getting previous scan", logging.Field{Key: "id", Value: cur.ID}, logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var prevFindings []scan.Finding
	if prev != nil {
		prevFindings = prev.Findings
	}
	changes := report.DiffFindings(prevFindings, cur.Findings)
	if changes == nil {
		changes = []report.FindingChange{}
	}
	writeJSON(w, http.StatusOK, DiffResponse{Current: cur, Previous: prev, Changes: changes})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.app.Sessions.Len(),
		"history":  s.app.History != nil,
	})
}

// WebSockets

// handleScanWS streams the session's lifecycle: the current state first,
// then every transition. Bursts are coalesced so a slow client only skips
// intermediate states, never the latest one.
func (s *Server) handleScanWS(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)

	var hdr http.Header
	if cookies := w.Header().Values("Set-Cookie"); len(cookies) > 0 {
		hdr = http.Header{"Set-Cookie": cookies}
	}

	conn, err := s.upgrader.Upgrade(w, r, hdr)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Field{Key: "error", Value: err.Error()})
		return
	}
	defer conn.Close()

	events := make(chan scan.State, 8)
	stop := sess.Scan.Observe(func(st scan.State) {
		for {
			select {
			case events <- st:
				return
			default:
				select {
				case <-events:
				default:
				}
			}
		}
	})
	defer stop()

	// Reads only detect the peer going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	last := sess.Scan.State()
	if err := s.writeWS(conn, last); err != nil {
		return
	}

	for {
		select {
		case <-gone:
			return
		case <-s.closing:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(time.Second))
			return
		case st := <-events:
			if staleEvent(last, st) {
				continue
			}
			last = st
			if err := s.writeWS(conn, st); err != nil {
				s.logger.Debug("websocket write failed", logging.Field{Key: "session", Value: sess.ID}, logging.Field{Key: "error", Value: err.Error()})
				return
			}
		}
	}
}

func (s *Server) writeWS(conn *websocket.Conn, st scan.State) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteJSON(st)
}

// staleEvent reports whether ev is already reflected by last. Within one
// generation a state only moves from pending to a terminal status.
func staleEvent(last, ev scan.State) bool {
	if ev.Generation != last.Generation {
		return ev.Generation < last.Generation
	}
	return ev.Status == last.Status || (ev.Pending() && !last.Pending())
}
