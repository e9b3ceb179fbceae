// Package history keeps a SQLite record of completed scans so a target can
// be compared against its previous run.
package history

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/raysh454/vulnx/internal/logging"
	"github.com/raysh454/vulnx/internal/scan"

	_ "modernc.org/sqlite" // SQLite driver
)

//go:embed schema.sql
var schemaFS embed.FS

var (
	ErrNotFound = errors.New("scan not found")
	ErrDisabled = errors.New("scan history is disabled")
)

// Entry is one recorded scan.
type Entry struct {
	ID          string         `json:"id"`
	SessionID   string         `json:"-"`
	URL         string         `json:"url"`
	Mode        scan.Mode      `json:"mode"`
	Generation  uint64         `json:"generation"`
	CompletedAt time.Time      `json:"completed_at"`
	Count       int            `json:"findings_count"`
	Findings    []scan.Finding `json:"findings,omitempty"`
}

// Store reads and writes scan history.
type Store struct {
	db     *sql.DB
	logger logging.Logger
}

// NewStore applies the schema to db and returns a Store.
func NewStore(db *sql.DB, logger logging.Logger) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	if err := applySchema(db); err != nil {
		return nil, err
	}
	return &Store{db: db, logger: logger.With(logging.Field{Key: "component", Value: "history"})}, nil
}

// Open opens (creating if needed) the SQLite database at path.
func Open(path string, logger logging.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	// modernc sqlite serialises writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	s, err := NewStore(db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func applySchema(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema.sql: %w", err)
	}
	if _, err := db.Exec(string(schemaSQL)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores a succeeded scan state. Other states are ignored.
func (s *Store) Record(ctx context.Context, sessionID string, st scan.State) error {
	if !st.Succeeded() || st.Request == nil {
		return nil
	}
	findings := st.Findings
	if findings == nil {
		findings = []scan.Finding{}
	}
	resultJSON, err := json.Marshal(findings)
	if err != nil {
		return fmt.Errorf("encode findings: %w", err)
	}

	completed := st.UpdatedAt
	if completed.IsZero() {
		completed = time.Now()
	}
	id := uuid.New().String()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scans (id, session_id, url, mode, generation, completed_at, findings, result_json)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, sessionID, st.Request.URL, string(st.Request.Mode), int64(st.Generation),
		completed.UTC().UnixNano(), len(findings), string(resultJSON),
	)
	if err != nil {
		return fmt.Errorf("insert scan: %w", err)
	}

	s.logger.Info("recorded scan",
		logging.Field{Key: "id", Value: id},
		logging.Field{Key: "url", Value: st.Request.URL},
		logging.Field{Key: "findings", Value: len(findings)})
	return nil
}

// List returns the most recent scans first, without findings. limit <= 0
// means 50.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, url, mode, generation, completed_at, findings
         FROM scans
         ORDER BY completed_at DESC
         LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list scans: %w", err)
	}
	defer rows.Close()

	out := make([]Entry, 0)
	for rows.Next() {
		var (
			e         Entry
			mode      string
			gen       int64
			completed int64
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &e.URL, &mode, &gen, &completed, &e.Count); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		e.Mode = scan.Mode(mode)
		e.Generation = uint64(gen)
		e.CompletedAt = time.Unix(0, completed).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// Get returns one scan with its findings.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, session_id, url, mode, generation, completed_at, findings, result_json
         FROM scans WHERE id = ? LIMIT 1`, id)
	return scanEntry(row)
}

// Previous returns the scan of the same URL completed just before e.
func (s *Store) Previous(ctx context.Context, e *Entry) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, session_id, url, mode, generation, completed_at, findings, result_json
         FROM scans
         WHERE url = ? AND completed_at < ?
         ORDER BY completed_at DESC
         LIMIT 1`, e.URL, e.CompletedAt.UnixNano())
	return scanEntry(row)
}

func scanEntry(row *sql.Row) (*Entry, error) {
	var (
		e          Entry
		mode       string
		gen        int64
		completed  int64
		resultJSON string
	)
	if err := row.Scan(&e.ID, &e.SessionID, &e.URL, &mode, &gen, &completed, &e.Count, &resultJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	e.Mode = scan.Mode(mode)
	e.Generation = uint64(gen)
	e.CompletedAt = time.Unix(0, completed).UTC()
	if err := json.Unmarshal([]byte(resultJSON), &e.Findings); err != nil {
		return nil, fmt.Errorf("decode findings for %s: %w", e.ID, err)
	}
	if e.Findings == nil {
		e.Findings = []scan.Finding{}
	}
	return &e, nil
}
