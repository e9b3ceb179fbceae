package scan

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrEmptyURL    = errors.New("target url is required")
	ErrInvalidMode = errors.New("invalid scan mode")
)

// Mode selects how deep the Scan Service probes.
type Mode string

const (
	ModeBasic Mode = "basic"
	ModeZAP   Mode = "zap"
)

// Modes lists the supported modes in display order.
func Modes() []Mode {
	return []Mode{ModeBasic, ModeZAP}
}

func (m Mode) Valid() bool {
	return m == ModeBasic || m == ModeZAP
}

// Label is the capitalised form used in reports ("Basic", "Zap").
func (m Mode) Label() string {
	if m == "" {
		return ""
	}
	s := string(m)
	return strings.ToUpper(s[:1]) + s[1:]
}

// ParseMode converts untrusted input into a Mode. An empty string means basic,
// matching the form's default selection.
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ModeBasic, nil
	}
	m := Mode(s)
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
	return m, nil
}

// Request is what the scan form submits. It is never mutated after Submit.
type Request struct {
	URL  string `json:"url"`
	Mode Mode   `json:"mode"`
}

// Validate checks the caller-side preconditions for Submit.
func (r Request) Validate() error {
	if strings.TrimSpace(r.URL) == "" {
		return ErrEmptyURL
	}
	if !r.Mode.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMode, r.Mode)
	}
	return nil
}

// Finding is one vulnerability reported by the Scan Service.
type Finding struct {
	Type        string `json:"type"`
	URL         string `json:"url"`
	Risk        string `json:"risk,omitempty"`
	Description string `json:"description,omitempty"`
}

// Status is the tag of the request state variant.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// State is a snapshot of a session's request lifecycle.
//
// Findings is non-nil exactly when Status is StatusSucceeded; an empty slice
// means the scan ran and found nothing. Error is set only for StatusFailed.
type State struct {
	Status     Status    `json:"status"`
	Generation uint64    `json:"generation"`
	Request    *Request  `json:"request,omitempty"`
	Findings   []Finding `json:"findings"`
	Error      string    `json:"error,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (s State) Pending() bool   { return s.Status == StatusPending }
func (s State) Succeeded() bool { return s.Status == StatusSucceeded }
func (s State) Failed() bool    { return s.Status == StatusFailed }

// clone returns a copy that shares no mutable memory with s.
func (s State) clone() State {
	out := s
	if s.Request != nil {
		req := *s.Request
		out.Request = &req
	}
	if s.Findings != nil {
		out.Findings = append(make([]Finding, 0, len(s.Findings)), s.Findings...)
	}
	return out
}
