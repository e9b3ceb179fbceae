package scan_test

import (
	"errors"
	"testing"

	"github.com/raysh454/vulnx/internal/scan"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want scan.Mode
		err  bool
	}{
		{"basic", scan.ModeBasic, false},
		{"ZAP", scan.ModeZAP, false},
		{"", scan.ModeBasic, false},
		{"deep", "", true},
	}
	for _, tt := range tests {
		got, err := scan.ParseMode(tt.in)
		if tt.err {
			if !errors.Is(err, scan.ErrInvalidMode) {
				t.Errorf("ParseMode(%q): expected ErrInvalidMode, got %v", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseMode(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestMode_Label(t *testing.T) {
	if scan.ModeBasic.Label() != "Basic" {
		t.Errorf("got %q", scan.ModeBasic.Label())
	}
	if scan.ModeZAP.Label() != "Zap" {
		t.Errorf("got %q", scan.ModeZAP.Label())
	}
}

func TestRequest_Validate(t *testing.T) {
	if err := (scan.Request{URL: "https://example.com", Mode: scan.ModeBasic}).Validate(); err != nil {
		t.Errorf("valid request rejected: %v", err)
	}
	if err := (scan.Request{URL: "  ", Mode: scan.ModeBasic}).Validate(); !errors.Is(err, scan.ErrEmptyURL) {
		t.Errorf("expected ErrEmptyURL, got %v", err)
	}
	if err := (scan.Request{URL: "x", Mode: "deep"}).Validate(); !errors.Is(err, scan.ErrInvalidMode) {
		t.Errorf("expected ErrInvalidMode, got %v", err)
	}
}
