// Package report turns a completed scan into a standalone HTML document the
// user can download.
package report

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/raysh454/vulnx/internal/scan"
)

//go:embed report.html
var reportHTML string

var reportTmpl = template.Must(template.New("report").Parse(reportHTML))

const (
	filenamePrefix   = "scan-report-"
	filenameFallback = "site"
	filenameExt      = ".html"

	// TimestampLayout is how the generation time is printed in reports.
	TimestampLayout = "2006-01-02 15:04:05 MST"
)

var ErrNotReady = errors.New("report requires a succeeded scan")

// Document is a generated report ready to be served as a download.
type Document struct {
	Filename    string
	ContentType string
	Body        []byte
}

type reportData struct {
	Target   string
	Mode     string
	Date     string
	Findings []scan.Finding
}

// Generate renders the report for findings, kept in the order given.
// It has no side effects.
func Generate(targetURL string, mode scan.Mode, findings []scan.Finding, generatedAt time.Time) (*Document, error) {
	data := reportData{
		Target:   targetURL,
		Mode:     mode.Label(),
		Date:     generatedAt.Format(TimestampLayout),
		Findings: findings,
	}

	var buf bytes.Buffer
	if err := reportTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}

	return &Document{
		Filename:    Filename(targetURL),
		ContentType: "text/html; charset=utf-8",
		Body:        buf.Bytes(),
	}, nil
}

// ForState generates the report for a succeeded lifecycle state.
func ForState(st scan.State, generatedAt time.Time) (*Document, error) {
	if !st.Succeeded() || st.Request == nil {
		return nil, fmt.Errorf("%w: state is %s", ErrNotReady, st.Status)
	}
	return Generate(st.Request.URL, st.Request.Mode, st.Findings, generatedAt)
}

// Filename derives the download name from the target URL: every rune outside
// [A-Za-z0-9] becomes '_'. An empty target yields "scan-report-site.html".
func Filename(targetURL string) string {
	if targetURL == "" {
		targetURL = filenameFallback
	}
	var b strings.Builder
	b.WriteString(filenamePrefix)
	for _, r := range targetURL {
		if (r >= 'A' && r <= 'Z') ||
			(r >= 'a' && r <= 'z') ||
			(r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	b.WriteString(filenameExt)
	return b.String()
}
