// Package view maps the three per-session states onto what a page shows.
// Render is pure so the state machine can be tested without HTML.
package view

import (
	"github.com/raysh454/vulnx/internal/navigation"
	"github.com/raysh454/vulnx/internal/scan"
)

// Kind names the template a View is rendered with.
type Kind string

const (
	KindHome  Kind = "home"
	KindTips  Kind = "tips"
	KindAbout Kind = "about"
	KindGate  Kind = "gate"
	KindScan  Kind = "scan"
)

// View is everything a presentation layer needs for one page.
type View struct {
	Kind Kind `json:"kind"`
	// Active is the page highlighted in the navigation bar. It is the scan
	// page for both KindGate and KindScan.
	Active navigation.Page `json:"active"`
	Scan   *ScanPanel      `json:"scan,omitempty"`
}

// ScanPanel is the functional content of the scan page.
type ScanPanel struct {
	Scanning    bool           `json:"scanning"`
	Error       string         `json:"error,omitempty"`
	HasResults  bool           `json:"has_results"`
	Findings    []scan.Finding `json:"findings,omitempty"`
	CanDownload bool           `json:"can_download"`
	Target      string         `json:"target,omitempty"`
	Mode        scan.Mode      `json:"mode"`
	Modes       []scan.Mode    `json:"modes"`
}

// Render picks the view for page. The scan form is only shown once the
// permission gate is confirmed; before that the scan page renders the gate.
func Render(page navigation.Page, permitted bool, st scan.State) View {
	switch page {
	case navigation.PageTips:
		return View{Kind: KindTips, Active: page}
	case navigation.PageAbout:
		return View{Kind: KindAbout, Active: page}
	case navigation.PageScan:
		if !permitted {
			return View{Kind: KindGate, Active: page}
		}
		return View{Kind: KindScan, Active: page, Scan: scanPanel(st)}
	default:
		return View{Kind: KindHome, Active: navigation.PageHome}
	}
}

func scanPanel(st scan.State) *ScanPanel {
	p := &ScanPanel{
		Scanning: st.Pending(),
		Mode:     scan.ModeBasic,
		Modes:    scan.Modes(),
	}
	if st.Request != nil {
		p.Target = st.Request.URL
		p.Mode = st.Request.Mode
	}
	switch st.Status {
	case scan.StatusFailed:
		p.Error = st.Error
	case scan.StatusSucceeded:
		p.HasResults = true
		p.Findings = st.Findings
		p.CanDownload = true
	}
	return p
}
