package report_test

import (
	"testing"

	"github.com/raysh454/vulnx/internal/report"
	"github.com/raysh454/vulnx/internal/scan"
)

func TestDiffFindings_AddedAndRemoved(t *testing.T) {
	xss := scan.Finding{Type: "XSS", URL: "https://example.com/a"}
	sqli := scan.Finding{Type: "SQL Injection", URL: "https://example.com/b", Risk: "High"}
	csrf := scan.Finding{Type: "CSRF", URL: "https://example.com/c"}

	changes := report.DiffFindings([]scan.Finding{xss, sqli}, []scan.Finding{xss, csrf})

	var added, removed []scan.Finding
	for _, c := range changes {
		switch c.Op {
		case report.ChangeAdded:
			added = append(added, c.Finding)
		case report.ChangeRemoved:
			removed = append(removed, c.Finding)
		}
	}
	if len(added) != 1 || added[0] != csrf {
		t.Errorf("expected CSRF added, got %+v", added)
	}
	if len(removed) != 1 || removed[0] != sqli {
		t.Errorf("expected SQLi removed, got %+v", removed)
	}
}

func TestDiffFindings_Identical(t *testing.T) {
	fs := []scan.Finding{{Type: "XSS", URL: "u"}}
	if changes := report.DiffFindings(fs, fs); len(changes) != 0 {
		t.Errorf("expected no changes, got %+v", changes)
	}
}

func TestDiffFindings_FromEmpty(t *testing.T) {
	cur := []scan.Finding{{Type: "XSS", URL: "u"}, {Type: "XSS", URL: "v"}}
	changes := report.DiffFindings(nil, cur)
	if len(changes) != 2 {
		t.Fatalf("expected 2 changes, got %d", len(changes))
	}
	for i, c := range changes {
		if c.Op != report.ChangeAdded || c.Finding != cur[i] {
			t.Errorf("change %d: %+v", i, c)
		}
	}
}
