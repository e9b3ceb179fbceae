package report

import (
	"encoding/json"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/raysh454/vulnx/internal/scan"
)

// ChangeOp tells whether a finding appeared or disappeared between scans.
type ChangeOp string

const (
	ChangeAdded   ChangeOp = "added"
	ChangeRemoved ChangeOp = "removed"
)

// FindingChange is one entry of a scan-to-scan comparison.
type FindingChange struct {
	Op      ChangeOp     `json:"op"`
	Finding scan.Finding `json:"finding"`
}

// DiffFindings compares two ordered finding lists line by line, one line per
// finding, and returns what was removed from prev and added in cur.
// Unchanged findings are omitted.
func DiffFindings(prev, cur []scan.Finding) []FindingChange {
	dmp := diffmatchpatch.New()

	a, b, lines := dmp.DiffLinesToChars(findingLines(prev), findingLines(cur))
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)

	changes := make([]FindingChange, 0)
	for _, d := range diffs {
		var op ChangeOp
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			op = ChangeAdded
		case diffmatchpatch.DiffDelete:
			op = ChangeRemoved
		default:
			continue
		}
		for _, line := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			if line == "" {
				continue
			}
			var f scan.Finding
			if err := json.Unmarshal([]byte(line), &f); err != nil {
				continue
			}
			changes = append(changes, FindingChange{Op: op, Finding: f})
		}
	}
	return changes
}

func findingLines(findings []scan.Finding) string {
	var b strings.Builder
	for _, f := range findings {
		// json.Marshal escapes newlines, so each finding stays on one line.
		line, err := json.Marshal(f)
		if err != nil {
			continue
		}
		b.Write(line)
		b.WriteByte('\n')
	}
	return b.String()
}
