// Package extract parses raw OCR line blocks into typed candidate fields.
package extract

import (
	"regexp"
	"strings"

	"github.com/kolade-a/labreports-tracker/internal/entity"
)

// Fields holds the static labeled values found in a report. At most one value
// is retained per label; the first matching line wins.
type Fields struct {
	LaboratoryName string
	PatientName    string
	CollectedDate  string
}

// Candidate is one indicator row assembled from classified lines. Missing
// members stay empty; the record builder substitutes defaults.
type Candidate struct {
	Name   string
	Result string
	Range  string
	Units  string
}

var (
	reLaboratory = regexp.MustCompile(`(?i)laboratory name[:\-]?\s*(.*)`)
	rePatient    = regexp.MustCompile(`(?i)patient name[:\-]?\s*(.*)`)
	reCollected  = regexp.MustCompile(`(?i)collected on[:\-]?\s*(.*)`)

	reName   = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	reNumber = regexp.MustCompile(`^\d+(\.\d+)?$`)
	reRange  = regexp.MustCompile(`^\d+(\.\d+)?\s*[-–]\s*\d+(\.\d+)?$`)
	reUnits  = regexp.MustCompile(`^[a-zA-Z]+/[a-zA-Z]+$`)
)

// Lines filters blocks down to trimmed LINE text.
func Lines(blocks []entity.OcrBlock) []string {
	var lines []string
	for _, b := range blocks {
		if b.BlockType != entity.BlockTypeLine {
			continue
		}
		text := strings.TrimSpace(b.Text)
		if text != "" {
			lines = append(lines, text)
		}
	}
	return lines
}

// Parse extracts the static fields and the ordered indicator candidates from
// one document's blocks.
//
// Lines are classified in a single forward scan, mutually exclusive in this
// order: indicator name (letters/whitespace only, next line numeric), numeric
// result, numeric range, units. Each indicator name claims the first token of
// each kind that follows it and precedes the next indicator name; tokens with
// no preceding name are dropped. This keeps rows aligned on documents where
// individual rows are missing fields.
func Parse(blocks []entity.OcrBlock) (Fields, []Candidate) {
	lines := Lines(blocks)

	var f Fields
	for _, line := range lines {
		if f.LaboratoryName == "" {
			if m := reLaboratory.FindStringSubmatch(line); m != nil {
				f.LaboratoryName = strings.TrimSpace(m[1])
				continue
			}
		}
		if f.PatientName == "" {
			if m := rePatient.FindStringSubmatch(line); m != nil {
				f.PatientName = strings.TrimSpace(m[1])
				continue
			}
		}
		if f.CollectedDate == "" {
			if m := reCollected.FindStringSubmatch(line); m != nil {
				f.CollectedDate = strings.TrimSpace(m[1])
			}
		}
	}

	var cands []Candidate
	cur := -1
	for i, line := range lines {
		switch {
		case reName.MatchString(line) && i+1 < len(lines) && reNumber.MatchString(lines[i+1]):
			cands = append(cands, Candidate{Name: line})
			cur = len(cands) - 1
		case reNumber.MatchString(line):
			if cur >= 0 && cands[cur].Result == "" {
				cands[cur].Result = line
			}
		case reRange.MatchString(line):
			if cur >= 0 && cands[cur].Range == "" {
				cands[cur].Range = line
			}
		case reUnits.MatchString(line):
			if cur >= 0 && cands[cur].Units == "" {
				cands[cur].Units = line
			}
		}
	}
	return f, cands
}
