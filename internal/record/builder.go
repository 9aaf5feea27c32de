// Package record assembles the final structured record from extracted fields
// and derives its deterministic, idempotent storage key.
package record

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/kolade-a/labreports-tracker/internal/entity"
	"github.com/kolade-a/labreports-tracker/internal/extract"
)

// DefaultUnits is stored when no units line was found for an indicator.
const DefaultUnits = "N/A"

var reNonNumeric = regexp.MustCompile(`[^\d.\-]`)

// LenientDecimal strips everything except digits, decimal points and minus
// signs, then parses. OCR noise must degrade to the supplied default, never
// abort a build.
func LenientDecimal(value string, def float64) float64 {
	cleaned := reNonNumeric.ReplaceAllString(value, "")
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return def
	}
	return f
}

// SplitRange splits a "low-high" range on its first dash into bounds. A range
// without a dash parses whole into the lower bound with an upper bound of
// zero.
func SplitRange(value string, def float64) (lower, upper float64) {
	normalized := strings.ReplaceAll(value, "–", "-")
	low, high, found := strings.Cut(normalized, "-")
	if !found {
		return LenientDecimal(normalized, def), 0
	}
	return LenientDecimal(low, def), LenientDecimal(high, def)
}

// PatientID derives a stable patient id: the first 10 hex characters of a
// SHA-256 over owner, patient name and collection date. The same logical
// patient always re-derives the same id across independent runs, so repeated
// processing overwrites instead of duplicating.
func PatientID(ownerID, patientName, collectedDate string) string {
	raw := fmt.Sprintf("%s_%s_%s", ownerID, patientName, collectedDate)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])[:10]
}

// CompositeKey is the uniqueness and idempotence boundary of a stored record.
func CompositeKey(patientID, uploadDate, indicatorName string) string {
	return patientID + "#" + uploadDate + "#" + indicatorName
}

// BuildInput carries everything needed to assemble one record.
type BuildInput struct {
	OwnerID     string
	DocumentKey string
	Meta        *entity.UploadMetadata
	Fields      extract.Fields
	Candidate   extract.Candidate
}

// Build assembles a ClinicalRecord. Numeric conversion failures fall back to
// zero; a metadata-supplied patient id wins over the derived one.
func Build(in BuildInput) *entity.ClinicalRecord {
	patientID := in.Meta.PatientID
	if patientID == "" {
		patientID = PatientID(in.OwnerID, in.Fields.PatientName, in.Fields.CollectedDate)
	}

	lower, upper := SplitRange(in.Candidate.Range, 0)
	units := in.Candidate.Units
	if units == "" {
		units = DefaultUnits
	}

	return &entity.ClinicalRecord{
		OwnerID:           in.OwnerID,
		CompositeKey:      CompositeKey(patientID, in.Meta.UploadDate, in.Candidate.Name),
		PatientID:         patientID,
		PatientName:       in.Fields.PatientName,
		CollectedDate:     in.Fields.CollectedDate,
		UploadDate:        in.Meta.UploadDate,
		LaboratoryName:    in.Fields.LaboratoryName,
		IndicatorName:     in.Candidate.Name,
		Result:            LenientDecimal(in.Candidate.Result, 0),
		Units:             units,
		LowerRange:        lower,
		UpperRange:        upper,
		SourceDocumentKey: in.DocumentKey,
	}
}
