package record

import (
	"testing"

	"github.com/kolade-a/labreports-tracker/internal/entity"
	"github.com/kolade-a/labreports-tracker/internal/extract"
)

func TestLenientDecimal(t *testing.T) {
	cases := []struct {
		in   string
		def  float64
		want float64
	}{
		{"95", 0, 95},
		{"12.5 mg", 0, 12.5},
		{"  7.08 ", 0, 7.08},
		{"-3.2", 0, -3.2},
		{"n/a", 0, 0},
		{"", 7, 7},
		{"1.2.3", 9, 9},
	}
	for _, tc := range cases {
		if got := LenientDecimal(tc.in, tc.def); got != tc.want {
			t.Errorf("LenientDecimal(%q, %v) = %v, want %v", tc.in, tc.def, got, tc.want)
		}
	}
}

func TestSplitRange(t *testing.T) {
	cases := []struct {
		in           string
		lower, upper float64
	}{
		{"70-110", 70, 110},
		{"0.4 – 4.0", 0.4, 4},
		{"95", 95, 0},
		{"junk", 0, 0},
		{"", 0, 0},
	}
	for _, tc := range cases {
		lower, upper := SplitRange(tc.in, 0)
		if lower != tc.lower || upper != tc.upper {
			t.Errorf("SplitRange(%q) = (%v, %v), want (%v, %v)", tc.in, lower, upper, tc.lower, tc.upper)
		}
	}
}

func TestPatientID_Deterministic(t *testing.T) {
	a := PatientID("owner-1", "Jane Doe", "2024-01-01")
	b := PatientID("owner-1", "Jane Doe", "2024-01-01")
	if a != b {
		t.Errorf("same inputs produced %q and %q", a, b)
	}
	if len(a) != 10 {
		t.Errorf("id length = %d, want 10", len(a))
	}

	variants := []string{
		PatientID("owner-2", "Jane Doe", "2024-01-01"),
		PatientID("owner-1", "John Doe", "2024-01-01"),
		PatientID("owner-1", "Jane Doe", "2024-01-02"),
	}
	for _, v := range variants {
		if v == a {
			t.Errorf("changed input re-derived the same id %q", a)
		}
	}
}

func TestCompositeKey(t *testing.T) {
	got := CompositeKey("abc123", "2024-01-02T10:00:00Z", "Glucose")
	if got != "abc123#2024-01-02T10:00:00Z#Glucose" {
		t.Errorf("CompositeKey = %q", got)
	}
}

func TestBuild(t *testing.T) {
	meta := &entity.UploadMetadata{
		UserID:     "owner-1",
		UploadDate: "2024-01-02T10:00:00Z",
		Indicators: []string{"Glucose"},
	}
	rec := Build(BuildInput{
		OwnerID:     "owner-1",
		DocumentKey: "uploads/owner-1/id1/report_1.jpg",
		Meta:        meta,
		Fields: extract.Fields{
			LaboratoryName: "Acme Labs",
			PatientName:    "Jane Doe",
			CollectedDate:  "2024-01-01",
		},
		Candidate: extract.Candidate{Name: "Glucose", Result: "95", Range: "70-110", Units: "mg/dL"},
	})

	if rec.Result != 95 || rec.LowerRange != 70 || rec.UpperRange != 110 {
		t.Errorf("numeric fields = %v / %v-%v", rec.Result, rec.LowerRange, rec.UpperRange)
	}
	if rec.Units != "mg/dL" || rec.PatientName != "Jane Doe" || rec.LaboratoryName != "Acme Labs" {
		t.Errorf("record = %+v", rec)
	}
	wantID := PatientID("owner-1", "Jane Doe", "2024-01-01")
	if rec.PatientID != wantID {
		t.Errorf("PatientID = %q, want %q", rec.PatientID, wantID)
	}
	if rec.CompositeKey != wantID+"#2024-01-02T10:00:00Z#Glucose" {
		t.Errorf("CompositeKey = %q", rec.CompositeKey)
	}
}

func TestBuild_DefaultsAndSuppliedPatientID(t *testing.T) {
	meta := &entity.UploadMetadata{
		UserID:     "owner-1",
		UploadDate: "2024-01-02",
		PatientID:  "supplied-id",
		Indicators: []string{"TSH"},
	}
	rec := Build(BuildInput{
		OwnerID:     "owner-1",
		DocumentKey: "uploads/owner-1/id1/report_1.jpg",
		Meta:        meta,
		Candidate:   extract.Candidate{Name: "TSH", Result: "n/a"},
	})
	if rec.PatientID != "supplied-id" {
		t.Errorf("PatientID = %q, want supplied-id", rec.PatientID)
	}
	if rec.Result != 0 {
		t.Errorf("Result = %v, want 0 (lenient default)", rec.Result)
	}
	if rec.Units != DefaultUnits {
		t.Errorf("Units = %q, want %q", rec.Units, DefaultUnits)
	}
	if rec.LowerRange != 0 || rec.UpperRange != 0 {
		t.Errorf("range = %v-%v, want 0-0", rec.LowerRange, rec.UpperRange)
	}
}
