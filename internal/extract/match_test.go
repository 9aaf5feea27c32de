package extract

import (
	"errors"
	"testing"

	"github.com/kolade-a/labreports-tracker/internal/common"
)

func TestMatchIndicator_ExactAlwaysMatches(t *testing.T) {
	cands := []Candidate{{Name: "Hemoglobin"}, {Name: "Glucose"}}
	got, score, err := MatchIndicator("Glucose", cands, DefaultThreshold)
	if err != nil {
		t.Fatalf("MatchIndicator: %v", err)
	}
	if got.Name != "Glucose" {
		t.Errorf("matched %q, want Glucose", got.Name)
	}
	if score != 100 {
		t.Errorf("score = %d, want 100", score)
	}
}

func TestMatchIndicator_CaseInsensitive(t *testing.T) {
	cands := []Candidate{{Name: "Glucose"}}
	got, _, err := MatchIndicator("glucose", cands, DefaultThreshold)
	if err != nil {
		t.Fatalf("MatchIndicator: %v", err)
	}
	if got.Name != "Glucose" {
		t.Errorf("matched %q", got.Name)
	}
}

func TestMatchIndicator_UnrelatedBelowThreshold(t *testing.T) {
	cands := []Candidate{{Name: "Foobar"}}
	_, _, err := MatchIndicator("Glucose", cands, DefaultThreshold)
	if !errors.Is(err, common.ErrNoIndicatorMatch) {
		t.Errorf("err = %v, want ErrNoIndicatorMatch", err)
	}
}

func TestMatchIndicator_NoCandidates(t *testing.T) {
	_, _, err := MatchIndicator("Glucose", nil, DefaultThreshold)
	if !errors.Is(err, common.ErrNoIndicatorMatch) {
		t.Errorf("err = %v, want ErrNoIndicatorMatch", err)
	}
}

func TestMatchIndicator_TieKeepsFirstSeen(t *testing.T) {
	// Both candidates contain the requested name verbatim, so partial-ratio
	// scores them identically.
	cands := []Candidate{{Name: "Glucose fasting"}, {Name: "Glucose random"}}
	got, _, err := MatchIndicator("Glucose", cands, DefaultThreshold)
	if err != nil {
		t.Fatalf("MatchIndicator: %v", err)
	}
	if got.Name != "Glucose fasting" {
		t.Errorf("matched %q, want first-seen candidate", got.Name)
	}
}
