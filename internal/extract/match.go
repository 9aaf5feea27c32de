package extract

import (
	"fmt"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/kolade-a/labreports-tracker/internal/common"
)

// DefaultThreshold is the partial-ratio floor (0-100) below which a requested
// indicator is considered absent from the document.
const DefaultThreshold = 80

// MatchIndicator scores the requested indicator name against every candidate
// with a case-folded partial-ratio and returns the highest-scoring candidate
// at or above the threshold. Ties keep the first-seen candidate. A miss
// returns ErrNoIndicatorMatch so the caller can skip storage without aborting
// the item's siblings.
func MatchIndicator(requested string, cands []Candidate, threshold int) (Candidate, int, error) {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	req := strings.ToLower(strings.TrimSpace(requested))

	best := -1
	bestScore := 0
	for i, c := range cands {
		score := fuzzy.PartialRatio(req, strings.ToLower(c.Name))
		if score > bestScore {
			bestScore = score
			best = i
		}
	}
	if best < 0 || bestScore < threshold {
		return Candidate{}, bestScore, fmt.Errorf("indicator %q: best score %d below %d: %w",
			requested, bestScore, threshold, common.ErrNoIndicatorMatch)
	}
	return cands[best], bestScore, nil
}
