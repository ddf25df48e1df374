package intel

import (
	"github.com/ternarybob/arbitror/internal/models"
)

// identitySimilarity returns the token-set Jaccard similarity of two
// company names after identity normalization. "Forge Global" and
// "Forge Global Holdings, Inc." normalize to the same token set and
// score 1.0.
func identitySimilarity(a, b string) float64 {
	ta := models.IdentityTokens(a)
	tb := models.IdentityTokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	set := make(map[string]bool, len(ta))
	for _, tok := range ta {
		set[tok] = true
	}

	intersection := 0
	seen := make(map[string]bool, len(tb))
	for _, tok := range tb {
		if seen[tok] {
			continue
		}
		seen[tok] = true
		if set[tok] {
			intersection++
		}
	}

	union := len(set) + len(seen) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
