package service

import (
	"strings"

	"github.com/ds124wfegd/eventbot/internal/entity"
	"github.com/pmezard/go-difflib/difflib"
)

// DefaultMatchCutoff is the minimum similarity accepted by the resolver.
const DefaultMatchCutoff = 0.5

// Resolver maps a user-typed event name to the closest event.
type Resolver struct {
	cutoff float64
}

func NewResolver(cutoff float64) *Resolver {
	if cutoff <= 0 || cutoff > 1 {
		cutoff = DefaultMatchCutoff
	}
	return &Resolver{cutoff: cutoff}
}

// Resolve returns the highest scoring candidate whose name similarity is at
// least the cutoff. Ties keep the earlier candidate.
func (r *Resolver) Resolve(query string, candidates []entity.Event) (*entity.Event, bool) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, false
	}

	best := -1
	bestScore := 0.0
	for i := range candidates {
		score := SimilarityRatio(strings.ToLower(candidates[i].Name), query)
		if score >= r.cutoff && score > bestScore {
			best, bestScore = i, score
		}
	}

	if best < 0 {
		return nil, false
	}
	return &candidates[best], true
}

// SimilarityRatio is 2*M/T where M is the number of characters in the
// longest matching blocks of a and b and T is their combined length.
func SimilarityRatio(a, b string) float64 {
	return difflib.NewMatcher(splitChars(a), splitChars(b)).Ratio()
}

func splitChars(s string) []string {
	chars := make([]string, 0, len(s))
	for _, r := range s {
		chars = append(chars, string(r))
	}
	return chars
}
