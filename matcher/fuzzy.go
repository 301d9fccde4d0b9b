package matcher

import (
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/gingerhealthcare/profilegen/catalog"
)

// FuzzyScorer is an alternative strategy that tolerates inflections and
// small typos in the page text by comparing tokens with Jaro-Winkler
// similarity instead of exact substring containment.
type FuzzyScorer struct {
	// Threshold is the minimum Jaro-Winkler similarity for a token hit.
	// Zero means the default of 0.92.
	Threshold float64
}

func (s FuzzyScorer) threshold() float64 {
	if s.Threshold <= 0 || s.Threshold > 1 {
		return 0.92
	}
	return s.Threshold
}

func (s FuzzyScorer) Score(entry catalog.ProcedureEntry, combinedText string) float64 {
	textTokens := strings.Fields(combinedText)
	if len(textTokens) == 0 {
		return 0
	}

	score := 0.0

	if s.tokensPresent(strings.ToLower(entry.Name), textTokens) {
		score += nameHitWeight
	}
	if entry.Specialty != "" && s.tokensPresent(strings.ToLower(entry.Specialty), textTokens) {
		score += specialtyHitWeight
	}
	if entry.SubSpecialty != "" && s.tokensPresent(strings.ToLower(entry.SubSpecialty), textTokens) {
		score += subSpecialtyHitWeight
	}

	for _, token := range entry.SearchTokens() {
		if s.tokenPresent(token, textTokens) {
			score += tokenHitWeight
		}
	}

	// Curated keywords count like name tokens, same as the default strategy.
	for _, keyword := range entry.Keywords {
		if kw := strings.ToLower(strings.TrimSpace(keyword)); kw != "" && s.tokensPresent(kw, textTokens) {
			score += tokenHitWeight
		}
	}

	return score
}

// tokensPresent reports whether every token of the phrase has a fuzzy hit.
func (s FuzzyScorer) tokensPresent(phrase string, textTokens []string) bool {
	fields := strings.Fields(phrase)
	if len(fields) == 0 {
		return false
	}
	for _, f := range fields {
		if !s.tokenPresent(f, textTokens) {
			return false
		}
	}
	return true
}

func (s FuzzyScorer) tokenPresent(token string, textTokens []string) bool {
	threshold := s.threshold()
	for _, candidate := range textTokens {
		if matchr.JaroWinkler(token, candidate, false) >= threshold {
			return true
		}
	}
	return false
}
