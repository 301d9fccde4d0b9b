// Package matcher scores the procedure catalogue against an extracted
// profile and returns the best matches. The scoring formula is a pluggable
// strategy; the default reproduces the keyword-overlap weights the matching
// has always used.
package matcher

import (
	"sort"
	"strings"

	"github.com/gingerhealthcare/profilegen/catalog"
	"github.com/gingerhealthcare/profilegen/scraper"
)

// Match pairs a catalogue entry with its relevance score.
type Match struct {
	Entry catalog.ProcedureEntry `json:"procedure"`
	Score float64                `json:"score"`
}

// Scorer computes a relevance score for one catalogue entry against the
// lowercased combined profile text. A score of zero means no match.
type Scorer interface {
	Score(entry catalog.ProcedureEntry, combinedText string) float64
}

// Matcher ranks catalogue entries for a profile.
type Matcher struct {
	scorer Scorer
	topN   int
}

// New creates a matcher with the given strategy and result cap.
func New(scorer Scorer, topN int) *Matcher {
	if scorer == nil {
		scorer = KeywordScorer{}
	}
	if topN <= 0 {
		topN = 15
	}
	return &Matcher{scorer: scorer, topN: topN}
}

// Rank scores every entry against the profile and returns at most topN
// matches in descending score order. Ties keep source order (stable sort).
// An empty catalogue or zero hits yields an empty, non-nil slice.
func (m *Matcher) Rank(profile *scraper.Profile, entries []catalog.ProcedureEntry) []Match {
	combined := profile.CombinedText()

	matches := make([]Match, 0, m.topN)
	for _, entry := range entries {
		score := m.scorer.Score(entry, combined)
		if score <= 0 {
			continue
		}
		matches = append(matches, Match{Entry: entry, Score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > m.topN {
		matches = matches[:m.topN]
	}
	return matches
}

// KeywordScorer is the default strategy: substring hits of the entry name,
// specialty and sub-specialty in the combined text, plus one point per name
// token longer than three runes.
type KeywordScorer struct{}

// Weights for the keyword-overlap formula.
const (
	nameHitWeight         = 10
	specialtyHitWeight    = 5
	subSpecialtyHitWeight = 3
	tokenHitWeight        = 1
)

func (KeywordScorer) Score(entry catalog.ProcedureEntry, combinedText string) float64 {
	score := 0.0

	if name := strings.ToLower(entry.Name); name != "" && strings.Contains(combinedText, name) {
		score += nameHitWeight
	}
	if specialty := strings.ToLower(entry.Specialty); specialty != "" && strings.Contains(combinedText, specialty) {
		score += specialtyHitWeight
	}
	if sub := strings.ToLower(entry.SubSpecialty); sub != "" && strings.Contains(combinedText, sub) {
		score += subSpecialtyHitWeight
	}

	for _, token := range entry.SearchTokens() {
		if strings.Contains(combinedText, token) {
			score += tokenHitWeight
		}
	}

	// Curated keywords count like name tokens when present.
	for _, keyword := range entry.Keywords {
		if kw := strings.ToLower(strings.TrimSpace(keyword)); kw != "" && strings.Contains(combinedText, kw) {
			score += tokenHitWeight
		}
	}

	return score
}
