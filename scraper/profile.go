// Package scraper fetches a doctor's public web page and extracts a
// best-effort profile from it. Extraction is advisory: heuristics may miss
// fields on any given page, and a malformed page never produces an error,
// only an emptier profile.
package scraper

import "strings"

// Maximum amount of page text kept on a profile.
const maxRawTextRunes = 5000

// Profile is the set of fields extracted from a scraped page.
// It lives for the duration of one generation request.
type Profile struct {
	URL            string   `json:"url"`
	Name           string   `json:"name,omitempty"`
	Specialties    []string `json:"specialties,omitempty"`
	Qualifications []string `json:"qualifications,omitempty"`
	ExperienceYrs  int      `json:"experience_years,omitempty"`
	Hospitals      []string `json:"hospitals,omitempty"`
	RawText        string   `json:"full_text"`
}

// CombinedText returns the lowercased text the matcher scores against:
// the raw page text plus the extracted specialty and qualification hints.
func (p *Profile) CombinedText() string {
	parts := []string{p.RawText}
	parts = append(parts, p.Specialties...)
	parts = append(parts, p.Qualifications...)
	return strings.ToLower(strings.Join(parts, " "))
}

// HasName reports whether name extraction succeeded.
func (p *Profile) HasName() bool {
	return p.Name != ""
}
