// Package catalog provides functionality for loading the procedure catalogue
// from external tabular sources: a public Google Sheets URL, a local CSV/TSV
// file, or a local .xlsx workbook.
package catalog

import "strings"

// ProcedureEntry is a single row of the procedure catalogue.
// Names are not guaranteed unique in the source data.
type ProcedureEntry struct {
	Name         string   `json:"name"`
	Specialty    string   `json:"specialty"`
	SubSpecialty string   `json:"sub_specialty,omitempty"`
	Complexity   string   `json:"complexity,omitempty"`
	Keywords     []string `json:"keywords,omitempty"`
}

// SearchTokens returns the lowercased name tokens longer than three runes,
// used by the default matching strategy.
func (p ProcedureEntry) SearchTokens() []string {
	var tokens []string
	for _, tok := range strings.Fields(strings.ToLower(p.Name)) {
		if len([]rune(tok)) > 3 {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// SpecialtyIndex builds a map of lowercased specialty name to the entries
// belonging to it, preserving source order within each specialty.
func SpecialtyIndex(entries []ProcedureEntry) map[string][]ProcedureEntry {
	index := make(map[string][]ProcedureEntry)
	for _, e := range entries {
		key := strings.ToLower(strings.TrimSpace(e.Specialty))
		if key == "" {
			key = "uncategorized"
		}
		index[key] = append(index[key], e)
	}
	return index
}
