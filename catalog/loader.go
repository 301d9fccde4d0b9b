package catalog

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gingerhealthcare/profilegen/logging"
	"golang.org/x/text/encoding/charmap"
)

// LoadReport summarises what happened during a catalogue load.
type LoadReport struct {
	TotalRows     int
	SkippedRows   int
	HeaderRow     bool
	SourcePattern string // "sheets", "csv", "tsv" or "xlsx"
}

// Loader reads procedure entries from the configured source.
type Loader struct {
	source string
	client *http.Client
}

// NewLoader creates a loader for the given source, which may be a Google
// Sheets URL, an http(s) URL serving CSV, or a local .csv/.tsv/.xlsx path.
func NewLoader(source string) *Loader {
	return &Loader{
		source: source,
		client: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

var sheetIDPattern = regexp.MustCompile(`/d/([a-zA-Z0-9-_]+)`)

// sheetsExportURL converts a Google Sheets link into its public CSV export
// endpoint. Returns an empty string when the link does not contain a sheet id.
func sheetsExportURL(rawURL string) string {
	m := sheetIDPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return ""
	}
	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/export?format=csv&gid=0", m[1])
}

// Load fetches and parses the catalogue. The returned slice is in source
// order and must be treated as immutable by callers.
func (l *Loader) Load() ([]ProcedureEntry, *LoadReport, error) {
	if l.source == "" {
		return nil, nil, fmt.Errorf("procedures source is not configured")
	}

	switch {
	case strings.Contains(l.source, "docs.google.com/spreadsheets"):
		return l.loadRemote(sheetsExportURL(l.source), "sheets")
	case strings.HasPrefix(l.source, "http://"), strings.HasPrefix(l.source, "https://"):
		return l.loadRemote(l.source, "csv")
	case strings.EqualFold(filepath.Ext(l.source), ".xlsx"):
		return l.loadWorkbook(l.source)
	default:
		return l.loadFile(l.source)
	}
}

func (l *Loader) loadRemote(url string, pattern string) ([]ProcedureEntry, *LoadReport, error) {
	if url == "" {
		return nil, nil, fmt.Errorf("could not extract sheet id from: %s", l.source)
	}

	response, err := l.client.Get(url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to download catalogue from %s: %w", url, err)
	}
	defer func() {
		if err := response.Body.Close(); err != nil {
			logging.Warn("Failed to close response body", "error", err)
		}
	}()

	if response.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("catalogue download returned status %d", response.StatusCode)
	}

	bodyBytes, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read catalogue response: %w", err)
	}

	entries, report, err := parseDelimited(decodeToUTF8(bodyBytes), ',')
	if report != nil {
		report.SourcePattern = pattern
	}
	return entries, report, err
}

func (l *Loader) loadFile(path string) ([]ProcedureEntry, *LoadReport, error) {
	cleanPath := filepath.Clean(path)
	raw, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read catalogue file %s: %w", cleanPath, err)
	}

	delimiter := ','
	pattern := "csv"
	if strings.EqualFold(filepath.Ext(cleanPath), ".tsv") {
		delimiter = '\t'
		pattern = "tsv"
	}

	entries, report, err := parseDelimited(decodeToUTF8(raw), delimiter)
	if report != nil {
		report.SourcePattern = pattern
	}
	return entries, report, err
}

// decodeToUTF8 passes valid UTF-8 through unchanged and decodes everything
// else as ISO-8859-1, the same fallback the public data sources need.
func decodeToUTF8(raw []byte) io.Reader {
	if utf8.Valid(raw) {
		return bytes.NewReader(raw)
	}
	return charmap.ISO8859_1.NewDecoder().Reader(bytes.NewReader(raw))
}

// Column labels used by the source spreadsheet. Position is the fallback
// when no recognisable header row is present.
var headerAliases = map[string]int{
	"entity_name":      0,
	"procedure":        0,
	"name":             0,
	"top_specialty":    1,
	"specialty":        1,
	"sub_specialty":    2,
	"complexity_level": 3,
	"complexity":       3,
	"keywords":         4,
}

// columnLayout maps semantic fields to column positions for one parse run.
type columnLayout struct {
	name, specialty, subSpecialty, complexity, keywords int
}

func defaultLayout() columnLayout {
	return columnLayout{name: 0, specialty: 1, subSpecialty: 2, complexity: 3, keywords: 4}
}

// detectHeader checks whether the first row is a header and, if so, builds
// the column layout from it.
func detectHeader(row []string) (columnLayout, bool) {
	layout := defaultLayout()
	found := false
	for i, cell := range row {
		key := strings.ToLower(strings.TrimSpace(cell))
		pos, ok := headerAliases[key]
		if !ok {
			continue
		}
		found = true
		switch pos {
		case 0:
			layout.name = i
		case 1:
			layout.specialty = i
		case 2:
			layout.subSpecialty = i
		case 3:
			layout.complexity = i
		case 4:
			layout.keywords = i
		}
	}
	return layout, found
}

func parseDelimited(r io.Reader, delimiter rune) ([]ProcedureEntry, *LoadReport, error) {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse catalogue rows: %w", err)
	}

	report := &LoadReport{}
	layout := defaultLayout()

	start := 0
	if len(rows) > 0 {
		if detected, ok := detectHeader(rows[0]); ok {
			layout = detected
			report.HeaderRow = true
			start = 1
		}
	}

	var entries []ProcedureEntry
	for _, row := range rows[start:] {
		report.TotalRows++
		entry, ok := rowToEntry(row, layout)
		if !ok {
			report.SkippedRows++
			continue
		}
		entries = append(entries, entry)
	}

	logging.Debug("Catalogue rows parsed",
		"total", report.TotalRows,
		"skipped", report.SkippedRows,
		"header_row", report.HeaderRow)

	return entries, report, nil
}

func rowToEntry(row []string, layout columnLayout) (ProcedureEntry, bool) {
	cell := func(i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	name := cell(layout.name)
	if name == "" {
		return ProcedureEntry{}, false
	}

	entry := ProcedureEntry{
		Name:         name,
		Specialty:    cell(layout.specialty),
		SubSpecialty: cell(layout.subSpecialty),
		Complexity:   cell(layout.complexity),
	}

	if kw := cell(layout.keywords); kw != "" {
		for _, k := range strings.Split(kw, ";") {
			if k = strings.TrimSpace(k); k != "" {
				entry.Keywords = append(entry.Keywords, k)
			}
		}
	}

	return entry, true
}
