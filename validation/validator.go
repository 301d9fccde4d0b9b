// Package validation provides input validation for operator-supplied values
// and data-quality reporting for the loaded procedure catalogue.
package validation

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/gingerhealthcare/profilegen/catalog"
)

// Maximum size of the pasted response text accepted by the document builder.
const MaxResponseTextLen = 200_000

// CatalogQualityReport summarises issues found in a freshly loaded catalogue.
type CatalogQualityReport struct {
	TotalEntries       int
	DuplicateNames     []string
	MissingSpecialty   int
	EmptyNameRows      int // rows the loader skipped
	SpecialtyCount     int
	LongestNameEntries []string // names suspiciously long for a procedure
}

// DataValidator validates catalogue entries and user input
type DataValidator struct{}

// NewDataValidator creates a new validator instance
func NewDataValidator() *DataValidator {
	return &DataValidator{}
}

// ReportCatalogQuality generates a quality report for a loaded catalogue.
// Issues are advisory; a load is never rejected because of them.
func (v *DataValidator) ReportCatalogQuality(entries []catalog.ProcedureEntry, loadReport *catalog.LoadReport) *CatalogQualityReport {
	report := &CatalogQualityReport{
		TotalEntries: len(entries),
	}
	if loadReport != nil {
		report.EmptyNameRows = loadReport.SkippedRows
	}

	seen := make(map[string]int, len(entries))
	specialties := make(map[string]struct{})

	for _, e := range entries {
		key := strings.ToLower(e.Name)
		seen[key]++
		if seen[key] == 2 {
			report.DuplicateNames = append(report.DuplicateNames, e.Name)
		}

		if strings.TrimSpace(e.Specialty) == "" {
			report.MissingSpecialty++
		} else {
			specialties[strings.ToLower(e.Specialty)] = struct{}{}
		}

		if utf8.RuneCountInString(e.Name) > 120 {
			report.LongestNameEntries = append(report.LongestNameEntries, e.Name)
		}
	}

	report.SpecialtyCount = len(specialties)
	return report
}

// ValidateDoctorURL checks an operator-submitted page URL before fetching.
func (v *DataValidator) ValidateDoctorURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("doctor URL cannot be empty")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got: %s", u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("URL has no host")
	}

	// Refuse obvious loopback targets; the fetcher runs server side
	if host == "localhost" {
		return fmt.Errorf("URL host not allowed: %s", host)
	}
	if ip := net.ParseIP(host); ip != nil && (ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified()) {
		return fmt.Errorf("URL host not allowed: %s", host)
	}

	return nil
}

// ValidateResponseText checks the pasted generation result before the
// document build. Empty text is allowed; the builder degrades gracefully.
func (v *DataValidator) ValidateResponseText(text string) error {
	if len(text) > MaxResponseTextLen {
		return fmt.Errorf("response text too large: %d bytes (max %d)", len(text), MaxResponseTextLen)
	}
	if !utf8.ValidString(text) {
		return fmt.Errorf("response text is not valid UTF-8")
	}
	return nil
}

// ValidateCredentialInput rejects login values that cannot possibly match.
func (v *DataValidator) ValidateCredentialInput(username, password string) error {
	if strings.TrimSpace(username) == "" || password == "" {
		return fmt.Errorf("username and password are required")
	}
	if len(username) > 254 || len(password) > 254 {
		return fmt.Errorf("credentials too long")
	}
	return nil
}
