package scraper

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/gingerhealthcare/profilegen/logging"
)

var (
	namePatterns = []*regexp.Regexp{
		regexp.MustCompile(`Dr\.?\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)+)`),
		regexp.MustCompile(`Doctor\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)+)`),
	}

	experiencePattern = regexp.MustCompile(`(?i)(\d+)\+?\s*years?\s*(?:of\s*)?experience`)

	qualificationPattern = regexp.MustCompile(`(?i)\b(MBBS|MD|MS|DM|MCh|DNB|FRCS|MRCP|FRCPath)\b`)

	hospitalPatterns = []*regexp.Regexp{
		regexp.MustCompile(`([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)\s+Hospital`),
		regexp.MustCompile(`([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)\s+Medical\s+Center`),
	}

	whitespacePattern = regexp.MustCompile(`\s+`)
)

// specialtyVocabulary is the fixed list of specialty keywords looked for in
// the page text. Matches are reported in title case.
var specialtyVocabulary = []string{
	"cardiologist", "cardiology", "orthopedic", "orthopedics",
	"neurologist", "neurology", "oncologist", "oncology",
	"surgeon", "surgery", "physician", "pediatrician",
	"dermatologist", "dermatology", "ent", "gastroenterologist",
}

// canonical casing for extracted qualification abbreviations
var qualificationCasing = map[string]string{
	"MBBS": "MBBS", "MD": "MD", "MS": "MS", "DM": "DM", "MCH": "MCh",
	"DNB": "DNB", "FRCS": "FRCS", "MRCP": "MRCP", "FRCPATH": "FRCPath",
}

// Extract turns raw HTML into a Profile. It never fails: when the markup
// cannot be parsed the profile carries whatever text could be salvaged and
// all optional fields stay unset.
func Extract(pageURL, rawHTML string) *Profile {
	profile := &Profile{URL: pageURL}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		logging.Warn("HTML parse failed, falling back to readability", "url", pageURL, "error", err)
		profile.RawText = readableText(pageURL, rawHTML)
		applyTextHeuristics(profile)
		return profile
	}

	doc.Find("script, style, noscript").Remove()
	profile.RawText = normalizeText(doc.Text())

	if profile.RawText == "" {
		// Pages rendered entirely by scripts sometimes leave nothing behind
		// once markup is stripped; readability occasionally does better.
		profile.RawText = readableText(pageURL, rawHTML)
	}

	applyTextHeuristics(profile)

	if profile.Name == "" {
		profile.Name = nameFromHeadings(doc)
	}

	return profile
}

// applyTextHeuristics fills the optional fields derivable from the text blob.
func applyTextHeuristics(p *Profile) {
	p.Name = extractName(p.RawText)
	p.Specialties = extractSpecialties(p.RawText)
	p.Qualifications = extractQualifications(p.RawText)
	p.ExperienceYrs = extractExperienceYears(p.RawText)
	p.Hospitals = extractHospitals(p.RawText)
}

// readableText extracts article text via go-readability as a fallback path.
func readableText(pageURL, rawHTML string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		u = &url.URL{}
	}
	article, err := readability.FromReader(strings.NewReader(rawHTML), u)
	if err != nil {
		logging.Warn("Readability extraction failed", "url", pageURL, "error", err)
		return ""
	}
	return normalizeText(article.TextContent)
}

// normalizeText collapses whitespace and caps the blob length.
func normalizeText(text string) string {
	text = strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
	runes := []rune(text)
	if len(runes) > maxRawTextRunes {
		return string(runes[:maxRawTextRunes])
	}
	return text
}

func extractName(text string) string {
	for _, pattern := range namePatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	return ""
}

// nameFromHeadings falls back to h1/h2/title elements mentioning "dr".
func nameFromHeadings(doc *goquery.Document) string {
	name := ""
	doc.Find("h1, h2, title").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.TrimSpace(sel.Text())
		if text != "" && strings.Contains(strings.ToLower(text), "dr") {
			name = normalizeText(text)
			return false
		}
		return true
	})
	return name
}

func extractSpecialties(text string) []string {
	lower := strings.ToLower(text)
	var specialties []string
	seen := make(map[string]struct{})

	for _, keyword := range specialtyVocabulary {
		if !strings.Contains(lower, keyword) {
			continue
		}
		title := strings.ToUpper(keyword[:1]) + keyword[1:]
		if _, ok := seen[title]; ok {
			continue
		}
		seen[title] = struct{}{}
		specialties = append(specialties, title)
	}

	return specialties
}

func extractQualifications(text string) []string {
	var qualifications []string
	seen := make(map[string]struct{})

	for _, m := range qualificationPattern.FindAllStringSubmatch(text, -1) {
		canonical, ok := qualificationCasing[strings.ToUpper(m[1])]
		if !ok {
			continue
		}
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}
		qualifications = append(qualifications, canonical)
	}

	return qualifications
}

func extractExperienceYears(text string) int {
	m := experiencePattern.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	years, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return years
}

func extractHospitals(text string) []string {
	var hospitals []string
	seen := make(map[string]struct{})

	for _, pattern := range hospitalPatterns {
		for _, m := range pattern.FindAllStringSubmatch(text, -1) {
			name := strings.TrimSpace(m[1])
			if name == "" {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			hospitals = append(hospitals, name)
			if len(hospitals) >= 5 {
				return hospitals
			}
		}
	}

	return hospitals
}
