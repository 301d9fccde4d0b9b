// Package document turns the generation result text into a formatted .docx
// profile. The text normally follows the **Heading** section structure the
// prompt asks for; anything that does not is inserted as a single body
// section, so the build never fails on operator input.
package document

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	docx "github.com/fumiama/go-docx"

	"github.com/gingerhealthcare/profilegen/logging"
)

// Section is one heading plus its body paragraphs.
type Section struct {
	Heading    string
	Paragraphs []string
}

var headingPattern = regexp.MustCompile(`^\s*\*\*(.+?)\*\*:?\s*$`)

// ParseSections splits the response text into sections on **Heading**
// marker lines. Text before the first marker, or all of it when no marker
// is present, becomes an untitled body section.
func ParseSections(text string) []Section {
	var sections []Section
	current := Section{}

	flush := func() {
		if current.Heading != "" || len(current.Paragraphs) > 0 {
			sections = append(sections, current)
		}
		current = Section{}
	}

	var paragraph []string
	endParagraph := func() {
		if len(paragraph) > 0 {
			current.Paragraphs = append(current.Paragraphs, strings.Join(paragraph, " "))
			paragraph = nil
		}
	}

	for _, line := range strings.Split(text, "\n") {
		if m := headingPattern.FindStringSubmatch(line); m != nil {
			endParagraph()
			flush()
			current.Heading = strings.TrimSpace(m[1])
			continue
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			endParagraph()
			continue
		}

		// Bullet lines stay as individual paragraphs
		if strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "• ") || strings.HasPrefix(trimmed, "* ") {
			endParagraph()
			current.Paragraphs = append(current.Paragraphs, trimmed)
			continue
		}

		paragraph = append(paragraph, trimmed)
	}
	endParagraph()
	flush()

	return sections
}

// Builder assembles .docx profile documents.
type Builder struct{}

// NewBuilder creates a document builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Build lays the response text into a document with a title header and one
// heading+paragraphs block per recognised section. Empty input yields a
// document containing just the header.
func (b *Builder) Build(doctorName, responseText string) ([]byte, error) {
	title := strings.TrimSpace(doctorName)
	if title == "" {
		title = "Doctor Profile"
	}

	w := docx.New().WithDefaultTheme()

	titlePara := w.AddParagraph().Justification("center")
	titlePara.AddText(title).Size("36").Bold()

	metaPara := w.AddParagraph().Justification("center")
	metaPara.AddText(fmt.Sprintf("Generated on %s", time.Now().Format("2 January 2006"))).Size("18")

	w.AddParagraph()

	sections := ParseSections(responseText)
	if len(sections) == 0 && strings.TrimSpace(responseText) != "" {
		// Should not happen, but never drop operator text on the floor.
		sections = []Section{{Paragraphs: []string{strings.TrimSpace(responseText)}}}
	}

	for _, section := range sections {
		if section.Heading != "" {
			headingPara := w.AddParagraph()
			headingPara.AddText(strings.ToUpper(section.Heading)).Size("26").Bold()
		}
		for _, paragraph := range section.Paragraphs {
			w.AddParagraph().AddText(paragraph).Size("22")
		}
		w.AddParagraph()
	}

	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write document: %w", err)
	}

	logging.Debug("Document built",
		"title", title,
		"sections", len(sections),
		"bytes", buf.Len())

	return buf.Bytes(), nil
}

// Filename returns the attachment name for a generated document.
func Filename(now time.Time) string {
	return fmt.Sprintf("doctor_profile_%s.docx", now.Format("20060102_150405"))
}
