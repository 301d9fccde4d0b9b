// Package prompt assembles the instruction text submitted to the external
// language-model chat service. Building is a pure function: the same
// profile and matches always yield the same string.
package prompt

import (
	"fmt"
	"strings"

	"github.com/gingerhealthcare/profilegen/matcher"
	"github.com/gingerhealthcare/profilegen/scraper"
)

// Placeholder used for optional profile fields the extractor did not find.
const notFound = "[not found]"

// At most this many matched procedures are listed in the prompt.
const maxListedProcedures = 10

// Page-text context is capped to keep the prompt a manageable size.
const maxContextRunes = 1500

// Build assembles the generation prompt from the extracted profile and the
// ranked procedure matches. Zero matches is valid: the prompt then carries
// an explicit "no procedures matched" note instead of a list.
func Build(profile *scraper.Profile, matches []matcher.Match) string {
	var b strings.Builder

	b.WriteString(preamble)

	b.WriteString("\n\nDOCTOR INFORMATION EXTRACTED:\n")
	fmt.Fprintf(&b, "- Name: %s\n", orPlaceholder(profile.Name))
	fmt.Fprintf(&b, "- Specialties: %s\n", joinOrPlaceholder(profile.Specialties))
	fmt.Fprintf(&b, "- Qualifications: %s\n", joinOrPlaceholder(profile.Qualifications))
	fmt.Fprintf(&b, "- Experience: %s\n", experienceLine(profile.ExperienceYrs))
	fmt.Fprintf(&b, "- Hospital Affiliations: %s\n", joinOrPlaceholder(profile.Hospitals))

	b.WriteString("\nMATCHED MEDICAL PROCEDURES FROM DATABASE:\n")
	b.WriteString(procedureList(matches))
	b.WriteString("\n")

	if context := contextExcerpt(profile.RawText); context != "" {
		b.WriteString("\nADDITIONAL CONTEXT FROM WEBPAGE:\n")
		b.WriteString(context)
		b.WriteString("\n")
	}

	b.WriteString(instructions)

	return b.String()
}

func orPlaceholder(value string) string {
	if strings.TrimSpace(value) == "" {
		return notFound
	}
	return value
}

func joinOrPlaceholder(values []string) string {
	if len(values) == 0 {
		return notFound
	}
	return strings.Join(values, ", ")
}

func experienceLine(years int) string {
	if years <= 0 {
		return notFound
	}
	return fmt.Sprintf("%d years of experience", years)
}

func procedureList(matches []matcher.Match) string {
	if len(matches) == 0 {
		return "No specific procedures matched"
	}

	limit := len(matches)
	if limit > maxListedProcedures {
		limit = maxListedProcedures
	}

	lines := make([]string, 0, limit)
	for _, m := range matches[:limit] {
		entry := m.Entry
		switch {
		case entry.Specialty != "" && entry.SubSpecialty != "":
			lines = append(lines, fmt.Sprintf("- %s (%s - %s)", entry.Name, entry.Specialty, entry.SubSpecialty))
		case entry.Specialty != "":
			lines = append(lines, fmt.Sprintf("- %s (%s)", entry.Name, entry.Specialty))
		default:
			lines = append(lines, fmt.Sprintf("- %s", entry.Name))
		}
	}
	return strings.Join(lines, "\n")
}

func contextExcerpt(rawText string) string {
	runes := []rune(strings.TrimSpace(rawText))
	if len(runes) > maxContextRunes {
		runes = runes[:maxContextRunes]
	}
	return string(runes)
}

const preamble = `You are a professional medical content writer for Ginger Healthcare, a healthcare information platform.

TASK: Create a comprehensive, professional doctor profile based on the information provided.`

const instructions = `
---

Please create a professional doctor profile with the following structure:

**PROFESSIONAL SUMMARY**
Write a compelling 2-3 paragraph professional summary that:
- Introduces the doctor professionally
- Highlights key specializations and expertise
- Mentions years of experience and notable achievements
- Uses a warm, professional tone suitable for patients

**SPECIALIZATIONS**
List the doctor's main medical specialties (bullet points)

**PROCEDURES & EXPERTISE**
List specific medical procedures the doctor performs, matching from the database provided above (bullet points, maximum 10-12 procedures)

**EDUCATION & QUALIFICATIONS**
List academic degrees, certifications, and professional qualifications (bullet points)

**PROFESSIONAL EXPERIENCE**
Describe the doctor's career journey, key positions, and years of experience (2-3 sentences)

**HOSPITAL AFFILIATIONS**
List hospitals or medical centers where the doctor practices (bullet points)

**AWARDS & RECOGNITION**
List any awards, publications, or recognition (bullet points, or write "Information not available" if none found)

---

IMPORTANT GUIDELINES:
1. Be factual and professional - only include information that can be verified from the provided data
2. If certain information is not available, write "Information not available" for that section
3. Use clear, patient-friendly language while maintaining medical accuracy
4. Keep the tone warm and trustworthy
5. Format with clear headings and bullet points for easy reading
6. Do NOT invent or assume information not provided
7. Total length should be 400-600 words

Please generate the doctor profile now.`
