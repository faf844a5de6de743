package appraisal

import "strings"

const (
	maxQueryRunes    = 80
	sentenceBoundary = ". "
	fallbackQuery    = "unknown item"
)

// BuildQuery derives a shopping search query from an identification, from the
// most specific signal to the least: brand and model, the first sentence of
// the description, the category, and finally a generic placeholder.
func BuildQuery(id IdentificationResult) string {
	if name := brandModel(id); name != "" {
		return name
	}

	if desc := strings.TrimSpace(id.RawDescription); desc != "" {
		if sentence, _, found := strings.Cut(desc, sentenceBoundary); found {
			return sentence
		}
		return truncateRunes(desc, maxQueryRunes)
	}

	if id.HasKnownCategory() {
		return id.Category
	}

	return fallbackQuery
}

// brandModel joins whichever of brand and model are present.
func brandModel(id IdentificationResult) string {
	parts := make([]string, 0, 2)
	if id.Brand != "" {
		parts = append(parts, id.Brand)
	}
	if id.Model != "" {
		parts = append(parts, id.Model)
	}
	return strings.Join(parts, " ")
}

func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
