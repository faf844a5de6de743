package appraisal

import (
	"fmt"
	"strings"
)

const (
	maxNameRunes = 50
	// tightSpreadRatio is the largest high-low spread, relative to the
	// average, that is still shown as a single approximate value.
	tightSpreadRatio = 0.3

	priceUnavailable     = "Price unavailable"
	unidentifiedItemName = "Unidentified Item"
	noDescription        = "No description available."
)

// FormatItemName picks a display name with the same precedence as BuildQuery.
// A description with a sentence break yields its whole first sentence; one
// without is shortened to at most 50 characters on a word boundary.
func FormatItemName(id IdentificationResult) string {
	if name := brandModel(id); name != "" {
		return name
	}

	if desc := strings.TrimSpace(id.RawDescription); desc != "" {
		if sentence, _, found := strings.Cut(desc, sentenceBoundary); found {
			return sentence
		}
		return truncateAtWord(desc, maxNameRunes)
	}

	if id.HasKnownCategory() {
		return id.Category + " Item"
	}

	return unidentifiedItemName
}

func truncateAtWord(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	cut := string(r[:limit])
	if i := strings.LastIndex(cut, " "); i >= 0 {
		cut = cut[:i]
	}
	return cut + "..."
}

// FormatEstimatedValue renders the price summary for display. A spread within
// 30% of the average collapses to a single approximate value.
func FormatEstimatedValue(summary PriceSummary) string {
	if summary.Average == nil {
		return priceUnavailable
	}
	avg := *summary.Average

	if summary.Low != nil && summary.High != nil {
		low, high := *summary.Low, *summary.High
		if high-low <= avg*tightSpreadRatio {
			return fmt.Sprintf("~$%.0f", avg)
		}
		return fmt.Sprintf("$%.0f - $%.0f", low, high)
	}

	return fmt.Sprintf("~$%.0f", avg)
}

// FormatDescription builds a resale friendly description from the
// identification details.
func FormatDescription(id IdentificationResult) string {
	var parts []string
	if id.RawDescription != "" {
		parts = append(parts, id.RawDescription)
	}
	if id.Condition != "" {
		parts = append(parts, fmt.Sprintf("Condition: %s.", id.Condition))
	}
	if id.Color != "" {
		parts = append(parts, fmt.Sprintf("Color: %s.", id.Color))
	}
	if len(parts) == 0 {
		return noDescription
	}
	return strings.Join(parts, " ")
}
