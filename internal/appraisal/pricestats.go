package appraisal

import (
	"math"
	"slices"
	"strconv"
	"strings"
)

const (
	// minQuartileSamples is the smallest set for which positional quartiles
	// are used, both for outlier rejection and for the reported range.
	minQuartileSamples = 4
	iqrMultiplier      = 1.5
)

var priceSymbolStripper = strings.NewReplacer(
	"$", "",
	"€", "",
	"£", "",
	"¥", "",
	",", "",
)

// ParsePrice parses a listing price such as "$1,149.99", "$100 - $150" or
// "100 to 150". Ranges resolve to their first bound. ok is false for anything
// that is not a positive finite number.
func ParsePrice(s string) (float64, bool) {
	cleaned := strings.TrimSpace(priceSymbolStripper.Replace(s))
	if cleaned == "" {
		return 0, false
	}

	if first, _, found := strings.Cut(cleaned, " - "); found {
		cleaned = first
	}
	if first, _, found := strings.Cut(strings.ToLower(cleaned), " to "); found {
		cleaned = first
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(cleaned), 64)
	if err != nil {
		return 0, false
	}
	return positive(v)
}

func positive(v float64) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, false
	}
	return v, true
}

// value resolves the observation to a usable price. An extracted number wins
// over the display text, even when the number itself is unusable.
func (p RawPrice) value() (float64, bool) {
	if p.Extracted != nil {
		return positive(*p.Extracted)
	}
	return ParsePrice(p.Text)
}

// ValidPrices returns the usable prices of observations in their input order.
// Malformed and non-positive observations are dropped silently.
func ValidPrices(observations []RawPrice) []float64 {
	prices := make([]float64, 0, len(observations))
	for _, obs := range observations {
		if v, ok := obs.value(); ok {
			prices = append(prices, v)
		}
	}
	return prices
}

// RemoveOutliers drops prices outside [Q1 - 1.5*IQR, Q3 + 1.5*IQR]. Sets of
// fewer than four prices are returned as is.
func RemoveOutliers(prices []float64) []float64 {
	if len(prices) < minQuartileSamples {
		return prices
	}

	q1, q3 := quartiles(prices)
	iqr := q3 - q1
	return keepWithin(prices, q1-iqrMultiplier*iqr, q3+iqrMultiplier*iqr)
}

// keepWithin filters prices to [lower, upper], falling back to the unfiltered
// set when nothing would remain.
func keepWithin(prices []float64, lower, upper float64) []float64 {
	kept := make([]float64, 0, len(prices))
	for _, p := range prices {
		if p >= lower && p <= upper {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return prices
	}
	return kept
}

// quartiles returns the positional (non-interpolated) first and third
// quartiles: sorted[n/4] and sorted[3n/4].
func quartiles(prices []float64) (q1, q3 float64) {
	sorted := slices.Clone(prices)
	slices.Sort(sorted)
	n := len(sorted)
	return sorted[n/4], sorted[(3*n)/4]
}

func mean(prices []float64) float64 {
	var sum float64
	for _, p := range prices {
		sum += p
	}
	return sum / float64(len(prices))
}

// roundCents rounds to two decimals using the exact binary value of v, with
// exact halves going to the even cent (0.125 becomes 0.12).
func roundCents(v float64) float64 {
	r, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	return r
}

// Summarize turns raw listing prices into a price summary. With no usable
// prices the summary has SampleCount 0 and no Low, High or Average.
func Summarize(observations []RawPrice) PriceSummary {
	summary := PriceSummary{Currency: DefaultCurrency}

	prices := ValidPrices(observations)
	if len(prices) == 0 {
		return summary
	}

	filtered := RemoveOutliers(prices)

	var low, high float64
	if len(filtered) >= minQuartileSamples {
		low, high = quartiles(filtered)
	} else {
		low, high = slices.Min(filtered), slices.Max(filtered)
	}

	avg := roundCents(mean(filtered))
	low = roundCents(low)
	high = roundCents(high)

	// Quartiles of a skewed set can sit entirely on one side of the mean.
	low = min(low, avg)
	high = max(high, avg)

	summary.Low = &low
	summary.High = &high
	summary.Average = &avg
	summary.SampleCount = len(filtered)
	return summary
}
