package appraisal

import "math"

const (
	baseConfidence      = 0.5
	brandConfidence     = 0.15
	modelConfidence     = 0.15
	conditionConfidence = 0.05
	manySourcesBonus    = 0.15
	someSourcesBonus    = 0.10
	maxConfidence       = 1.0
)

// ComputeConfidence scores how complete the identification and the market
// data are. The result is always within [0.5, 1.0].
func ComputeConfidence(id IdentificationResult, summary PriceSummary) float64 {
	score := baseConfidence

	if id.Brand != "" {
		score += brandConfidence
	}
	if id.Model != "" {
		score += modelConfidence
	}
	if id.Condition != "" {
		score += conditionConfidence
	}

	switch {
	case summary.SampleCount >= 10:
		score += manySourcesBonus
	case summary.SampleCount >= 5:
		score += someSourcesBonus
	}

	return math.Min(score, maxConfidence)
}

// ComputeRarity classifies rarity from the average price and the number of
// comparable listings. Rules are evaluated in order and the first match wins,
// so a thinly listed item reaches Epic or Rare regardless of its price.
func ComputeRarity(summary PriceSummary) RarityTier {
	if summary.Average == nil {
		return RarityUnknown
	}

	avg := *summary.Average
	sources := summary.SampleCount

	switch {
	case avg > 500 && sources < 5:
		return RarityLegendary
	case avg > 300 || sources < 3:
		return RarityEpic
	case avg > 150 || sources < 8:
		return RarityRare
	case avg > 75:
		return RarityUncommon
	default:
		return RarityCommon
	}
}

// ComputeDemand classifies market activity from the number of listings.
func ComputeDemand(summary PriceSummary) DemandTier {
	switch {
	case summary.SampleCount >= 15:
		return DemandHigh
	case summary.SampleCount >= 5:
		return DemandMedium
	default:
		return DemandLow
	}
}
