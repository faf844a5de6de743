package appraisal

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func prices(values ...float64) []RawPrice {
	out := make([]RawPrice, len(values))
	for i, v := range values {
		out[i] = PriceValue(v)
	}
	return out
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"$149.99", 149.99, true},
		{"$1,299.00", 1299, true},
		{"  $12  ", 12, true},
		{"$100 - $150", 100, true},
		{"100 to 150", 100, true},
		{"100 TO 150", 100, true},
		{"€45", 45, true},
		{"", 0, false},
		{"free", 0, false},
		{"$0", 0, false},
		{"-5", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"100-150", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParsePrice(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestValidPrices_PrefersExtractedValue(t *testing.T) {
	zero := 0.0
	observations := []RawPrice{
		{Extracted: &zero, Text: "$50"},
		PriceText("$20"),
		PriceText("call for price"),
		PriceValue(-3),
		PriceValue(35.5),
	}

	assert.Equal(t, []float64{20, 35.5}, ValidPrices(observations))
}

func TestSummarize_Empty(t *testing.T) {
	summary := Summarize(nil)

	assert.Equal(t, 0, summary.SampleCount)
	assert.Nil(t, summary.Low)
	assert.Nil(t, summary.High)
	assert.Nil(t, summary.Average)
	assert.Equal(t, "USD", summary.Currency)
}

func TestSummarize_OnlyInvalidObservations(t *testing.T) {
	summary := Summarize([]RawPrice{PriceText("N/A"), PriceValue(0), PriceText("")})

	assert.Equal(t, 0, summary.SampleCount)
	assert.False(t, summary.HasAverage())
}

func TestSummarize_RemovesOutlier(t *testing.T) {
	summary := Summarize(prices(100, 110, 105, 95, 1000, 90))

	require.True(t, summary.HasAverage())
	assert.Equal(t, 5, summary.SampleCount)
	assert.InDelta(t, 100.0, *summary.Average, 1e-9)
	assert.InDelta(t, 95.0, *summary.Low, 1e-9)
	assert.InDelta(t, 105.0, *summary.High, 1e-9)
}

func TestSummarize_SmallSetUsesMinMax(t *testing.T) {
	summary := Summarize(prices(10, 300, 20))

	assert.Equal(t, 3, summary.SampleCount)
	assert.InDelta(t, 10.0, *summary.Low, 1e-9)
	assert.InDelta(t, 300.0, *summary.High, 1e-9)
	assert.InDelta(t, 110.0, *summary.Average, 1e-9)
}

func TestSummarize_RoundsToCents(t *testing.T) {
	summary := Summarize(prices(1.111, 2.222, 3.333))

	assert.Equal(t, 1.11, *summary.Low)
	assert.Equal(t, 3.33, *summary.High)
	assert.Equal(t, 2.22, *summary.Average)
}

func TestSummarize_RangeWidenedToIncludeAverage(t *testing.T) {
	values := make([]float64, 0, 20)
	for range 15 {
		values = append(values, 1)
	}
	values = append(values, 10, 10, 10, 10, 1000)

	summary := Summarize(prices(values...))

	assert.Equal(t, 19, summary.SampleCount)
	assert.Equal(t, 1.0, *summary.Low)
	assert.Equal(t, 2.89, *summary.Average)
	assert.Equal(t, 2.89, *summary.High)
}

func TestSummarize_MixedTextAndNumbers(t *testing.T) {
	summary := Summarize([]RawPrice{
		PriceText("$1,000.00"),
		PriceText("$950 - $1,100"),
		PriceText("1050 to 1200"),
		PriceValue(1020),
		PriceText("contact seller"),
	})

	assert.Equal(t, 4, summary.SampleCount)
	assert.InDelta(t, 1005.0, *summary.Average, 1e-9)
}

func TestRemoveOutliers_SkipsSmallSets(t *testing.T) {
	in := []float64{1, 2, 5000}
	assert.Equal(t, in, RemoveOutliers(in))
}

func TestKeepWithin_FallsBackWhenEverythingIsRemoved(t *testing.T) {
	in := []float64{1, 2, 3, 4}
	assert.Equal(t, in, keepWithin(in, 10, 20))
}

func TestSummarize_Invariants(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 7))

	for i := range 500 {
		n := rng.IntN(25)
		values := make([]float64, n)
		for j := range values {
			// Mostly clustered prices with an occasional extreme listing.
			values[j] = 20 + rng.Float64()*80
			if rng.IntN(10) == 0 {
				values[j] *= 50
			}
		}

		summary := Summarize(prices(values...))

		if n == 0 {
			assert.Equal(t, 0, summary.SampleCount, "case %d", i)
			continue
		}
		require.True(t, summary.HasAverage(), "case %d", i)
		assert.Greater(t, summary.SampleCount, 0, "case %d", i)
		assert.LessOrEqual(t, summary.SampleCount, n, "case %d", i)
		assert.LessOrEqual(t, *summary.Low, *summary.Average, "case %d", i)
		assert.LessOrEqual(t, *summary.Average, *summary.High, "case %d", i)
	}
}

func TestRoundCents(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0.125, 0.12},
		{0.375, 0.38},
		{2.675, 2.67},
		{99.999, 100},
		{149.5, 149.5},
		{1234.5678, 1234.57},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, roundCents(tt.in), "roundCents(%v)", tt.in)
	}
}
