package pricing

import (
	"context"
	"testing"

	"github.com/raine/lootlook/internal/appraisal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockPricer_ChoosesListByQuery(t *testing.T) {
	tests := []struct {
		query string
		count int
	}{
		{"Nike Air Jordan 1 Retro High OG", 15},
		{"Apple iPhone 14 Pro", 25},
		{"Vintage 1985 Coca-Cola Sign", 8},
		{"Generic Widget", 5},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			prices, err := NewMockPricer().LookupPrices(context.Background(), tt.query)
			require.NoError(t, err)
			assert.Len(t, prices, tt.count)
		})
	}
}

func TestMockPricer_DefaultSummary(t *testing.T) {
	prices, err := NewMockPricer().LookupPrices(context.Background(), "unknown item")
	require.NoError(t, err)

	summary := appraisal.Summarize(prices)
	require.True(t, summary.HasAverage())
	assert.Equal(t, 100.0, *summary.Average)
	assert.Equal(t, 80.0, *summary.Low)
	assert.Equal(t, 120.0, *summary.High)
	assert.Equal(t, 5, summary.SampleCount)
}

func TestMockPricer_Deterministic(t *testing.T) {
	pricer := NewMockPricer()
	a, err := pricer.LookupPrices(context.Background(), "apple iphone")
	require.NoError(t, err)
	b, err := pricer.LookupPrices(context.Background(), "apple iphone")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestMockPricer_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMockPricer().LookupPrices(ctx, "anything")
	assert.ErrorIs(t, err, context.Canceled)
}
