package pricing

import (
	"context"
	"strings"

	"github.com/raine/lootlook/internal/appraisal"
)

type mockPriceList struct {
	keywords []string
	prices   []float64
}

// Price lists are checked in order; the first list with a keyword contained
// in the lower-cased query wins.
var mockPriceLists = []mockPriceList{
	{
		keywords: []string{"sneaker", "jordan", "nike", "adidas", "yeezy"},
		prices:   []float64{150, 175, 190, 200, 210, 220, 225, 235, 240, 250, 260, 275, 290, 320, 350},
	},
	{
		keywords: []string{"electronics", "iphone", "apple", "samsung", "playstation", "nintendo"},
		prices:   []float64{600, 650, 700, 750, 780, 800, 820, 840, 850, 860, 870, 880, 890, 900, 920, 940, 960, 980, 1000, 1020, 1040, 1060, 1080, 1090, 1100},
	},
	{
		keywords: []string{"vintage", "antique", "retro", "coca-cola"},
		prices:   []float64{75, 90, 110, 120, 130, 145, 160, 200},
	},
}

var defaultMockPrices = []float64{50, 80, 100, 120, 150}

// MockPricer returns canned listing prices chosen from the query text. It
// never fails and performs no I/O.
type MockPricer struct{}

func NewMockPricer() *MockPricer {
	return &MockPricer{}
}

// LookupPrices implements appraisal.Pricer.
func (MockPricer) LookupPrices(ctx context.Context, query string) ([]appraisal.RawPrice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return toRawPrices(mockPricesFor(query)), nil
}

func mockPricesFor(query string) []float64 {
	q := strings.ToLower(query)
	for _, list := range mockPriceLists {
		for _, kw := range list.keywords {
			if strings.Contains(q, kw) {
				return list.prices
			}
		}
	}
	return defaultMockPrices
}

func toRawPrices(values []float64) []appraisal.RawPrice {
	out := make([]appraisal.RawPrice, len(values))
	for i, v := range values {
		out[i] = appraisal.PriceValue(v)
	}
	return out
}
