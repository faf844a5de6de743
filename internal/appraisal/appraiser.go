package appraisal

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// Identifier identifies an item from the raw bytes of a photo.
type Identifier interface {
	Identify(ctx context.Context, image []byte) (IdentificationResult, error)
}

// Pricer looks up listing prices for a search query. No results is an empty
// slice, not an error.
type Pricer interface {
	LookupPrices(ctx context.Context, query string) ([]RawPrice, error)
}

// Appraiser runs the identify, search and price pipeline for a single photo.
// It keeps no state between calls and is safe for concurrent use.
type Appraiser struct {
	identifier Identifier
	pricer     Pricer
}

// NewAppraiser creates an Appraiser using the given services.
func NewAppraiser(identifier Identifier, pricer Pricer) *Appraiser {
	return &Appraiser{
		identifier: identifier,
		pricer:     pricer,
	}
}

// Analyze identifies the item in image and estimates its market value.
//
// Identification and pricing failures are returned as *IdentificationError and
// *PricingError. When ctx is cancelled the pipeline stops before the next stage
// and returns the context error.
func (a *Appraiser) Analyze(ctx context.Context, image []byte) (*AnalysisReport, error) {
	logger := zerolog.Ctx(ctx)

	identification, err := a.identifier.Identify(ctx, image)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, asIdentificationError(err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query := BuildQuery(identification)
	logger.Debug().
		Str("query", query).
		Str("category", identification.CategoryOrUnknown()).
		Msg("built price search query")

	prices, err := a.pricer.LookupPrices(ctx, query)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, asPricingError(query, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	summary := Summarize(prices)
	logger.Debug().
		Int("observations", len(prices)).
		Int("sampleCount", summary.SampleCount).
		Msg("summarized prices")

	report := BuildReport(identification, summary)
	return &report, nil
}

// BuildReport assembles the final report from an identification and its price
// summary.
func BuildReport(id IdentificationResult, summary PriceSummary) AnalysisReport {
	return AnalysisReport{
		ItemName:        FormatItemName(id),
		EstimatedValue:  FormatEstimatedValue(summary),
		ConfidenceScore: ComputeConfidence(id, summary),
		Description:     FormatDescription(id),
		RarityTier:      ComputeRarity(summary),
		Category:        id.CategoryOrUnknown(),
		MarketDemand:    ComputeDemand(summary),
		SourceCount:     summary.SampleCount,
	}
}

func asIdentificationError(err error) error {
	var idErr *IdentificationError
	if errors.As(err, &idErr) {
		return err
	}
	return &IdentificationError{Err: err}
}

func asPricingError(query string, err error) error {
	var priceErr *PricingError
	if errors.As(err, &priceErr) {
		return err
	}
	return &PricingError{Query: query, Err: err}
}
