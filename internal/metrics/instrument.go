package metrics

import (
	"context"
	"time"

	"github.com/raine/lootlook/internal/appraisal"
)

const (
	PortIdentify = "identify"
	PortPrices   = "prices"
)

type instrumentedIdentifier struct {
	inner   appraisal.Identifier
	metrics *Metrics
}

// InstrumentIdentifier wraps an Identifier to record call latency.
func InstrumentIdentifier(inner appraisal.Identifier, m *Metrics) appraisal.Identifier {
	if m == nil {
		return inner
	}
	return &instrumentedIdentifier{inner: inner, metrics: m}
}

func (i *instrumentedIdentifier) Identify(ctx context.Context, image []byte) (appraisal.IdentificationResult, error) {
	start := time.Now()
	defer func() { i.metrics.ObservePortLatency(PortIdentify, time.Since(start)) }()
	return i.inner.Identify(ctx, image)
}

type instrumentedPricer struct {
	inner   appraisal.Pricer
	metrics *Metrics
}

// InstrumentPricer wraps a Pricer to record call latency and sample counts.
func InstrumentPricer(inner appraisal.Pricer, m *Metrics) appraisal.Pricer {
	if m == nil {
		return inner
	}
	return &instrumentedPricer{inner: inner, metrics: m}
}

func (p *instrumentedPricer) LookupPrices(ctx context.Context, query string) ([]appraisal.RawPrice, error) {
	start := time.Now()
	prices, err := p.inner.LookupPrices(ctx, query)
	p.metrics.ObservePortLatency(PortPrices, time.Since(start))
	if err == nil {
		p.metrics.ObservePriceSamples(len(prices))
	}
	return prices, err
}
