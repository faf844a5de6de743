package metrics

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/raine/lootlook/internal/appraisal"
)

const (
	OutcomeSuccess             = "success"
	OutcomeIdentificationError = "identification_error"
	OutcomePricingError        = "pricing_error"
	OutcomeCancelled           = "cancelled"
	OutcomeError               = "error"
)

// Metrics provides observability for the appraisal pipeline and its HTTP surface.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Appraisal outcomes by result
	Appraisals *prometheus.CounterVec

	// Outbound port latencies by port
	PortLatency *prometheus.HistogramVec

	// HTTP requests by route pattern and status code
	Requests *prometheus.CounterVec

	// Valid price observations per lookup
	PriceSamples prometheus.Histogram
}

// New creates a Metrics instance registered with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Appraisals: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lootlook_appraisals_total",
			Help: "Total appraisals by outcome",
		}, []string{"outcome"}),

		PortLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lootlook_port_duration_seconds",
			Help:    "Duration of identification and price lookup calls",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"port"}), // port: "identify", "prices"

		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lootlook_http_requests_total",
			Help: "Total HTTP requests by route and status code",
		}, []string{"route", "status"}),

		PriceSamples: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "lootlook_price_samples",
			Help:    "Number of raw price observations returned per lookup",
			Buckets: []float64{0, 1, 2, 4, 8, 15, 30, 60},
		}),
	}
}

// Outcome classifies the error returned by an appraisal. Typed port errors win
// over context errors they wrap.
func Outcome(err error) string {
	var idErr *appraisal.IdentificationError
	var priceErr *appraisal.PricingError
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.As(err, &idErr):
		return OutcomeIdentificationError
	case errors.As(err, &priceErr):
		return OutcomePricingError
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCancelled
	default:
		return OutcomeError
	}
}

// ObserveAppraisal records the outcome of one appraisal.
func (m *Metrics) ObserveAppraisal(err error) {
	if m != nil {
		m.Appraisals.WithLabelValues(Outcome(err)).Inc()
	}
}

// ObservePortLatency records the duration of a call to an outbound port.
func (m *Metrics) ObservePortLatency(port string, d time.Duration) {
	if m != nil {
		m.PortLatency.WithLabelValues(port).Observe(d.Seconds())
	}
}

// ObserveRequest records a served HTTP request.
func (m *Metrics) ObserveRequest(route string, status int) {
	if m != nil {
		m.Requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	}
}

// ObservePriceSamples records how many prices a lookup returned.
func (m *Metrics) ObservePriceSamples(n int) {
	if m != nil {
		m.PriceSamples.Observe(float64(n))
	}
}
