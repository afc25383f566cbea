package observability

import (
	"time"

	"github.com/boddenberg/presupuesto-bff/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the BFF.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	upstreamErrors  *prometheus.CounterVec
	fallbacks       *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	submissions     *prometheus.CounterVec
	supersededLoads prometheus.Counter
	outboxPending   prometheus.Gauge
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "presupuesto_request_duration_seconds",
				Help:    "Duration of operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		upstreamErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "presupuesto_upstream_errors_total",
				Help: "Total failed finance API calls by resource.",
			},
			[]string{"resource"},
		),
		fallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "presupuesto_fallbacks_total",
				Help: "Times a default or sample value replaced API data.",
			},
			[]string{"resource"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "presupuesto_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "presupuesto_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		submissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "presupuesto_submissions_total",
				Help: "Transaction submissions by kind and outcome.",
			},
			[]string{"kind", "outcome"},
		),
		supersededLoads: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "presupuesto_superseded_loads_total",
				Help: "Dashboard loads discarded because a newer one started.",
			},
		),
		outboxPending: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "presupuesto_outbox_pending",
				Help: "Unconfirmed transactions waiting in the outbox.",
			},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrUpstreamError increments the upstream error counter.
func (m *Metrics) IncrUpstreamError(resource string) {
	m.upstreamErrors.WithLabelValues(resource).Inc()
}

// IncrFallback counts a substitution of default/sample data.
func (m *Metrics) IncrFallback(resource string) {
	m.fallbacks.WithLabelValues(resource).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrSubmission counts a submission outcome.
func (m *Metrics) IncrSubmission(kind domain.TransactionKind, outcome domain.SubmitOutcome) {
	m.submissions.WithLabelValues(string(kind), string(outcome)).Inc()
}

// IncrSupersededLoad counts a discarded dashboard load.
func (m *Metrics) IncrSupersededLoad() {
	m.supersededLoads.Inc()
}

// SetOutboxPending sets the outbox size gauge.
func (m *Metrics) SetOutboxPending(n int) {
	m.outboxPending.Set(float64(n))
}

// FallbackResources are the label values used with IncrFallback.
var FallbackResources = []string{"resumen", "ingresos", "gastos", "categorias", "sample_scenario"}

// Snapshot returns the counters behind GET /api/metrics/fallbacks.
func (m *Metrics) Snapshot() *domain.FallbackSnapshot {
	fallbacks := make(map[string]float64, len(FallbackResources))
	for _, res := range FallbackResources {
		fallbacks[res] = metricValue(m.fallbacks.WithLabelValues(res))
	}

	submissions := map[string]float64{}
	for _, kind := range []domain.TransactionKind{domain.KindIncome, domain.KindExpense} {
		for _, outcome := range []domain.SubmitOutcome{
			domain.OutcomeConfirmed, domain.OutcomeQueued, domain.OutcomeUnconfirmed, domain.OutcomeRejected,
		} {
			submissions[string(kind)+"/"+string(outcome)] = metricValue(m.submissions.WithLabelValues(string(kind), string(outcome)))
		}
	}

	hits := metricValue(m.cacheHits.WithLabelValues("categorias"))
	misses := metricValue(m.cacheMisses.WithLabelValues("categorias"))
	hitRate := float64(0)
	if hits+misses > 0 {
		hitRate = hits / (hits + misses)
	}

	return &domain.FallbackSnapshot{
		Fallbacks:      fallbacks,
		Submissions:    submissions,
		SupersededLoad: metricValue(m.supersededLoads),
		CacheHitRate:   hitRate,
		OutboxPending:  metricValue(m.outboxPending),
	}
}

// metricValue extracts the current value of a counter or gauge.
func metricValue(c prometheus.Metric) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	if m.Gauge != nil && m.Gauge.Value != nil {
		return *m.Gauge.Value
	}
	return 0
}
