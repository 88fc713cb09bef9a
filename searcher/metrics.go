package searcher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "combspec"
	metricsSubsystem = "searcher"
)

// Metrics are the Prometheus collectors of one Searcher.
type Metrics struct {
	// Classes is the number of interned classes.
	Classes prometheus.Gauge
	// Rules is the number of stored hyperedges.
	Rules prometheus.Gauge
	// Queue is the number of labels waiting for expansion.
	Queue prometheus.Gauge
	// QueueParts splits the queue by part: working, current and next.
	QueueParts *prometheus.GaugeVec

	// Verified, StrategyVerified, Empty and Expandable count classes by state.
	Verified         prometheus.Gauge
	StrategyVerified prometheus.Gauge
	Empty            prometheus.Gauge
	Expandable       prometheus.Gauge
	// EquivalenceSets is the number of distinct equivalence sets.
	EquivalenceSets prometheus.Gauge

	// Equivalences counts union calls.
	Equivalences prometheus.Counter
	// Expansions counts expansion passes.
	Expansions prometheus.Counter
	// Levels counts completed DoLevel calls.
	Levels prometheus.Counter
	// SpecificationChecks counts has-specification queries.
	SpecificationChecks prometheus.Counter

	// GeneratorResults counts accepted results by slot.
	GeneratorResults *prometheus.CounterVec
	// GeneratorFailures counts failed generator calls by slot.
	GeneratorFailures *prometheus.CounterVec

	// PhaseSeconds observes the time of each phase call, nested phases excluded.
	PhaseSeconds *prometheus.HistogramVec
	// LayerSeconds observes expansion time by pack layer.
	LayerSeconds *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	gauge := func(name, help string) prometheus.Gauge {
		return f.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      name,
			Help:      help,
		})
	}
	counter := func(name, help string) prometheus.Counter {
		return f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      name,
			Help:      help,
		})
	}

	histogram := func(name, help, label string) *prometheus.HistogramVec {
		return f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      name,
			Help:      help,
			Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 10),
		}, []string{label})
	}

	return &Metrics{
		Classes: gauge("classes", "Number of interned classes"),
		Rules:   gauge("rules", "Number of stored rules"),
		Queue:   gauge("queue_size", "Labels waiting for expansion"),
		QueueParts: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "queue_part_size",
			Help:      "Labels waiting for expansion by queue part",
		}, []string{"part"}),
		Verified:            gauge("verified_classes", "Number of verified classes"),
		StrategyVerified:    gauge("strategy_verified_classes", "Number of classes verified by a verification generator"),
		Empty:               gauge("empty_classes", "Number of classes known to be empty"),
		Expandable:          gauge("expandable_classes", "Number of classes some generator expanded"),
		EquivalenceSets:     gauge("equivalence_sets", "Number of distinct equivalence sets"),
		Equivalences:        counter("equivalences_total", "Total equivalence unions recorded"),
		Expansions:          counter("expansions_total", "Total class expansion passes"),
		Levels:              counter("levels_total", "Total completed levels"),
		SpecificationChecks: counter("specification_checks_total", "Total has-specification queries"),
		GeneratorResults: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "generator_results_total",
			Help:      "Total generator results accepted by slot",
		}, []string{"slot"}),
		GeneratorFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "generator_failures_total",
			Help:      "Total failed generator calls by slot",
		}, []string{"slot"}),
		PhaseSeconds: histogram("phase_duration_seconds", "Time per phase call, nested phases excluded", "phase"),
		LayerSeconds: histogram("layer_expansion_duration_seconds", "Expansion time per pack layer call", "pack"),
	}
}
