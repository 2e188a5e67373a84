// Package metrics exports NEAT run statistics to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/leonwind/flappy-bird-ai/neat"
)

const namespace = "neat"

// PrometheusReporter is a neat.Reporter that records generation statistics
// as Prometheus metrics labelled with the run id.
type PrometheusReporter struct {
	runID string

	generations        *prometheus.CounterVec
	stagnantSpecies    *prometheus.CounterVec
	bestFitness        *prometheus.GaugeVec
	meanFitness        *prometheus.GaugeVec
	speciesCount       *prometheus.GaugeVec
	populationSize     *prometheus.GaugeVec
	generationDuration *prometheus.HistogramVec
}

var _ neat.Reporter = (*PrometheusReporter)(nil)

// NewPrometheusReporter creates the collectors and registers them with reg.
func NewPrometheusReporter(reg prometheus.Registerer, runID string) (*PrometheusReporter, error) {
	labels := []string{"run_id"}
	r := &PrometheusReporter{
		runID: runID,
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Number of completed generations.",
		}, labels),
		stagnantSpecies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stagnant_species_total",
			Help:      "Number of species removed for stagnation.",
		}, labels),
		bestFitness: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "best_fitness",
			Help:      "Best genome fitness of the last generation.",
		}, labels),
		meanFitness: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mean_fitness",
			Help:      "Mean genome fitness of the last generation.",
		}, labels),
		speciesCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "species",
			Help:      "Number of species after the last generation.",
		}, labels),
		populationSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "population_size",
			Help:      "Number of genomes evaluated in the last generation.",
		}, labels),
		generationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Wall time of one generation, evaluation included.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, labels),
	}

	for _, c := range []prometheus.Collector{
		r.generations, r.stagnantSpecies, r.bestFitness, r.meanFitness,
		r.speciesCount, r.populationSize, r.generationDuration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// GenerationComplete implements neat.Reporter.
func (r *PrometheusReporter) GenerationComplete(stats neat.GenerationStats) {
	r.generations.WithLabelValues(r.runID).Inc()
	r.bestFitness.WithLabelValues(r.runID).Set(stats.BestFitness)
	r.meanFitness.WithLabelValues(r.runID).Set(stats.MeanFitness)
	r.speciesCount.WithLabelValues(r.runID).Set(float64(stats.SpeciesCount))
	r.populationSize.WithLabelValues(r.runID).Set(float64(stats.PopulationSize))
	r.generationDuration.WithLabelValues(r.runID).Observe(stats.Duration.Seconds())
}

// SpeciesStagnant implements neat.Reporter.
func (r *PrometheusReporter) SpeciesStagnant(_, _ int) {
	r.stagnantSpecies.WithLabelValues(r.runID).Inc()
}
