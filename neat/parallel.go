package neat

import (
	"fmt"

	"github.com/sourcegraph/conc/pool"
)

// GenomeEvaluator computes the fitness of a single genome. It may be called
// concurrently for different genomes and must not modify the genome.
type GenomeEvaluator func(genome *Genome, config *Config) (float64, error)

// ParallelEvaluation returns an EvaluationFunc that runs fn for every genome
// on at most maxGoroutines goroutines (no limit when maxGoroutines <= 0) and
// stores each result in the genome's Fitness. All genomes are evaluated even
// when some fail; the failures are returned joined.
func ParallelEvaluation(maxGoroutines int, fn GenomeEvaluator) EvaluationFunc {
	return func(genomes []*Genome, config *Config) error {
		p := pool.New().WithErrors()
		if maxGoroutines > 0 {
			p = p.WithMaxGoroutines(maxGoroutines)
		}
		for _, g := range genomes {
			g := g // Capture loop variable
			p.Go(func() error {
				fitness, err := fn(g, config)
				if err != nil {
					return fmt.Errorf("genome %d: %w", g.Key, err)
				}
				g.Fitness = fitness
				return nil
			})
		}
		return p.Wait()
	}
}
