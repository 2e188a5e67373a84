package neat

import "time"

// GenerationStats summarizes one completed generation.
type GenerationStats struct {
	Generation      int
	PopulationSize  int // Genomes evaluated this generation.
	SpeciesCount    int // Species alive after re-speciation.
	BestFitness     float64
	MeanFitness     float64
	StagnantSpecies int // Species removed for stagnation.
	Duration        time.Duration
}

// Reporter receives progress events from a Population. Methods are called
// synchronously from RunGeneration and must not modify the population.
type Reporter interface {
	GenerationComplete(stats GenerationStats)
	SpeciesStagnant(generation, speciesID int)
}
