package neat

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInvalidFitness is returned when the evaluation callback leaves a
	// genome with a NaN or infinite fitness.
	ErrInvalidFitness = errors.New("invalid fitness")
	// ErrPopulationExtinct is returned when reproduction yields no genomes
	// and ResetOnExtinction is off.
	ErrPopulationExtinct = errors.New("population extinct")
)

// EvaluationFunc is the type for the function provided by the user to
// evaluate genome fitness. It must set a finite Fitness on every genome and
// must not change genome structure.
type EvaluationFunc func(genomes []*Genome, config *Config) error

// Population holds the state of the NEAT evolutionary process.
type Population struct {
	Config       *Config
	Genomes      []*Genome // Current generation of genomes
	SpeciesSet   *SpeciesSet
	Reproduction *Reproduction
	Stagnation   *Stagnation
	Generation   int
	BestGenome   *Genome   // Snapshot of the best genome found so far
	RunID        uuid.UUID // Identifies this run in logs and metrics

	rng       *rand.Rand
	logger    *slog.Logger
	reporters []Reporter
}

// Option configures a Population.
type Option func(*Population)

// WithRand sets the random source. By default it is seeded from Neat.Seed.
func WithRand(rng *rand.Rand) Option {
	return func(p *Population) {
		p.rng = rng
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Population) {
		p.logger = logger
	}
}

// WithReporter registers a reporter.
func WithReporter(r Reporter) Option {
	return func(p *Population) {
		p.reporters = append(p.reporters, r)
	}
}

// NewPopulation validates config, creates the initial generation of fully
// connected genomes, and speciates it as generation 0.
func NewPopulation(config *Config, opts ...Option) (*Population, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	stagnation, err := NewStagnation(&config.Stagnation)
	if err != nil {
		return nil, fmt.Errorf("failed to create stagnation manager: %w", err)
	}

	p := &Population{
		Config:     config,
		Stagnation: stagnation,
		RunID:      uuid.New(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.rng == nil {
		p.rng = rand.New(rand.NewSource(config.Neat.Seed))
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	p.logger = p.logger.With("run", p.RunID.String())

	p.Reproduction = NewReproduction(&config.Reproduction, stagnation)
	p.reset()
	p.logger.Info("population created",
		"population_size", len(p.Genomes), "species", len(p.SpeciesSet.Species))
	return p, nil
}

// AddReporter registers a reporter after construction, for reporters that
// need the RunID.
func (p *Population) AddReporter(r Reporter) {
	p.reporters = append(p.reporters, r)
}

// reset replaces genomes and species with a fresh initial generation.
func (p *Population) reset() {
	p.Genomes = p.Reproduction.CreateNewPopulation(&p.Config.Genome, p.Config.Neat.PopulationSize, p.rng)
	p.SpeciesSet = NewSpeciesSet(&p.Config.SpeciesSet, p.logger)
	p.SpeciesSet.Speciate(p.Genomes, p.Generation)
}

// Run executes NumOfGenerations generations and returns the best genome
// seen. With FitnessTermination enabled it stops early after the first
// generation whose best fitness reaches FitnessThreshold.
func (p *Population) Run(eval EvaluationFunc) (*Genome, error) {
	for i := 0; i < p.Config.Neat.NumOfGenerations; i++ {
		winner, err := p.RunGeneration(eval)
		if err != nil {
			return p.BestGenome, err
		}
		if winner != nil {
			p.logger.Info("fitness threshold reached",
				"generation", p.Generation-1, "genome", winner.Key, "fitness", winner.Fitness)
			return winner, nil
		}
	}
	return p.BestGenome, nil
}

// RunGeneration executes a single generation: evaluation, stagnation,
// reproduction and re-speciation. It returns the best genome when early
// stopping is enabled and the threshold was met this generation, in which
// case the evaluated genomes are left in place; otherwise nil.
func (p *Population) RunGeneration(eval EvaluationFunc) (*Genome, error) {
	genStartTime := time.Now()
	generation := p.Generation
	logger := p.logger.With("generation", generation)

	if len(p.Genomes) == 0 {
		return nil, fmt.Errorf("generation %d: %w", generation, ErrPopulationExtinct)
	}

	// 1. Evaluate Fitness
	if err := eval(p.Genomes, p.Config); err != nil {
		return nil, fmt.Errorf("fitness evaluation failed in generation %d: %w", generation, err)
	}
	for _, g := range p.Genomes {
		if math.IsNaN(g.Fitness) || math.IsInf(g.Fitness, 0) {
			return nil, fmt.Errorf("%w: genome %d has fitness %v in generation %d", ErrInvalidFitness, g.Key, g.Fitness, generation)
		}
	}

	// 2. Track Best Genome
	currentBest := p.findBestGenome()
	if p.BestGenome == nil || currentBest.Fitness > p.BestGenome.Fitness {
		p.BestGenome = currentBest.Clone()
		logger.Debug("new best genome", "genome", currentBest.Key, "fitness", currentBest.Fitness)
	}
	stats := GenerationStats{
		Generation:     generation,
		PopulationSize: len(p.Genomes),
		BestFitness:    currentBest.Fitness,
		MeanFitness:    Mean(p.fitnesses()),
	}

	if p.Config.Neat.FitnessTermination && currentBest.Fitness >= p.Config.Neat.FitnessThreshold {
		stats.SpeciesCount = len(p.SpeciesSet.Species)
		p.finishGeneration(logger, stats, genStartTime)
		return p.BestGenome, nil
	}

	// 3. Reproduce
	newGenomes, stagnant, err := p.Reproduction.Reproduce(p.Config, p.SpeciesSet, generation, p.rng)
	if err != nil {
		return nil, fmt.Errorf("reproduction failed in generation %d: %w", generation, err)
	}
	for _, sp := range stagnant {
		logger.Warn("species removed due to stagnation",
			"species", sp.ID, "last_improved", sp.LastImproved, "members", len(sp.Members))
		for _, r := range p.reporters {
			r.SpeciesStagnant(generation, sp.ID)
		}
	}
	stats.StagnantSpecies = len(stagnant)

	// 4. Speciate the new generation
	if len(newGenomes) == 0 {
		if !p.Config.Neat.ResetOnExtinction {
			p.Genomes = nil
			logger.Warn("all species extinct")
			return nil, fmt.Errorf("generation %d: %w", generation, ErrPopulationExtinct)
		}
		logger.Warn("all species extinct, resetting population")
		p.reset()
	} else {
		p.Genomes = newGenomes
		p.SpeciesSet.Speciate(p.Genomes, generation)
	}
	stats.SpeciesCount = len(p.SpeciesSet.Species)

	p.finishGeneration(logger, stats, genStartTime)
	return nil, nil
}

func (p *Population) finishGeneration(logger *slog.Logger, stats GenerationStats, start time.Time) {
	stats.Duration = time.Since(start)
	logger.Info("generation complete",
		"best_fitness", stats.BestFitness,
		"mean_fitness", stats.MeanFitness,
		"species", stats.SpeciesCount,
		"stagnant", stats.StagnantSpecies,
		"duration", stats.Duration)
	for _, r := range p.reporters {
		r.GenerationComplete(stats)
	}
	p.Generation++
}

// findBestGenome finds the genome with the highest fitness in the current
// population. Ties keep the earlier genome.
func (p *Population) findBestGenome() *Genome {
	var best *Genome
	maxFitness := math.Inf(-1)

	for _, g := range p.Genomes {
		if best == nil || g.Fitness > maxFitness {
			maxFitness = g.Fitness
			best = g
		}
	}
	return best
}

func (p *Population) fitnesses() []float64 {
	fs := make([]float64, len(p.Genomes))
	for i, g := range p.Genomes {
		fs[i] = g.Fitness
	}
	return fs
}
