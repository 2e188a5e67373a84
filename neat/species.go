package neat

import (
	"context"
	"log/slog"
	"math"
)

// Species represents a group of genetically similar genomes.
type Species struct {
	ID              int       // Unique identifier for the species, starting at 1.
	Created         int       // Generation number when the species was created.
	LastImproved    int       // Last generation where fitness improved.
	Representative  *Genome   // Snapshot used for distance comparisons; never a member pointer.
	Members         []*Genome // Current-generation genomes of this species.
	Fitness         float64   // Aggregate member fitness of the current generation.
	AdjustedFitness float64   // Fitness normalized against the population range.
	FitnessHistory  []float64 // One aggregate fitness per evaluated generation.
}

// NewSpecies creates a new species.
func NewSpecies(id, generation int) *Species {
	return &Species{
		ID:           id,
		Created:      generation,
		LastImproved: generation,
	}
}

// Update replaces the species' members and stores a snapshot of
// representative.
func (s *Species) Update(representative *Genome, members []*Genome) {
	s.Representative = representative.Clone()
	s.Members = members
}

// GetFitnesses returns a slice containing the fitness values of all members.
func (s *Species) GetFitnesses() []float64 {
	fitnesses := make([]float64, 0, len(s.Members))
	for _, g := range s.Members {
		fitnesses = append(fitnesses, g.Fitness)
	}
	return fitnesses
}

// --------------------------- GenomeDistanceCache ---------------------------

type genomePair struct {
	a, b *Genome
}

// GenomeDistanceCache stores calculated distances between genomes to avoid redundant computations.
type GenomeDistanceCache struct {
	Distances map[genomePair]float64
	Hits      int
	Misses    int
}

// NewGenomeDistanceCache creates a new distance cache.
func NewGenomeDistanceCache() *GenomeDistanceCache {
	return &GenomeDistanceCache{
		Distances: make(map[genomePair]float64),
	}
}

// Distance calculates or retrieves the distance between two genomes.
func (dc *GenomeDistanceCache) Distance(genome1, genome2 *Genome) float64 {
	if d, ok := dc.Distances[genomePair{genome1, genome2}]; ok {
		dc.Hits++
		return d
	}
	if d, ok := dc.Distances[genomePair{genome2, genome1}]; ok {
		dc.Hits++
		return d
	}
	dc.Misses++
	d := Distance(genome1, genome2)
	dc.Distances[genomePair{genome1, genome2}] = d
	return d
}

// --------------------------- SpeciesSet ---------------------------

// SpeciesSet manages the collection of species within a population.
type SpeciesSet struct {
	Species []*Species        // Ordered by ascending ID.
	Indexer int               // Next species ID.
	Config  *SpeciesSetConfig // Reference to speciation config

	logger *slog.Logger
}

// NewSpeciesSet creates a new species set manager.
func NewSpeciesSet(config *SpeciesSetConfig, logger *slog.Logger) *SpeciesSet {
	if logger == nil {
		logger = slog.Default()
	}
	return &SpeciesSet{
		Indexer: 1,
		Config:  config,
		logger:  logger,
	}
}

// Speciate assigns every genome to the first species, in ascending ID order,
// whose representative is closer than SpeciesDifference, creating a new
// species when none is. Species left without members are dropped; the others
// keep their history and get as new representative a snapshot of the member
// closest to the previous one.
func (ss *SpeciesSet) Speciate(genomes []*Genome, generation int) {
	threshold := ss.Config.SpeciesDifference
	distanceCache := NewGenomeDistanceCache()
	members := make(map[*Species][]*Genome, len(ss.Species))

	for _, g := range genomes {
		var target *Species
		for _, s := range ss.Species {
			if distanceCache.Distance(s.Representative, g) < threshold {
				target = s
				break
			}
		}
		if target == nil {
			target = NewSpecies(ss.Indexer, generation)
			ss.Indexer++
			target.Representative = g.Clone()
			ss.Species = append(ss.Species, target)
			ss.logger.Debug("created species", "species", target.ID, "genome", g.Key, "generation", generation)
		}
		members[target] = append(members[target], g)
	}

	kept := ss.Species[:0]
	for _, s := range ss.Species {
		m := members[s]
		if len(m) == 0 {
			ss.logger.Debug("species died out", "species", s.ID, "generation", generation)
			continue
		}

		rep := m[0]
		best := math.Inf(1)
		for _, g := range m {
			if d := distanceCache.Distance(s.Representative, g); d < best {
				best = d
				rep = g
			}
		}
		s.Update(rep, m)
		for _, g := range m {
			g.SpeciesID = s.ID
		}
		kept = append(kept, s)
	}
	// Clear the tail so dropped species can be collected.
	for i := len(kept); i < len(ss.Species); i++ {
		ss.Species[i] = nil
	}
	ss.Species = kept

	if len(distanceCache.Distances) > 0 && ss.logger.Enabled(context.Background(), slog.LevelDebug) {
		all := make([]float64, 0, len(distanceCache.Distances))
		for _, d := range distanceCache.Distances {
			all = append(all, d)
		}
		ss.logger.Debug("genetic distance",
			"mean", Mean(all), "stdev", Stdev(all),
			"cache_hits", distanceCache.Hits, "cache_misses", distanceCache.Misses)
	}
}

// remove drops the given species from the set, keeping ID order.
func (ss *SpeciesSet) remove(species []*Species) {
	if len(species) == 0 {
		return
	}
	drop := make(map[*Species]bool, len(species))
	for _, s := range species {
		drop[s] = true
	}
	kept := make([]*Species, 0, len(ss.Species))
	for _, s := range ss.Species {
		if !drop[s] {
			kept = append(kept, s)
		}
	}
	ss.Species = kept
}

// GetSpecies returns the species with the given ID.
func (ss *SpeciesSet) GetSpecies(id int) (*Species, bool) {
	for _, s := range ss.Species {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}
