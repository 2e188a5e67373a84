package neat

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Reproduction handles the creation of new genomes, either from scratch or through crossover and mutation.
type Reproduction struct {
	Config        *ReproductionConfig
	NextGenomeKey int           // State for the next genome key
	Ancestors     map[int][]int // Map genome key -> parent keys (for tracking lineage)
	Stagnation    *Stagnation   // Reference to stagnation info for filtering
}

// NewReproduction creates a new reproduction manager.
func NewReproduction(config *ReproductionConfig, stagnation *Stagnation) *Reproduction {
	return &Reproduction{
		Config:        config,
		NextGenomeKey: 1, // Start genome keys at 1
		Ancestors:     make(map[int][]int),
		Stagnation:    stagnation,
	}
}

// getNextKey gets the next available genome key and increments the internal counter.
func (r *Reproduction) getNextKey() int {
	key := r.NextGenomeKey
	r.NextGenomeKey++
	return key
}

// CreateNewPopulation creates popSize fully connected genomes with fresh keys.
func (r *Reproduction) CreateNewPopulation(genomeConfig *GenomeConfig, popSize int, rng *rand.Rand) []*Genome {
	genomes := make([]*Genome, 0, popSize)
	for i := 0; i < popSize; i++ {
		key := r.getNextKey()
		genomes = append(genomes, NewFullyConnectedGenome(key, genomeConfig, rng))
		r.Ancestors[key] = []int{} // No parents for initial population
	}
	return genomes
}

// Reproduce creates the next generation from the evaluated members of
// speciesSet. Stagnant species are removed from the set and returned; the
// survivors get an AdjustedFitness and an offspring quota, keep their
// SpeciesElitism best members unchanged, and fill the rest of the quota with
// mutated children of parents drawn from their best GenomesToSave fraction.
//
// The returned slice is empty when every species is stagnant or empty.
func (r *Reproduction) Reproduce(config *Config, speciesSet *SpeciesSet, generation int, rng *rand.Rand) ([]*Genome, []*Species, error) {
	// --- Step 1: Evaluate Stagnation ---
	var (
		remaining []*Species
		stagnant  []*Species
	)
	minFitness := math.Inf(1)
	maxFitness := math.Inf(-1)
	for _, info := range r.Stagnation.Update(speciesSet, generation) {
		if info.IsStagnant {
			stagnant = append(stagnant, info.Species)
			continue
		}
		remaining = append(remaining, info.Species)
		for _, g := range info.Species.Members {
			minFitness = math.Min(minFitness, g.Fitness)
			maxFitness = math.Max(maxFitness, g.Fitness)
		}
	}
	speciesSet.remove(stagnant)

	if len(remaining) == 0 {
		r.Ancestors = make(map[int][]int)
		return nil, stagnant, nil
	}

	// --- Step 2: Adjusted fitness ---
	// The range is at least 1 so small fitness spreads are not magnified.
	fitnessRange := math.Max(1.0, maxFitness-minFitness)
	adjustedFitnesses := make([]float64, len(remaining))
	previousSizes := make([]int, len(remaining))
	for i, sp := range remaining {
		sp.AdjustedFitness = (Mean(sp.GetFitnesses()) - minFitness) / fitnessRange
		adjustedFitnesses[i] = sp.AdjustedFitness
		previousSizes[i] = len(sp.Members)
	}

	// --- Step 3: Offspring quotas ---
	spawnAmounts := computeNewSpeciesSizes(adjustedFitnesses, previousSizes,
		config.Neat.PopulationSize, r.Config.MinSpecieSize)

	// --- Step 4: Create New Population ---
	newPopulation := make([]*Genome, 0, config.Neat.PopulationSize)
	newAncestors := make(map[int][]int, config.Neat.PopulationSize)
	elitism := config.Stagnation.SpeciesElitism

	for i, sp := range remaining {
		spawn := spawnAmounts[i]

		// Sort old members by fitness (descending) for elitism and parent selection.
		oldMembers := append([]*Genome(nil), sp.Members...)
		sort.SliceStable(oldMembers, func(i, j int) bool {
			return oldMembers[i].Fitness > oldMembers[j].Fitness
		})

		// Transfer elites.
		for j := 0; j < elitism && j < len(oldMembers) && spawn > 0; j++ {
			elite := oldMembers[j]
			newPopulation = append(newPopulation, elite)
			newAncestors[elite.Key] = []int{elite.Key}
			spawn--
		}
		if spawn <= 0 {
			continue
		}

		// Determine parents for remaining spawn.
		survivalCutoff := int(math.Ceil(r.Config.GenomesToSave * float64(len(oldMembers))))
		survivalCutoff = min(max(survivalCutoff, 2), len(oldMembers))
		parents := oldMembers[:survivalCutoff]

		for j := 0; j < spawn; j++ {
			parent1 := parents[rng.Intn(len(parents))]
			parent2 := parents[rng.Intn(len(parents))]

			child, err := Crossover(parent1, parent2, &config.Genome, rng)
			if err != nil {
				return nil, stagnant, fmt.Errorf("species %d: %w", sp.ID, err)
			}
			Mutate(child, &config.Genome, rng)
			child.Key = r.getNextKey()

			newPopulation = append(newPopulation, child)
			newAncestors[child.Key] = []int{parent1.Key, parent2.Key}
		}
	}
	r.Ancestors = newAncestors

	return newPopulation, stagnant, nil
}

// computeNewSpeciesSizes returns the number of genomes each species gets in
// the next generation.
//
// Each species first gets a target proportional to its share of the summed
// adjusted fitness (an equal share when the sum is zero), floored at
// minSpeciesSize. The size then moves halfway from the previous size towards
// the target; a move that would round to nothing is at least one genome.
// Finally the sizes are rescaled to popSize by largest remainder, with no
// species below the floor.
//
// When the species cannot all get minSpeciesSize the floor drops to
// max(1, popSize/len(adjustedFitnesses)), so the result sums to popSize
// whenever there are no more species than popSize.
func computeNewSpeciesSizes(adjustedFitnesses []float64, previousSizes []int, popSize, minSpeciesSize int) []int {
	if len(adjustedFitnesses) == 0 {
		return nil
	}
	if len(adjustedFitnesses)*minSpeciesSize > popSize {
		minSpeciesSize = max(1, popSize/len(adjustedFitnesses))
	}
	adjustedFitnessSum := Sum(adjustedFitnesses)

	spawnAmounts := make([]float64, len(adjustedFitnesses))
	for i, af := range adjustedFitnesses {
		var target float64
		if adjustedFitnessSum > 0 {
			target = af / adjustedFitnessSum * float64(popSize)
		} else {
			target = float64(popSize) / float64(len(adjustedFitnesses))
		}
		target = math.Max(float64(minSpeciesSize), target)

		prev := float64(previousSizes[i])
		d := (target - prev) / 2
		spawn := prev
		switch {
		case math.Round(d) != 0:
			spawn += d
		case d > 0:
			spawn++
		case d < 0:
			spawn--
		}
		spawnAmounts[i] = math.Max(float64(minSpeciesSize), spawn)
	}

	total := Sum(spawnAmounts)
	norm := float64(popSize) / total
	scaled := make([]float64, len(spawnAmounts))
	for i, s := range spawnAmounts {
		scaled[i] = s * norm
	}
	return apportion(scaled, popSize, minSpeciesSize)
}

// apportion rounds the non-negative quotas to integers of at least minSize
// summing to total, using the largest remainder method. Ties go to the lower
// index. If the floors alone exceed total the sum stays above it; callers
// keep len(quotas)*minSize <= total.
func apportion(quotas []float64, total, minSize int) []int {
	sizes := make([]int, len(quotas))
	remainders := make([]float64, len(quotas))
	assigned := 0
	for i, q := range quotas {
		floor := math.Floor(q)
		sizes[i] = max(minSize, int(floor))
		if sizes[i] == int(floor) {
			remainders[i] = q - floor
		}
		assigned += sizes[i]
	}

	order := make([]int, len(quotas))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return remainders[order[a]] > remainders[order[b]]
	})

	// Hand out the missing genomes by descending remainder.
	for i := 0; assigned < total; i = (i + 1) % len(order) {
		sizes[order[i]]++
		assigned++
	}

	// Raising species to minSize can overshoot; take the excess back from
	// the smallest remainders among species above the floor.
	for assigned > total {
		taken := false
		for i := len(order) - 1; i >= 0 && assigned > total; i-- {
			if idx := order[i]; sizes[idx] > minSize {
				sizes[idx]--
				assigned--
				taken = true
			}
		}
		if !taken {
			break
		}
	}
	return sizes
}
