package neat

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Stagnation manages the detection of stagnant species.
type Stagnation struct {
	Config             *StagnationConfig
	SpeciesFitnessFunc func([]float64) float64
}

// NewStagnation creates a new stagnation manager.
func NewStagnation(config *StagnationConfig) (*Stagnation, error) {
	fn, ok := StatFunctions[strings.ToLower(config.SpeciesFitnessFunc)]
	if !ok {
		return nil, fmt.Errorf("invalid species_fitness_func in config: %s", config.SpeciesFitnessFunc)
	}
	return &Stagnation{
		Config:             config,
		SpeciesFitnessFunc: fn,
	}, nil
}

// StagnationInfo holds the results of the stagnation update for a single species.
type StagnationInfo struct {
	Species    *Species
	IsStagnant bool
}

// Update computes each species' aggregate fitness for this generation,
// appends it to the species history and refreshes LastImproved. It returns
// the species in ascending fitness order, each marked stagnant when it has
// not improved for more than MaxStagnation generations. Elitism protects
// species twice: the SpeciesElitism fittest are never stagnant, and no
// species is marked once the non-stagnant count has dropped to SpeciesElitism.
// Species without members are skipped.
func (s *Stagnation) Update(speciesSet *SpeciesSet, generation int) []StagnationInfo {
	speciesData := make([]*Species, 0, len(speciesSet.Species))
	for _, sp := range speciesSet.Species {
		if len(sp.Members) == 0 {
			continue
		}
		previousMaxFitness := math.Inf(-1)
		if len(sp.FitnessHistory) > 0 {
			previousMaxFitness = MaxFloat(sp.FitnessHistory)
		}

		sp.Fitness = s.SpeciesFitnessFunc(sp.GetFitnesses())
		sp.FitnessHistory = append(sp.FitnessHistory, sp.Fitness)
		sp.AdjustedFitness = 0

		if sp.Fitness > previousMaxFitness {
			sp.LastImproved = generation
		}
		speciesData = append(speciesData, sp)
	}

	// Ascending, least fit first; equal fitness keeps species ID order.
	sort.SliceStable(speciesData, func(i, j int) bool {
		return speciesData[i].Fitness < speciesData[j].Fitness
	})

	result := make([]StagnationInfo, len(speciesData))
	numSpecies := len(speciesData)
	numNonStagnant := numSpecies
	for i, sp := range speciesData {
		stagnantTime := generation - sp.LastImproved

		isStagnant := false
		if numNonStagnant > s.Config.SpeciesElitism {
			isStagnant = stagnantTime > s.Config.MaxStagnation
		}
		if numSpecies-i <= s.Config.SpeciesElitism {
			isStagnant = false
		}
		if isStagnant {
			numNonStagnant--
		}

		result[i] = StagnationInfo{
			Species:    sp,
			IsStagnant: isStagnant,
		}
	}
	return result
}
