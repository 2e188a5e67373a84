package neat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stagnantSpeciesSet returns n single-member species that last improved in
// generation 0 and whose history peak is above their current fitness.
func stagnantSpeciesSet(n int) *SpeciesSet {
	ss := NewSpeciesSet(&SpeciesSetConfig{SpeciesDifference: 1}, discardLogger())
	for i := 0; i < n; i++ {
		s := NewSpecies(i+1, 0)
		g := NewGenome(i + 1)
		g.Fitness = float64(i)
		s.Members = []*Genome{g}
		s.FitnessHistory = []float64{100}
		ss.Species = append(ss.Species, s)
	}
	return ss
}

func TestStagnationFloor(t *testing.T) {
	const numSpecies = 6
	for elitism := 0; elitism <= numSpecies+1; elitism++ {
		stagnation, err := NewStagnation(&StagnationConfig{
			SpeciesFitnessFunc: "mean",
			MaxStagnation:      0,
			SpeciesElitism:     elitism,
		})
		require.NoError(t, err)

		infos := stagnation.Update(stagnantSpeciesSet(numSpecies), 5)
		require.Len(t, infos, numSpecies)

		removed := 0
		for _, info := range infos {
			if info.IsStagnant {
				removed++
			}
		}
		assert.LessOrEqual(t, removed, max(0, numSpecies-elitism), "elitism %d", elitism)
		assert.Equal(t, max(0, numSpecies-elitism), removed, "elitism %d", elitism)

		// The fittest species are the protected ones.
		for i := numSpecies - min(elitism, numSpecies); i < numSpecies; i++ {
			assert.False(t, infos[i].IsStagnant, "elitism %d rank %d", elitism, i)
		}
	}
}

func TestStagnationUpdate(t *testing.T) {
	stagnation, err := NewStagnation(&StagnationConfig{
		SpeciesFitnessFunc: "max",
		MaxStagnation:      2,
		SpeciesElitism:     0,
	})
	require.NoError(t, err)

	ss := NewSpeciesSet(&SpeciesSetConfig{SpeciesDifference: 1}, discardLogger())
	improving := NewSpecies(1, 0)
	flat := NewSpecies(2, 0)
	a, b, c := NewGenome(1), NewGenome(2), NewGenome(3)
	improving.Members = []*Genome{a, b}
	flat.Members = []*Genome{c}
	ss.Species = []*Species{improving, flat}

	for gen := 0; gen <= 2; gen++ {
		a.Fitness = float64(gen)
		b.Fitness = -1
		c.Fitness = 5
		infos := stagnation.Update(ss, gen)
		require.Len(t, infos, 2)
		for _, info := range infos {
			assert.False(t, info.IsStagnant, "generation %d species %d", gen, info.Species.ID)
		}
	}
	assert.Equal(t, 2, improving.LastImproved)
	assert.Equal(t, 0, flat.LastImproved)
	assert.Equal(t, []float64{0, 1, 2}, improving.FitnessHistory)
	assert.Equal(t, 2.0, improving.Fitness)

	// Three generations without improvement exceeds MaxStagnation.
	infos := stagnation.Update(ss, 3)
	require.Len(t, infos, 2)
	assert.Same(t, improving, infos[0].Species, "sorted by ascending fitness")
	assert.False(t, infos[0].IsStagnant)
	assert.Same(t, flat, infos[1].Species)
	assert.True(t, infos[1].IsStagnant)
}

func TestStagnationSkipsEmptySpecies(t *testing.T) {
	stagnation, err := NewStagnation(&StagnationConfig{SpeciesFitnessFunc: "mean"})
	require.NoError(t, err)

	ss := stagnantSpeciesSet(2)
	ss.Species[0].Members = nil
	infos := stagnation.Update(ss, 1)
	require.Len(t, infos, 1)
	assert.Equal(t, 2, infos[0].Species.ID)
}

func TestNewStagnationRejectsUnknownFitnessFunc(t *testing.T) {
	_, err := NewStagnation(&StagnationConfig{SpeciesFitnessFunc: "mode"})
	assert.Error(t, err)
}
