package neat

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMutateWithZeroRatesIsNoop(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	cfg := testGenomeConfig(3, 2)
	cfg.ChangeConnectionMutationRate = 0
	cfg.AddNodeMutationRate = 0
	cfg.AddConnectionMutationRate = 0

	g := NewFullyConnectedGenome(1, cfg, rng)
	before := g.Clone()

	res := Mutate(g, cfg, rng)

	assert.Equal(t, MutationResult{}, res)
	assert.Equal(t, before.Nodes, g.Nodes)
	assert.Equal(t, before.Edges, g.Edges)
}

func TestMutatePerturbsWithinPower(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	cfg := testGenomeConfig(3, 2)
	cfg.ChangeConnectionMutationRate = 1
	cfg.ChangeWeightMutationRate = 1
	cfg.ReplaceWeightMutationRate = 0
	cfg.WeightMutatePower = 0.25
	cfg.AddNodeMutationRate = 0
	cfg.AddConnectionMutationRate = 0

	g := NewFullyConnectedGenome(1, cfg, rng)
	g.Nodes[0].Bias = 7
	before := g.Clone()

	res := Mutate(g, cfg, rng)
	require.True(t, res.WeightsMutated)

	for i, e := range g.Edges {
		assert.LessOrEqual(t, math.Abs(e.Weight-before.Edges[i].Weight), 0.25)
	}
	for i, n := range g.Nodes {
		assert.LessOrEqual(t, math.Abs(n.Bias-before.Nodes[i].Bias), 0.25)
	}
	assert.Equal(t, 7.0, g.Nodes[0].Bias, "input bias is never mutated")
}

func TestMutateStructuralOperators(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	cfg := testGenomeConfig(2, 1)
	cfg.ChangeConnectionMutationRate = 0
	cfg.AddNodeMutationRate = 1
	cfg.AddConnectionMutationRate = 1

	g := NewFullyConnectedGenome(1, cfg, rng)
	for i := 0; i < 10; i++ {
		res := Mutate(g, cfg, rng)
		assert.True(t, res.NodeAdded)
		assert.False(t, res.WeightsMutated)
		require.NoError(t, g.Validate())
	}
	assert.Len(t, g.NodeIDs(HiddenNode), 10)
}

func TestMutateFloatAttribute(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 100; i++ {
		assert.Equal(t, 3.0, mutateFloatAttribute(rng, 3, 0, 0, 1))
	}
	for i := 0; i < 100; i++ {
		v := mutateFloatAttribute(rng, 3, 1, 0, 0.5)
		assert.InDelta(t, 3.0, v, 0.5)
	}
}
