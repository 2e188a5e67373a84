package neat

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistance(t *testing.T) {
	a := NewGenome(1)
	require.NoError(t, a.AddNode(NodeGene{ID: 1, Type: InputNode}))
	require.NoError(t, a.AddNode(NodeGene{ID: 2, Type: OutputNode}))
	require.NoError(t, a.AddEdge(NewEdgeGene(1, 2, 1.0)))

	b := a.Clone()
	b.Edges[0].Weight = 2.0
	require.NoError(t, b.AddNode(NodeGene{ID: 3, Type: HiddenNode}))
	require.NoError(t, b.AddEdge(NewEdgeGene(1, 3, 0.5)))

	// nodes: 1 disjoint of 3; edges: 1 disjoint of 2 plus 0.5 * |1 - 2|.
	assert.InDelta(t, 1.0/3.0+0.5+0.5, Distance(a, b), 1e-12)
	assert.Zero(t, Distance(a, a.Clone()))
	assert.Zero(t, Distance(NewGenome(1), NewGenome(2)))
}

func TestDistanceIsSymmetric(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	cfg := testGenomeConfig(3, 2)

	genomes := make([]*Genome, 0, 12)
	for i := 0; i < 12; i++ {
		g := NewFullyConnectedGenome(i, cfg, rng)
		for j := 0; j < i; j++ {
			g.AddNodeMutation(rng)
			g.AddConnectionMutation(rng)
		}
		genomes = append(genomes, g)
	}

	for _, a := range genomes {
		for _, b := range genomes {
			assert.Equal(t, Distance(a, b), Distance(b, a), "genomes %d and %d", a.Key, b.Key)
		}
	}
}

func TestDistanceIgnoresEdgeOrder(t *testing.T) {
	// Summed in a's order these differences lose both ones to rounding.
	a := hiddenGenome(t, 1, 2, 3, 4)
	require.NoError(t, a.AddEdge(NewEdgeGene(1, 2, 1e16)))
	require.NoError(t, a.AddEdge(NewEdgeGene(1, 3, 1)))
	require.NoError(t, a.AddEdge(NewEdgeGene(1, 4, 1)))

	b := hiddenGenome(t, 1, 2, 3, 4)
	require.NoError(t, b.AddEdge(NewEdgeGene(1, 4, 0)))
	require.NoError(t, b.AddEdge(NewEdgeGene(1, 3, 0)))
	require.NoError(t, b.AddEdge(NewEdgeGene(1, 2, 0)))

	assert.Equal(t, Distance(a, b), Distance(b, a))
}

func TestGenomeDistanceCache(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	a := NewFullyConnectedGenome(1, testGenomeConfig(2, 1), rng)
	b := NewFullyConnectedGenome(2, testGenomeConfig(2, 1), rng)

	cache := NewGenomeDistanceCache()
	d := cache.Distance(a, b)
	assert.Equal(t, d, cache.Distance(b, a))
	assert.Equal(t, Distance(a, b), d)
	assert.Equal(t, 1, cache.Misses)
	assert.Equal(t, 1, cache.Hits)
}
