package neat

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGenomeConfig(inputs, outputs int) *GenomeConfig {
	cfg := DefaultConfig().Genome
	cfg.NumInputNeurons = inputs
	cfg.NumOutputNeurons = outputs
	return &cfg
}

// hiddenGenome returns a genome holding hidden nodes with the given ids.
func hiddenGenome(t *testing.T, ids ...int) *Genome {
	t.Helper()
	g := NewGenome(1)
	for _, id := range ids {
		require.NoError(t, g.AddNode(NodeGene{ID: id, Type: HiddenNode}))
	}
	return g
}

func TestInnovationNumber(t *testing.T) {
	a := hiddenGenome(t, 3, 5)
	b := hiddenGenome(t, 1, 3, 5, 7)

	require.NoError(t, a.AddEdge(NewEdgeGene(3, 5, 0.1)))
	require.NoError(t, b.AddEdge(NewEdgeGene(3, 5, -2.0)))

	ea, ok := a.Edge(InnovationNumber(3, 5))
	require.True(t, ok)
	eb, ok := b.Edge(InnovationNumber(3, 5))
	require.True(t, ok)

	assert.Equal(t, ea.Innovation, eb.Innovation)
	assert.Equal(t, int64(41), InnovationNumber(3, 5))
	assert.Equal(t, int64(39), InnovationNumber(5, 3))
	assert.NotEqual(t, InnovationNumber(3, 5), InnovationNumber(5, 3))
}

func TestNewFullyConnectedGenome(t *testing.T) {
	g := NewFullyConnectedGenome(7, testGenomeConfig(3, 2), rand.New(rand.NewSource(1)))

	assert.Equal(t, 7, g.Key)
	assert.Equal(t, []int{1, 2, 3}, g.NodeIDs(InputNode))
	assert.Equal(t, []int{4, 5}, g.NodeIDs(OutputNode))
	assert.Empty(t, g.NodeIDs(HiddenNode))
	require.Len(t, g.Edges, 6)
	for _, in := range []int{1, 2, 3} {
		for _, out := range []int{4, 5} {
			assert.True(t, g.HasEdge(in, out), "missing edge %d -> %d", in, out)
		}
	}
	require.NoError(t, g.Validate())
}

func TestAddEdgeRejectsInvalidEdges(t *testing.T) {
	g := NewGenome(1)
	require.NoError(t, g.AddNode(NodeGene{ID: 1, Type: InputNode}))
	require.NoError(t, g.AddNode(NodeGene{ID: 2, Type: OutputNode}))
	require.NoError(t, g.AddNode(NodeGene{ID: 3, Type: HiddenNode}))
	require.NoError(t, g.AddNode(NodeGene{ID: 4, Type: HiddenNode}))
	require.NoError(t, g.AddEdge(NewEdgeGene(3, 4, 1)))

	tests := []struct {
		name string
		edge EdgeGene
		want error
	}{
		{"self loop", NewEdgeGene(3, 3, 1), ErrCycle},
		{"closes cycle", NewEdgeGene(4, 3, 1), ErrCycle},
		{"duplicate", NewEdgeGene(3, 4, 5), ErrDuplicateEdge},
		{"unknown source", NewEdgeGene(9, 4, 1), ErrUnknownNode},
		{"unknown target", NewEdgeGene(3, 9, 1), ErrUnknownNode},
		{"into input", NewEdgeGene(3, 1, 1), ErrInvalidEdge},
		{"out of output", NewEdgeGene(2, 3, 1), ErrInvalidEdge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, g.AddEdge(tt.edge), tt.want)
		})
	}
	assert.Len(t, g.Edges, 1)
	require.ErrorIs(t, g.AddNode(NodeGene{ID: 3, Type: HiddenNode}), ErrDuplicateNode)
	require.ErrorIs(t, g.AddNode(NodeGene{ID: 0, Type: HiddenNode}), ErrInvalidNode)
	require.ErrorIs(t, g.AddNode(NodeGene{ID: -2, Type: HiddenNode}), ErrInvalidNode)
}

func TestAddEdgeRecomputesInnovation(t *testing.T) {
	g := hiddenGenome(t, 1, 2)
	require.NoError(t, g.AddEdge(EdgeGene{From: 1, To: 2, Weight: 1, Enabled: true, Innovation: 999}))
	assert.Equal(t, InnovationNumber(1, 2), g.Edges[0].Innovation)
}

func TestAddConnectionMutationKeepsGraphAcyclic(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	cfg := testGenomeConfig(4, 3)

	for trial := 0; trial < 20; trial++ {
		g := NewFullyConnectedGenome(trial, cfg, rng)
		for round := 0; round < 100; round++ {
			if rng.Float64() < 0.3 {
				g.AddNodeMutation(rng)
			}
			g.AddConnectionMutation(rng)
			require.NoError(t, g.Validate(), "trial %d round %d", trial, round)
		}
		for _, e := range g.Edges {
			assert.False(t, g.createsCycle(e.From, e.To), "edge %d -> %d is on a cycle", e.From, e.To)
		}
	}
}

func TestAddConnectionMutationOnCompleteGraph(t *testing.T) {
	g := NewFullyConnectedGenome(1, testGenomeConfig(2, 2), rand.New(rand.NewSource(3)))
	// Every legal pair already exists.
	assert.False(t, g.AddConnectionMutation(rand.New(rand.NewSource(4))))
	assert.Len(t, g.Edges, 4)
}

func TestAddNodeMutation(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	g := NewFullyConnectedGenome(1, testGenomeConfig(1, 1), rng)
	oldWeight := g.Edges[0].Weight

	require.True(t, g.AddNodeMutation(rng))

	require.Len(t, g.Nodes, 3)
	require.Len(t, g.Edges, 3)
	hidden := g.Nodes[2]
	assert.Equal(t, HiddenNode, hidden.Type)
	assert.Equal(t, 3, hidden.ID)
	assert.Zero(t, hidden.Bias)

	assert.False(t, g.Edges[0].Enabled)
	in, ok := g.Edge(InnovationNumber(1, hidden.ID))
	require.True(t, ok)
	assert.Equal(t, 1.0, in.Weight)
	assert.True(t, in.Enabled)
	out, ok := g.Edge(InnovationNumber(hidden.ID, 2))
	require.True(t, ok)
	assert.Equal(t, oldWeight, out.Weight)
	assert.True(t, out.Enabled)
	require.NoError(t, g.Validate())

	// A second split must pick one of the two enabled edges.
	require.True(t, g.AddNodeMutation(rng))
	assert.Len(t, g.Nodes, 4)
}

func TestAddNodeMutationWithoutEnabledEdges(t *testing.T) {
	g := NewFullyConnectedGenome(1, testGenomeConfig(1, 1), rand.New(rand.NewSource(1)))
	g.Edges[0].Enabled = false

	assert.False(t, g.AddNodeMutation(rand.New(rand.NewSource(1))))
	assert.Len(t, g.Nodes, 2)
	assert.Len(t, g.Edges, 1)
}

func TestCloneIsIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	g := NewFullyConnectedGenome(1, testGenomeConfig(2, 1), rng)
	g.Fitness = 3

	c := g.Clone()
	c.Edges[0].Weight = 100
	c.Nodes[2].Bias = 100
	require.True(t, c.AddNodeMutation(rng))

	assert.NotEqual(t, 100.0, g.Edges[0].Weight)
	assert.NotEqual(t, 100.0, g.Nodes[2].Bias)
	assert.Len(t, g.Nodes, 3)
	assert.Len(t, g.Edges, 2)
	assert.Equal(t, 3.0, c.Fitness)
	require.NoError(t, g.Validate())
	require.NoError(t, c.Validate())
}

func TestValidateDetectsCorruption(t *testing.T) {
	g := hiddenGenome(t, 1, 2)
	require.NoError(t, g.AddEdge(NewEdgeGene(1, 2, 1)))

	cyclic := g.Clone()
	cyclic.Edges = append(cyclic.Edges, NewEdgeGene(2, 1, 1))
	assert.ErrorIs(t, cyclic.Validate(), ErrCycle)

	dangling := g.Clone()
	dangling.Edges = append(dangling.Edges, NewEdgeGene(2, 8, 1))
	assert.ErrorIs(t, dangling.Validate(), ErrUnknownNode)

	zeroID := g.Clone()
	zeroID.Nodes = append(zeroID.Nodes, NodeGene{ID: 0, Type: HiddenNode})
	assert.ErrorIs(t, zeroID.Validate(), ErrInvalidNode)

	relabeled := g.Clone()
	relabeled.Edges[0].Innovation = 1
	assert.Error(t, relabeled.Validate())
}
