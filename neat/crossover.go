package neat

import (
	"fmt"
	"math/rand"
)

// Crossover creates a child genome from two parents. The fitter parent (ties
// broken by the larger edge count, then by a coin flip) contributes its whole
// topology; genes it shares with the other parent, matched by node id or
// innovation number, are taken from either parent with equal probability. An
// inherited disabled edge is re-enabled with probability
// ReenableConnectionRate when either parent has that edge enabled.
//
// The child has key 0 and zero fitness; the caller assigns a key. An error
// means a parent violated the genome invariants.
func Crossover(parentA, parentB *Genome, config *GenomeConfig, rng *rand.Rand) (*Genome, error) {
	best, other := orderParents(parentA, parentB, rng)
	child := NewGenome(0)

	// Nodes first so every inherited edge finds its endpoints.
	for _, node := range best.Nodes {
		inherited := node
		if match, ok := other.Node(node.ID); ok && rng.Float64() < 0.5 {
			inherited = match
		}
		if err := child.AddNode(inherited); err != nil {
			return nil, fmt.Errorf("crossover of genomes %d and %d: %w", best.Key, other.Key, err)
		}
	}

	for _, edge := range best.Edges {
		inherited := edge
		match, matched := other.Edge(edge.Innovation)
		if matched && rng.Float64() < 0.5 {
			inherited = match
		}
		if !inherited.Enabled {
			enabledInParent := edge.Enabled || (matched && match.Enabled)
			if enabledInParent && rng.Float64() < config.ReenableConnectionRate {
				inherited.Enabled = true
			}
		}
		// Matching innovations share endpoints, so the child's edges form the
		// fitter parent's graph.
		if err := child.AddEdge(inherited); err != nil {
			return nil, fmt.Errorf("crossover of genomes %d and %d: %w", best.Key, other.Key, err)
		}
	}
	return child, nil
}

// orderParents returns the fitter parent first.
func orderParents(a, b *Genome, rng *rand.Rand) (best, other *Genome) {
	if a.Fitness == b.Fitness {
		if len(a.Edges) == len(b.Edges) {
			if rng.Float64() < 0.5 {
				return a, b
			}
			return b, a
		}
		if len(a.Edges) > len(b.Edges) {
			return a, b
		}
		return b, a
	}
	if a.Fitness > b.Fitness {
		return a, b
	}
	return b, a
}
