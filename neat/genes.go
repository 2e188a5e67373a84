package neat

import (
	"fmt"
	"math/rand"
)

// NodeType is the role of a node in the network.
type NodeType int

const (
	InputNode NodeType = iota
	HiddenNode
	OutputNode
)

func (t NodeType) String() string {
	switch t {
	case InputNode:
		return "input"
	case HiddenNode:
		return "hidden"
	case OutputNode:
		return "output"
	}
	return fmt.Sprintf("NodeType(%d)", int(t))
}

// --------------------------- NodeGene ---------------------------

// NodeGene represents a node (neuron) in the genome.
type NodeGene struct {
	ID   int // Positive and unique within its genome; equal ids align nodes across genomes
	Type NodeType
	Bias float64 // Ignored for input nodes
}

// String returns a string representation of the NodeGene.
func (ng NodeGene) String() string {
	return fmt.Sprintf("NodeGene(ID: %d, Type: %s, Bias: %.3f)", ng.ID, ng.Type, ng.Bias)
}

// --------------------------- EdgeGene ---------------------------

// EdgeGene represents a connection between two nodes of the same genome.
type EdgeGene struct {
	From       int
	To         int
	Weight     float64
	Enabled    bool
	Innovation int64 // InnovationNumber(From, To); set once at creation
}

// NewEdgeGene creates an enabled edge with the given weight.
func NewEdgeGene(from, to int, weight float64) EdgeGene {
	return EdgeGene{
		From:       from,
		To:         to,
		Weight:     weight,
		Enabled:    true,
		Innovation: InnovationNumber(from, to),
	}
}

// String returns a string representation of the EdgeGene.
func (eg EdgeGene) String() string {
	return fmt.Sprintf("EdgeGene(%d->%d, Weight: %.3f, Enabled: %t, Innovation: %d)",
		eg.From, eg.To, eg.Weight, eg.Enabled, eg.Innovation)
}

// InnovationNumber maps an ordered (from, to) pair of node ids to a unique
// number with the Cantor pairing function. Independently created genomes that
// connect the same ids get the same number; (a, b) and (b, a) differ when a != b.
func InnovationNumber(from, to int) int64 {
	a, b := int64(from), int64(to)
	return (a+b)*(a+b+1)/2 + b
}

// --------------------------- Attribute Helpers ---------------------------

// newWeight samples a fresh weight or bias from N(0, 1).
func newWeight(rng *rand.Rand) float64 {
	return rng.NormFloat64()
}

// mutateFloatAttribute perturbs value with probability mutateRate by a signed
// uniform delta bounded by power, replaces it with a fresh sample with
// probability replaceRate, and leaves it unchanged otherwise.
func mutateFloatAttribute(rng *rand.Rand, value, mutateRate, replaceRate, power float64) float64 {
	r := rng.Float64()
	if r < mutateRate {
		return value + (rng.Float64()*2-1)*power
	}
	if r < mutateRate+replaceRate {
		return newWeight(rng)
	}
	return value
}
