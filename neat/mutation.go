package neat

import "math/rand"

// MutationResult reports which operators changed the genome.
type MutationResult struct {
	WeightsMutated  bool
	NodeAdded       bool
	ConnectionAdded bool
}

// Mutate applies the mutation operators to g in place. Each operator is gated
// by an independent draw against its configured rate:
//
//  1. weight pass (ChangeConnectionMutationRate): every edge weight and every
//     non-input bias is perturbed, replaced, or kept per
//     ChangeWeightMutationRate and ReplaceWeightMutationRate;
//  2. add node (AddNodeMutationRate);
//  3. add connection (AddConnectionMutationRate).
func Mutate(g *Genome, config *GenomeConfig, rng *rand.Rand) MutationResult {
	var res MutationResult

	if rng.Float64() < config.ChangeConnectionMutationRate {
		res.WeightsMutated = true
		for i := range g.Edges {
			g.Edges[i].Weight = mutateFloatAttribute(rng, g.Edges[i].Weight,
				config.ChangeWeightMutationRate, config.ReplaceWeightMutationRate, config.WeightMutatePower)
		}
		for i := range g.Nodes {
			if g.Nodes[i].Type == InputNode {
				continue
			}
			g.Nodes[i].Bias = mutateFloatAttribute(rng, g.Nodes[i].Bias,
				config.ChangeWeightMutationRate, config.ReplaceWeightMutationRate, config.WeightMutatePower)
		}
	}

	if rng.Float64() < config.AddNodeMutationRate {
		res.NodeAdded = g.AddNodeMutation(rng)
	}

	if rng.Float64() < config.AddConnectionMutationRate {
		res.ConnectionAdded = g.AddConnectionMutation(rng)
	}
	return res
}
