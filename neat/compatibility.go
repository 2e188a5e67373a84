package neat

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// weightDifferenceCoefficient scales the mean weight difference of matching
// edges inside the edge term.
const weightDifferenceCoefficient = 0.5

// Distance calculates the genetic distance between two genomes as the sum of
// a node term and an edge term. The node term counts node ids present in only
// one genome; the edge term counts innovations present in only one genome and
// adds half the mean absolute weight difference of matching edges. Both
// counts are divided by the larger genome's gene count, so the distance does
// not grow with genome size. Distance(a, b) == Distance(b, a).
func Distance(a, b *Genome) float64 {
	return nodeDistance(a, b) + edgeDistance(a, b)
}

func nodeDistance(a, b *Genome) float64 {
	n := max(len(a.Nodes), len(b.Nodes))
	if n == 0 {
		return 0
	}
	disjoint := 0
	for _, node := range a.Nodes {
		if !b.HasNode(node.ID) {
			disjoint++
		}
	}
	for _, node := range b.Nodes {
		if !a.HasNode(node.ID) {
			disjoint++
		}
	}
	return float64(disjoint) / float64(n)
}

func edgeDistance(a, b *Genome) float64 {
	n := max(len(a.Edges), len(b.Edges))
	if n == 0 {
		return 0
	}
	disjoint := 0
	var matching []int64
	for _, ea := range a.Edges {
		if _, ok := b.Edge(ea.Innovation); ok {
			matching = append(matching, ea.Innovation)
		} else {
			disjoint++
		}
	}
	for _, eb := range b.Edges {
		if _, ok := a.Edge(eb.Innovation); !ok {
			disjoint++
		}
	}

	d := float64(disjoint) / float64(n)
	if len(matching) == 0 {
		return d
	}
	// Sum in innovation order so swapping a and b cannot change the result.
	sort.Slice(matching, func(i, j int) bool { return matching[i] < matching[j] })
	diffs := make([]float64, len(matching))
	for i, innovation := range matching {
		ea, _ := a.Edge(innovation)
		eb, _ := b.Edge(innovation)
		diffs[i] = math.Abs(ea.Weight - eb.Weight)
	}
	return d + weightDifferenceCoefficient*floats.Sum(diffs)/float64(len(matching))
}
