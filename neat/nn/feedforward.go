// Package nn compiles genomes into runnable feed-forward networks.
package nn

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/graph/traverse"

	"github.com/leonwind/flappy-bird-ai/neat"
)

var (
	// ErrInputCountMismatch is returned by Activate when the number of
	// inputs differs from the number of input nodes.
	ErrInputCountMismatch = errors.New("input count mismatch")
	// ErrCyclicGenome is returned by New when the enabled edges of the
	// genome do not form a directed acyclic graph.
	ErrCyclicGenome = errors.New("genome is not acyclic")
)

// link is an incoming connection of a compiled node.
type link struct {
	source int // slot of the source node
	weight float64
}

// neuralNode represents a non-input node during network activation.
type neuralNode struct {
	slot   int
	bias   float64
	inputs []link
}

// FeedForwardNetwork is the phenotype of a genome. It is built once by New,
// holds no references into the genome, and is safe for concurrent use.
type FeedForwardNetwork struct {
	inputSlots  []int
	outputSlots []int
	nodes       []neuralNode // evaluation order
	layers      [][]int      // node ids per layer; layer 0 holds the inputs
	numSlots    int
	activation  neat.ActivationFunc
}

// New builds a runnable feed-forward network from a genome.
//
// Only enabled edges are used. Nodes with no path to an output are left
// out. The remaining nodes are grouped into layers: layer 0 holds the input
// nodes, and each following layer holds the nodes whose enabled inputs all
// come from earlier layers.
func New(g *neat.Genome, config *neat.Config) (*FeedForwardNetwork, error) {
	act, err := neat.ParseActivation(config.Genome.ActivationFunction)
	if err != nil {
		return nil, err
	}

	// Forward and reversed graphs over the enabled edges.
	forward := simple.NewDirectedGraph()
	reversed := simple.NewDirectedGraph()
	for _, n := range g.Nodes {
		if forward.Node(int64(n.ID)) != nil {
			return nil, fmt.Errorf("%w: %d", neat.ErrDuplicateNode, n.ID)
		}
		forward.AddNode(simple.Node(n.ID))
		reversed.AddNode(simple.Node(n.ID))
	}
	incoming := make(map[int][]neat.EdgeGene)
	for _, e := range g.Edges {
		if !e.Enabled {
			continue
		}
		if !g.HasNode(e.From) || !g.HasNode(e.To) {
			return nil, fmt.Errorf("%w: %d -> %d", neat.ErrUnknownNode, e.From, e.To)
		}
		if e.From == e.To {
			return nil, fmt.Errorf("%w: self-loop on node %d", ErrCyclicGenome, e.From)
		}
		forward.SetEdge(forward.NewEdge(simple.Node(e.From), simple.Node(e.To)))
		reversed.SetEdge(reversed.NewEdge(simple.Node(e.To), simple.Node(e.From)))
		incoming[e.To] = append(incoming[e.To], e)
	}
	if _, err := topo.Sort(forward); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCyclicGenome, err)
	}

	inputIDs := g.NodeIDs(neat.InputNode)
	outputIDs := g.NodeIDs(neat.OutputNode)

	// Required nodes: everything an output depends on.
	var bfs traverse.BreadthFirst
	for _, id := range outputIDs {
		bfs.Walk(reversed, simple.Node(id), nil)
	}
	required := func(id int) bool {
		return bfs.Visited(simple.Node(id))
	}

	net := &FeedForwardNetwork{activation: act.Func()}
	slots := make(map[int]int, len(g.Nodes))
	visited := make(map[int]bool, len(g.Nodes))
	for _, id := range inputIDs {
		slots[id] = len(slots)
		visited[id] = true
		net.inputSlots = append(net.inputSlots, slots[id])
	}
	net.layers = append(net.layers, append([]int(nil), inputIDs...))

	for {
		var layer []int
		for _, n := range g.Nodes {
			if visited[n.ID] || !required(n.ID) {
				continue
			}
			if allVisited(incoming[n.ID], visited) {
				layer = append(layer, n.ID)
			}
		}
		if len(layer) == 0 {
			break
		}
		// Mark after the scan so a layer never depends on itself.
		for _, id := range layer {
			visited[id] = true
			slots[id] = len(slots)
		}
		for _, id := range layer {
			node, _ := g.Node(id)
			compiled := neuralNode{slot: slots[id], bias: node.Bias}
			for _, e := range incoming[id] {
				compiled.inputs = append(compiled.inputs, link{source: slots[e.From], weight: e.Weight})
			}
			net.nodes = append(net.nodes, compiled)
		}
		net.layers = append(net.layers, layer)
	}

	for _, id := range outputIDs {
		slot, ok := slots[id]
		if !ok {
			// Unreachable for an acyclic graph.
			return nil, fmt.Errorf("%w: output node %d cannot be scheduled", ErrCyclicGenome, id)
		}
		net.outputSlots = append(net.outputSlots, slot)
	}
	net.numSlots = len(slots)
	return net, nil
}

func allVisited(edges []neat.EdgeGene, visited map[int]bool) bool {
	for _, e := range edges {
		if !visited[e.From] {
			return false
		}
	}
	return true
}

// Activate computes the network's output for a given slice of input values.
// The input slice must match the number of input nodes; outputs follow the
// genome's output node order.
func (net *FeedForwardNetwork) Activate(inputs []float64) ([]float64, error) {
	if len(inputs) != len(net.inputSlots) {
		return nil, fmt.Errorf("%w: got %d inputs, network has %d input nodes", ErrInputCountMismatch, len(inputs), len(net.inputSlots))
	}

	values := make([]float64, net.numSlots)
	for i, slot := range net.inputSlots {
		values[slot] = inputs[i]
	}
	for _, node := range net.nodes {
		sum := node.bias
		for _, in := range node.inputs {
			sum += values[in.source] * in.weight
		}
		values[node.slot] = net.activation(sum)
	}

	outputs := make([]float64, len(net.outputSlots))
	for i, slot := range net.outputSlots {
		outputs[i] = values[slot]
	}
	return outputs, nil
}

// Layers returns the node ids of each evaluation layer. Layer 0 holds the
// input nodes.
func (net *FeedForwardNetwork) Layers() [][]int {
	layers := make([][]int, len(net.layers))
	for i, l := range net.layers {
		layers[i] = append([]int(nil), l...)
	}
	return layers
}

// NumNodes returns the number of non-input nodes evaluated per activation.
func (net *FeedForwardNetwork) NumNodes() int {
	return len(net.nodes)
}
