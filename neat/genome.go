package neat

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// maxAddConnectionAttempts bounds the candidate pairs drawn by one
// AddConnectionMutation call before it gives up.
const maxAddConnectionAttempts = 20

var (
	ErrInvalidNode   = errors.New("node id must be positive")
	ErrDuplicateNode = errors.New("duplicate node id")
	ErrUnknownNode   = errors.New("edge references unknown node")
	ErrDuplicateEdge = errors.New("edge already exists")
	ErrInvalidEdge   = errors.New("edge direction not allowed")
	ErrCycle         = errors.New("edge would create a cycle")
)

// Genome represents an individual organism in the population: a directed
// acyclic graph of NodeGenes and EdgeGenes addressed by integer ids.
//
// Nodes and Edges are value slices, so Clone never shares gene state between
// genomes. Callers may edit gene attributes (weights, biases) in place but
// must add nodes and edges through the Genome methods so the indexes stay
// in sync.
type Genome struct {
	Key       int        // Unique identifier for this genome.
	Nodes     []NodeGene // Ordered; ids unique
	Edges     []EdgeGene // Ordered; (From, To) pairs unique
	Fitness   float64    // Written by the evaluation callback.
	SpeciesID int        // Written by the population; 0 when unassigned.

	nodeIndex  map[int]int   // node id -> index in Nodes
	edgeIndex  map[int64]int // innovation -> index in Edges
	outgoing   map[int][]int // node id -> indexes in Edges of edges leaving it
	nextNodeID int
}

// NewGenome creates an empty genome with the given key.
func NewGenome(key int) *Genome {
	return &Genome{
		Key:        key,
		nodeIndex:  make(map[int]int),
		edgeIndex:  make(map[int64]int),
		outgoing:   make(map[int][]int),
		nextNodeID: 1,
	}
}

// NewFullyConnectedGenome creates a genome with the configured input and output
// nodes and an enabled edge from every input to every output. Input ids are
// 1..NumInputNeurons, output ids follow. Weights are sampled from N(0, 1).
func NewFullyConnectedGenome(key int, config *GenomeConfig, rng *rand.Rand) *Genome {
	g := NewGenome(key)
	inputs := make([]int, 0, config.NumInputNeurons)
	for i := 0; i < config.NumInputNeurons; i++ {
		inputs = append(inputs, g.CreateNode(InputNode, 0).ID)
	}
	outputs := make([]int, 0, config.NumOutputNeurons)
	for i := 0; i < config.NumOutputNeurons; i++ {
		outputs = append(outputs, g.CreateNode(OutputNode, 0).ID)
	}
	for _, in := range inputs {
		for _, out := range outputs {
			g.insertEdge(NewEdgeGene(in, out, newWeight(rng)))
		}
	}
	return g
}

// Clone returns a deep copy of the genome.
func (g *Genome) Clone() *Genome {
	c := &Genome{
		Key:       g.Key,
		Nodes:     append([]NodeGene(nil), g.Nodes...),
		Edges:     append([]EdgeGene(nil), g.Edges...),
		Fitness:   g.Fitness,
		SpeciesID: g.SpeciesID,
	}
	c.reindex()
	return c
}

// reindex rebuilds the lookup indexes from Nodes and Edges.
func (g *Genome) reindex() {
	g.nodeIndex = make(map[int]int, len(g.Nodes))
	g.edgeIndex = make(map[int64]int, len(g.Edges))
	g.outgoing = make(map[int][]int, len(g.Nodes))
	g.nextNodeID = 1
	for i, n := range g.Nodes {
		g.nodeIndex[n.ID] = i
		if n.ID >= g.nextNodeID {
			g.nextNodeID = n.ID + 1
		}
	}
	for i, e := range g.Edges {
		g.edgeIndex[e.Innovation] = i
		g.outgoing[e.From] = append(g.outgoing[e.From], i)
	}
}

// Node returns the node with the given id.
func (g *Genome) Node(id int) (NodeGene, bool) {
	i, ok := g.nodeIndex[id]
	if !ok {
		return NodeGene{}, false
	}
	return g.Nodes[i], true
}

// Edge returns the edge with the given innovation number.
func (g *Genome) Edge(innovation int64) (EdgeGene, bool) {
	i, ok := g.edgeIndex[innovation]
	if !ok {
		return EdgeGene{}, false
	}
	return g.Edges[i], true
}

// HasNode reports whether a node with the given id exists.
func (g *Genome) HasNode(id int) bool {
	_, ok := g.nodeIndex[id]
	return ok
}

// HasEdge reports whether an edge from -> to exists, enabled or not.
func (g *Genome) HasEdge(from, to int) bool {
	_, ok := g.edgeIndex[InnovationNumber(from, to)]
	return ok
}

// NodeIDs returns the ids of all nodes of type t in genome order.
func (g *Genome) NodeIDs(t NodeType) []int {
	var ids []int
	for _, n := range g.Nodes {
		if n.Type == t {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// CreateNode appends a node with the next free id and returns it.
func (g *Genome) CreateNode(t NodeType, bias float64) NodeGene {
	if g.nodeIndex == nil {
		g.reindex()
	}
	n := NodeGene{ID: g.nextNodeID, Type: t, Bias: bias}
	g.insertNode(n)
	return n
}

// AddNode appends a copy of n. The id must be positive and not in use.
func (g *Genome) AddNode(n NodeGene) error {
	if n.ID < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidNode, n.ID)
	}
	if g.HasNode(n.ID) {
		return fmt.Errorf("%w: %d", ErrDuplicateNode, n.ID)
	}
	g.insertNode(n)
	return nil
}

func (g *Genome) insertNode(n NodeGene) {
	if g.nodeIndex == nil {
		g.reindex()
	}
	g.nodeIndex[n.ID] = len(g.Nodes)
	g.Nodes = append(g.Nodes, n)
	if n.ID >= g.nextNodeID {
		g.nextNodeID = n.ID + 1
	}
}

// AddEdge appends a copy of e after checking that both endpoints exist, the
// edge neither enters an input nor leaves an output, the pair is new, and the
// edge does not close a cycle. The innovation number is recomputed from the
// endpoints.
func (g *Genome) AddEdge(e EdgeGene) error {
	from, ok := g.Node(e.From)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownNode, e.From)
	}
	to, ok := g.Node(e.To)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownNode, e.To)
	}
	if from.Type == OutputNode || to.Type == InputNode {
		return fmt.Errorf("%w: %s %d -> %s %d", ErrInvalidEdge, from.Type, e.From, to.Type, e.To)
	}
	if g.HasEdge(e.From, e.To) {
		return fmt.Errorf("%w: %d -> %d", ErrDuplicateEdge, e.From, e.To)
	}
	if g.createsCycle(e.From, e.To) {
		return fmt.Errorf("%w: %d -> %d", ErrCycle, e.From, e.To)
	}
	e.Innovation = InnovationNumber(e.From, e.To)
	g.insertEdge(e)
	return nil
}

func (g *Genome) insertEdge(e EdgeGene) {
	if g.edgeIndex == nil {
		g.reindex()
	}
	i := len(g.Edges)
	g.Edges = append(g.Edges, e)
	g.edgeIndex[e.Innovation] = i
	g.outgoing[e.From] = append(g.outgoing[e.From], i)
}

// createsCycle reports whether adding from -> to would close a cycle, that is
// whether from == to or from is reachable from to. Disabled edges count, so
// re-enabling any existing edge can never introduce a cycle. Each edge is
// examined at most once.
func (g *Genome) createsCycle(from, to int) bool {
	if from == to {
		return true
	}
	visited := map[int]bool{to: true}
	queue := []int{to}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, ei := range g.outgoing[current] {
			next := g.Edges[ei].To
			if next == from {
				return true
			}
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return false
}

// AddConnectionMutation draws candidate pairs uniformly from
// {non-output nodes} x {non-input nodes} and adds the first one that is new
// and acyclic with a weight sampled from N(0, 1). It reports whether an edge
// was added; giving up after maxAddConnectionAttempts draws is not an error.
func (g *Genome) AddConnectionMutation(rng *rand.Rand) bool {
	var sources, targets []int
	for _, n := range g.Nodes {
		if n.Type != OutputNode {
			sources = append(sources, n.ID)
		}
		if n.Type != InputNode {
			targets = append(targets, n.ID)
		}
	}
	if len(sources) == 0 || len(targets) == 0 {
		return false
	}

	for attempt := 0; attempt < maxAddConnectionAttempts; attempt++ {
		from := sources[rng.Intn(len(sources))]
		to := targets[rng.Intn(len(targets))]
		if g.HasEdge(from, to) || g.createsCycle(from, to) {
			continue
		}
		g.insertEdge(NewEdgeGene(from, to, newWeight(rng)))
		return true
	}
	return false
}

// AddNodeMutation splits a uniformly chosen enabled edge: the edge is
// disabled, a hidden node with zero bias is created, and edges
// from -> new (weight 1) and new -> to (the old weight) are added. It
// reports false when the genome has no enabled edge.
func (g *Genome) AddNodeMutation(rng *rand.Rand) bool {
	var enabled []int
	for i, e := range g.Edges {
		if e.Enabled {
			enabled = append(enabled, i)
		}
	}
	if len(enabled) == 0 {
		return false
	}

	idx := enabled[rng.Intn(len(enabled))]
	g.Edges[idx].Enabled = false
	split := g.Edges[idx]

	node := g.CreateNode(HiddenNode, 0)
	g.insertEdge(NewEdgeGene(split.From, node.ID, 1.0))
	g.insertEdge(NewEdgeGene(node.ID, split.To, split.Weight))
	return true
}

// Validate checks the genome invariants: unique positive node ids, edge endpoints that
// exist, unique (From, To) pairs, innovation numbers matching their
// endpoints, and an acyclic edge set.
func (g *Genome) Validate() error {
	dg := simple.NewDirectedGraph()
	for _, n := range g.Nodes {
		if n.ID < 1 {
			return fmt.Errorf("%w: %d", ErrInvalidNode, n.ID)
		}
		if dg.Node(int64(n.ID)) != nil {
			return fmt.Errorf("%w: %d", ErrDuplicateNode, n.ID)
		}
		dg.AddNode(simple.Node(n.ID))
	}

	seen := make(map[int64]bool, len(g.Edges))
	for _, e := range g.Edges {
		if dg.Node(int64(e.From)) == nil {
			return fmt.Errorf("%w: %d", ErrUnknownNode, e.From)
		}
		if dg.Node(int64(e.To)) == nil {
			return fmt.Errorf("%w: %d", ErrUnknownNode, e.To)
		}
		if e.From == e.To {
			return fmt.Errorf("%w: self-loop on %d", ErrCycle, e.From)
		}
		if e.Innovation != InnovationNumber(e.From, e.To) {
			return fmt.Errorf("edge %d -> %d has innovation %d, want %d", e.From, e.To, e.Innovation, InnovationNumber(e.From, e.To))
		}
		if seen[e.Innovation] {
			return fmt.Errorf("%w: %d -> %d", ErrDuplicateEdge, e.From, e.To)
		}
		seen[e.Innovation] = true
		dg.SetEdge(dg.NewEdge(simple.Node(e.From), simple.Node(e.To)))
	}

	if _, err := topo.Sort(dg); err != nil {
		return fmt.Errorf("%w: %v", ErrCycle, err)
	}
	return nil
}

// String returns a string representation of the Genome.
func (g *Genome) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Genome(Key: %d, Fitness: %.4f, Species: %d)\nNodes:", g.Key, g.Fitness, g.SpeciesID)
	for _, n := range g.Nodes {
		fmt.Fprintf(&sb, " %d-%s", n.ID, n.Type)
	}
	sb.WriteString("\nEdges:\n")
	for _, e := range g.Edges {
		sb.WriteString("  " + e.String() + "\n")
	}
	return sb.String()
}
