package automaton

import (
	"fmt"
	"iter"
	"slices"

	"github.com/bits-and-blooms/bitset"
)

// Arc A labeled edge of a TransitionGraph.
type Arc struct {
	From, To, Label int
}

// TransitionGraph A labeled multi-graph: node -> label -> set of nodes. Nodes and labels are
// non-negative integers; label EpsilonCode marks an empty transition. Both directions are
// indexed so predecessor queries cost the same as successor queries.
type TransitionGraph struct {
	out  []map[int]*bitset.BitSet
	in   []map[int]*bitset.BitSet
	live *bitset.BitSet
	arcs int
}

func NewTransitionGraph(capacity int) *TransitionGraph {
	return &TransitionGraph{
		out:  make([]map[int]*bitset.BitSet, 0, capacity),
		in:   make([]map[int]*bitset.BitSet, 0, capacity),
		live: bitset.New(uint(capacity)),
	}
}

// AddNode Creates a new node and returns its handle.
func (g *TransitionGraph) AddNode() int {
	n := len(g.out)
	g.out = grow(g.out, n+1)
	g.in = grow(g.in, n+1)
	g.live.Set(uint(n))
	return n
}

// NumNodes Number of node handles ever allocated, removed ones included.
func (g *TransitionGraph) NumNodes() int {
	return len(g.out)
}

func (g *TransitionGraph) NumArcs() int {
	return g.arcs
}

func (g *TransitionGraph) HasNode(n int) bool {
	return n >= 0 && n < len(g.out) && g.live.Test(uint(n))
}

func (g *TransitionGraph) checkNode(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: node %d", ErrNullArgument, n)
	}
	if !g.HasNode(n) {
		return fmt.Errorf("%w: node %d", ErrNonexistentElement, n)
	}
	return nil
}

func (g *TransitionGraph) AddArc(from, to, label int) error {
	if err := g.checkNode(from); err != nil {
		return err
	}
	if err := g.checkNode(to); err != nil {
		return err
	}
	if label < 0 {
		return fmt.Errorf("%w: label %d", ErrNullArgument, label)
	}
	g.addArc(from, to, label)
	return nil
}

// addArc AddArc without the handle checks, for callers that own both nodes.
func (g *TransitionGraph) addArc(from, to, label int) {
	if link(&g.out[from], label, to) {
		link(&g.in[to], label, from)
		g.arcs++
	}
}

func link(m *map[int]*bitset.BitSet, label, node int) bool {
	if *m == nil {
		*m = make(map[int]*bitset.BitSet)
	}
	set, ok := (*m)[label]
	if !ok {
		set = bitset.New(uint(node + 1))
		(*m)[label] = set
	}
	if set.Test(uint(node)) {
		return false
	}
	set.Set(uint(node))
	return true
}

func unlink(m map[int]*bitset.BitSet, label, node int) bool {
	set, ok := m[label]
	if !ok || !set.Test(uint(node)) {
		return false
	}
	set.Clear(uint(node))
	if set.None() {
		delete(m, label)
	}
	return true
}

func (g *TransitionGraph) RemoveArc(from, to, label int) error {
	if from < 0 || to < 0 || label < 0 {
		return fmt.Errorf("%w: arc %d -%d-> %d", ErrNullArgument, from, label, to)
	}
	if !g.HasNode(from) || !g.HasNode(to) || !unlink(g.out[from], label, to) {
		return fmt.Errorf("%w: arc %d -%d-> %d", ErrNonexistentElement, from, label, to)
	}
	unlink(g.in[to], label, from)
	g.arcs--
	return nil
}

// RemoveNode Removes the node and every arc touching it. The handle is never reused.
func (g *TransitionGraph) RemoveNode(n int) error {
	if err := g.checkNode(n); err != nil {
		return err
	}
	for label, dests := range g.out[n] {
		for d, ok := dests.NextSet(0); ok; d, ok = dests.NextSet(d + 1) {
			if int(d) != n {
				unlink(g.in[d], label, n)
			}
			g.arcs--
		}
	}
	for label, srcs := range g.in[n] {
		for s, ok := srcs.NextSet(0); ok; s, ok = srcs.NextSet(s + 1) {
			if int(s) != n {
				unlink(g.out[s], label, n)
				g.arcs--
			}
		}
	}
	g.out[n] = nil
	g.in[n] = nil
	g.live.Clear(uint(n))
	return nil
}

// SuccessorsOf Returns the successors of n over all labels.
func (g *TransitionGraph) SuccessorsOf(n int) *bitset.BitSet {
	return unionOf(g.out, n)
}

// SuccessorsOfLabel Returns the successors of n over label; never nil.
func (g *TransitionGraph) SuccessorsOfLabel(n, label int) *bitset.BitSet {
	return labeledOf(g.out, n, label)
}

func (g *TransitionGraph) PredecessorsOf(n int) *bitset.BitSet {
	return unionOf(g.in, n)
}

func (g *TransitionGraph) PredecessorsOfLabel(n, label int) *bitset.BitSet {
	return labeledOf(g.in, n, label)
}

func unionOf(adj []map[int]*bitset.BitSet, n int) *bitset.BitSet {
	res := bitset.New(uint(len(adj)))
	if n < 0 || n >= len(adj) {
		return res
	}
	for _, set := range adj[n] {
		res.InPlaceUnion(set)
	}
	return res
}

func labeledOf(adj []map[int]*bitset.BitSet, n, label int) *bitset.BitSet {
	if n < 0 || n >= len(adj) {
		return bitset.New(0)
	}
	if set, ok := adj[n][label]; ok {
		return set.Clone()
	}
	return bitset.New(0)
}

// ArcLabelsOf Returns the sorted labels enabled on the node.
func (g *TransitionGraph) ArcLabelsOf(n int) []int {
	if n < 0 || n >= len(g.out) {
		return nil
	}
	labels := make([]int, 0, len(g.out[n]))
	for label := range g.out[n] {
		labels = append(labels, label)
	}
	slices.Sort(labels)
	return labels
}

// ArcLabelsOn Returns the sorted labels of the arcs from -> to.
func (g *TransitionGraph) ArcLabelsOn(from, to int) []int {
	if from < 0 || from >= len(g.out) || to < 0 {
		return nil
	}
	labels := make([]int, 0)
	for label, dests := range g.out[from] {
		if dests.Test(uint(to)) {
			labels = append(labels, label)
		}
	}
	slices.Sort(labels)
	return labels
}

// Arcs Iterates over all arcs ordered by source, label, destination.
func (g *TransitionGraph) Arcs() iter.Seq[Arc] {
	return func(yield func(Arc) bool) {
		for from := range g.out {
			for _, label := range g.ArcLabelsOf(from) {
				dests := g.out[from][label]
				for d, ok := dests.NextSet(0); ok; d, ok = dests.NextSet(d + 1) {
					if !yield(Arc{From: from, To: int(d), Label: label}) {
						return
					}
				}
			}
		}
	}
}

// IsArcDeterministic Returns true if no node has an epsilon arc and no label leads to more than
// one destination from the same node.
func (g *TransitionGraph) IsArcDeterministic() bool {
	for _, m := range g.out {
		for label, dests := range m {
			if label == EpsilonCode || dests.Count() > 1 {
				return false
			}
		}
	}
	return true
}

// DirectSuccessorOf Returns the single successor of n over label, or -1 if there is none.
func (g *TransitionGraph) DirectSuccessorOf(n, label int) (int, error) {
	if !g.IsArcDeterministic() {
		return -1, ErrUnsupportedOnNondeterministic
	}
	return g.step(n, label), nil
}

func (g *TransitionGraph) step(n, label int) int {
	if n < 0 || n >= len(g.out) {
		return -1
	}
	dests, ok := g.out[n][label]
	if !ok {
		return -1
	}
	d, ok := dests.NextSet(0)
	if !ok {
		return -1
	}
	return int(d)
}

// EpsilonClosureOf Returns every node reachable from the set through epsilon arcs only.
func (g *TransitionGraph) EpsilonClosureOf(nodes *bitset.BitSet) (*bitset.BitSet, error) {
	if g.IsArcDeterministic() {
		return nil, ErrUnsupportedOnDeterministic
	}
	return g.closure(nodes), nil
}

// EpsilonClosureOfLabel Returns closure(step(closure(nodes), label)).
func (g *TransitionGraph) EpsilonClosureOfLabel(nodes *bitset.BitSet, label int) (*bitset.BitSet, error) {
	if g.IsArcDeterministic() {
		return nil, ErrUnsupportedOnDeterministic
	}
	return g.closureStep(nodes, label), nil
}

func (g *TransitionGraph) closure(nodes *bitset.BitSet) *bitset.BitSet {
	res := nodes.Clone()
	frontier := nodes.Clone()
	for frontier.Any() {
		next := bitset.New(uint(len(g.out)))
		for n, ok := frontier.NextSet(0); ok; n, ok = frontier.NextSet(n + 1) {
			if int(n) >= len(g.out) {
				break
			}
			if eps, ok := g.out[n][EpsilonCode]; ok {
				next.InPlaceUnion(eps)
			}
		}
		next.InPlaceDifference(res)
		res.InPlaceUnion(next)
		frontier = next
	}
	return res
}

func (g *TransitionGraph) closureStep(nodes *bitset.BitSet, label int) *bitset.BitSet {
	from := g.closure(nodes)
	stepped := bitset.New(uint(len(g.out)))
	for n, ok := from.NextSet(0); ok; n, ok = from.NextSet(n + 1) {
		if int(n) >= len(g.out) {
			break
		}
		if dests, ok := g.out[n][label]; ok {
			stepped.InPlaceUnion(dests)
		}
	}
	return g.closure(stepped)
}

// Clone Returns a deep copy of the graph.
func (g *TransitionGraph) Clone() *TransitionGraph {
	return &TransitionGraph{
		out:  cloneAdjacency(g.out),
		in:   cloneAdjacency(g.in),
		live: g.live.Clone(),
		arcs: g.arcs,
	}
}

func cloneAdjacency(adj []map[int]*bitset.BitSet) []map[int]*bitset.BitSet {
	res := make([]map[int]*bitset.BitSet, len(adj))
	for n, m := range adj {
		if m == nil {
			continue
		}
		res[n] = make(map[int]*bitset.BitSet, len(m))
		for label, set := range m {
			res[n][label] = set.Clone()
		}
	}
	return res
}
