// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package graphutil interfaces the per-procedure dataflow graph with existing graph libraries:
// it satisfies Gonum's graph.Directed for rendering and algorithms, and the yourbasic/graph
// Iterator for component analyses. Parallel edges between the same pair of nodes are collapsed
// to the first one created; analyses that care about edge multiplicity must work on the
// dataflow graph directly.
package graphutil

import (
	"fmt"
	"strconv"

	"github.com/VaynNecol/RAPx-log/analysis/dataflow"
	"github.com/VaynNecol/RAPx-log/analysis/ir"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
)

// An EdgeFilter decides which dataflow edges are part of the wrapped view.
type EdgeFilter func(*dataflow.Graph, dataflow.EdgeIdx) bool

// AllEdges admits every edge.
func AllEdges(*dataflow.Graph, dataflow.EdgeIdx) bool { return true }

// EquivalenceEdges admits only the equivalence-preserving edges.
func EquivalenceEdges(g *dataflow.Graph, idx dataflow.EdgeIdx) bool {
	return dataflow.EquivalentEdgeValidator(g, idx) == dataflow.Continue
}

// A FlowGraph is a read-only view of one dataflow graph. Node ids are the graph's slot ids.
type FlowGraph struct {
	// G is the wrapped dataflow graph.
	G *dataflow.Graph

	// edges maps src id -> dst id -> index of the first dataflow edge between the pair.
	edges map[int64]map[int64]dataflow.EdgeIdx

	// redges is the reverse adjacency, for To().
	redges map[int64]map[int64]dataflow.EdgeIdx
}

// NewFlowGraph wraps g, keeping only the edges the filter admits.
func NewFlowGraph(g *dataflow.Graph, filter EdgeFilter) FlowGraph {
	edges := make(map[int64]map[int64]dataflow.EdgeIdx, g.NumNodes())
	redges := make(map[int64]map[int64]dataflow.EdgeIdx, g.NumNodes())
	for i := 0; i < g.NumEdges(); i++ {
		if !filter(g, i) {
			continue
		}
		e := g.EdgeAt(i)
		src, dst := int64(e.Src), int64(e.Dst)
		if edges[src] == nil {
			edges[src] = map[int64]dataflow.EdgeIdx{}
		}
		if _, ok := edges[src][dst]; !ok {
			edges[src][dst] = i
		}
		if redges[dst] == nil {
			redges[dst] = map[int64]dataflow.EdgeIdx{}
		}
		if _, ok := redges[dst][src]; !ok {
			redges[dst][src] = i
		}
	}
	return FlowGraph{G: g, edges: edges, redges: redges}
}

// Order implements the yourbasic graph.Iterator interface.
func (f FlowGraph) Order() int {
	return f.G.NumNodes()
}

// Visit implements the yourbasic graph.Iterator interface.
func (f FlowGraph) Visit(v int, do func(w int, c int64) (skip bool)) (aborted bool) {
	for w := range f.edges[int64(v)] {
		if do(int(w), 1) {
			return true
		}
	}
	return false
}

// *************** Gonum graph.Directed implementation **********************

// Node returns the node with the given id, or nil if it does not exist.
func (f FlowGraph) Node(id int64) graph.Node {
	if id < 0 || id >= int64(f.G.NumNodes()) {
		return nil
	}
	return FlowNode{g: f.G, id: id}
}

// Nodes returns the set of all nodes.
func (f FlowGraph) Nodes() graph.Nodes {
	ids := make([]int64, f.G.NumNodes())
	for i := range ids {
		ids[i] = int64(i)
	}
	return &nodeSet{g: f.G, ids: ids, cur: -1}
}

// From returns the set of nodes reachable from id through one admitted edge.
func (f FlowGraph) From(id int64) graph.Nodes {
	return f.adjacent(f.edges[id])
}

// To returns the set of nodes that reach id through one admitted edge.
func (f FlowGraph) To(id int64) graph.Nodes {
	return f.adjacent(f.redges[id])
}

func (f FlowGraph) adjacent(adj map[int64]dataflow.EdgeIdx) graph.Nodes {
	ids := make([]int64, 0, len(adj))
	for w := range adj {
		ids = append(ids, w)
	}
	return &nodeSet{g: f.G, ids: ids, cur: -1}
}

// HasEdgeBetween returns whether an admitted edge exists between the two ids in either direction.
func (f FlowGraph) HasEdgeBetween(xid, yid int64) bool {
	return f.HasEdgeFromTo(xid, yid) || f.HasEdgeFromTo(yid, xid)
}

// HasEdgeFromTo returns whether an admitted edge exists from uid to vid.
func (f FlowGraph) HasEdgeFromTo(uid, vid int64) bool {
	_, ok := f.edges[uid][vid]
	return ok
}

// Edge returns the edge between the two ids (nil if none exists).
func (f FlowGraph) Edge(uid, vid int64) graph.Edge {
	if idx, ok := f.edges[uid][vid]; ok {
		return FlowEdge{g: f.G, idx: idx}
	}
	return nil
}

// *************** Node and edge wrappers **********************

// A FlowNode wraps one dataflow node for Gonum. It labels itself for dot output with the slot
// id and operation tag, highlighting the return slot and the parameter slots.
type FlowNode struct {
	g  *dataflow.Graph
	id int64
}

// ID returns the id of the node.
func (n FlowNode) ID() int64 { return n.id }

// DOTID returns the dot identifier of the node, its slot written "_N".
func (n FlowNode) DOTID() string { return fmt.Sprintf("_%d", n.id) }

func (n FlowNode) String() string { return n.DOTID() }

// Attributes implements encoding.Attributer for dot output.
func (n FlowNode) Attributes() []encoding.Attribute {
	slot := ir.Slot(n.id)
	node := n.g.NodeAt(slot)
	var label string
	switch node.Op {
	case dataflow.NodeNop:
		label = n.DOTID()
	case dataflow.NodeConst:
		label = fmt.Sprintf("%s | %s", n.DOTID(), node.ConstVal)
	case dataflow.NodeCall:
		label = fmt.Sprintf("%s | %s", n.DOTID(), node.Callee)
	default:
		label = fmt.Sprintf("%s | %s", n.DOTID(), node.Op)
	}
	// the dot encoder emits attribute values verbatim, so quote them here
	attrs := []encoding.Attribute{{Key: "label", Value: strconv.Quote(label)}}
	if slot == ir.ReturnSlot || n.g.IsParam(slot) {
		attrs = append(attrs, encoding.Attribute{Key: "color", Value: "red"})
	}
	return attrs
}

// A FlowEdge wraps one dataflow edge for Gonum.
type FlowEdge struct {
	g   *dataflow.Graph
	idx dataflow.EdgeIdx
}

// From returns the origin of the edge.
func (e FlowEdge) From() graph.Node {
	return FlowNode{g: e.g, id: int64(e.g.EdgeAt(e.idx).Src)}
}

// To returns the destination of the edge.
func (e FlowEdge) To() graph.Node {
	return FlowNode{g: e.g, id: int64(e.g.EdgeAt(e.idx).Dst)}
}

// ReversedEdge returns a new value representing the reversed edge.
func (e FlowEdge) ReversedEdge() graph.Edge {
	rev := *e.g.EdgeAt(e.idx)
	return reversedEdge{FlowEdge: e, from: int64(rev.Dst), to: int64(rev.Src)}
}

// Attributes implements encoding.Attributer for dot output.
func (e FlowEdge) Attributes() []encoding.Attribute {
	edge := e.g.EdgeAt(e.idx)
	label := edge.Op.String()
	if edge.Label != "" {
		label = fmt.Sprintf("%s(%s)", edge.Op, edge.Label)
	}
	return []encoding.Attribute{{Key: "label", Value: strconv.Quote(label)}}
}

type reversedEdge struct {
	FlowEdge
	from, to int64
}

func (e reversedEdge) From() graph.Node { return FlowNode{g: e.g, id: e.from} }
func (e reversedEdge) To() graph.Node   { return FlowNode{g: e.g, id: e.to} }

// nodeSet implements the graph.Nodes iterator over a fixed id list.
type nodeSet struct {
	g   *dataflow.Graph
	ids []int64
	cur int
}

func (ns *nodeSet) Next() bool {
	if ns.cur < len(ns.ids)-1 {
		ns.cur++
		return true
	}
	return false
}

func (ns *nodeSet) Len() int { return len(ns.ids) }

func (ns *nodeSet) Reset() { ns.cur = -1 }

func (ns *nodeSet) Node() graph.Node {
	if ns.cur < 0 || ns.cur >= len(ns.ids) {
		return nil
	}
	return FlowNode{g: ns.g, id: ns.ids[ns.cur]}
}
