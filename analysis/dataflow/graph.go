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

package dataflow

import (
	"fmt"

	"github.com/VaynNecol/RAPx-log/analysis/ir"
	fn "github.com/VaynNecol/RAPx-log/internal/funcutil"
)

// NodeOp tags what operation defined a node's value.
type NodeOp int

const (
	// NodeNop is an original slot with no recorded definition: a parameter or an unvisited
	// temporary.
	NodeNop NodeOp = iota
	// NodeErr marks a node left in an error state.
	NodeErr
	// NodeConst is a literal snapshot; the node carries the literal's textual form.
	NodeConst
	// NodeUse is a plain read of one operand.
	NodeUse
	// NodeRepeat is an array built by repeating one operand.
	NodeRepeat
	// NodeRef is a reference to a place; mutability is encoded on the incoming edge.
	NodeRef
	// NodeThreadLocalRef is a reference to a thread-local.
	NodeThreadLocalRef
	// NodeAddressOf is a raw address of a place.
	NodeAddressOf
	// NodeLen is the length of a place.
	NodeLen
	// NodeCast is a type conversion of one operand.
	NodeCast
	// NodeBinOp is a binary operation.
	NodeBinOp
	// NodeCheckedBinOp is a binary operation with an overflow check. The builder tags both
	// checked and unchecked binary operations with this op.
	NodeCheckedBinOp
	// NodeNullaryOp is a value produced from a type alone.
	NodeNullaryOp
	// NodeUnOp is a unary operation.
	NodeUnOp
	// NodeDiscriminant is a read of a place's variant discriminant.
	NodeDiscriminant
	// NodeAggregate is an aggregate construction; the node carries the sub-kind and type id.
	NodeAggregate
	// NodeShallowInitBox is a box allocation around one operand.
	NodeShallowInitBox
	// NodeCopyForDeref is a copy made so the value can be dereferenced.
	NodeCopyForDeref
	// NodeCall is a call to a compile-time-resolved function; the node carries the callee
	// identifier and its incoming edges are the arguments.
	NodeCall
	// NodeCallOperand is a call whose target is itself a graph value: the first incoming edge is
	// the callee, the remaining ones are the arguments.
	NodeCallOperand
)

var nodeOpNames = map[NodeOp]string{
	NodeNop:            "nop",
	NodeErr:            "err",
	NodeConst:          "const",
	NodeUse:            "use",
	NodeRepeat:         "repeat",
	NodeRef:            "ref",
	NodeThreadLocalRef: "thread-local-ref",
	NodeAddressOf:      "address-of",
	NodeLen:            "len",
	NodeCast:           "cast",
	NodeBinOp:          "bin-op",
	NodeCheckedBinOp:   "checked-bin-op",
	NodeNullaryOp:      "nullary-op",
	NodeUnOp:           "un-op",
	NodeDiscriminant:   "discriminant",
	NodeAggregate:      "aggregate",
	NodeShallowInitBox: "shallow-init-box",
	NodeCopyForDeref:   "copy-for-deref",
	NodeCall:           "call",
	NodeCallOperand:    "call-operand",
}

func (op NodeOp) String() string {
	if s, ok := nodeOpNames[op]; ok {
		return s
	}
	return fmt.Sprintf("node-op(%d)", int(op))
}

// EdgeOp tags the nature of the relationship an edge records.
type EdgeOp int

const (
	// EdgeNop carries a relationship with no operand semantics (fake borrows, length and
	// discriminant reads).
	EdgeNop EdgeOp = iota
	// EdgeMove is a moving operand read.
	EdgeMove
	// EdgeCopy is a copying operand read.
	EdgeCopy
	// EdgeConst connects a literal snapshot node to its consumer.
	EdgeConst
	// EdgeImmut is an immutable borrow.
	EdgeImmut
	// EdgeMut is a mutable borrow.
	EdgeMut
	// EdgeDeref is a dereference projection step.
	EdgeDeref
	// EdgeField is a field projection step; the edge carries the field identifier.
	EdgeField
	// EdgeDowncast is a variant view projection step; the edge carries the variant name.
	EdgeDowncast
	// EdgeIndex is an index-by-value projection step. Both the indexed object and the index
	// value are connected with this op, with no structural distinction between the two roles.
	EdgeIndex
	// EdgeConstIndex is an index-by-constant projection step.
	EdgeConstIndex
	// EdgeSubSlice is a subslice projection step.
	EdgeSubSlice
)

var edgeOpNames = map[EdgeOp]string{
	EdgeNop:        "nop",
	EdgeMove:       "move",
	EdgeCopy:       "copy",
	EdgeConst:      "const",
	EdgeImmut:      "immut",
	EdgeMut:        "mut",
	EdgeDeref:      "deref",
	EdgeField:      "field",
	EdgeDowncast:   "downcast",
	EdgeIndex:      "index",
	EdgeConstIndex: "const-index",
	EdgeSubSlice:   "subslice",
}

func (op EdgeOp) String() string {
	if s, ok := edgeOpNames[op]; ok {
		return s
	}
	return fmt.Sprintf("edge-op(%d)", int(op))
}

// EdgeIdx indexes an edge in its graph. Edge indices are never reused within one graph.
type EdgeIdx = int

// A Node is one vertex of the dataflow graph: an original slot, a synthetic slot created while
// resolving a projection chain, or a literal snapshot.
type Node struct {
	Op NodeOp

	// ConstVal is the literal's textual form when Op is NodeConst.
	ConstVal string

	// Callee is the resolved callee identifier when Op is NodeCall.
	Callee string

	// Agg and AggID describe the aggregate when Op is NodeAggregate.
	Agg   ir.AggKind
	AggID string

	Loc ir.Location

	// Seq is the node's batch counter: all edges created into this node while translating one
	// statement or terminator carry the same Seq, and Seq increments by one afterwards.
	Seq uint32

	// In and Out hold the indices of the edges in which this node is, respectively, the
	// destination and the source, in creation order.
	In  []EdgeIdx
	Out []EdgeIdx
}

// An Edge is a directed relationship between two nodes of the same graph.
type Edge struct {
	Src ir.Slot
	Dst ir.Slot
	Op  EdgeOp

	// Label is the field identifier for EdgeField and the variant name for EdgeDowncast.
	Label string

	// Seq is the value of the destination node's Seq when the edge was created.
	Seq uint32
}

// A Graph is the dataflow dependency graph of one procedure. It exclusively owns its nodes and
// edges; both are append-only, so indices stay valid for the graph's lifetime. A Graph is built
// once by BuildGraph and must not be mutated afterwards; all query methods are read-only.
type Graph struct {
	// Proc is the identifier of the analyzed procedure.
	Proc string

	// Loc is the procedure's source location.
	Loc ir.Location

	argc     int
	numSlots int
	nodes    []Node
	edges    []Edge
}

// NewGraph returns a graph for a procedure with the given argument and slot counts, holding one
// placeholder node per declared slot and no edges.
func NewGraph(proc string, loc ir.Location, argc int, numSlots int) *Graph {
	return &Graph{
		Proc:     proc,
		Loc:      loc,
		argc:     argc,
		numSlots: numSlots,
		nodes:    make([]Node, numSlots),
	}
}

// Argc returns the number of parameter slots. Parameters occupy slots 1..Argc.
func (g *Graph) Argc() int { return g.argc }

// NumSlots returns the number of slots the procedure declared. Nodes at indices >= NumSlots are
// synthetic slots or literal snapshots created during construction.
func (g *Graph) NumSlots() int { return g.numSlots }

// NumNodes returns the total number of nodes, declared and synthetic.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// NumEdges returns the total number of edges.
func (g *Graph) NumEdges() int { return len(g.edges) }

// NodeAt returns the node at the given slot. The node must be treated as read-only.
func (g *Graph) NodeAt(s ir.Slot) *Node { return &g.nodes[s] }

// EdgeAt returns the edge at the given index. The edge must be treated as read-only.
func (g *Graph) EdgeAt(e EdgeIdx) *Edge { return &g.edges[e] }

// IsParam returns true if the slot is one of the procedure's parameters.
func (g *Graph) IsParam(s ir.Slot) bool { return s >= 1 && int(s) <= g.argc }

// UpsideIdx returns the source endpoint of the node's k-th incoming edge, or none when k is out
// of range. The accessor is positional, not semantic.
func (g *Graph) UpsideIdx(s ir.Slot, k int) fn.Optional[ir.Slot] {
	in := g.nodes[s].In
	if k < 0 || k >= len(in) {
		return fn.None[ir.Slot]()
	}
	return fn.Some(g.edges[in[k]].Src)
}

// DownsideIdx returns the destination endpoint of the node's k-th outgoing edge, or none when k
// is out of range.
func (g *Graph) DownsideIdx(s ir.Slot, k int) fn.Optional[ir.Slot] {
	out := g.nodes[s].Out
	if k < 0 || k >= len(out) {
		return fn.None[ir.Slot]()
	}
	return fn.Some(g.edges[out[k]].Dst)
}

// addNode appends a fresh synthetic node and returns its slot.
func (g *Graph) addNode() ir.Slot {
	g.nodes = append(g.nodes, Node{})
	return ir.Slot(len(g.nodes) - 1)
}

// addEdge appends an edge from src to dst, stamped with dst's current batch counter, and links
// it into both endpoints' edge lists.
func (g *Graph) addEdge(src ir.Slot, dst ir.Slot, op EdgeOp, label string) EdgeIdx {
	seq := g.nodes[dst].Seq
	idx := len(g.edges)
	g.edges = append(g.edges, Edge{Src: src, Dst: dst, Op: op, Label: label, Seq: seq})
	g.nodes[dst].In = append(g.nodes[dst].In, idx)
	g.nodes[src].Out = append(g.nodes[src].Out, idx)
	return idx
}

// addConstEdge appends a literal snapshot node holding text and an edge from it into dst.
// Snapshot nodes are created at construction time and never reused across operands.
func (g *Graph) addConstEdge(text string, dst ir.Slot, op EdgeOp) EdgeIdx {
	src := g.addNode()
	g.nodes[src].Op = NodeConst
	g.nodes[src].ConstVal = text
	return g.addEdge(src, dst, op, "")
}
