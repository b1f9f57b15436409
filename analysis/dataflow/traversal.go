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
	"errors"
	"fmt"

	"github.com/VaynNecol/RAPx-log/analysis/ir"
	"golang.org/x/tools/container/intsets"
)

// Direction selects which edges a traversal follows.
type Direction int

const (
	// Upside follows incoming edges, toward the sources a value derives from.
	Upside Direction = iota
	// Downside follows outgoing edges, toward the destinations a value flows into.
	Downside
	// Both follows incoming edges first, then outgoing edges.
	Both
)

// VisitStatus is the verdict a visitor or validator returns about one node or edge.
type VisitStatus int

const (
	// Continue lets the traversal proceed past the node or through the edge.
	Continue VisitStatus = iota
	// Stop halts exploration at the node, or rejects the edge. When the traversal is in
	// short-circuit mode, a Stop anywhere halts the whole search.
	Stop
)

// A NodeVisitor decides whether exploration proceeds past a node. It may be invoked more than
// once for the same node when several admitted edges reach it; the node's edges are expanded
// only on the first admitted visit.
type NodeVisitor func(*Graph, ir.Slot) VisitStatus

// An EdgeValidator decides whether a given edge may be followed.
type EdgeValidator func(*Graph, EdgeIdx) VisitStatus

// ErrTraversalBudget reports that a bounded traversal exhausted its step budget before
// completing. It signals a robustness limit, not a property of the graph.
var ErrTraversalBudget = errors.New("traversal step budget exhausted")

// Traverse runs a depth-first search from start in the given direction. Edges are explored in
// creation order. When traverseAll is false the first Stop returned by the node visitor halts
// the entire search and is returned; when traverseAll is true every node reachable under the
// visitor and validator is visited, and the returned status reflects the verdict on start alone.
//
// The search runs on an explicit work stack with a visited set, so it is safe on cyclic graphs
// and on dependency chains of any length.
func (g *Graph) Traverse(start ir.Slot, dir Direction, nodeVisitor NodeVisitor,
	edgeValidator EdgeValidator, traverseAll bool) VisitStatus {
	status, _ := g.TraverseLimited(start, dir, nodeVisitor, edgeValidator, traverseAll, 0)
	return status
}

// TraverseLimited is Traverse with a step budget: at most maxSteps node visits are performed
// when maxSteps > 0, and exhausting the budget returns an error wrapping ErrTraversalBudget.
func (g *Graph) TraverseLimited(start ir.Slot, dir Direction, nodeVisitor NodeVisitor,
	edgeValidator EdgeValidator, traverseAll bool, maxSteps int) (VisitStatus, error) {
	var visited intsets.Sparse
	stack := []ir.Slot{start}
	startStatus := Continue
	steps := 0

	for len(stack) > 0 {
		if maxSteps > 0 && steps >= maxSteps {
			return Stop, fmt.Errorf("%s after %d steps: %w", g.Proc, steps, ErrTraversalBudget)
		}
		steps++

		now := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		verdict := nodeVisitor(g, now)
		if now == start && steps == 1 {
			startStatus = verdict
		}
		if verdict == Stop {
			if !traverseAll {
				return Stop, nil
			}
			continue
		}
		if !visited.Insert(int(now)) {
			continue
		}

		// Neighbors are pushed in reverse so the pop order matches edge creation order. For
		// Both, outgoing edges are pushed first so incoming edges are explored first.
		if dir == Downside || dir == Both {
			stack = g.pushAdmitted(stack, g.nodes[now].Out, edgeValidator, false)
		}
		if dir == Upside || dir == Both {
			stack = g.pushAdmitted(stack, g.nodes[now].In, edgeValidator, true)
		}
	}
	return startStatus, nil
}

func (g *Graph) pushAdmitted(stack []ir.Slot, edges []EdgeIdx, edgeValidator EdgeValidator,
	upside bool) []ir.Slot {
	for i := len(edges) - 1; i >= 0; i-- {
		idx := edges[i]
		if edgeValidator(g, idx) != Continue {
			continue
		}
		if upside {
			stack = append(stack, g.edges[idx].Src)
		} else {
			stack = append(stack, g.edges[idx].Dst)
		}
	}
	return stack
}

// EquivalentEdgeValidator admits only the equivalence-preserving edges: plain copies, moves and
// borrows. Projection, constant and nop edges stop a traversal.
func EquivalentEdgeValidator(g *Graph, idx EdgeIdx) VisitStatus {
	switch g.edges[idx].Op {
	case EdgeCopy, EdgeMove, EdgeMut, EdgeImmut:
		return Continue
	default:
		return Stop
	}
}

// AlwaysTrueEdgeValidator admits every edge.
func AlwaysTrueEdgeValidator(*Graph, EdgeIdx) VisitStatus {
	return Continue
}
