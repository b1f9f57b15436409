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
	"github.com/VaynNecol/RAPx-log/analysis/ir"
	fn "github.com/VaynNecol/RAPx-log/internal/funcutil"
)

// isEquivalentOp reports whether a node denotes its value unchanged: placeholders, plain uses
// and references. Any computed transformation breaks equivalence.
func isEquivalentOp(op NodeOp) bool {
	return op == NodeNop || op == NodeUse || op == NodeRef
}

// equivAccumulator threads the mutable state of one equivalence query through the two
// traversal passes.
type equivAccumulator struct {
	root ir.Slot
	set  map[ir.Slot]bool
}

// findRoot tracks the furthest upstream node still denoting the same value: the last admitted
// node of the upside pass.
func (a *equivAccumulator) findRoot(g *Graph, s ir.Slot) VisitStatus {
	if isEquivalentOp(g.nodes[s].Op) {
		a.root = s
		return Continue
	}
	return Stop
}

// collect gathers every admitted node of the downside pass. Already-collected nodes stop
// recursion only to avoid duplicate work.
func (a *equivAccumulator) collect(g *Graph, s ir.Slot) VisitStatus {
	if a.set[s] {
		return Stop
	}
	if isEquivalentOp(g.nodes[s].Op) {
		a.set[s] = true
		return Continue
	}
	return Stop
}

// CollectEquivalentLocals returns the set of slots denoting the same value as slot through
// value-preserving relationships only: copy, move and borrow chains between placeholder, use
// and reference nodes. The query first walks upside to the root of the chain, then downside
// from the root collecting everything still equivalent.
func (g *Graph) CollectEquivalentLocals(slot ir.Slot) map[ir.Slot]bool {
	acc := &equivAccumulator{root: slot, set: make(map[ir.Slot]bool)}
	g.Traverse(slot, Upside, acc.findRoot, EquivalentEdgeValidator, true)
	g.Traverse(acc.root, Downside, acc.collect, EquivalentEdgeValidator, true)
	return acc.set
}

// EquivalentLocalsSorted is CollectEquivalentLocals with the result in increasing slot order,
// for stable reporting.
func (g *Graph) EquivalentLocalsSorted(slot ir.Slot) []ir.Slot {
	return fn.SetToOrderedSlice(g.CollectEquivalentLocals(slot))
}

// connFinder records whether a traversal reached the target node.
type connFinder struct {
	target ir.Slot
	found  bool
}

func (f *connFinder) visit(_ *Graph, s ir.Slot) VisitStatus {
	f.found = s == f.target
	if f.found {
		return Stop
	}
	return Continue
}

// IsConnected reports whether b is reachable from a along any edges, trying downside first and
// upside second. A slot is always connected to itself.
func (g *Graph) IsConnected(a ir.Slot, b ir.Slot) bool {
	found, _ := g.isConnected(a, b, 0)
	return found
}

// IsConnectedLimited is IsConnected under a traversal step budget (see TraverseLimited).
func (g *Graph) IsConnectedLimited(a ir.Slot, b ir.Slot, maxSteps int) (bool, error) {
	return g.isConnected(a, b, maxSteps)
}

func (g *Graph) isConnected(a ir.Slot, b ir.Slot, maxSteps int) (bool, error) {
	finder := &connFinder{target: b}
	if _, err := g.TraverseLimited(a, Downside, finder.visit, AlwaysTrueEdgeValidator, false,
		maxSteps); err != nil {
		return false, err
	}
	if !finder.found {
		if _, err := g.TraverseLimited(a, Upside, finder.visit, AlwaysTrueEdgeValidator, false,
			maxSteps); err != nil {
			return false, err
		}
	}
	return finder.found, nil
}

// ParamReturnDeps reports, for each of the procedure's slots 0..Argc, whether it is connected
// to the return slot. The vector has length Argc+1; entry 0 is always true since slot 0 is the
// return slot itself.
func (g *Graph) ParamReturnDeps() []bool {
	deps, _ := g.ParamReturnDepsLimited(0)
	return deps
}

// ParamReturnDepsLimited is ParamReturnDeps under a traversal step budget. When the budget is
// exhausted the partial vector computed so far is returned along with the error.
func (g *Graph) ParamReturnDepsLimited(maxSteps int) ([]bool, error) {
	deps := make([]bool, g.argc+1)
	for i := range deps {
		found, err := g.isConnected(ir.Slot(i), ir.ReturnSlot, maxSteps)
		if err != nil {
			return deps, err
		}
		deps[i] = found
	}
	return deps, nil
}
