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
	"testing"

	"github.com/VaynNecol/RAPx-log/analysis/ir"
)

// Helpers to assemble small procedures without the yaml front end.

func testProc(name string, argc int, slots int, blocks ...ir.BasicBlock) *ir.Procedure {
	return &ir.Procedure{Name: name, Argc: argc, Slots: slots, Blocks: blocks}
}

func block(stms ...ir.Statement) ir.BasicBlock {
	return ir.BasicBlock{Statements: stms}
}

func blockWithCall(t *ir.Terminator, stms ...ir.Statement) ir.BasicBlock {
	return ir.BasicBlock{Statements: stms, Terminator: t}
}

func place(base ir.Slot, projs ...ir.Projection) ir.Place {
	return ir.Place{Base: base, Projection: projs}
}

func copyOp(s ir.Slot) ir.Operand {
	return ir.Operand{Kind: ir.OperandCopy, Place: place(s)}
}

func moveOp(s ir.Slot) ir.Operand {
	return ir.Operand{Kind: ir.OperandMove, Place: place(s)}
}

func constOp(text string) ir.Operand {
	return ir.Operand{Kind: ir.OperandConst, Const: text}
}

func assign(dst ir.Place, kind ir.RvalueKind, ops ...ir.Operand) ir.Statement {
	return ir.Statement{Dest: dst, Rvalue: ir.Rvalue{Kind: kind, Operands: ops}}
}

// useStm is dst = use copy(src), the plain renaming statement.
func useStm(dst ir.Slot, src ir.Slot) ir.Statement {
	return assign(place(dst), ir.RvUse, copyOp(src))
}

func binOpStm(dst ir.Slot, left ir.Slot, right ir.Slot) ir.Statement {
	return assign(place(dst), ir.RvCheckedBinaryOp, copyOp(left), copyOp(right))
}

func mustBuild(t *testing.T, proc *ir.Procedure) *Graph {
	t.Helper()
	g, _, err := BuildGraph(proc)
	if err != nil {
		t.Fatalf("BuildGraph(%s): %v", proc.Name, err)
	}
	return g
}

// checkInvariants verifies the structural invariants every constructed graph must satisfy:
// valid edge endpoints and In/Out lists exactly mirroring edge destinations/sources.
func checkInvariants(t *testing.T, g *Graph) {
	t.Helper()
	n := g.NumNodes()
	for i := 0; i < g.NumEdges(); i++ {
		e := g.EdgeAt(i)
		if e.Src < 0 || int(e.Src) >= n || e.Dst < 0 || int(e.Dst) >= n {
			t.Fatalf("edge %d has invalid endpoints %d -> %d (%d nodes)", i, e.Src, e.Dst, n)
		}
	}
	for s := 0; s < n; s++ {
		node := g.NodeAt(ir.Slot(s))
		for _, idx := range node.In {
			if g.EdgeAt(idx).Dst != ir.Slot(s) {
				t.Errorf("node %d lists in-edge %d whose dst is %d", s, idx, g.EdgeAt(idx).Dst)
			}
		}
		for _, idx := range node.Out {
			if g.EdgeAt(idx).Src != ir.Slot(s) {
				t.Errorf("node %d lists out-edge %d whose src is %d", s, idx, g.EdgeAt(idx).Src)
			}
		}
	}
	// every edge appears in exactly the two lists of its endpoints
	inCount := 0
	outCount := 0
	for s := 0; s < n; s++ {
		inCount += len(g.NodeAt(ir.Slot(s)).In)
		outCount += len(g.NodeAt(ir.Slot(s)).Out)
	}
	if inCount != g.NumEdges() || outCount != g.NumEdges() {
		t.Errorf("edge lists do not mirror edges: %d in, %d out, %d edges",
			inCount, outCount, g.NumEdges())
	}
}
