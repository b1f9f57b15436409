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
)

// An UnsupportedConstructError reports an IR shape the graph builder does not model: an rvalue
// kind, call-target shape or borrow kind outside the modeled set. It fails only the procedure it
// occurred in; callers skip or report the procedure and continue with others.
type UnsupportedConstructError struct {
	Proc      string
	Loc       ir.Location
	Construct string
}

func (e *UnsupportedConstructError) Error() string {
	if e.Loc == ir.NoLocation {
		return fmt.Sprintf("procedure %s: unsupported construct: %s", e.Proc, e.Construct)
	}
	return fmt.Sprintf("procedure %s: unsupported construct at %s: %s", e.Proc, e.Loc, e.Construct)
}

// A Diagnostic is a non-fatal condition observed while building a graph.
type Diagnostic struct {
	Proc string
	Loc  ir.Location
	Msg  string
}

func (d Diagnostic) String() string {
	if d.Loc == ir.NoLocation {
		return fmt.Sprintf("%s: %s", d.Proc, d.Msg)
	}
	return fmt.Sprintf("%s (%s): %s", d.Proc, d.Loc, d.Msg)
}

// BuildGraph translates one procedure into its dataflow graph, walking basic blocks in order,
// statements before the block's terminator. The returned diagnostics record non-fatal findings
// such as self-referential call targets. On an unsupported construct the returned error is an
// *UnsupportedConstructError and the graph is not usable.
func BuildGraph(proc *ir.Procedure) (*Graph, []Diagnostic, error) {
	b := &builder{
		g:    NewGraph(proc.Name, proc.Loc, proc.Argc, proc.Slots),
		proc: proc,
	}
	for i := range proc.Blocks {
		block := &proc.Blocks[i]
		for j := range block.Statements {
			if err := b.addStatement(&block.Statements[j]); err != nil {
				return nil, b.diags, err
			}
		}
		if block.Terminator != nil {
			if err := b.addTerminator(block.Terminator); err != nil {
				return nil, b.diags, err
			}
		}
	}
	return b.g, b.diags, nil
}

type builder struct {
	g     *Graph
	proc  *ir.Procedure
	diags []Diagnostic
}

func (b *builder) unsupported(loc ir.Location, format string, args ...any) error {
	return &UnsupportedConstructError{
		Proc:      b.proc.Name,
		Loc:       loc,
		Construct: fmt.Sprintf(format, args...),
	}
}

// parsePlace resolves a memory-location expression to its final slot. Each projection step
// appends one synthetic node chained to the previous slot by an edge tagged with the step's
// operation; a place with N steps therefore grows the node set by exactly N. An index-by-value
// step adds a second edge from the index slot into the same synthetic node, tagged identically
// to the object edge; downstream consumers rely on this shape, so the two roles stay
// structurally indistinguishable.
func (b *builder) parsePlace(place ir.Place) ir.Slot {
	ret := place.Base
	for _, proj := range place.Projection {
		dst := b.g.addNode()
		switch proj.Kind {
		case ir.ProjDeref:
			b.g.addEdge(ret, dst, EdgeDeref, "")
		case ir.ProjField:
			b.g.addEdge(ret, dst, EdgeField, proj.Field)
		case ir.ProjDowncast:
			b.g.addEdge(ret, dst, EdgeDowncast, proj.Variant)
		case ir.ProjIndex:
			b.g.addEdge(ret, dst, EdgeIndex, "")
			b.g.addEdge(proj.Index, dst, EdgeIndex, "")
		case ir.ProjConstIndex:
			b.g.addEdge(ret, dst, EdgeConstIndex, "")
		case ir.ProjSubslice:
			b.g.addEdge(ret, dst, EdgeSubSlice, "")
		}
		ret = dst
	}
	return ret
}

// addOperand resolves one operand into dst: copy and move operands resolve their place and add
// one edge, constant operands snapshot the literal into a fresh node.
func (b *builder) addOperand(op ir.Operand, dst ir.Slot) {
	switch op.Kind {
	case ir.OperandCopy:
		src := b.parsePlace(op.Place)
		b.g.addEdge(src, dst, EdgeCopy, "")
	case ir.OperandMove:
		src := b.parsePlace(op.Place)
		b.g.addEdge(src, dst, EdgeMove, "")
	case ir.OperandConst:
		b.g.addConstEdge(op.Const, dst, EdgeConst)
	}
}

func (b *builder) addStatement(stm *ir.Statement) error {
	dst := b.parsePlace(stm.Dest)
	b.g.nodes[dst].Loc = stm.Loc
	rv := &stm.Rvalue
	switch rv.Kind {
	case ir.RvUse:
		b.addOperand(rv.Operands[0], dst)
		b.g.nodes[dst].Op = NodeUse
	case ir.RvRepeat:
		b.addOperand(rv.Operands[0], dst)
		b.g.nodes[dst].Op = NodeRepeat
	case ir.RvRef:
		op, ok := borrowEdgeOp(rv.Borrow)
		if !ok {
			return b.unsupported(stm.Loc, "borrow kind %s", rv.Borrow)
		}
		src := b.parsePlace(*rv.Place)
		b.g.addEdge(src, dst, op, "")
		b.g.nodes[dst].Op = NodeRef
	case ir.RvLen:
		src := b.parsePlace(*rv.Place)
		b.g.addEdge(src, dst, EdgeNop, "")
		b.g.nodes[dst].Op = NodeLen
	case ir.RvCast:
		b.addOperand(rv.Operands[0], dst)
		b.g.nodes[dst].Op = NodeCast
	case ir.RvBinaryOp, ir.RvCheckedBinaryOp:
		b.addOperand(rv.Operands[0], dst)
		b.addOperand(rv.Operands[1], dst)
		b.g.nodes[dst].Op = NodeCheckedBinOp
	case ir.RvAggregate:
		for _, op := range rv.Operands {
			b.addOperand(op, dst)
		}
		b.g.nodes[dst].Op = NodeAggregate
		b.g.nodes[dst].Agg = rv.Agg
		b.g.nodes[dst].AggID = rv.TypeID
	case ir.RvUnaryOp:
		b.addOperand(rv.Operands[0], dst)
		b.g.nodes[dst].Op = NodeUnOp
	case ir.RvNullaryOp:
		b.g.addConstEdge(rv.TypeName, dst, EdgeConst)
		b.g.nodes[dst].Op = NodeNullaryOp
	case ir.RvDiscriminant:
		src := b.parsePlace(*rv.Place)
		b.g.addEdge(src, dst, EdgeNop, "")
		b.g.nodes[dst].Op = NodeDiscriminant
	case ir.RvShallowInitBox:
		b.addOperand(rv.Operands[0], dst)
		b.g.nodes[dst].Op = NodeShallowInitBox
	case ir.RvCopyForDeref:
		src := b.parsePlace(*rv.Place)
		b.g.addEdge(src, dst, EdgeNop, "")
		b.g.nodes[dst].Op = NodeCopyForDeref
	default:
		// thread-local-ref and address-of land here until they carry modeled dataflow
		return b.unsupported(stm.Loc, "rvalue kind %s", rv.Kind)
	}
	b.g.nodes[dst].Seq++
	return nil
}

func borrowEdgeOp(k ir.BorrowKind) (EdgeOp, bool) {
	switch k {
	case ir.BorrowShared:
		return EdgeImmut, true
	case ir.BorrowMut:
		return EdgeMut, true
	case ir.BorrowFake:
		// checking-only borrows carry no dataflow and degrade to a nop edge
		return EdgeNop, true
	default:
		return EdgeNop, false
	}
}

func (b *builder) addTerminator(t *ir.Terminator) error {
	dst := b.parsePlace(t.Dest)
	switch {
	case t.Callee != "":
		for _, arg := range t.Args {
			b.addOperand(arg, dst)
		}
		b.g.nodes[dst].Op = NodeCall
		b.g.nodes[dst].Callee = t.Callee
		if t.Callee == b.proc.Name {
			b.diags = append(b.diags, Diagnostic{
				Proc: b.proc.Name,
				Loc:  t.Loc,
				Msg:  "call target is the enclosing procedure (recursion)",
			})
		}
	case t.CalleeOperand != nil && t.CalleeOperand.Kind == ir.OperandMove:
		// the callee value is resolved first so it becomes the first incoming edge
		b.addOperand(*t.CalleeOperand, dst)
		for _, arg := range t.Args {
			b.addOperand(arg, dst)
		}
		b.g.nodes[dst].Op = NodeCallOperand
	case t.CalleeOperand != nil:
		return b.unsupported(t.Loc, "call target shape %v", t.CalleeOperand.Kind)
	default:
		// hand-built procedures may skip ir validation
		return b.unsupported(t.Loc, "terminator without a call target")
	}
	b.g.nodes[dst].Loc = t.Loc
	b.g.nodes[dst].Seq++
	return nil
}
