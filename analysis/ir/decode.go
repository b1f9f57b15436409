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

package ir

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

func reverseKindNames[K comparable](names map[K]string) map[string]K {
	m := make(map[string]K, len(names))
	for k, s := range names {
		m[s] = k
	}
	return m
}

var (
	projectionKindValues = reverseKindNames(projectionKindNames)
	operandKindValues    = reverseKindNames(operandKindNames)
	borrowKindValues     = reverseKindNames(borrowKindNames)
	aggKindValues        = reverseKindNames(aggKindNames)
	rvalueKindValues     = reverseKindNames(rvalueKindNames)
)

func decodeKind[K comparable](value *yaml.Node, values map[string]K, what string, out *K) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("%s kind must be a string: %w", what, err)
	}
	k, ok := values[s]
	if !ok {
		return fmt.Errorf("unknown %s kind %q", what, s)
	}
	*out = k
	return nil
}

// UnmarshalYAML decodes a projection kind from its string form.
func (k *ProjectionKind) UnmarshalYAML(value *yaml.Node) error {
	return decodeKind(value, projectionKindValues, "projection", k)
}

// UnmarshalYAML decodes an operand kind from its string form.
func (k *OperandKind) UnmarshalYAML(value *yaml.Node) error {
	return decodeKind(value, operandKindValues, "operand", k)
}

// UnmarshalYAML decodes a borrow kind from its string form.
func (k *BorrowKind) UnmarshalYAML(value *yaml.Node) error {
	return decodeKind(value, borrowKindValues, "borrow", k)
}

// UnmarshalYAML decodes an aggregate kind from its string form.
func (k *AggKind) UnmarshalYAML(value *yaml.Node) error {
	return decodeKind(value, aggKindValues, "aggregate", k)
}

// UnmarshalYAML decodes an rvalue kind from its string form.
func (k *RvalueKind) UnmarshalYAML(value *yaml.Node) error {
	return decodeKind(value, rvalueKindValues, "rvalue", k)
}

// Decode reads a yaml program document from r and validates it.
func Decode(r io.Reader) (*Program, error) {
	prog := &Program{}
	d := yaml.NewDecoder(r)
	d.KnownFields(true)
	if err := d.Decode(prog); err != nil {
		return nil, fmt.Errorf("could not decode program document: %w", err)
	}
	if err := prog.Validate(); err != nil {
		return nil, err
	}
	return prog, nil
}

// DecodeFile reads a yaml program document from the named file and validates it.
func DecodeFile(filename string) (*Program, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("could not open program document: %w", err)
	}
	defer f.Close()
	prog, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return prog, nil
}

// Validate checks the program's procedures for structural consistency.
func (p *Program) Validate() error {
	for i := range p.Procedures {
		if err := p.Procedures[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks slot bounds, operand arities and call-target shapes. The graph builder relies
// on these checks and does not repeat them.
func (proc *Procedure) Validate() error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("procedure %s: %s", proc.Name, fmt.Sprintf(format, args...))
	}
	if proc.Name == "" {
		return fmt.Errorf("procedure with empty name")
	}
	if proc.Slots < 1 {
		return fail("needs at least the return slot, got %d slots", proc.Slots)
	}
	if proc.Argc < 0 || proc.Argc+1 > proc.Slots {
		return fail("argc %d does not fit in %d slots", proc.Argc, proc.Slots)
	}
	for bi, block := range proc.Blocks {
		for si, stm := range block.Statements {
			where := fmt.Sprintf("block %d statement %d", bi, si)
			if err := proc.checkPlace(stm.Dest); err != nil {
				return fail("%s: dest: %v", where, err)
			}
			if err := proc.checkRvalue(stm.Rvalue); err != nil {
				return fail("%s: %v", where, err)
			}
		}
		if t := block.Terminator; t != nil {
			where := fmt.Sprintf("block %d terminator", bi)
			if (t.Callee == "") == (t.CalleeOperand == nil) {
				return fail("%s: needs exactly one of callee and callee-operand", where)
			}
			if t.CalleeOperand != nil {
				if err := proc.checkOperand(*t.CalleeOperand); err != nil {
					return fail("%s: callee operand: %v", where, err)
				}
			}
			for ai, arg := range t.Args {
				if err := proc.checkOperand(arg); err != nil {
					return fail("%s: arg %d: %v", where, ai, err)
				}
			}
			if err := proc.checkPlace(t.Dest); err != nil {
				return fail("%s: dest: %v", where, err)
			}
		}
	}
	return nil
}

func (proc *Procedure) checkSlot(s Slot) error {
	if s < 0 || int(s) >= proc.Slots {
		return fmt.Errorf("slot %d out of range [0, %d)", s, proc.Slots)
	}
	return nil
}

func (proc *Procedure) checkPlace(p Place) error {
	if err := proc.checkSlot(p.Base); err != nil {
		return err
	}
	for _, proj := range p.Projection {
		if proj.Kind == ProjIndex {
			if err := proc.checkSlot(proj.Index); err != nil {
				return fmt.Errorf("index projection: %w", err)
			}
		}
	}
	return nil
}

func (proc *Procedure) checkOperand(op Operand) error {
	switch op.Kind {
	case OperandCopy, OperandMove:
		return proc.checkPlace(op.Place)
	case OperandConst:
		return nil
	default:
		return fmt.Errorf("unknown operand kind %d", op.Kind)
	}
}

// operandArity gives the number of operands each operand-consuming rvalue kind expects.
// Place-consuming and operand-free kinds are absent.
var operandArity = map[RvalueKind]int{
	RvUse:             1,
	RvRepeat:          1,
	RvCast:            1,
	RvUnaryOp:         1,
	RvShallowInitBox:  1,
	RvBinaryOp:        2,
	RvCheckedBinaryOp: 2,
}

func (proc *Procedure) checkRvalue(rv Rvalue) error {
	if n, ok := operandArity[rv.Kind]; ok {
		if len(rv.Operands) != n {
			return fmt.Errorf("%s expects %d operand(s), got %d", rv.Kind, n, len(rv.Operands))
		}
	}
	switch rv.Kind {
	case RvRef, RvLen, RvDiscriminant, RvCopyForDeref:
		if rv.Place == nil {
			return fmt.Errorf("%s expects a place", rv.Kind)
		}
		return proc.checkPlace(*rv.Place)
	case RvNullaryOp:
		if rv.TypeName == "" {
			return fmt.Errorf("nullary-op expects a type name")
		}
	case RvAggregate:
		// any number of operands, in order
	}
	for _, op := range rv.Operands {
		if err := proc.checkOperand(op); err != nil {
			return err
		}
	}
	return nil
}
