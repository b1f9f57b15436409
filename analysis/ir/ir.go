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

// Package ir defines the intermediate representation consumed by the dataflow analysis: one
// procedure per function body, each a list of basic blocks holding assignment statements and one
// block-terminating instruction. The representation is deliberately front-end agnostic; a
// compiler plugin or an offline dump produces it, and package ir only decodes and validates it.
//
// Slot 0 is the return value of a procedure, slots 1..Argc are its parameters, and the remaining
// slots are temporaries.
package ir

import "fmt"

// A Slot is an addressable local value location within one procedure. Slots also index the nodes
// of the dataflow graph built for the procedure.
type Slot int

// ReturnSlot is the distinguished slot holding a procedure's return value.
const ReturnSlot Slot = 0

// A Location is the source position an instruction was compiled from, in its textual form.
type Location string

// NoLocation marks nodes that have no recorded source position.
const NoLocation Location = ""

// ProjectionKind is the kind of one step in a memory-location expression.
type ProjectionKind int

const (
	// ProjDeref dereferences the value resolved so far.
	ProjDeref ProjectionKind = iota
	// ProjField selects a named or numbered field.
	ProjField
	// ProjDowncast views an enum value as one of its variants.
	ProjDowncast
	// ProjIndex indexes by a runtime value held in another slot.
	ProjIndex
	// ProjConstIndex indexes by a compile-time constant position.
	ProjConstIndex
	// ProjSubslice selects a subslice.
	ProjSubslice
)

// A Projection is one step of a memory-location expression applied to a base slot.
type Projection struct {
	Kind    ProjectionKind `yaml:"kind"`
	Field   string         `yaml:"field,omitempty"`   // ProjField
	Variant string         `yaml:"variant,omitempty"` // ProjDowncast
	Index   Slot           `yaml:"index,omitempty"`   // ProjIndex: the slot holding the index value
}

// A Place is a memory-location expression: a base slot and an ordered list of projection steps.
type Place struct {
	Base       Slot         `yaml:"base"`
	Projection []Projection `yaml:"projection,omitempty"`
}

// OperandKind discriminates the three operand shapes.
type OperandKind int

const (
	// OperandCopy reads a place, leaving it live.
	OperandCopy OperandKind = iota
	// OperandMove reads a place, consuming it.
	OperandMove
	// OperandConst is a literal with a canonical textual form.
	OperandConst
)

// An Operand is an input to an rvalue or a call.
type Operand struct {
	Kind  OperandKind `yaml:"kind"`
	Place Place       `yaml:"place,omitempty"` // OperandCopy, OperandMove
	Const string      `yaml:"const,omitempty"` // OperandConst
}

// BorrowKind is the kind of a reference-taking rvalue.
type BorrowKind int

const (
	// BorrowShared is an immutable borrow.
	BorrowShared BorrowKind = iota
	// BorrowMut is a mutable borrow.
	BorrowMut
	// BorrowFake is a borrow inserted by the compiler for checking only; it carries no dataflow.
	BorrowFake
)

// AggKind is the sub-kind of an aggregate construction.
type AggKind int

const (
	// AggArray builds an array from its element operands.
	AggArray AggKind = iota
	// AggTuple builds a tuple.
	AggTuple
	// AggAdt builds an instance of a named data structure, identified by a type id.
	AggAdt
	// AggClosure builds a closure, identified by a closure id.
	AggClosure
)

// RvalueKind is the kind of the right-hand side of an assignment.
type RvalueKind int

const (
	// RvUse reads one operand.
	RvUse RvalueKind = iota
	// RvRepeat builds an array by repeating one operand.
	RvRepeat
	// RvRef takes a reference to a place.
	RvRef
	// RvThreadLocalRef references a thread-local; not modeled by the graph builder.
	RvThreadLocalRef
	// RvAddressOf takes a raw address of a place; not modeled by the graph builder.
	RvAddressOf
	// RvLen reads the length of a place.
	RvLen
	// RvCast converts one operand to another type.
	RvCast
	// RvBinaryOp combines two operands.
	RvBinaryOp
	// RvCheckedBinaryOp combines two operands with an overflow check.
	RvCheckedBinaryOp
	// RvNullaryOp produces a value from a type alone (e.g. its size); carries the type's text.
	RvNullaryOp
	// RvUnaryOp transforms one operand.
	RvUnaryOp
	// RvDiscriminant reads the variant discriminant of a place.
	RvDiscriminant
	// RvAggregate builds an aggregate from its listed operands, in order.
	RvAggregate
	// RvShallowInitBox boxes one operand without initializing its contents.
	RvShallowInitBox
	// RvCopyForDeref copies a place so it can be dereferenced.
	RvCopyForDeref
)

// An Rvalue is the right-hand side of an assignment statement. Which fields are meaningful
// depends on Kind; Validate in this package checks the combinations.
type Rvalue struct {
	Kind     RvalueKind `yaml:"kind"`
	Operands []Operand  `yaml:"operands,omitempty"`
	Place    *Place     `yaml:"place,omitempty"`  // RvRef, RvLen, RvDiscriminant, RvCopyForDeref
	Borrow   BorrowKind `yaml:"borrow,omitempty"` // RvRef
	Agg      AggKind    `yaml:"agg,omitempty"`    // RvAggregate
	TypeID   string     `yaml:"type-id,omitempty"`
	TypeName string     `yaml:"type,omitempty"` // RvNullaryOp
}

// A Statement assigns an rvalue to a destination place.
type Statement struct {
	Dest   Place    `yaml:"dest"`
	Rvalue Rvalue   `yaml:"rvalue"`
	Loc    Location `yaml:"location,omitempty"`
}

// A Terminator is the control-transferring instruction ending a basic block. Only call-shaped
// terminators carry dataflow: either Callee names a compile-time-resolved function, or
// CalleeOperand holds the runtime value being called. Exactly one of the two is set.
type Terminator struct {
	Callee        string   `yaml:"callee,omitempty"`
	CalleeOperand *Operand `yaml:"callee-operand,omitempty"`
	Args          []Operand `yaml:"args,omitempty"`
	Dest          Place     `yaml:"dest"`
	Loc           Location  `yaml:"location,omitempty"`
}

// A BasicBlock is a straight-line group of statements, optionally ended by a terminator. Blocks
// that end in pure control transfers (goto, return, unwind) carry a nil Terminator since those
// transfers move no data.
type BasicBlock struct {
	Statements []Statement `yaml:"statements,omitempty"`
	Terminator *Terminator `yaml:"terminator,omitempty"`
}

// A Procedure is one function body: its identifier, source location, parameter count, total
// slot count and ordered basic blocks.
type Procedure struct {
	Name   string       `yaml:"name"`
	Loc    Location     `yaml:"location,omitempty"`
	Argc   int          `yaml:"argc"`
	Slots  int          `yaml:"slots"`
	Blocks []BasicBlock `yaml:"blocks,omitempty"`
}

// A Program is an ordered collection of procedures, each analyzed independently.
type Program struct {
	Procedures []Procedure `yaml:"procedures"`
}

var projectionKindNames = map[ProjectionKind]string{
	ProjDeref:      "deref",
	ProjField:      "field",
	ProjDowncast:   "downcast",
	ProjIndex:      "index",
	ProjConstIndex: "const-index",
	ProjSubslice:   "subslice",
}

var operandKindNames = map[OperandKind]string{
	OperandCopy:  "copy",
	OperandMove:  "move",
	OperandConst: "const",
}

var borrowKindNames = map[BorrowKind]string{
	BorrowShared: "shared",
	BorrowMut:    "mut",
	BorrowFake:   "fake",
}

var aggKindNames = map[AggKind]string{
	AggArray:   "array",
	AggTuple:   "tuple",
	AggAdt:     "adt",
	AggClosure: "closure",
}

var rvalueKindNames = map[RvalueKind]string{
	RvUse:             "use",
	RvRepeat:          "repeat",
	RvRef:             "ref",
	RvThreadLocalRef:  "thread-local-ref",
	RvAddressOf:       "address-of",
	RvLen:             "len",
	RvCast:            "cast",
	RvBinaryOp:        "binary-op",
	RvCheckedBinaryOp: "checked-binary-op",
	RvNullaryOp:       "nullary-op",
	RvUnaryOp:         "unary-op",
	RvDiscriminant:    "discriminant",
	RvAggregate:       "aggregate",
	RvShallowInitBox:  "shallow-init-box",
	RvCopyForDeref:    "copy-for-deref",
}

func (k ProjectionKind) String() string { return kindName(projectionKindNames, k) }
func (k OperandKind) String() string    { return kindName(operandKindNames, k) }
func (k BorrowKind) String() string     { return kindName(borrowKindNames, k) }
func (k AggKind) String() string        { return kindName(aggKindNames, k) }
func (k RvalueKind) String() string     { return kindName(rvalueKindNames, k) }

func kindName[K comparable](names map[K]string, k K) string {
	if s, ok := names[k]; ok {
		return s
	}
	return fmt.Sprintf("unknown(%v)", any(k))
}
