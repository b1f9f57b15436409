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
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleDoc = `
procedures:
  - name: demo::combine
    location: demo.rs:3
    argc: 2
    slots: 5
    blocks:
      - statements:
          - dest: {base: 3}
            rvalue:
              kind: checked-binary-op
              operands:
                - {kind: copy, place: {base: 1}}
                - {kind: copy, place: {base: 2}}
          - dest: {base: 0}
            rvalue:
              kind: use
              operands:
                - {kind: move, place: {base: 3, projection: [{kind: field, field: "0"}]}}
        terminator:
          callee: demo::finish
          args:
            - {kind: const, const: 0_u8}
          dest: {base: 4}
`

func decodeSample(t *testing.T, doc string) *Program {
	t.Helper()
	prog, err := Decode(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return prog
}

func TestDecodeProgram(t *testing.T) {
	prog := decodeSample(t, sampleDoc)
	if len(prog.Procedures) != 1 {
		t.Fatalf("expected 1 procedure, got %d", len(prog.Procedures))
	}
	proc := prog.Procedures[0]
	if proc.Name != "demo::combine" || proc.Argc != 2 || proc.Slots != 5 {
		t.Fatalf("header decoded wrong: %+v", proc)
	}
	if proc.Loc != "demo.rs:3" {
		t.Errorf("location decoded wrong: %q", proc.Loc)
	}
	stms := proc.Blocks[0].Statements
	if stms[0].Rvalue.Kind != RvCheckedBinaryOp {
		t.Errorf("rvalue kind decoded wrong: %s", stms[0].Rvalue.Kind)
	}
	if stms[0].Rvalue.Operands[0].Kind != OperandCopy {
		t.Errorf("operand kind decoded wrong: %s", stms[0].Rvalue.Operands[0].Kind)
	}
	proj := stms[1].Rvalue.Operands[0].Place.Projection
	if len(proj) != 1 || proj[0].Kind != ProjField || proj[0].Field != "0" {
		t.Errorf("projection decoded wrong: %+v", proj)
	}
	term := proc.Blocks[0].Terminator
	if term == nil || term.Callee != "demo::finish" || term.Args[0].Const != "0_u8" {
		t.Errorf("terminator decoded wrong: %+v", term)
	}
}

func TestDecodeUnknownKind(t *testing.T) {
	doc := `
procedures:
  - name: p
    argc: 0
    slots: 1
    blocks:
      - statements:
          - dest: {base: 0}
            rvalue: {kind: frobnicate}
`
	if _, err := Decode(strings.NewReader(doc)); err == nil ||
		!strings.Contains(err.Error(), "unknown rvalue kind") {
		t.Fatalf("expected an unknown-kind error, got %v", err)
	}
}

func TestDecodeUnknownField(t *testing.T) {
	doc := `
procedures:
  - name: p
    argc: 0
    slots: 1
    extra: field
`
	if _, err := Decode(strings.NewReader(doc)); err == nil {
		t.Fatalf("unknown fields in the document must be rejected")
	}
}

func TestValidateSlotBounds(t *testing.T) {
	doc := `
procedures:
  - name: p
    argc: 0
    slots: 2
    blocks:
      - statements:
          - dest: {base: 9}
            rvalue:
              kind: use
              operands: [{kind: const, const: 1_i32}]
`
	if _, err := Decode(strings.NewReader(doc)); err == nil ||
		!strings.Contains(err.Error(), "out of range") {
		t.Fatalf("expected a slot bound error, got %v", err)
	}
}

func TestValidateArgcFitsSlots(t *testing.T) {
	doc := `
procedures:
  - name: p
    argc: 3
    slots: 2
`
	if _, err := Decode(strings.NewReader(doc)); err == nil {
		t.Fatalf("argc 3 cannot fit in 2 slots")
	}
}

func TestValidateOperandArity(t *testing.T) {
	doc := `
procedures:
  - name: p
    argc: 0
    slots: 2
    blocks:
      - statements:
          - dest: {base: 1}
            rvalue:
              kind: use
              operands:
                - {kind: const, const: 1_i32}
                - {kind: const, const: 2_i32}
`
	if _, err := Decode(strings.NewReader(doc)); err == nil ||
		!strings.Contains(err.Error(), "expects 1 operand") {
		t.Fatalf("expected an arity error, got %v", err)
	}
}

func TestValidateTerminatorShape(t *testing.T) {
	both := `
procedures:
  - name: p
    argc: 0
    slots: 2
    blocks:
      - terminator:
          callee: q
          callee-operand: {kind: move, place: {base: 1}}
          dest: {base: 0}
`
	neither := `
procedures:
  - name: p
    argc: 0
    slots: 2
    blocks:
      - terminator:
          dest: {base: 0}
`
	for _, doc := range []string{both, neither} {
		if _, err := Decode(strings.NewReader(doc)); err == nil ||
			!strings.Contains(err.Error(), "exactly one of") {
			t.Fatalf("expected a call-target shape error, got %v", err)
		}
	}
}

func TestValidatePlaceKindsNeedPlace(t *testing.T) {
	doc := `
procedures:
  - name: p
    argc: 0
    slots: 2
    blocks:
      - statements:
          - dest: {base: 1}
            rvalue: {kind: len}
`
	if _, err := Decode(strings.NewReader(doc)); err == nil ||
		!strings.Contains(err.Error(), "expects a place") {
		t.Fatalf("expected a missing-place error, got %v", err)
	}
}

func TestDecodeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog.yaml")
	if err := os.WriteFile(path, []byte(sampleDoc), 0o600); err != nil {
		t.Fatal(err)
	}
	prog, err := DecodeFile(path)
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	if len(prog.Procedures) != 1 {
		t.Fatalf("expected 1 procedure, got %d", len(prog.Procedures))
	}
	if _, err := DecodeFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("missing files must be reported")
	}
}
