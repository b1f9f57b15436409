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

package render

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/VaynNecol/RAPx-log/analysis/dataflow"
	"github.com/VaynNecol/RAPx-log/analysis/ir"
)

func identityGraph(t *testing.T) *dataflow.Graph {
	t.Helper()
	proc := &ir.Procedure{
		Name:  "demo::identity",
		Argc:  1,
		Slots: 2,
		Blocks: []ir.BasicBlock{{Statements: []ir.Statement{{
			Dest: ir.Place{Base: 0},
			Rvalue: ir.Rvalue{
				Kind:     ir.RvUse,
				Operands: []ir.Operand{{Kind: ir.OperandCopy, Place: ir.Place{Base: 1}}},
			},
		}}}},
	}
	g, _, err := dataflow.BuildGraph(proc)
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}
	return g
}

func TestWriteDot(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteDot(&buf, identityGraph(t)); err != nil {
		t.Fatalf("WriteDot: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "digraph demo__identity") {
		t.Errorf("graph name missing or not sanitized:\n%s", out)
	}
	if !strings.Contains(out, "copy") {
		t.Errorf("edge operation tag missing:\n%s", out)
	}
	if !strings.Contains(out, "red") {
		t.Errorf("return and parameter slots should be highlighted:\n%s", out)
	}
}

func TestWriteDotFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "graphs")
	path, err := WriteDotFile(dir, identityGraph(t))
	if err != nil {
		t.Fatalf("WriteDotFile: %v", err)
	}
	if filepath.Base(path) != "demo__identity.dot" {
		t.Errorf("unexpected file name %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if !strings.Contains(string(data), "digraph") {
		t.Errorf("file does not look like dot output")
	}
}

func TestDotFileName(t *testing.T) {
	if got := DotFileName("a::b<T>"); got != "a__b_T_.dot" {
		t.Errorf("got %q", got)
	}
	if got := DotFileName(""); got != "anonymous.dot" {
		t.Errorf("got %q", got)
	}
}
