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

package analysis

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/VaynNecol/RAPx-log/analysis/config"
	"github.com/VaynNecol/RAPx-log/analysis/ir"
)

func quietLogger(cfg *config.Config) *config.LogGroup {
	logger := config.NewLogGroup(cfg)
	logger.SetAllOutput(io.Discard)
	return logger
}

func useStm(dst, src ir.Slot) ir.Statement {
	return ir.Statement{
		Dest: ir.Place{Base: dst},
		Rvalue: ir.Rvalue{
			Kind:     ir.RvUse,
			Operands: []ir.Operand{{Kind: ir.OperandCopy, Place: ir.Place{Base: src}}},
		},
	}
}

func testProgram() *ir.Program {
	return &ir.Program{Procedures: []ir.Procedure{
		{
			Name: "demo::identity", Argc: 1, Slots: 2,
			Blocks: []ir.BasicBlock{{Statements: []ir.Statement{useStm(0, 1)}}},
		},
		{
			Name: "demo::tls", Argc: 0, Slots: 2,
			Blocks: []ir.BasicBlock{{Statements: []ir.Statement{{
				Dest:   ir.Place{Base: 1},
				Rvalue: ir.Rvalue{Kind: ir.RvThreadLocalRef},
			}}}},
		},
	}}
}

func TestRunProgram(t *testing.T) {
	cfg := config.NewDefault()
	report, err := RunProgram(cfg, quietLogger(cfg), testProgram())
	if err != nil {
		t.Fatalf("RunProgram: %v", err)
	}
	if len(report.Reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(report.Reports))
	}
	if report.Skipped() != 1 {
		t.Errorf("the thread-local procedure should be skipped, got %d skips", report.Skipped())
	}
	for _, rep := range report.Reports {
		switch rep.Proc {
		case "demo::identity":
			if rep.Skipped || rep.Err != nil {
				t.Errorf("identity should analyze cleanly, got %v", rep.Err)
			}
			if len(rep.ParamDeps) != 2 || !rep.ParamDeps[1] {
				t.Errorf("identity return depends on its parameter, got %v", rep.ParamDeps)
			}
			if len(rep.ReturnAliases) != 2 {
				t.Errorf("return aliases should be {0, 1}, got %v", rep.ReturnAliases)
			}
		case "demo::tls":
			if !rep.Skipped || rep.Graph != nil {
				t.Errorf("tls should be skipped without a graph")
			}
		default:
			t.Errorf("unexpected report for %s", rep.Proc)
		}
	}
}

func TestRunProgramProcFilter(t *testing.T) {
	cfg := config.NewDefault()
	if err := cfg.SetProcFilter("identity$"); err != nil {
		t.Fatalf("SetProcFilter: %v", err)
	}
	report, err := RunProgram(cfg, quietLogger(cfg), testProgram())
	if err != nil {
		t.Fatalf("RunProgram: %v", err)
	}
	if len(report.Reports) != 1 || report.Reports[0].Proc != "demo::identity" {
		t.Fatalf("filter should select only the identity procedure, got %d reports", len(report.Reports))
	}
}

func TestRunProgramWritesDotFiles(t *testing.T) {
	cfg := config.NewDefault()
	if err := cfg.SetProcFilter("identity$"); err != nil {
		t.Fatalf("SetProcFilter: %v", err)
	}
	cfg.DotDir = filepath.Join(t.TempDir(), "graphs")
	report, err := RunProgram(cfg, quietLogger(cfg), testProgram())
	if err != nil {
		t.Fatalf("RunProgram: %v", err)
	}
	path := report.Reports[0].DotFile
	if path == "" {
		t.Fatalf("expected a rendered graph path")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("rendered graph missing: %v", err)
	}
}

func TestRunProgramBudgetIsPerProcedure(t *testing.T) {
	cfg := config.NewDefault()
	cfg.MaxSteps = 1
	report, err := RunProgram(cfg, quietLogger(cfg), testProgram())
	if err != nil {
		t.Fatalf("a budget overrun degrades one procedure, not the run: %v", err)
	}
	for _, rep := range report.Reports {
		if rep.Proc == "demo::identity" && rep.Err == nil {
			t.Errorf("one step cannot cover the identity queries, expected a budget error")
		}
	}
}

func TestFormatDeps(t *testing.T) {
	if got := formatDeps([]bool{true, false, true}); got != "params [2]" {
		t.Errorf("got %q", got)
	}
	if got := formatDeps([]bool{true}); got != "no params" {
		t.Errorf("got %q", got)
	}
}
