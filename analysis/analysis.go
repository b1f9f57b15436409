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

// Package analysis drives the per-procedure dataflow analysis over a whole program: it builds
// one graph per procedure, answers the standard dependency queries and optionally renders the
// graphs. Procedures are independent and analyzed in parallel.
package analysis

import (
	"errors"
	"fmt"

	"github.com/VaynNecol/RAPx-log/analysis/config"
	"github.com/VaynNecol/RAPx-log/analysis/dataflow"
	"github.com/VaynNecol/RAPx-log/analysis/ir"
	"github.com/VaynNecol/RAPx-log/analysis/render"
	fn "github.com/VaynNecol/RAPx-log/internal/funcutil"
	"github.com/VaynNecol/RAPx-log/internal/graphutil"
)

// A ProcReport is the result of analyzing one procedure.
type ProcReport struct {
	// Proc is the procedure identifier.
	Proc string

	// Graph is the constructed dataflow graph. It is nil when Skipped is true.
	Graph *dataflow.Graph

	// Diagnostics are the non-fatal findings of graph construction, such as direct recursion.
	Diagnostics []dataflow.Diagnostic

	// ParamDeps has one entry per slot 0..Argc stating whether the slot is connected to the
	// return slot. It may be partial when Err is a traversal budget error.
	ParamDeps []bool

	// ReturnAliases is the sorted equivalence class of the return slot.
	ReturnAliases []ir.Slot

	// ValueCycles lists the value cycles found in the graph, if any.
	ValueCycles [][]int

	// DotFile is the path of the rendered graph, when rendering was requested.
	DotFile string

	// Skipped is true when the procedure used a construct the graph builder does not model.
	Skipped bool

	// Err is the error that interrupted or degraded the analysis of this procedure, if any.
	Err error
}

// A ProgramReport aggregates the per-procedure reports of one program.
type ProgramReport struct {
	Reports []ProcReport
}

// Skipped returns the number of procedures skipped for unsupported constructs.
func (r *ProgramReport) Skipped() int {
	count := 0
	for _, rep := range r.Reports {
		if rep.Skipped {
			count++
		}
	}
	return count
}

// RunProgram analyzes every procedure of prog that matches the configured filter. Unsupported
// constructs skip the offending procedure with a warning; the remaining procedures are still
// analyzed. The returned error is reserved for failures that invalidate the whole run, such as
// an unwritable graph output directory.
func RunProgram(cfg *config.Config, logger *config.LogGroup, prog *ir.Program) (*ProgramReport, error) {
	var selected []*ir.Procedure
	for i := range prog.Procedures {
		proc := &prog.Procedures[i]
		if !cfg.MatchProcFilter(proc.Name) {
			logger.Debugf("skipping %s: does not match proc-filter", proc.Name)
			continue
		}
		selected = append(selected, proc)
	}
	logger.Infof("analyzing %d of %d procedures", len(selected), len(prog.Procedures))

	reports := fn.MapParallel(selected, func(proc *ir.Procedure) ProcReport {
		return analyzeProc(cfg, logger, proc)
	}, cfg.NumRoutines)

	for i := range reports {
		logReport(logger, &reports[i])
	}

	report := &ProgramReport{Reports: reports}
	for _, rep := range reports {
		if rep.Err != nil && !rep.Skipped && !errors.Is(rep.Err, dataflow.ErrTraversalBudget) {
			return report, fmt.Errorf("analyzing %s: %w", rep.Proc, rep.Err)
		}
	}
	return report, nil
}

func analyzeProc(cfg *config.Config, logger *config.LogGroup, proc *ir.Procedure) ProcReport {
	rep := ProcReport{Proc: proc.Name}
	logger.Tracef("building graph of %s", proc.Name)

	g, diags, err := dataflow.BuildGraph(proc)
	if err != nil {
		var unsupported *dataflow.UnsupportedConstructError
		if errors.As(err, &unsupported) {
			rep.Skipped = true
		}
		rep.Err = err
		return rep
	}
	rep.Graph = g
	rep.Diagnostics = diags

	rep.ParamDeps, err = g.ParamReturnDepsLimited(cfg.MaxSteps)
	if err != nil {
		// The partial vector is still reported; only this procedure is degraded.
		rep.Err = err
		return rep
	}
	rep.ReturnAliases = g.EquivalentLocalsSorted(ir.ReturnSlot)
	rep.ValueCycles = graphutil.ValueCycles(g)

	if cfg.DotDir != "" {
		rep.DotFile, err = render.WriteDotFile(cfg.DotDir, g)
		if err != nil {
			rep.Err = err
		}
	}
	return rep
}

func logReport(logger *config.LogGroup, rep *ProcReport) {
	switch {
	case rep.Skipped:
		logger.Warnf("skipped %s: %s", rep.Proc, rep.Err)
		return
	case errors.Is(rep.Err, dataflow.ErrTraversalBudget):
		logger.Warnf("%s: traversal budget exhausted, dependency results are partial", rep.Proc)
	case rep.Err != nil:
		logger.Errorf("%s: %s", rep.Proc, rep.Err)
		return
	}
	logger.Infof("%s: %d nodes, %d edges, return depends on %s",
		rep.Proc, rep.Graph.NumNodes(), rep.Graph.NumEdges(), formatDeps(rep.ParamDeps))
	for _, d := range rep.Diagnostics {
		logger.Warnf("%s", d)
	}
	for _, cyc := range rep.ValueCycles {
		logger.Warnf("%s: value cycle through slots %v", rep.Proc, cyc)
	}
	if rep.DotFile != "" {
		logger.Debugf("%s: graph written to %s", rep.Proc, rep.DotFile)
	}
}

// formatDeps renders a dependency vector as the list of parameter slots the return value
// depends on, e.g. "params [1 3]" or "no params".
func formatDeps(deps []bool) string {
	var on []int
	for i, d := range deps {
		if i > 0 && d {
			on = append(on, i)
		}
	}
	if len(on) == 0 {
		return "no params"
	}
	return fmt.Sprintf("params %v", on)
}
