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

package graphutil

import (
	"sort"

	"github.com/VaynNecol/RAPx-log/analysis/dataflow"
	"github.com/yourbasic/graph"
)

// ValueCycles returns the strongly connected components of size two or more in the
// equivalence-preserving subgraph of g. A procedure whose values flow in a cycle through
// copies, moves and borrows usually indicates an unusual IR shape worth reporting; the
// analysis surfaces these as diagnostics rather than refusing the graph.
func ValueCycles(g *dataflow.Graph) [][]int {
	view := NewFlowGraph(g, EquivalenceEdges)
	var cycles [][]int
	for _, comp := range graph.StrongComponents(view) {
		if len(comp) < 2 {
			continue
		}
		sort.Ints(comp)
		cycles = append(cycles, comp)
	}
	sort.Slice(cycles, func(i, j int) bool { return cycles[i][0] < cycles[j][0] })
	return cycles
}

// IsValueAcyclic reports whether the equivalence-preserving subgraph of g has no cycles.
func IsValueAcyclic(g *dataflow.Graph) bool {
	return graph.Acyclic(NewFlowGraph(g, EquivalenceEdges))
}
