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

// Package dataflow builds and queries the intra-procedural dataflow dependency graph of a
// single procedure.
//
// BuildGraph translates a procedure's instructions into a graph whose nodes are the
// procedure's slots (plus synthetic slots for projection steps and literal snapshots) and
// whose edges record operand and def-use relationships. The graph is append-only during
// construction and read-only afterwards, so one builder goroutine may be followed by any
// number of concurrent readers, and graphs of independent procedures can be built in parallel.
//
// Traverse is a generalized depth-first search parameterized by direction, a node visitor, an
// edge validator and an exhaustive-vs-short-circuit flag. The query layer builds three
// analyses on it: equivalence-class collection (CollectEquivalentLocals), pairwise
// reachability (IsConnected) and the parameter-to-return dependency vector (ParamReturnDeps).
package dataflow
