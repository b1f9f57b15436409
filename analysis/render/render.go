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

// Package render writes graphviz renditions of dataflow graphs. One file per procedure; the
// return and parameter slots are highlighted, edges carry their operation tags.
package render

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/VaynNecol/RAPx-log/analysis/dataflow"
	"github.com/VaynNecol/RAPx-log/internal/graphutil"
	"gonum.org/v1/gonum/graph/encoding/dot"
)

// WriteDot writes the graphviz form of g to w.
func WriteDot(w io.Writer, g *dataflow.Graph) error {
	view := graphutil.NewFlowGraph(g, graphutil.AllEdges)
	data, err := dot.Marshal(view, sanitizeID(g.Proc), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling graph of %s: %w", g.Proc, err)
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n")
	return err
}

// WriteDotFile renders g into dir, creating the directory if needed, and returns the path of
// the written file.
func WriteDotFile(dir string, g *dataflow.Graph) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	path := filepath.Join(dir, DotFileName(g.Proc))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	if err := WriteDot(f, g); err != nil {
		return "", err
	}
	return path, nil
}

// DotFileName returns the file name used for a procedure's rendered graph. Path-hostile
// characters in the procedure identifier are folded to underscores.
func DotFileName(proc string) string {
	return sanitizeID(proc) + ".dot"
}

func sanitizeID(s string) string {
	if s == "" {
		return "anonymous"
	}
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
