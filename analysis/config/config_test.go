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

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNewDefault(t *testing.T) {
	cfg := NewDefault()
	if cfg.LogLevel != int(InfoLevel) {
		t.Errorf("default log level should be info, got %d", cfg.LogLevel)
	}
	if cfg.MaxSteps != DefaultMaxTraversalSteps {
		t.Errorf("default max-steps wrong: %d", cfg.MaxSteps)
	}
	if cfg.NumRoutines <= 0 {
		t.Errorf("default num-routines should be positive, got %d", cfg.NumRoutines)
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
log-level: 4
proc-filter: "^demo::"
dot-dir: out
max-steps: 100
num-routines: 2
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != 4 || cfg.DotDir != "out" || cfg.MaxSteps != 100 || cfg.NumRoutines != 2 {
		t.Errorf("options not loaded: %+v", cfg.Options)
	}
	if !cfg.Verbose() {
		t.Errorf("log level 4 is verbose")
	}
	if !cfg.MatchProcFilter("demo::main") || cfg.MatchProcFilter("other::main") {
		t.Errorf("proc-filter regex not applied")
	}
	if cfg.RelPath("prog.yaml") != filepath.Join(filepath.Dir(path), "prog.yaml") {
		t.Errorf("RelPath should resolve relative to the config file")
	}
}

func TestLoadDefaultsMissingFields(t *testing.T) {
	cfg, err := Load(writeConfig(t, "proc-filter: demo"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != int(InfoLevel) {
		t.Errorf("unset log level should default to info, got %d", cfg.LogLevel)
	}
	if cfg.MaxSteps != DefaultMaxTraversalSteps || cfg.NumRoutines <= 0 {
		t.Errorf("unset limits should take defaults: %+v", cfg.Options)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("missing config files must be reported")
	}
}

func TestSetProcFilter(t *testing.T) {
	// filters set outside Load must still match as regexes
	cfg := NewDefault()
	if err := cfg.SetProcFilter("demo::(a|b)"); err != nil {
		t.Fatalf("SetProcFilter: %v", err)
	}
	if !cfg.MatchProcFilter("demo::a") || !cfg.MatchProcFilter("demo::b") {
		t.Errorf("alternation regex should match both branches")
	}
	if cfg.MatchProcFilter("demo::c") {
		t.Errorf("regex should not degrade to prefix matching")
	}

	// replacing the filter must drop the previously compiled regex
	if err := cfg.SetProcFilter("^other"); err != nil {
		t.Fatalf("SetProcFilter: %v", err)
	}
	if cfg.MatchProcFilter("demo::a") || !cfg.MatchProcFilter("other::main") {
		t.Errorf("stale filter still in effect after replacement")
	}

	// a broken regex is reported but still installed, with prefix fallback
	if err := cfg.SetProcFilter("demo::[("); err == nil {
		t.Errorf("invalid regexes should be reported")
	}
	if !cfg.MatchProcFilter("demo::[(main") || cfg.MatchProcFilter("other::main") {
		t.Errorf("broken regexes should fall back to prefix matching")
	}

	if err := cfg.SetProcFilter(""); err != nil {
		t.Fatalf("SetProcFilter: %v", err)
	}
	if !cfg.MatchProcFilter("anything") {
		t.Errorf("clearing the filter matches everything")
	}
}

func TestMatchProcFilter(t *testing.T) {
	cfg := NewDefault()
	if !cfg.MatchProcFilter("anything") {
		t.Errorf("an empty filter matches everything")
	}
	// a filter that does not compile falls back to prefix matching
	cfg2, err := Load(writeConfig(t, `proc-filter: "demo::[("`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg2.MatchProcFilter("demo::[(main") || cfg2.MatchProcFilter("other") {
		t.Errorf("broken regexes should fall back to prefix matching")
	}
}
