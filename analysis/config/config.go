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
	"fmt"
	"os"
	"path"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultMaxTraversalSteps bounds one graph traversal when the config does not set max-steps.
// A procedure graph with more reachable node visits than this is reported, not explored further.
const DefaultMaxTraversalSteps = 1_000_000

// Config holds the options of the per-procedure dataflow analysis.
// If some field is not defined in the config file, it will be empty/zero in the struct.
// private fields are not populated from a yaml file, but computed after initialization
type Config struct {
	Options `yaml:",inline"`

	sourceFile string

	// if the ProcFilter is specified
	procFilterRegex *regexp.Regexp
}

// Options are the user-settable options of the analysis.
type Options struct {
	// LogLevel controls the verbosity of the tool
	LogLevel int `yaml:"log-level"`

	// ProcFilter restricts the analysis to the procedures whose name matches this regex. An empty
	// filter matches every procedure.
	ProcFilter string `yaml:"proc-filter"`

	// DotDir is a directory where one GraphViz file per analyzed procedure is written. No files
	// are written when it is empty.
	DotDir string `yaml:"dot-dir"`

	// MaxSteps bounds the number of node visits in a single graph traversal. Queries that exhaust
	// the budget report an explicit error instead of running unbounded. <= 0 selects the default.
	MaxSteps int `yaml:"max-steps"`

	// NumRoutines is the number of goroutines used to analyze independent procedures. <= 0 selects
	// runtime.NumCPU().
	NumRoutines int `yaml:"num-routines"`
}

// NewDefault returns an empty default config.
func NewDefault() *Config {
	return &Config{
		sourceFile: "",
		Options: Options{
			LogLevel:    int(InfoLevel),
			ProcFilter:  "",
			DotDir:      "",
			MaxSteps:    DefaultMaxTraversalSteps,
			NumRoutines: runtime.NumCPU(),
		},
	}
}

// Load reads a configuration from a file
func Load(filename string) (*Config, error) {
	cfg := NewDefault()
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config file %s: %w", filename, err)
	}

	cfg.sourceFile = filename

	// If logLevel has not been specified (i.e. it is 0) set the default to Info
	if cfg.LogLevel == 0 {
		cfg.LogLevel = int(InfoLevel)
	}

	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = DefaultMaxTraversalSteps
	}

	if cfg.NumRoutines <= 0 {
		cfg.NumRoutines = runtime.NumCPU()
	}

	// a filter that does not compile falls back to prefix matching
	_ = cfg.SetProcFilter(cfg.ProcFilter)

	return cfg, nil
}

// SetProcFilter replaces the procedure filter and recompiles it. The filter is always installed;
// on a regex that does not compile the returned error describes the problem and MatchProcFilter
// falls back to prefix matching. Callers that set ProcFilter directly bypass compilation and get
// prefix matching only.
func (c *Config) SetProcFilter(filter string) error {
	c.ProcFilter = filter
	c.procFilterRegex = nil
	if filter == "" {
		return nil
	}
	r, err := regexp.Compile(filter)
	if err != nil {
		return fmt.Errorf("could not compile proc-filter %q: %w", filter, err)
	}
	c.procFilterRegex = r
	return nil
}

// RelPath returns filename path relative to the config source file
func (c Config) RelPath(filename string) string {
	return path.Join(path.Dir(c.sourceFile), filename)
}

// MatchProcFilter returns true if the procedure name matches the filter set in the config file.
// If no filter has been set, every name matches. This function safely considers the case where a
// filter has been specified by the user but could not be compiled to a regex; the safe case is to
// check whether the filter string is a prefix of the procedure name.
func (c Config) MatchProcFilter(procName string) bool {
	if c.procFilterRegex != nil {
		return c.procFilterRegex.MatchString(procName)
	} else if c.ProcFilter != "" {
		return strings.HasPrefix(procName, c.ProcFilter)
	} else {
		return true
	}
}

// Verbose returns true is the configuration verbosity setting is larger than Info (i.e. Debug or Trace)
func (c Config) Verbose() bool {
	return c.LogLevel >= int(DebugLevel)
}
