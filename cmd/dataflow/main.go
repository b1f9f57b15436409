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

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/VaynNecol/RAPx-log/analysis"
	"github.com/VaynNecol/RAPx-log/analysis/config"
	"github.com/VaynNecol/RAPx-log/analysis/ir"
	"github.com/VaynNecol/RAPx-log/internal/formatutil"
)

// flags
var (
	configFilename = ""
	dotDir         = ""
	procFilter     = ""
	maxProcs       = 0
	verbose        = false
)

func init() {
	flag.StringVar(&configFilename, "config", "", "configuration file")
	flag.StringVar(&dotDir, "dot", "", "write one GraphViz file per procedure into this directory")
	flag.StringVar(&procFilter, "filter", "", "analyze only procedures matching this regex")
	flag.IntVar(&maxProcs, "maxprocs", 0, "number of goroutines analyzing procedures (0 = from config)")
	flag.BoolVar(&verbose, "verbose", false, "set the log level to debug")
}

const usage = `Build and query per-procedure dataflow graphs.

Usage:
  dataflow program.yaml
  dataflow program1.yaml program2.yaml

Each argument is a YAML dump of a program's intermediate representation. For every procedure
the tool reports which parameters the return value depends on, the aliases of the return
value, and any value cycles. Unsupported constructs skip their procedure with a warning.

Use the -help flag to display the options.

Examples:
% dataflow -dot out/ program.yaml
`

func main() {
	if err := doMain(); err != nil {
		fmt.Fprintf(os.Stderr, "dataflow: %s\n", err)
		os.Exit(1)
	}
}

func doMain() error {
	flag.Parse()

	if len(flag.Args()) == 0 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	var err error
	var cfg *config.Config
	if configFilename == "" {
		cfg = config.NewDefault()
	} else {
		cfg, err = config.Load(configFilename)
		if err != nil {
			return fmt.Errorf("failed to load config %s: %s", configFilename, err)
		}
	}
	// flags override the config file
	if dotDir != "" {
		cfg.DotDir = dotDir
	}
	if procFilter != "" {
		if err := cfg.SetProcFilter(procFilter); err != nil {
			return fmt.Errorf("invalid -filter: %s", err)
		}
	}
	if maxProcs > 0 {
		cfg.NumRoutines = maxProcs
	}
	if verbose && cfg.LogLevel < int(config.DebugLevel) {
		cfg.LogLevel = int(config.DebugLevel)
	}
	logger := config.NewLogGroup(cfg)

	for _, filename := range flag.Args() {
		fmt.Fprintf(os.Stderr, formatutil.Faint("Reading "+filename)+"\n")
		prog, err := ir.DecodeFile(filename)
		if err != nil {
			return fmt.Errorf("failed to read program %s: %s", filename, err)
		}

		fmt.Fprintf(os.Stderr, formatutil.Faint("Analyzing")+"\n")
		report, err := analysis.RunProgram(cfg, logger, prog)
		if err != nil {
			return err
		}
		// skipped procedures are warnings, not failures
		if skipped := report.Skipped(); skipped > 0 {
			fmt.Fprintf(os.Stderr, "%s\n", formatutil.Yellow(
				fmt.Sprintf("%d procedure(s) skipped for unsupported constructs", skipped)))
		}
	}
	return nil
}
