// Copyright 2010-2025 Google LLC
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// The cerealblend command finds the cheapest cereal blend meeting nutrient bounds.
//
// It reads the costs, bounds and content tables, builds the blend problem, solves it and prints
// the optimal cost and the proportion of every cereal.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	log "github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"github.com/feedmix/blendlp/blend/go/blenddata"
	"github.com/feedmix/blendlp/blend/go/blendmodel"
)

const (
	exitInvalidInput = 2
	exitNoBlend      = 3
)

type config struct {
	paths       blenddata.ScenarioPaths
	options     blenddata.Options
	exportModel string
	reportJSON  string
	metricsFile string
}

func parseFlags(fs *pflag.FlagSet, args []string) (config, error) {
	defaults := blenddata.DefaultScenarioPaths()
	defaultOpts := blenddata.DefaultOptions()

	var cfg config
	var configPath string
	var flagOpts blenddata.Options
	fs.StringVar(&cfg.paths.Costs, "costs", defaults.Costs, "CSV file of component costs")
	fs.StringVar(&cfg.paths.Bounds, "bounds", defaults.Bounds, "CSV file of nutrient bounds")
	fs.StringVar(&cfg.paths.Content, "content", defaults.Content, "CSV file of nutrient content, one row per nutrient")
	fs.StringVar(&configPath, "config", "", "TOML or YAML options file")
	fs.StringVar(&flagOpts.ModelName, "model_name", defaultOpts.ModelName, "name of the model")
	fs.Float64Var(&flagOpts.Tolerance, "tolerance", defaultOpts.Tolerance, "numeric tolerance of the solve")
	fs.Float64Var(&flagOpts.MaxTimeSeconds, "max_time_seconds", defaultOpts.MaxTimeSeconds, "time limit of the solve, 0 for none")
	fs.IntVar(&flagOpts.Precision, "precision", defaultOpts.Precision, "printed digits")
	fs.BoolVar(&flagOpts.Percent, "percent", defaultOpts.Percent, "print proportions as percentages")
	fs.StringVar(&flagOpts.Unit, "unit", defaultOpts.Unit, "unit of the optimal cost")
	fs.StringVar(&cfg.exportModel, "export_model", "", "write the model as JSON to this file")
	fs.StringVar(&cfg.reportJSON, "report_json", "", "write the report as JSON to this file")
	fs.StringVar(&cfg.metricsFile, "metrics_file", "", "write solver metrics in the Prometheus text format to this file")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	cfg.options = defaultOpts
	if configPath != "" {
		opts, err := blenddata.LoadOptions(configPath)
		if err != nil {
			return config{}, err
		}
		cfg.options = opts
	}
	// Flags given on the command line win over the options file.
	if fs.Changed("model_name") {
		cfg.options.ModelName = flagOpts.ModelName
	}
	if fs.Changed("tolerance") {
		cfg.options.Tolerance = flagOpts.Tolerance
	}
	if fs.Changed("max_time_seconds") {
		cfg.options.MaxTimeSeconds = flagOpts.MaxTimeSeconds
	}
	if fs.Changed("precision") {
		cfg.options.Precision = flagOpts.Precision
	}
	if fs.Changed("percent") {
		cfg.options.Percent = flagOpts.Percent
	}
	if fs.Changed("unit") {
		cfg.options.Unit = flagOpts.Unit
	}
	if err := cfg.options.Validate(); err != nil {
		return config{}, err
	}
	return cfg, nil
}

// parseCommandLine parses `args` into `fs` merged with the Go flag set `goFlags`, which holds
// the glog flags, and marks `goFlags` parsed.
func parseCommandLine(fs *pflag.FlagSet, goFlags *flag.FlagSet, args []string) (config, error) {
	fs.AddGoFlagSet(goFlags)
	cfg, err := parseFlags(fs, args)
	if err != nil {
		return config{}, err
	}
	if err := goFlags.Parse(nil); err != nil {
		return config{}, err
	}
	return cfg, nil
}

func writeProto(path string, m proto.Message) error {
	data, err := protojson.MarshalOptions{Multiline: true}.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func run(cfg config, solver blendmodel.Solver, out io.Writer) error {
	scenario, err := blenddata.LoadScenario(cfg.paths)
	if err != nil {
		return err
	}
	p, err := blendmodel.BuildNamed(cfg.options.ModelName, scenario.Components, scenario.Nutrients, scenario.Content)
	if err != nil {
		return err
	}
	if cfg.exportModel != "" {
		m, err := p.Proto()
		if err != nil {
			return err
		}
		if err := writeProto(cfg.exportModel, m); err != nil {
			return fmt.Errorf("writing the model failed: %w", err)
		}
	}

	sol, err := solver.Solve(p, cfg.options.SolverParameters())
	if err != nil {
		return fmt.Errorf("failed to solve the model: %w", err)
	}
	report, err := blendmodel.Interpret(sol, p.Components(), cfg.options.Tolerance)
	if err != nil {
		return err
	}
	if cfg.reportJSON != "" {
		m, err := report.Proto()
		if err != nil {
			return err
		}
		if err := writeProto(cfg.reportJSON, m); err != nil {
			return fmt.Errorf("writing the report failed: %w", err)
		}
	}
	return report.Format(out, cfg.options.FormatOptions())
}

// exitCode tells malformed input apart from input without a feasible blend.
func exitCode(err error) int {
	var verr *blendmodel.ValidationError
	var failure *blendmodel.Failure
	switch {
	case errors.As(err, &verr), errors.Is(err, blenddata.ErrMalformedTable):
		return exitInvalidInput
	case errors.As(err, &failure):
		return exitNoBlend
	default:
		return 1
	}
}

func main() {
	cfg, err := parseCommandLine(pflag.NewFlagSet(os.Args[0], pflag.ExitOnError), flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Exitf("invalid flags: %v", err)
	}

	reg := prometheus.NewRegistry()
	solver := blendmodel.InstrumentSolver(blendmodel.NewSimplexSolver(), blendmodel.NewMetrics(reg))
	err = run(cfg, solver, os.Stdout)
	if cfg.metricsFile != "" {
		if werr := prometheus.WriteToTextfile(cfg.metricsFile, reg); werr != nil {
			log.Warningf("writing metrics to %s failed: %v", cfg.metricsFile, werr)
		}
	}
	if err != nil {
		code := exitCode(err)
		switch code {
		case exitInvalidInput:
			log.Errorf("invalid input: %v", err)
		case exitNoBlend:
			log.Errorf("no optimal blend: %v", err)
		default:
			log.Errorf("cerealblend: %v", err)
		}
		fmt.Fprintln(os.Stderr, err)
		log.Flush()
		os.Exit(code)
	}
}
