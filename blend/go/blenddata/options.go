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

package blenddata

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/feedmix/blendlp/blend/go/blendmodel"
)

// ErrInvalidOptions is wrapped by the errors of Options.Validate.
var ErrInvalidOptions = errors.New("invalid options")

// Options configure a blend run.
type Options struct {
	ModelName      string  `toml:"model_name" yaml:"model_name"`
	Tolerance      float64 `toml:"tolerance" yaml:"tolerance"`
	MaxTimeSeconds float64 `toml:"max_time_seconds" yaml:"max_time_seconds"`
	// Precision is the number of printed digits; it never affects the stored values.
	Precision int    `toml:"precision" yaml:"precision"`
	Percent   bool   `toml:"percent" yaml:"percent"`
	Unit      string `toml:"unit" yaml:"unit"`
}

// DefaultOptions returns the options used for fields left unset.
func DefaultOptions() Options {
	return Options{
		ModelName: blendmodel.DefaultModelName,
		Tolerance: blendmodel.DefaultTolerance,
		Precision: 3,
		Unit:      "CLP/kg",
	}
}

// LoadOptions reads options from a TOML (.toml) or YAML (.yaml, .yml) file. Fields missing from the
// file keep their default value.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("options load failed (%s): %w", path, err)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, &opts)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &opts)
	default:
		return Options{}, fmt.Errorf("options load failed (%s): unknown format %q", path, ext)
	}
	if err != nil {
		return Options{}, fmt.Errorf("options parse failed (%s): %w", path, err)
	}
	if err := opts.Validate(); err != nil {
		return Options{}, fmt.Errorf("options (%s): %w", path, err)
	}
	return opts, nil
}

// Validate checks the ranges of the options.
func (o Options) Validate() error {
	if math.IsNaN(o.Tolerance) || o.Tolerance <= 0 || o.Tolerance >= 1 {
		return fmt.Errorf("tolerance %v not in (0,1): %w", o.Tolerance, ErrInvalidOptions)
	}
	if math.IsNaN(o.MaxTimeSeconds) || math.IsInf(o.MaxTimeSeconds, 0) || o.MaxTimeSeconds < 0 {
		return fmt.Errorf("max_time_seconds %v must be non-negative: %w", o.MaxTimeSeconds, ErrInvalidOptions)
	}
	if o.Precision < 0 || o.Precision > 12 {
		return fmt.Errorf("precision %d not in [0,12]: %w", o.Precision, ErrInvalidOptions)
	}
	if o.ModelName == "" {
		return fmt.Errorf("empty model_name: %w", ErrInvalidOptions)
	}
	return nil
}

// SolverParameters returns the solver parameters of the options.
func (o Options) SolverParameters() blendmodel.Parameters {
	return blendmodel.Parameters{Tolerance: o.Tolerance, MaxTimeSeconds: o.MaxTimeSeconds}
}

// FormatOptions returns the report format of the options.
func (o Options) FormatOptions() blendmodel.FormatOptions {
	return blendmodel.FormatOptions{Precision: o.Precision, Percent: o.Percent, Unit: o.Unit}
}
