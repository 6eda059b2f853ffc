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

// Package blenddata reads blend scenarios and solver options from files.
//
// A scenario is three CSV tables, each starting with a header row:
//
//	costs:   cost[,name]          one row per component
//	bounds:  lower,upper[,name]   one row per nutrient
//	content: c_0,...,c_{J-1}      one row per nutrient, one column per component
//
// The content table is read as is, row i being nutrient i; its shape is checked by
// blendmodel.Build.
package blenddata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/feedmix/blendlp/blend/go/blendmodel"
)

var (
	// ErrMalformedTable wraps every error about the content of a table, as opposed to errors
	// opening it.
	ErrMalformedTable = errors.New("malformed table")
	// ErrEmptyTable is returned for a table that has no header row.
	ErrEmptyTable = errors.New("table has no header row")
)

// ScenarioPaths are the files of a scenario.
type ScenarioPaths struct {
	Costs   string
	Bounds  string
	Content string
}

// DefaultScenarioPaths returns the file names used when none are given.
func DefaultScenarioPaths() ScenarioPaths {
	return ScenarioPaths{
		Costs:   "costos.csv",
		Bounds:  "limites.csv",
		Content: "contenidos_nutricionales.csv",
	}
}

// Scenario is the input of one blend problem.
type Scenario struct {
	Components []blendmodel.Component
	Nutrients  []blendmodel.Nutrient
	Content    [][]float64
}

// LoadScenario reads the three tables of a scenario.
func LoadScenario(paths ScenarioPaths) (*Scenario, error) {
	var s Scenario
	var err error
	if s.Components, err = readFile("costs", paths.Costs, ReadCosts); err != nil {
		return nil, err
	}
	if s.Nutrients, err = readFile("bounds", paths.Bounds, ReadBounds); err != nil {
		return nil, err
	}
	if s.Content, err = readFile("content", paths.Content, ReadContent); err != nil {
		return nil, err
	}
	return &s, nil
}

func readFile[T any](table, path string, read func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, fmt.Errorf("load %s failed (%s): %w", table, path, err)
	}
	defer f.Close()
	v, err := read(f)
	if err != nil {
		return zero, fmt.Errorf("load %s failed (%s): %w: %w", table, path, ErrMalformedTable, err)
	}
	return v, nil
}

// ReadCosts reads the costs table. Components are named after the second column when present,
// else "Cereal 1", "Cereal 2", ...
func ReadCosts(r io.Reader) ([]blendmodel.Component, error) {
	records, err := readRecords(r)
	if err != nil {
		return nil, err
	}
	components := make([]blendmodel.Component, 0, len(records))
	for k, rec := range records {
		cost, err := parseFloat(rec, 0, k)
		if err != nil {
			return nil, err
		}
		components = append(components, blendmodel.Component{
			Name: nameOr(rec, 1, fmt.Sprintf("Cereal %d", k+1)),
			Cost: cost,
		})
	}
	return components, nil
}

// ReadBounds reads the bounds table. Nutrients are named after the third column when present,
// else "Nutrient 1", "Nutrient 2", ...
func ReadBounds(r io.Reader) ([]blendmodel.Nutrient, error) {
	records, err := readRecords(r)
	if err != nil {
		return nil, err
	}
	nutrients := make([]blendmodel.Nutrient, 0, len(records))
	for k, rec := range records {
		lower, err := parseFloat(rec, 0, k)
		if err != nil {
			return nil, err
		}
		upper, err := parseFloat(rec, 1, k)
		if err != nil {
			return nil, err
		}
		nutrients = append(nutrients, blendmodel.Nutrient{
			Name:   nameOr(rec, 2, fmt.Sprintf("Nutrient %d", k+1)),
			Bounds: blendmodel.NewInterval(lower, upper),
		})
	}
	return nutrients, nil
}

// ReadContent reads the content table, one row per nutrient.
func ReadContent(r io.Reader) ([][]float64, error) {
	records, err := readRecords(r)
	if err != nil {
		return nil, err
	}
	content := make([][]float64, 0, len(records))
	for k, rec := range records {
		row := make([]float64, len(rec))
		for c := range rec {
			if row[c], err = parseFloat(rec, c, k); err != nil {
				return nil, err
			}
		}
		content = append(content, row)
	}
	return content, nil
}

// readRecords returns the records after the header row. Rows may have different lengths.
func readRecords(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrEmptyTable
	}
	return records[1:], nil
}

func parseFloat(rec []string, col, row int) (float64, error) {
	if col >= len(rec) {
		return 0, fmt.Errorf("row %d: missing column %d", row+1, col+1)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(rec[col]), 64)
	if err != nil {
		return 0, fmt.Errorf("row %d, column %d: %w", row+1, col+1, err)
	}
	return v, nil
}

func nameOr(rec []string, col int, fallback string) string {
	if col < len(rec) {
		if name := strings.TrimSpace(rec[col]); name != "" {
			return name
		}
	}
	return fallback
}
