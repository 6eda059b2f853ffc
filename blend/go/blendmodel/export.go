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

package blendmodel

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"
)

// Proto returns the problem as a Struct laid out like an MPModelProto: `name`, `maximize`,
// `variable` and `constraint` lists. Infinite bounds are left out.
func (p *Problem) Proto() (*structpb.Struct, error) {
	costs := p.ObjectiveCoefficients()
	variables := make([]any, len(p.vars))
	for j, v := range p.vars {
		variables[j] = map[string]any{
			"name":                  v.Name(),
			"lower_bound":           0.0,
			"objective_coefficient": costs[j],
			"is_integer":            false,
		}
	}

	constraints := make([]any, len(p.rows))
	for k, r := range p.rows {
		ct := map[string]any{"name": r.Name}
		switch r.Sense {
		case GreaterOrEqual:
			ct["lower_bound"] = r.RHS
		case LessOrEqual:
			ct["upper_bound"] = r.RHS
		default:
			ct["lower_bound"] = r.RHS
			ct["upper_bound"] = r.RHS
		}
		var indices, coeffs []any
		for j, c := range r.Coefficients(len(p.vars)) {
			if c == 0 {
				continue
			}
			indices = append(indices, float64(j))
			coeffs = append(coeffs, c)
		}
		ct["var_index"] = indices
		ct["coefficient"] = coeffs
		constraints[k] = ct
	}

	s, err := structpb.NewStruct(map[string]any{
		"name":       p.name,
		"maximize":   false,
		"variable":   variables,
		"constraint": constraints,
	})
	if err != nil {
		return nil, fmt.Errorf("exporting model %q failed: %w", p.name, err)
	}
	return s, nil
}

// Proto returns the report as a Struct with `objective_value` and a `proportion` list.
func (r *Report) Proto() (*structpb.Struct, error) {
	proportions := make([]any, len(r.Proportions))
	for j, p := range r.Proportions {
		proportions[j] = map[string]any{
			"component": p.Component,
			"fraction":  p.Fraction,
		}
	}
	s, err := structpb.NewStruct(map[string]any{
		"objective_value": r.ObjectiveValue,
		"proportion":      proportions,
	})
	if err != nil {
		return nil, fmt.Errorf("exporting report failed: %w", err)
	}
	return s, nil
}
