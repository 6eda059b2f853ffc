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

// Package blendmodel builds and solves the cheapest-blend linear program.
//
// `Build` turns component costs, nutrient bounds and a nutrient content matrix into an immutable
// `Problem`: one non-negative proportion variable per component, a lower and an upper bound row per
// nutrient and a single normalization row forcing the proportions to sum to one. The objective
// minimizes the cost of the blend.
//
// A `Solver` turns a Problem into a `Solution`. `SimplexSolver` is the default implementation.
// `Interpret` validates a Solution and returns a `Report` of the blend, or a `*Failure` when no
// optimal blend was found.
//
// The content matrix is always indexed as `content[i][j]`: nutrient `i` contributed by one unit of
// component `j`. Its shape is checked, never guessed.
package blendmodel

import (
	"errors"
	"fmt"
	"math"

	log "github.com/golang/glog"
)

// DefaultModelName is the name given to problems built with Build.
const DefaultModelName = "cereal_blend"

// Component is an ingredient of the blend.
type Component struct {
	Name string
	// Cost is the price per unit of mass. It must be finite and non-negative.
	Cost float64
}

// Nutrient is a nutrient whose level in the blend must stay within Bounds.
type Nutrient struct {
	Name   string
	Bounds Interval
}

// Sense is the direction of a constraint row.
type Sense int

const (
	// GreaterOrEqual rows require `expr >= rhs`.
	GreaterOrEqual Sense = iota
	// LessOrEqual rows require `expr <= rhs`.
	LessOrEqual
	// Equal rows require `expr == rhs`.
	Equal
)

func (s Sense) String() string {
	switch s {
	case GreaterOrEqual:
		return ">="
	case LessOrEqual:
		return "<="
	case Equal:
		return "=="
	default:
		return fmt.Sprintf("Sense(%d)", int(s))
	}
}

// RowKind tells which family of constraints a row belongs to.
type RowKind int

const (
	// NutrientMin is the row `Σ_j content[i][j]*x_j >= lower_i`.
	NutrientMin RowKind = iota
	// NutrientMax is the row `Σ_j content[i][j]*x_j <= upper_i`.
	NutrientMax
	// Normalization is the row `Σ_j x_j == 1`.
	Normalization
)

// Row is a linear constraint of the Problem.
type Row struct {
	Name  string
	Kind  RowKind
	Sense Sense
	RHS   float64
	// Nutrient is the index of the nutrient the row bounds, or -1 for the normalization row.
	Nutrient int
	expr     *LinearExpr
}

// Coefficients returns the dense coefficients of the row, one per variable.
func (r Row) Coefficients(numVars int) []float64 {
	return r.expr.Dense(numVars)
}

// Activity returns the value of the row's left-hand side for `values`.
func (r Row) Activity(values []float64) float64 {
	return r.expr.Evaluate(values)
}

// Satisfied returns true if `values` satisfy the row within `tol`.
func (r Row) Satisfied(values []float64, tol float64) bool {
	a := r.Activity(values)
	switch r.Sense {
	case GreaterOrEqual:
		return a >= r.RHS-tol
	case LessOrEqual:
		return a <= r.RHS+tol
	default:
		return math.Abs(a-r.RHS) <= tol
	}
}

// Problem is a validated, solver-ready blend problem. It is immutable: build a new one for a new
// scenario. Accessors return copies.
type Problem struct {
	name       string
	components []Component
	nutrients  []Nutrient
	content    [][]float64
	vars       []Variable
	rows       []Row
	objective  *LinearExpr
}

// Build validates the inputs and returns the blend problem. See BuildNamed.
func Build(components []Component, nutrients []Nutrient, content [][]float64) (*Problem, error) {
	return BuildNamed(DefaultModelName, components, nutrients, content)
}

// BuildNamed validates the inputs and returns the blend problem with the given name.
//
// `content` must have exactly one row per nutrient and one column per component. Any invalid input
// returns a *ValidationError and no Problem.
func BuildNamed(name string, components []Component, nutrients []Nutrient, content [][]float64) (*Problem, error) {
	if err := validate(components, nutrients, content); err != nil {
		log.V(1).Infof("model %q rejected: %v", name, err)
		return nil, err
	}

	p := &Problem{
		name:       name,
		components: append([]Component(nil), components...),
		nutrients:  append([]Nutrient(nil), nutrients...),
		content:    make([][]float64, len(content)),
	}
	for i, row := range content {
		p.content[i] = append([]float64(nil), row...)
	}

	for j, c := range p.components {
		p.vars = append(p.vars, Variable{ind: VarIndex(j), name: "x_" + c.Name})
	}

	for i, n := range p.nutrients {
		p.addRow(Row{
			Name:     "min_" + n.Name,
			Kind:     NutrientMin,
			Sense:    GreaterOrEqual,
			RHS:      n.Bounds.Lower,
			Nutrient: i,
			expr:     NewLinearExpr().AddWeightedSum(p.vars, p.content[i]),
		})
	}
	for i, n := range p.nutrients {
		p.addRow(Row{
			Name:     "max_" + n.Name,
			Kind:     NutrientMax,
			Sense:    LessOrEqual,
			RHS:      n.Bounds.Upper,
			Nutrient: i,
			expr:     NewLinearExpr().AddWeightedSum(p.vars, p.content[i]),
		})
	}
	p.addRow(Row{
		Name:     "normalization",
		Kind:     Normalization,
		Sense:    Equal,
		RHS:      1,
		Nutrient: -1,
		expr:     NewLinearExpr().AddSum(p.vars...),
	})

	costs := make([]float64, len(p.components))
	for j, c := range p.components {
		costs[j] = c.Cost
	}
	p.objective = NewLinearExpr().AddWeightedSum(p.vars, costs)

	log.V(1).Infof("model %q built: %d variables, %d rows", name, len(p.vars), len(p.rows))
	return p, nil
}

func (p *Problem) addRow(r Row) {
	p.rows = append(p.rows, r)
}

// Name returns the name of the problem.
func (p *Problem) Name() string {
	return p.name
}

// NumVariables returns the number of decision variables, which is the number of components.
func (p *Problem) NumVariables() int {
	return len(p.vars)
}

// NumNutrients returns the number of bounded nutrients.
func (p *Problem) NumNutrients() int {
	return len(p.nutrients)
}

// Variables returns the decision variables in component order.
func (p *Problem) Variables() []Variable {
	return append([]Variable(nil), p.vars...)
}

// Components returns the components of the blend.
func (p *Problem) Components() []Component {
	return append([]Component(nil), p.components...)
}

// Nutrients returns the bounded nutrients.
func (p *Problem) Nutrients() []Nutrient {
	return append([]Nutrient(nil), p.nutrients...)
}

// Content returns the nutrient content of component `j` for nutrient `i`.
func (p *Problem) Content(i, j int) float64 {
	return p.content[i][j]
}

// Rows returns the constraints in model order: all nutrient minimums, all nutrient maximums, then
// the normalization row.
func (p *Problem) Rows() []Row {
	rows := make([]Row, len(p.rows))
	for k, r := range p.rows {
		r.expr = r.expr.clone()
		rows[k] = r
	}
	return rows
}

// ObjectiveCoefficients returns the cost of each variable.
func (p *Problem) ObjectiveCoefficients() []float64 {
	return p.objective.Dense(len(p.vars))
}

// ObjectiveValue returns the cost of the blend `values`.
func (p *Problem) ObjectiveValue(values []float64) float64 {
	return p.objective.Evaluate(values)
}

// Feasible returns true if `values` are non-negative and satisfy every row within `tol`.
func (p *Problem) Feasible(values []float64, tol float64) bool {
	if len(values) != len(p.vars) {
		return false
	}
	for _, v := range values {
		if v < -tol {
			return false
		}
	}
	for _, r := range p.rows {
		if !r.Satisfied(values, tol) {
			return false
		}
	}
	return true
}

// ValidationKind classifies why inputs were rejected by Build.
type ValidationKind int

const (
	// DimensionMismatch means the content matrix is not I x J.
	DimensionMismatch ValidationKind = iota + 1
	// NegativeBound means a nutrient has lower > upper.
	NegativeBound
	// NonFiniteValue means a cost, bound or content value is NaN or infinite.
	NonFiniteValue
	// EmptyComponentSet means there are no components to blend.
	EmptyComponentSet
	// NegativeCost means a component has a negative cost.
	NegativeCost
)

func (k ValidationKind) String() string {
	switch k {
	case DimensionMismatch:
		return "DimensionMismatch"
	case NegativeBound:
		return "NegativeBound"
	case NonFiniteValue:
		return "NonFiniteValue"
	case EmptyComponentSet:
		return "EmptyComponentSet"
	case NegativeCost:
		return "NegativeCost"
	default:
		return fmt.Sprintf("ValidationKind(%d)", int(k))
	}
}

// Sentinel errors matched by a *ValidationError of the corresponding kind through errors.Is.
var (
	ErrDimensionMismatch = errors.New("content matrix dimensions do not match nutrients x components")
	ErrNegativeBound     = errors.New("nutrient lower bound is greater than its upper bound")
	ErrNonFiniteValue    = errors.New("value is not finite")
	ErrEmptyComponentSet = errors.New("no components to blend")
	ErrNegativeCost      = errors.New("component cost is negative")
)

// ValidationError holds malformed or inconsistent input detected before any model is built.
type ValidationError struct {
	Kind ValidationKind
	// Index is the offending nutrient or component index, or -1 when not applicable.
	Index int
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid blend input (%v): %s", e.Kind, e.Msg)
}

// Unwrap returns the sentinel error of the kind.
func (e *ValidationError) Unwrap() error {
	switch e.Kind {
	case DimensionMismatch:
		return ErrDimensionMismatch
	case NegativeBound:
		return ErrNegativeBound
	case NonFiniteValue:
		return ErrNonFiniteValue
	case EmptyComponentSet:
		return ErrEmptyComponentSet
	case NegativeCost:
		return ErrNegativeCost
	}
	return nil
}

func validationErrorf(kind ValidationKind, index int, format string, a ...any) *ValidationError {
	return &ValidationError{Kind: kind, Index: index, Msg: fmt.Sprintf(format, a...)}
}

func validate(components []Component, nutrients []Nutrient, content [][]float64) error {
	numComps, numNutrients := len(components), len(nutrients)
	if numComps == 0 {
		return validationErrorf(EmptyComponentSet, -1, "at least one component is required")
	}
	for j, c := range components {
		if !isFinite(c.Cost) {
			return validationErrorf(NonFiniteValue, j, "cost of component %d (%q) is %v", j, c.Name, c.Cost)
		}
		if c.Cost < 0 {
			return validationErrorf(NegativeCost, j, "cost of component %d (%q) is %v", j, c.Name, c.Cost)
		}
	}
	for i, n := range nutrients {
		if !n.Bounds.IsFinite() {
			return validationErrorf(NonFiniteValue, i, "bounds of nutrient %d (%q) are %v", i, n.Name, n.Bounds)
		}
		if n.Bounds.IsEmpty() {
			return validationErrorf(NegativeBound, i, "bounds of nutrient %d (%q) are %v", i, n.Name, n.Bounds)
		}
	}

	if len(content) != numNutrients || !rowsHaveLen(content, numComps) {
		if numNutrients != numComps && len(content) == numComps && rowsHaveLen(content, numNutrients) {
			return validationErrorf(DimensionMismatch, -1,
				"content is %d x %d, want %d x %d (nutrient x component); it looks transposed",
				numComps, numNutrients, numNutrients, numComps)
		}
		if len(content) != numNutrients {
			return validationErrorf(DimensionMismatch, -1,
				"content has %d rows, want one per nutrient (%d)", len(content), numNutrients)
		}
		for i, row := range content {
			if len(row) != numComps {
				return validationErrorf(DimensionMismatch, i,
					"content row %d has %d columns, want one per component (%d)", i, len(row), numComps)
			}
		}
	}
	for i, row := range content {
		for j, v := range row {
			if !isFinite(v) {
				return validationErrorf(NonFiniteValue, i, "content[%d][%d] is %v", i, j, v)
			}
		}
	}
	return nil
}

func rowsHaveLen(m [][]float64, n int) bool {
	for _, row := range m {
		if len(row) != n {
			return false
		}
	}
	return true
}
