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
	"errors"
	"fmt"
	"io"
	"math"

	log "github.com/golang/glog"
)

// Reason is the cause of a Failure.
type Reason int

const (
	// ReasonSolverError means the solver failed or returned an unusable solution.
	ReasonSolverError Reason = iota
	// ReasonInfeasible means no blend satisfies the nutrient bounds.
	ReasonInfeasible
	// ReasonUnbounded means the cost can decrease without limit.
	ReasonUnbounded
)

func (r Reason) String() string {
	switch r {
	case ReasonInfeasible:
		return "Infeasible"
	case ReasonUnbounded:
		return "Unbounded"
	default:
		return "SolverError"
	}
}

// Sentinel errors matched by a *Failure with the corresponding reason through errors.Is.
var (
	ErrInfeasible  = errors.New("no feasible blend")
	ErrUnbounded   = errors.New("blend cost is unbounded")
	ErrSolverError = errors.New("solver error")
)

// Failure is returned by Interpret when the solution holds no optimal blend.
type Failure struct {
	Reason Reason
	Status Status
	Detail string
}

func (f *Failure) Error() string {
	if f.Detail == "" {
		return fmt.Sprintf("%v (status %v)", f.Unwrap(), f.Status)
	}
	return fmt.Sprintf("%v (status %v): %s", f.Unwrap(), f.Status, f.Detail)
}

// Unwrap returns the sentinel error of the reason.
func (f *Failure) Unwrap() error {
	switch f.Reason {
	case ReasonInfeasible:
		return ErrInfeasible
	case ReasonUnbounded:
		return ErrUnbounded
	default:
		return ErrSolverError
	}
}

// Proportion is the fraction of one component in the blend.
type Proportion struct {
	Component string
	Fraction  float64
}

// Report is an optimal blend. Proportions are in component order and sum to one.
type Report struct {
	ObjectiveValue float64
	Proportions    []Proportion
}

// Fraction returns the fraction of the named component, and false if it is not in the blend.
func (r *Report) Fraction(component string) (float64, bool) {
	for _, p := range r.Proportions {
		if p.Component == component {
			return p.Fraction, true
		}
	}
	return 0, false
}

// Fractions returns the fractions in component order.
func (r *Report) Fractions() []float64 {
	out := make([]float64, len(r.Proportions))
	for j, p := range r.Proportions {
		out[j] = p.Fraction
	}
	return out
}

// Interpret checks the solution against the blend invariants and returns the blend.
//
// A non-optimal status returns a *Failure and no Report. Values in `[-tolerance,0)` are clipped
// to zero and the fractions are rescaled to sum to one; larger violations are reported as a
// solver error. The objective value of the Report is the cost of the rescaled fractions. A
// tolerance outside (0,1) is replaced by DefaultTolerance.
func Interpret(sol *Solution, components []Component, tolerance float64) (*Report, error) {
	if sol == nil {
		return nil, &Failure{Reason: ReasonSolverError, Status: StatusUnknown, Detail: "no solution"}
	}
	if !isFinite(tolerance) || tolerance <= 0 || tolerance >= 1 {
		tolerance = DefaultTolerance
	}
	switch sol.Status {
	case StatusOptimal:
	case StatusInfeasible:
		return nil, &Failure{Reason: ReasonInfeasible, Status: sol.Status, Detail: sol.Detail}
	case StatusUnbounded:
		return nil, &Failure{Reason: ReasonUnbounded, Status: sol.Status, Detail: sol.Detail}
	default:
		return nil, &Failure{Reason: ReasonSolverError, Status: sol.Status, Detail: sol.Detail}
	}

	if len(sol.Values) != len(components) {
		return nil, &Failure{Reason: ReasonSolverError, Status: sol.Status,
			Detail: fmt.Sprintf("solution has %d values for %d components", len(sol.Values), len(components))}
	}

	fractions := make([]float64, len(sol.Values))
	sum := 0.0
	for j, v := range sol.Values {
		if !isFinite(v) || v < -tolerance {
			return nil, &Failure{Reason: ReasonSolverError, Status: sol.Status,
				Detail: fmt.Sprintf("proportion of %q is %v", components[j].Name, v)}
		}
		fractions[j] = math.Max(v, 0)
		sum += fractions[j]
	}
	if math.Abs(sum-1) > tolerance {
		return nil, &Failure{Reason: ReasonSolverError, Status: sol.Status,
			Detail: fmt.Sprintf("proportions sum to %v", sum)}
	}

	report := &Report{Proportions: make([]Proportion, len(components))}
	for j, c := range components {
		f := fractions[j] / sum
		report.Proportions[j] = Proportion{Component: c.Name, Fraction: f}
		report.ObjectiveValue += c.Cost * f
	}
	if drift := math.Abs(report.ObjectiveValue - sol.ObjectiveValue); drift > tolerance*math.Max(1, math.Abs(sol.ObjectiveValue)) {
		log.Warningf("objective %v differs from the solver objective %v by %v", report.ObjectiveValue, sol.ObjectiveValue, drift)
	}
	return report, nil
}

// FormatOptions controls how a Report is printed. Rounding applies to the printed text only.
type FormatOptions struct {
	// Precision is the number of digits after the decimal point.
	Precision int
	// Percent prints the fractions as percentages.
	Percent bool
	// Unit labels the objective value, e.g. "CLP/kg".
	Unit string
}

// DefaultFormatOptions returns three digits, plain fractions and CLP/kg.
func DefaultFormatOptions() FormatOptions {
	return FormatOptions{Precision: 3, Unit: "CLP/kg"}
}

// Format writes the report to `w`.
func (r *Report) Format(w io.Writer, opts FormatOptions) error {
	if _, err := fmt.Fprintf(w, "Optimal cost: %.*f %s\n", opts.Precision, r.ObjectiveValue, opts.Unit); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "Proportions:"); err != nil {
		return err
	}
	for _, p := range r.Proportions {
		var err error
		if opts.Percent {
			_, err = fmt.Fprintf(w, "  %s: %.*f%%\n", p.Component, opts.Precision, p.Fraction*100)
		} else {
			_, err = fmt.Fprintf(w, "  %s: %.*f\n", p.Component, opts.Precision, p.Fraction)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
