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
	"math"
	"time"

	log "github.com/golang/glog"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// DefaultTolerance is the numeric slack used when no tolerance is given.
const DefaultTolerance = 1e-6

// Status is the outcome of a solve.
type Status int

const (
	// StatusUnknown is the zero value; no solve produced it.
	StatusUnknown Status = iota
	// StatusOptimal means Values hold an optimal blend.
	StatusOptimal
	// StatusInfeasible means no blend satisfies the constraints.
	StatusInfeasible
	// StatusUnbounded means the objective has no lower bound.
	StatusUnbounded
	// StatusSolverError means the solver failed numerically, panicked or ran out of time.
	StatusSolverError
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "OPTIMAL"
	case StatusInfeasible:
		return "INFEASIBLE"
	case StatusUnbounded:
		return "UNBOUNDED"
	case StatusSolverError:
		return "SOLVER_ERROR"
	default:
		return "UNKNOWN"
	}
}

// IsOptimal returns true if the status is StatusOptimal.
func (s Status) IsOptimal() bool {
	return s == StatusOptimal
}

// Solution is the raw answer of a Solver. Values are the variable values in component order and
// are only meaningful when Status is StatusOptimal.
type Solution struct {
	Status         Status
	Values         []float64
	ObjectiveValue float64
	// Detail describes a non-optimal status, e.g. the underlying solver error.
	Detail   string
	WallTime time.Duration
}

// Parameters are the solver parameters.
type Parameters struct {
	// Tolerance is the numeric slack of the solve. Zero means DefaultTolerance.
	Tolerance float64
	// MaxTimeSeconds bounds the time spent waiting for the solver. Zero means no limit.
	MaxTimeSeconds float64
}

// DefaultParameters returns the parameters used when none are given.
func DefaultParameters() Parameters {
	return Parameters{Tolerance: DefaultTolerance}
}

// ErrInvalidParameters is returned by solvers for out of range parameters.
var ErrInvalidParameters = errors.New("invalid solver parameters")

func (p Parameters) withDefaults() (Parameters, error) {
	if p.Tolerance == 0 {
		p.Tolerance = DefaultTolerance
	}
	if !isFinite(p.Tolerance) || p.Tolerance < 0 || p.Tolerance >= 1 {
		return p, fmt.Errorf("tolerance %v not in (0,1): %w", p.Tolerance, ErrInvalidParameters)
	}
	if !isFinite(p.MaxTimeSeconds) || p.MaxTimeSeconds < 0 {
		return p, fmt.Errorf("max time %v must be non-negative: %w", p.MaxTimeSeconds, ErrInvalidParameters)
	}
	return p, nil
}

func (p Parameters) timeLimit() time.Duration {
	return time.Duration(p.MaxTimeSeconds * float64(time.Second))
}

// Solver solves blend problems. Implementations must not modify the Problem.
//
// The returned error is reserved for misuse such as a nil problem or invalid parameters; a solve
// that fails is reported through Solution.Status.
type Solver interface {
	Solve(p *Problem, params Parameters) (*Solution, error)
}

// SimplexSolver solves blend problems with the simplex method of gonum's lp package. The zero value
// is ready to use and safe for concurrent use on independent problems.
type SimplexSolver struct {
	// solve replaces the simplex in tests.
	solve func(p *Problem, tol float64) *Solution
}

// NewSimplexSolver returns a SimplexSolver.
func NewSimplexSolver() *SimplexSolver {
	return &SimplexSolver{}
}

// Solve solves the problem with the given parameters.
func (s *SimplexSolver) Solve(p *Problem, params Parameters) (*Solution, error) {
	return s.SolveInterruptible(p, params, nil)
}

// SolveInterruptible solves the problem with the given parameters. The solve is abandoned with
// StatusSolverError when `interrupt` is closed or the time limit elapses. An abandoned solve keeps
// running in the background until the simplex returns; its result is dropped.
func (s *SimplexSolver) SolveInterruptible(p *Problem, params Parameters, interrupt <-chan struct{}) (*Solution, error) {
	if p == nil {
		return nil, errors.New("nil problem")
	}
	params, err := params.withDefaults()
	if err != nil {
		return nil, err
	}

	solve := s.solve
	if solve == nil {
		solve = solveStandardForm
	}
	start := time.Now()
	done := make(chan *Solution, 1)
	go func() {
		done <- solve(p, params.Tolerance)
	}()

	var timeout <-chan time.Time
	if limit := params.timeLimit(); limit > 0 {
		timer := time.NewTimer(limit)
		defer timer.Stop()
		timeout = timer.C
	}

	var sol *Solution
	select {
	case sol = <-done:
	case <-timeout:
		log.Warningf("model %q: time limit of %vs reached", p.Name(), params.MaxTimeSeconds)
		sol = &Solution{Status: StatusSolverError, Detail: "time limit reached"}
	case <-interrupt:
		log.Warningf("model %q: solve interrupted", p.Name())
		sol = &Solution{Status: StatusSolverError, Detail: "solve interrupted"}
	}
	sol.WallTime = time.Since(start)
	log.V(1).Infof("model %q solved: status %v, objective %v, %v", p.Name(), sol.Status, sol.ObjectiveValue, sol.WallTime)
	return sol, nil
}

// standardForm lowers the problem to `min c^T z s.t. A z = b, z >= 0`. The first columns of z are the
// problem variables; every inequality row gets its own slack column, subtracted for `>=` rows and
// added for `<=` rows. Each row therefore owns a distinct column, so A has full row rank, and no
// column of A is zero since every variable appears in the normalization row.
func standardForm(p *Problem) (c []float64, a *mat.Dense, b []float64) {
	numVars := p.NumVariables()
	numSlacks := 0
	for _, r := range p.rows {
		if r.Sense != Equal {
			numSlacks++
		}
	}
	numCols := numVars + numSlacks

	c = make([]float64, numCols)
	copy(c, p.objective.Dense(numVars))

	a = mat.NewDense(len(p.rows), numCols, nil)
	b = make([]float64, len(p.rows))
	slack := numVars
	for i, r := range p.rows {
		for j, v := range r.expr.Dense(numVars) {
			a.Set(i, j, v)
		}
		b[i] = r.RHS
		switch r.Sense {
		case GreaterOrEqual:
			a.Set(i, slack, -1)
			slack++
		case LessOrEqual:
			a.Set(i, slack, 1)
			slack++
		}
	}
	return c, a, b
}

func solveStandardForm(p *Problem, tol float64) (sol *Solution) {
	defer func() {
		if r := recover(); r != nil {
			log.Warningf("model %q: simplex panicked: %v", p.Name(), r)
			sol = &Solution{Status: StatusSolverError, Detail: fmt.Sprint(r)}
		}
	}()

	if p.NumVariables() == 1 {
		return solveSingleComponent(p, tol)
	}

	c, a, b := standardForm(p)
	opt, z, err := lp.Simplex(c, a, b, tol, nil)
	switch {
	case err == nil:
	case errors.Is(err, lp.ErrInfeasible):
		return &Solution{Status: StatusInfeasible, Detail: err.Error()}
	case errors.Is(err, lp.ErrUnbounded):
		return &Solution{Status: StatusUnbounded, Detail: err.Error()}
	default:
		return &Solution{Status: StatusSolverError, Detail: err.Error()}
	}

	values := make([]float64, p.NumVariables())
	copy(values, z)
	if math.IsNaN(opt) {
		return &Solution{Status: StatusSolverError, Detail: "objective is NaN"}
	}
	return &Solution{Status: StatusOptimal, Values: values, ObjectiveValue: opt}
}

// solveSingleComponent solves a problem with one component. Its standard form is square, which
// lp.Simplex solves as a linear system without any tolerance on the slacks, so the only candidate
// blend is checked here instead.
func solveSingleComponent(p *Problem, tol float64) *Solution {
	for i, n := range p.nutrients {
		if level := p.content[i][0]; !n.Bounds.Contains(level, tol) {
			return &Solution{
				Status: StatusInfeasible,
				Detail: fmt.Sprintf("nutrient %q level %v is outside %v", n.Name, level, n.Bounds),
			}
		}
	}
	values := []float64{1}
	return &Solution{Status: StatusOptimal, Values: values, ObjectiveValue: p.ObjectiveValue(values)}
}
