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
	log "github.com/golang/glog"
)

// VarIndex is the index of a decision variable in the model. Variable `j` is the proportion of
// component `j`.
type VarIndex int32

// Variable is a reference to a continuous, non-negative decision variable of a Problem.
type Variable struct {
	ind  VarIndex
	name string
}

// Index returns the index of the variable in the model.
func (v Variable) Index() VarIndex {
	return v.ind
}

// Name returns the name of the variable.
func (v Variable) Name() string {
	return v.name
}

// LinearExpr is a container for a linear expression over the model variables.
type LinearExpr struct {
	varCoeffs []varCoeff
}

type varCoeff struct {
	ind   VarIndex
	coeff float64
}

// NewLinearExpr creates a new empty LinearExpr.
func NewLinearExpr() *LinearExpr {
	return &LinearExpr{}
}

// AddTerm adds the variable with the given coefficient to the LinearExpr and returns itself.
func (l *LinearExpr) AddTerm(v Variable, coeff float64) *LinearExpr {
	l.varCoeffs = append(l.varCoeffs, varCoeff{ind: v.ind, coeff: coeff})
	return l
}

// AddSum adds the sum of the variables to the LinearExpr and returns itself.
func (l *LinearExpr) AddSum(vs ...Variable) *LinearExpr {
	for _, v := range vs {
		l.AddTerm(v, 1)
	}
	return l
}

// AddWeightedSum adds the variables with the corresponding coefficients to the LinearExpr
// and returns itself.
func (l *LinearExpr) AddWeightedSum(vs []Variable, coeffs []float64) *LinearExpr {
	if len(coeffs) != len(vs) {
		log.Fatalf("vs and coeffs must be the same length: %v != %v", len(vs), len(coeffs))
	}
	for i, v := range vs {
		l.AddTerm(v, coeffs[i])
	}
	return l
}

// Dense returns the coefficients of the expression indexed by variable, for a model with
// `numVars` variables. Repeated terms are summed.
func (l *LinearExpr) Dense(numVars int) []float64 {
	out := make([]float64, numVars)
	for _, vc := range l.varCoeffs {
		out[vc.ind] += vc.coeff
	}
	return out
}

// Evaluate returns the value of the expression for the variable assignment `values`.
func (l *LinearExpr) Evaluate(values []float64) float64 {
	result := 0.0
	for _, vc := range l.varCoeffs {
		result += values[vc.ind] * vc.coeff
	}
	return result
}

func (l *LinearExpr) clone() *LinearExpr {
	c := &LinearExpr{varCoeffs: make([]varCoeff, len(l.varCoeffs))}
	copy(c.varCoeffs, l.varCoeffs)
	return c
}
