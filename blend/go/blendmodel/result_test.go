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
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"google.golang.org/protobuf/testing/protocmp"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestInterpret_Failures(t *testing.T) {
	components, _, _ := twoCereals()
	testCases := []struct {
		name       string
		sol        *Solution
		wantReason Reason
		wantErr    error
	}{
		{
			name:       "nil solution",
			sol:        nil,
			wantReason: ReasonSolverError,
			wantErr:    ErrSolverError,
		},
		{
			name:       "infeasible",
			sol:        &Solution{Status: StatusInfeasible, Values: []float64{0.5, 0.5}},
			wantReason: ReasonInfeasible,
			wantErr:    ErrInfeasible,
		},
		{
			name:       "unbounded",
			sol:        &Solution{Status: StatusUnbounded},
			wantReason: ReasonUnbounded,
			wantErr:    ErrUnbounded,
		},
		{
			name:       "solver error",
			sol:        &Solution{Status: StatusSolverError, Detail: "time limit reached"},
			wantReason: ReasonSolverError,
			wantErr:    ErrSolverError,
		},
		{
			name:       "unknown status",
			sol:        &Solution{},
			wantReason: ReasonSolverError,
			wantErr:    ErrSolverError,
		},
		{
			name:       "wrong number of values",
			sol:        &Solution{Status: StatusOptimal, Values: []float64{1}},
			wantReason: ReasonSolverError,
			wantErr:    ErrSolverError,
		},
		{
			name:       "negative value beyond tolerance",
			sol:        &Solution{Status: StatusOptimal, Values: []float64{-0.01, 1.01}},
			wantReason: ReasonSolverError,
			wantErr:    ErrSolverError,
		},
		{
			name:       "values do not sum to one",
			sol:        &Solution{Status: StatusOptimal, Values: []float64{0.5, 0.4}},
			wantReason: ReasonSolverError,
			wantErr:    ErrSolverError,
		},
		{
			name:       "NaN value",
			sol:        &Solution{Status: StatusOptimal, Values: []float64{math.NaN(), 1}},
			wantReason: ReasonSolverError,
			wantErr:    ErrSolverError,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			report, err := Interpret(test.sol, components, testTol)
			if report != nil {
				t.Errorf("Interpret() report = %+v, want nil", report)
			}
			var failure *Failure
			if !errors.As(err, &failure) {
				t.Fatalf("Interpret() err = %v, want a *Failure", err)
			}
			if failure.Reason != test.wantReason {
				t.Errorf("Interpret() reason = %v, want %v", failure.Reason, test.wantReason)
			}
			if !errors.Is(err, test.wantErr) {
				t.Errorf("errors.Is(%v, %v) = false, want true", err, test.wantErr)
			}
		})
	}
}

func TestInterpret_OutOfRangeTolerance(t *testing.T) {
	components, _, _ := twoCereals()
	sol := &Solution{Status: StatusOptimal, Values: []float64{5, 0}}
	for _, tol := range []float64{math.NaN(), math.Inf(1), -1, 0, 2} {
		_, err := Interpret(sol, components, tol)
		if !errors.Is(err, ErrSolverError) {
			t.Errorf("Interpret() with tolerance %v err = %v, want %v", tol, err, ErrSolverError)
		}
	}
}

func TestInterpret_ClipsAndRenormalizes(t *testing.T) {
	components := []Component{{Name: "a", Cost: 2}, {Name: "b", Cost: 3}, {Name: "c", Cost: 1}}
	sol := &Solution{
		Status:         StatusOptimal,
		Values:         []float64{0.6000004, 0.4000004, -1e-9},
		ObjectiveValue: 2.4,
	}

	report, err := Interpret(sol, components, testTol)
	if err != nil {
		t.Fatalf("Interpret() returned with unexpected error %v", err)
	}

	if got := report.Proportions[2].Fraction; got != 0 {
		t.Errorf("fraction of c = %v, want exactly 0", got)
	}
	sum := 0.0
	for _, p := range report.Proportions {
		sum += p.Fraction
	}
	if math.Abs(sum-1) > 1e-15 {
		t.Errorf("sum of fractions = %v, want 1", sum)
	}
	want := []Proportion{{"a", 0.6}, {"b", 0.4}, {"c", 0}}
	if diff := cmp.Diff(want, report.Proportions, cmpopts.EquateApprox(0, testTol)); diff != "" {
		t.Errorf("Interpret() proportions returned with unexpected diff (-want+got);\n%s", diff)
	}
	wantObj := 2*report.Proportions[0].Fraction + 3*report.Proportions[1].Fraction
	if math.Abs(report.ObjectiveValue-wantObj) > 1e-12 {
		t.Errorf("Interpret() objective = %v, want %v", report.ObjectiveValue, wantObj)
	}
}

func TestInterpret_EndToEnd(t *testing.T) {
	components, nutrients, content := twoCereals()
	p := mustBuild(t, components, nutrients, content)
	sol := mustSolve(t, p)

	report, err := Interpret(sol, p.Components(), testTol)
	if err != nil {
		t.Fatalf("Interpret() returned with unexpected error %v", err)
	}
	want := &Report{
		ObjectiveValue: 7.0 / 3,
		Proportions:    []Proportion{{"Cereal 1", 2.0 / 3}, {"Cereal 2", 1.0 / 3}},
	}
	if diff := cmp.Diff(want, report, cmpopts.EquateApprox(0, testTol)); diff != "" {
		t.Errorf("Interpret() returned with unexpected diff (-want+got);\n%s", diff)
	}
	if got := p.ObjectiveValue(report.Fractions()); math.Abs(got-report.ObjectiveValue) > testTol {
		t.Errorf("cost of the reported blend = %v, want %v", got, report.ObjectiveValue)
	}

	f, ok := report.Fraction("Cereal 2")
	if !ok || math.Abs(f-1.0/3) > testTol {
		t.Errorf("Fraction(Cereal 2) = (%v, %v), want (%v, true)", f, ok, 1.0/3)
	}
	if _, ok := report.Fraction("Cereal 3"); ok {
		t.Error("Fraction(Cereal 3) ok = true, want false")
	}
}

func TestInterpret_InfeasibleEndToEnd(t *testing.T) {
	components := []Component{{Name: "a", Cost: 2}, {Name: "b", Cost: 3}}
	nutrients := []Nutrient{{Name: "n", Bounds: NewInterval(0.9, 1.0)}}
	p := mustBuild(t, components, nutrients, [][]float64{{0.5, 0.8}})
	sol := mustSolve(t, p)

	_, err := Interpret(sol, components, testTol)
	if !errors.Is(err, ErrInfeasible) {
		t.Errorf("Interpret() err = %v, want %v", err, ErrInfeasible)
	}
}

func TestReport_Format(t *testing.T) {
	report := &Report{
		ObjectiveValue: 7.0 / 3,
		Proportions:    []Proportion{{"Cereal 1", 2.0 / 3}, {"Cereal 2", 1.0 / 3}},
	}
	testCases := []struct {
		name string
		opts FormatOptions
		want string
	}{
		{
			name: "default",
			opts: DefaultFormatOptions(),
			want: "Optimal cost: 2.333 CLP/kg\nProportions:\n  Cereal 1: 0.667\n  Cereal 2: 0.333\n",
		},
		{
			name: "percent",
			opts: FormatOptions{Precision: 2, Percent: true, Unit: "CLP/kg"},
			want: "Optimal cost: 2.33 CLP/kg\nProportions:\n  Cereal 1: 66.67%\n  Cereal 2: 33.33%\n",
		},
	}
	for _, test := range testCases {
		var b strings.Builder
		if err := report.Format(&b, test.opts); err != nil {
			t.Fatalf("%s: Format() returned with unexpected error %v", test.name, err)
		}
		if diff := cmp.Diff(test.want, b.String()); diff != "" {
			t.Errorf("%s: Format() returned with unexpected diff (-want+got);\n%s", test.name, diff)
		}
	}
	if report.Proportions[0].Fraction != 2.0/3 {
		t.Errorf("Format() changed the stored fraction to %v", report.Proportions[0].Fraction)
	}
}

func TestReport_Proto(t *testing.T) {
	report := &Report{
		ObjectiveValue: 2.5,
		Proportions:    []Proportion{{"a", 0.5}, {"b", 0.5}},
	}
	got, err := report.Proto()
	if err != nil {
		t.Fatalf("Proto() returned with unexpected error %v", err)
	}
	want, err := structpb.NewStruct(map[string]any{
		"objective_value": 2.5,
		"proportion": []any{
			map[string]any{"component": "a", "fraction": 0.5},
			map[string]any{"component": "b", "fraction": 0.5},
		},
	})
	if err != nil {
		t.Fatalf("structpb.NewStruct() returned with unexpected error %v", err)
	}
	if diff := cmp.Diff(want, got, protocmp.Transform()); diff != "" {
		t.Errorf("Proto() returned with unexpected diff (-want+got);\n%s", diff)
	}
}

func TestFailure_Error(t *testing.T) {
	f := &Failure{Reason: ReasonInfeasible, Status: StatusInfeasible, Detail: "lp: problem is infeasible"}
	if got, want := f.Error(), "no feasible blend (status INFEASIBLE): lp: problem is infeasible"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	f = &Failure{Reason: ReasonUnbounded, Status: StatusUnbounded}
	if got, want := f.Error(), "blend cost is unbounded (status UNBOUNDED)"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
