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
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the solver collectors.
type Metrics struct {
	solves   *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewMetrics creates the solver collectors and registers them on `reg`.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		solves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blend_solves_total",
			Help: "Number of blend problems solved, by solver status.",
		}, []string{"status"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "blend_solve_duration_seconds",
			Help:    "Wall time of blend solves.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
	}
	reg.MustRegister(m.solves, m.duration)
	return m
}

type instrumentedSolver struct {
	next    Solver
	metrics *Metrics
}

// InstrumentSolver returns a Solver that records the status and wall time of every solve of `s`.
func InstrumentSolver(s Solver, m *Metrics) Solver {
	return &instrumentedSolver{next: s, metrics: m}
}

func (s *instrumentedSolver) Solve(p *Problem, params Parameters) (*Solution, error) {
	sol, err := s.next.Solve(p, params)
	if err != nil {
		return nil, err
	}
	s.metrics.solves.WithLabelValues(sol.Status.String()).Inc()
	s.metrics.duration.Observe(sol.WallTime.Seconds())
	return sol, nil
}
