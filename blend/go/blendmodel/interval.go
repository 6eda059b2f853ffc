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
	"math"
)

// Interval stores the closed interval `[Lower,Upper]` of allowed nutrient levels. If `Lower` is
// greater than `Upper`, the interval is considered empty and is rejected by Build.
type Interval struct {
	Lower float64
	Upper float64
}

// NewInterval creates a new interval `[lower,upper]`.
func NewInterval(lower, upper float64) Interval {
	return Interval{Lower: lower, Upper: upper}
}

// IsEmpty returns true if no value lies in the interval.
func (iv Interval) IsEmpty() bool {
	return iv.Lower > iv.Upper
}

// IsFinite returns true if both ends of the interval are finite numbers.
func (iv Interval) IsFinite() bool {
	return isFinite(iv.Lower) && isFinite(iv.Upper)
}

// Contains returns true if `v` lies in the interval widened by `tol` on both sides.
func (iv Interval) Contains(v, tol float64) bool {
	return v >= iv.Lower-tol && v <= iv.Upper+tol
}

// String returns the interval as `[lower,upper]`.
func (iv Interval) String() string {
	return fmt.Sprintf("[%g,%g]", iv.Lower, iv.Upper)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
