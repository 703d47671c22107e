// Copyright 2022
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package projection

import (
	"gonum.org/v1/gonum/floats"
)

// Aggregate element-wise sums a set of period vectors that share the
// calendar's length. No vectors at all yields a vector of zeros.
func Aggregate(cal *Calendar, vectors [][]float64) []float64 {
	total := make([]float64, cal.Steps())
	for _, v := range vectors {
		floats.Add(total, v)
	}
	return total
}
