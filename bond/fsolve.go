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

package bond

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrDidNotConverge = errors.New("did not converge")
	ErrNoBracket      = errors.New("root not bracketed")
)

type objectiveFunc func(float64) float64

// fsolve finds a root of f inside [lo, hi] with a combination of
// bisection and false position. Unlike Newton's method it always keeps a
// bounding interval, so it cannot diverge. The false position steps are
// modified with the Anderson-Bjorck method where appropriate, which
// converges faster than plain bisection.
func fsolve(f objectiveFunc, lo, hi float64) (float64, error) {
	const (
		maxIterations = 500
		bisectIter    = 4
		bisectWidth   = 1.0
		tol           = 1e-12
	)

	const (
		bisect = iota + 1
		falseP
	)

	x1 := lo
	x2 := hi
	f1 := f(x1)
	f2 := f(x2)

	if f1 == 0 {
		return x1, nil
	}
	if f2 == 0 {
		return x2, nil
	}
	if f1*f2 > 0 {
		return 0, fmt.Errorf("%w: f(%f)=%f and f(%f)=%f have the same sign", ErrNoBracket, x1, f1, x2, f2)
	}

	var state uint8 = falseP
	gamma := 1.0

	w := math.Abs(x2 - x1)
	lastBisectWidth := w

	var nFalseP int
	var x3, f3 float64
	for i := 0; i < maxIterations; i++ {
		switch state {
		case bisect:
			x3 = 0.5 * (x1 + x2)
			if x3 == x1 || x3 == x2 {
				// x1 and x2 are successive floating-point numbers
				return x3, nil
			}

			f3 = f(x3)
			if f3 == 0 {
				return x3, nil
			}

			if f3*f2 < 0 {
				x1 = x2
				f1 = f2
			}
			x2 = x3
			f2 = f3
			w = math.Abs(x2 - x1)
			lastBisectWidth = w
			gamma = 1.0
			nFalseP = 0
			state = falseP
		case falseP:
			s12 := (f2 - gamma*f1) / (x2 - x1)
			x3 = x2 - f2/s12
			f3 = f(x3)
			if f3 == 0 {
				return x3, nil
			}

			nFalseP++
			if f3*f2 < 0 {
				gamma = 1.0
				x1 = x2
				f1 = f2
			} else {
				// Anderson-Bjorck modification
				g := 1.0 - f3/f2
				if g <= 0 {
					g = 0.5
				}
				gamma *= g
			}
			x2 = x3
			f2 = f3
			w = math.Abs(x2 - x1)

			// Every few false position steps, check the interval really is
			// shrinking at least as fast as bisection would; fall back to a
			// bisection step when it is not. This keeps convergence
			// guaranteed even when the false position stalls on one side.
			if nFalseP > bisectIter {
				if w*bisectWidth > lastBisectWidth {
					state = bisect
				}
				nFalseP = 0
				lastBisectWidth = w
			}
		}

		if w <= tol {
			if math.Abs(f1) < math.Abs(f2) {
				return x1, nil
			}
			return x2, nil
		}
	}

	return 0.5 * (x1 + x2), ErrDidNotConverge
}
