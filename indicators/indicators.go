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

// Package indicators computes summary statistics over binned projection
// vectors. Amounts binned to a period are treated as falling at the
// period midpoint.
package indicators

import (
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/bond-vault/bv-api/curve"
	"github.com/bond-vault/bv-api/daycount"
	"github.com/bond-vault/bv-api/projection"
)

var (
	ErrLengthMismatch = errors.New("vector length does not match calendar")
	ErrNoCashflows    = errors.New("no cashflows in projection window")
)

// WeightedAverageLife returns the amount-weighted mean time, in ACT/365F
// years from the valuation date, of the vector's cash. Feed it a
// redemption vector for the conventional WAL of the portfolio's
// principal.
func WeightedAverageLife(cal *projection.Calendar, amounts []float64) (float64, error) {
	if len(amounts) != cal.Steps() {
		return 0, fmt.Errorf("%w: got %d periods, calendar has %d", ErrLengthMismatch, len(amounts), cal.Steps())
	}

	if floats.Sum(amounts) == 0 {
		return 0, ErrNoCashflows
	}

	times := make([]float64, len(amounts))
	for t, mid := range midpoints(cal) {
		times[t] = daycount.YearFrac(cal.Valuation(), mid, daycount.Actual365Fixed)
	}

	return stat.Mean(times, amounts), nil
}

// MacaulayDuration returns the present-value weighted mean time of the
// vector's cash, discounted on zc at the given z-spread. Times are
// ACT/360 years so they share a basis with the curve's discount factors.
func MacaulayDuration(cal *projection.Calendar, amounts []float64, zc *curve.ZeroCurve, spread float64) (float64, error) {
	if len(amounts) != cal.Steps() {
		return 0, fmt.Errorf("%w: got %d periods, calendar has %d", ErrLengthMismatch, len(amounts), cal.Steps())
	}

	times := make([]float64, len(amounts))
	pvs := make([]float64, len(amounts))
	for t, mid := range midpoints(cal) {
		times[t] = daycount.YearFrac(zc.Valuation(), mid, daycount.Actual360)
		pvs[t] = amounts[t] * zc.SpreadedDiscountFactor(mid, spread)
	}

	if floats.Sum(pvs) == 0 {
		return 0, ErrNoCashflows
	}

	return stat.Mean(times, pvs), nil
}

func midpoints(cal *projection.Calendar) []time.Time {
	mids := make([]time.Time, cal.Steps())
	for t := 0; t < cal.Steps(); t++ {
		start := cal.Boundary(t)
		end := cal.Boundary(t + 1)
		mids[t] = start.Add(end.Sub(start) / 2)
	}
	return mids
}
