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

// Package curve builds annually-compounded zero curves from quoted tenor
// points and prices discount factors off them. A curve is anchored at an
// explicit valuation date passed by the caller; there is no process-global
// evaluation date.
package curve

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/bond-vault/bv-api/daycount"
)

var (
	ErrBadTenor    = errors.New("could not parse tenor")
	ErrNoPoints    = errors.New("zero curve requires at least one point")
	ErrPillarOrder = errors.New("curve pillar dates must be strictly increasing")
)

// Point is one quoted zero rate, e.g. {"10Y", 0.0194}. Rates are fractions,
// compounded annually.
type Point struct {
	Tenor string  `json:"duration"`
	Rate  float64 `json:"rate"`
}

// ZeroCurve interpolates annually-compounded zero rates linearly in ACT/360
// time. Pillar dates are the valuation date advanced by each quoted tenor;
// a zero rate of 0.0 is pinned at the valuation date itself ahead of the
// quoted pillars, matching the source data layout this model was built
// against. Queries beyond the final pillar extrapolate flat.
type ZeroCurve struct {
	valuation time.Time
	dates     []time.Time
	times     []float64
	rates     []float64
}

// NewZeroCurve builds a curve from quoted points as of the valuation date.
// Points may arrive in any order; they are sorted by pillar date. Two points
// resolving to the same pillar date are rejected.
func NewZeroCurve(points []Point, valuation time.Time) (*ZeroCurve, error) {
	if len(points) == 0 {
		return nil, ErrNoPoints
	}

	type pillar struct {
		date time.Time
		rate float64
	}

	pillars := make([]pillar, 0, len(points))
	for _, pt := range points {
		tenor, err := ParseTenor(pt.Tenor)
		if err != nil {
			return nil, err
		}
		pillars = append(pillars, pillar{date: tenor.Add(valuation), rate: pt.Rate})
	}

	sort.Slice(pillars, func(i, j int) bool {
		return pillars[i].date.Before(pillars[j].date)
	})

	zc := &ZeroCurve{
		valuation: valuation,
		dates:     make([]time.Time, 0, len(pillars)+1),
		times:     make([]float64, 0, len(pillars)+1),
		rates:     make([]float64, 0, len(pillars)+1),
	}

	// anchor the valuation date at a zero rate
	zc.dates = append(zc.dates, valuation)
	zc.times = append(zc.times, 0)
	zc.rates = append(zc.rates, 0)

	for _, p := range pillars {
		last := zc.dates[len(zc.dates)-1]
		if !p.date.After(last) {
			return nil, fmt.Errorf("%w: %s repeats or precedes %s", ErrPillarOrder, p.date.Format("2006-01-02"), last.Format("2006-01-02"))
		}
		zc.dates = append(zc.dates, p.date)
		zc.times = append(zc.times, daycount.YearFrac(valuation, p.date, daycount.Actual360))
		zc.rates = append(zc.rates, p.rate)
	}

	return zc, nil
}

// Valuation returns the curve's anchor date.
func (zc *ZeroCurve) Valuation() time.Time {
	return zc.valuation
}

// MaxDate returns the final pillar date. Discount queries past it use the
// final pillar's rate.
func (zc *ZeroCurve) MaxDate() time.Time {
	return zc.dates[len(zc.dates)-1]
}

// ZeroRate returns the annually-compounded zero rate for date d. Dates on or
// before the valuation date return the anchor rate.
func (zc *ZeroCurve) ZeroRate(d time.Time) float64 {
	return zc.rateAt(zc.yearFrac(d))
}

// DiscountFactor returns the discount factor from d back to the valuation
// date: (1+z)^(-t) with t in ACT/360 years. Dates on or before the
// valuation date discount to 1.
func (zc *ZeroCurve) DiscountFactor(d time.Time) float64 {
	return zc.SpreadedDiscountFactor(d, 0)
}

// SpreadedDiscountFactor discounts with a constant spread added to the zero
// rate at every maturity, the standard z-spread construction over a base
// curve.
func (zc *ZeroCurve) SpreadedDiscountFactor(d time.Time, spread float64) float64 {
	t := zc.yearFrac(d)
	if t <= 0 {
		return 1
	}
	return math.Pow(1+zc.rateAt(t)+spread, -t)
}

// Forward returns the annually-compounded forward rate between two dates
// implied by the curve's discount factors.
func (zc *ZeroCurve) Forward(d1, d2 time.Time) float64 {
	t1 := zc.yearFrac(d1)
	t2 := zc.yearFrac(d2)
	if t2 <= t1 {
		return 0
	}
	ratio := zc.SpreadedDiscountFactor(d1, 0) / zc.SpreadedDiscountFactor(d2, 0)
	return math.Pow(ratio, 1/(t2-t1)) - 1
}

func (zc *ZeroCurve) yearFrac(d time.Time) float64 {
	return daycount.YearFrac(zc.valuation, d, daycount.Actual360)
}

// rateAt linearly interpolates the zero rate at time t, bracketing the pillar
// times the same way the bootstrap reference code does: binary search for the
// first pillar at or past t, interpolate against its predecessor, and hold
// flat beyond either end.
func (zc *ZeroCurve) rateAt(t float64) float64 {
	n := len(zc.times)
	i := sort.Search(n, func(i int) bool {
		return zc.times[i] >= t
	})

	switch {
	case i == 0:
		return zc.rates[0]
	case i == n:
		return zc.rates[n-1]
	}

	t0, t1 := zc.times[i-1], zc.times[i]
	r0, r1 := zc.rates[i-1], zc.rates[i]
	w := (t - t0) / (t1 - t0)
	return r0 + w*(r1-r0)
}
