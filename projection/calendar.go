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

// Package projection bins bond cash events into annual periods and
// aggregates them across a portfolio.
package projection

import (
	"time"

	"github.com/bond-vault/bv-api/curve"
)

// Calendar is the period grid of a projection run: boundary dates
// d(0) < d(1) < ... < d(N) where d(0) is the valuation date and each
// boundary lies one year after the previous. The grid defines N
// half-open periods [d(t), d(t+1)). Every bond in a run bins against
// the same calendar, so period vectors always align for summation.
type Calendar struct {
	boundaries []time.Time
	end        time.Time
}

// NewCalendar derives the period grid from the valuation and end dates.
// N is the smallest count with Boundary(N) on or after the end date,
// found by walking forward one year at a time; stepping from the
// previous boundary keeps the count and the dates consistent when a
// year step clamps at a month end. An end date on or before the
// valuation date yields an empty calendar with N=0.
func NewCalendar(valuation, end time.Time) *Calendar {
	boundaries := []time.Time{valuation}
	for boundaries[len(boundaries)-1].Before(end) {
		boundaries = append(boundaries, curve.AddMonths(boundaries[len(boundaries)-1], 12))
	}
	return &Calendar{
		boundaries: boundaries,
		end:        end,
	}
}

// Steps returns N, the number of periods.
func (c *Calendar) Steps() int {
	return len(c.boundaries) - 1
}

// Boundary returns d(t) for t in [0, Steps()].
func (c *Calendar) Boundary(t int) time.Time {
	return c.boundaries[t]
}

// Boundaries returns all N+1 boundary dates in ascending order.
func (c *Calendar) Boundaries() []time.Time {
	return c.boundaries
}

// Starts returns the start date of each period, d(0) through d(N-1).
// It is the natural row index for period-level reporting.
func (c *Calendar) Starts() []time.Time {
	return c.boundaries[:len(c.boundaries)-1]
}

// Valuation returns d(0).
func (c *Calendar) Valuation() time.Time {
	return c.boundaries[0]
}

// End returns the configured projection end date. It is on or before
// the final boundary, never after it.
func (c *Calendar) End() time.Time {
	return c.end
}
