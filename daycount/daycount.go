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

// Package daycount implements the day count conventions used to convert a
// pair of dates into a year fraction. Coupon accrual and zero-curve time
// measurement both go through these conventions, so they must agree with the
// market definitions exactly: ACT/360 divides the actual day count by 360,
// ACT/365F by 365, and the 30/360 family counts every month as 30 days.
package daycount

import "time"

// Convention selects a day count rule for YearFrac.
type Convention int

const (
	// Actual360 counts actual days over a 360 day year. Money-market basis.
	Actual360 Convention = iota

	// Actual365Fixed counts actual days over a 365 day year.
	Actual365Fixed

	// Thirty360US is the US (NASD) 30/360 convention. Day-of-month values
	// of 31 are rolled back to 30, the end date only when the start date
	// is already on or past the 30th.
	Thirty360US

	// ThirtyE360 is the Eurobond 30E/360 convention where both dates are
	// capped at 30 unconditionally.
	ThirtyE360
)

func (c Convention) String() string {
	switch c {
	case Actual360:
		return "ACT/360"
	case Actual365Fixed:
		return "ACT/365F"
	case Thirty360US:
		return "30/360"
	case ThirtyE360:
		return "30E/360"
	}
	return "UNKNOWN"
}

// Days returns the actual number of whole days from start to end.
func Days(start, end time.Time) int {
	return int(end.Sub(start).Hours() / 24)
}

// YearFrac returns the year fraction from start to end under the convention.
// A negative fraction is returned when end precedes start.
func YearFrac(start, end time.Time, c Convention) float64 {
	switch c {
	case Actual360:
		return float64(Days(start, end)) / 360.0
	case Actual365Fixed:
		return float64(Days(start, end)) / 365.0
	case Thirty360US:
		d1 := start.Day()
		d2 := end.Day()
		if d1 == 31 {
			d1 = 30
		}
		if d2 == 31 && d1 >= 30 {
			d2 = 30
		}
		return thirty360(start, end, d1, d2)
	case ThirtyE360:
		d1 := start.Day()
		d2 := end.Day()
		if d1 > 30 {
			d1 = 30
		}
		if d2 > 30 {
			d2 = 30
		}
		return thirty360(start, end, d1, d2)
	}
	return float64(Days(start, end)) / 365.0
}

func thirty360(start, end time.Time, d1, d2 int) float64 {
	y1, m1 := start.Year(), int(start.Month())
	y2, m2 := end.Year(), int(end.Month())
	return float64(360*(y2-y1)+30*(m2-m1)+(d2-d1)) / 360.0
}
