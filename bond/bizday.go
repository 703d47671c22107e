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

import "time"

// IsBusinessDay reports whether d is a settlement day in the US bond
// market: a weekday that is not a federal settlement holiday.
func IsBusinessDay(d time.Time) bool {
	switch d.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !isSettlementHoliday(d)
}

// isSettlementHoliday matches the US settlement holiday schedule.
// Fixed-date holidays shift to Friday when they fall on Saturday and to
// Monday when they fall on Sunday.
func isSettlementHoliday(t time.Time) bool {
	d := t.Day()
	m := t.Month()
	w := t.Weekday()

	switch {
	// New Year's Day
	case m == time.January && (d == 1 || (d == 2 && w == time.Monday)):
		return true
	case m == time.December && d == 31 && w == time.Friday:
		return true
	// Martin Luther King Jr. Day, third Monday of January
	case m == time.January && d >= 15 && d <= 21 && w == time.Monday:
		return true
	// Washington's Birthday, third Monday of February
	case m == time.February && d >= 15 && d <= 21 && w == time.Monday:
		return true
	// Memorial Day, last Monday of May
	case m == time.May && d >= 25 && w == time.Monday:
		return true
	// Juneteenth, first observed in 2022
	case m == time.June && t.Year() >= 2022 && (d == 19 || (d == 20 && w == time.Monday) || (d == 18 && w == time.Friday)):
		return true
	// Independence Day
	case m == time.July && (d == 4 || (d == 5 && w == time.Monday) || (d == 3 && w == time.Friday)):
		return true
	// Labor Day, first Monday of September
	case m == time.September && d <= 7 && w == time.Monday:
		return true
	// Columbus Day, second Monday of October
	case m == time.October && d >= 8 && d <= 14 && w == time.Monday:
		return true
	// Veterans Day
	case m == time.November && (d == 11 || (d == 12 && w == time.Monday) || (d == 10 && w == time.Friday)):
		return true
	// Thanksgiving, fourth Thursday of November
	case m == time.November && d >= 22 && d <= 28 && w == time.Thursday:
		return true
	// Christmas
	case m == time.December && (d == 25 || (d == 26 && w == time.Monday) || (d == 24 && w == time.Friday)):
		return true
	}
	return false
}

// NextBusinessDay returns d when it is already a business day, otherwise
// the first business day after it.
func NextBusinessDay(d time.Time) time.Time {
	for !IsBusinessDay(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// AddBusinessDays advances n business days from d; n may be negative.
func AddBusinessDays(d time.Time, n int) time.Time {
	step := 1
	if n < 0 {
		step = -1
	}
	for n != 0 {
		d = d.AddDate(0, 0, step)
		if IsBusinessDay(d) {
			n -= step
		}
	}
	return d
}

// SettlementDate returns the date a trade struck on the valuation date
// settles. A lag of zero rolls a non-business valuation date forward to
// the next business day.
func SettlementDate(valuation time.Time, settlementDays int) time.Time {
	if settlementDays == 0 {
		return NextBusinessDay(valuation)
	}
	return AddBusinessDays(valuation, settlementDays)
}
