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

package feedcron

import (
	"sync"
	"time"
)

var (
	holidayCache  = make(map[int]map[int64]bool)
	holidayLocker sync.RWMutex
)

// observed shifts a holiday that lands on a weekend to the weekday it is
// observed on, Saturday observes on the preceding Friday and Sunday on the
// following Monday.
func observed(t time.Time) time.Time {
	switch t.Weekday() {
	case time.Saturday:
		return t.AddDate(0, 0, -1)
	case time.Sunday:
		return t.AddDate(0, 0, 1)
	default:
		return t
	}
}

// nthWeekday returns the n'th weekday of the month, e.g. the third Monday
// of January.
func nthWeekday(year int, month time.Month, weekday time.Weekday, n int, tz *time.Location) time.Time {
	t := time.Date(year, month, 1, 0, 0, 0, 0, tz)
	offset := (int(weekday) - int(t.Weekday()) + 7) % 7
	return t.AddDate(0, 0, offset+7*(n-1))
}

// lastWeekday returns the final weekday of the month, e.g. the last Monday
// of May.
func lastWeekday(year int, month time.Month, weekday time.Weekday, tz *time.Location) time.Time {
	t := time.Date(year, month+1, 1, 0, 0, 0, 0, tz).AddDate(0, 0, -1)
	offset := (int(t.Weekday()) - int(weekday) + 7) % 7
	return t.AddDate(0, 0, -offset)
}

// holidaysForYear computes the observed federal holidays that fall within
// the year. The zero curve feed follows the federal calendar, not the
// exchange calendar, so Columbus Day and Veterans Day close the feed even
// though equity markets trade.
func holidaysForYear(year int, tz *time.Location) []time.Time {
	days := []time.Time{
		nthWeekday(year, time.January, time.Monday, 3, tz),
		nthWeekday(year, time.February, time.Monday, 3, tz),
		lastWeekday(year, time.May, time.Monday, tz),
		observed(time.Date(year, time.July, 4, 0, 0, 0, 0, tz)),
		nthWeekday(year, time.September, time.Monday, 1, tz),
		nthWeekday(year, time.October, time.Monday, 2, tz),
		observed(time.Date(year, time.November, 11, 0, 0, 0, 0, tz)),
		nthWeekday(year, time.November, time.Thursday, 4, tz),
		observed(time.Date(year, time.December, 25, 0, 0, 0, 0, tz)),
	}

	// Juneteenth became a federal holiday in 2021
	if year >= 2021 {
		days = append(days, observed(time.Date(year, time.June, 19, 0, 0, 0, 0, tz)))
	}

	// a New Year's observance can cross the year boundary in either
	// direction: Jan 1 on a Saturday observes the prior Dec 31
	for _, y := range []int{year, year + 1} {
		newYears := observed(time.Date(y, time.January, 1, 0, 0, 0, 0, tz))
		if newYears.Year() == year {
			days = append(days, newYears)
		}
	}

	return days
}

// holidaySet returns the year's holidays keyed by midnight unix time,
// computing and caching them on first use.
func holidaySet(year int, tz *time.Location) map[int64]bool {
	holidayLocker.RLock()
	set, ok := holidayCache[year]
	holidayLocker.RUnlock()
	if ok {
		return set
	}

	set = make(map[int64]bool)
	for _, day := range holidaysForYear(year, tz) {
		set[day.Unix()] = true
	}

	holidayLocker.Lock()
	holidayCache[year] = set
	holidayLocker.Unlock()

	return set
}
