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

package curve

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TenorUnit is the calendar unit of a Tenor.
type TenorUnit int

const (
	UnitDays TenorUnit = iota
	UnitWeeks
	UnitMonths
	UnitYears
)

// Tenor is a whole-unit duration label like "1M", "2Y" or "10D". Curve
// pillars and bond coupon periods are both expressed as tenors.
type Tenor struct {
	Count int
	Unit  TenorUnit
}

// ParseTenor parses strings of the form "<count><unit>" where unit is one of
// D, W, M or Y (case-insensitive, surrounding whitespace ignored).
func ParseTenor(s string) (Tenor, error) {
	cleaned := strings.TrimSpace(strings.ToUpper(s))
	if len(cleaned) < 2 {
		return Tenor{}, fmt.Errorf("%w: %q", ErrBadTenor, s)
	}

	var unit TenorUnit
	switch cleaned[len(cleaned)-1] {
	case 'D':
		unit = UnitDays
	case 'W':
		unit = UnitWeeks
	case 'M':
		unit = UnitMonths
	case 'Y':
		unit = UnitYears
	default:
		return Tenor{}, fmt.Errorf("%w: %q", ErrBadTenor, s)
	}

	count, err := strconv.Atoi(cleaned[:len(cleaned)-1])
	if err != nil {
		return Tenor{}, fmt.Errorf("%w: %q", ErrBadTenor, s)
	}
	if count <= 0 {
		return Tenor{}, fmt.Errorf("%w: %q (count must be positive)", ErrBadTenor, s)
	}

	return Tenor{Count: count, Unit: unit}, nil
}

func (t Tenor) String() string {
	switch t.Unit {
	case UnitDays:
		return fmt.Sprintf("%dD", t.Count)
	case UnitWeeks:
		return fmt.Sprintf("%dW", t.Count)
	case UnitMonths:
		return fmt.Sprintf("%dM", t.Count)
	case UnitYears:
		return fmt.Sprintf("%dY", t.Count)
	}
	return fmt.Sprintf("%d?", t.Count)
}

// Months returns the tenor length in whole months. Day and week tenors have
// no whole-month representation and report false.
func (t Tenor) Months() (int, bool) {
	switch t.Unit {
	case UnitMonths:
		return t.Count, true
	case UnitYears:
		return t.Count * 12, true
	}
	return 0, false
}

// Add advances d by the tenor. Month and year steps clamp to the end of the
// target month the way spreadsheet EDATE does, so month-end dates stay at
// month end instead of spilling into the following month.
func (t Tenor) Add(d time.Time) time.Time {
	switch t.Unit {
	case UnitDays:
		return d.AddDate(0, 0, t.Count)
	case UnitWeeks:
		return d.AddDate(0, 0, 7*t.Count)
	case UnitMonths:
		return AddMonths(d, t.Count)
	case UnitYears:
		return AddMonths(d, 12*t.Count)
	}
	return d
}

// AddMonths shifts d by the given number of months (negative to go back),
// clamping to the last day of the target month when the source day does not
// exist there (e.g. Jan 31 + 1M = Feb 28).
func AddMonths(d time.Time, months int) time.Time {
	shifted := d.AddDate(0, months, 0)
	if shifted.Day() == d.Day() {
		return shifted
	}

	// Go normalized the date into the following month; walk back to the
	// final day of the intended month.
	month := shifted.Month()
	for shifted.Month() == month {
		shifted = shifted.AddDate(0, 0, -1)
	}
	return shifted
}
