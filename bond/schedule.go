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
	"fmt"
	"time"

	"github.com/bond-vault/bv-api/curve"
)

// Schedule holds the coupon period boundaries of a bond in ascending
// order. The first date is the issue date and the last is maturity.
// Dates are unadjusted; business-day conventions apply to settlement,
// not to accrual periods.
type Schedule struct {
	dates []time.Time
}

// BuildSchedule generates period boundaries backward from the maturity
// date in steps of the coupon tenor. Each boundary is measured from
// maturity rather than from its neighbor, so month-end clamping cannot
// drift across periods. When the roll does not land exactly on the issue
// date, the first period becomes a short front stub.
func BuildSchedule(rec *Record) (*Schedule, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	months, err := couponMonths(rec.Tenor)
	if err != nil {
		return nil, err
	}

	var dates []time.Time
	for k := 0; ; k++ {
		d := curve.AddMonths(rec.MaturityDate, -k*months)
		if !d.After(rec.IssueDate) {
			break
		}
		dates = append([]time.Time{d}, dates...)
	}
	dates = append([]time.Time{rec.IssueDate}, dates...)

	return &Schedule{dates: dates}, nil
}

// couponMonths converts a coupon tenor such as "6M" or "1Y" to a whole
// number of months.
func couponMonths(tenor string) (int, error) {
	tn, err := curve.ParseTenor(tenor)
	if err != nil {
		return 0, err
	}
	months, ok := tn.Months()
	if !ok {
		return 0, fmt.Errorf("%w: coupon tenor %q is not a whole number of months", curve.ErrBadTenor, tenor)
	}
	return months, nil
}

// Dates returns the period boundaries in ascending order.
func (s *Schedule) Dates() []time.Time {
	return s.dates
}

// Count returns the number of boundary dates.
func (s *Schedule) Count() int {
	return len(s.dates)
}

// Periods returns the number of accrual periods.
func (s *Schedule) Periods() int {
	if len(s.dates) == 0 {
		return 0
	}
	return len(s.dates) - 1
}

// Start returns the accrual start of period i.
func (s *Schedule) Start(i int) time.Time {
	return s.dates[i]
}

// End returns the accrual end of period i, which is also its payment
// date.
func (s *Schedule) End(i int) time.Time {
	return s.dates[i+1]
}
