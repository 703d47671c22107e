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
	"errors"
	"fmt"

	"github.com/bond-vault/bv-api/bond"
)

var (
	ErrOutOfOrder = errors.New("cash events out of order")
)

// Bin spreads a bond's cash events across the calendar periods and
// returns one amount per period. Events bin into the unique period
// [d(t), d(t+1)) containing their date. Events dated before d(0) fall
// into no bucket, and events on or after d(N) are excluded; both
// policies are fixed, as spread validation depends on period totals
// matching the priced cashflow stream exactly.
//
// The sweep walks both sequences with a single forward pass, so the
// cost is O(len(events) + Steps). The event sequence must be
// non-decreasing in date; a violation fails the whole call.
func Bin(cal *Calendar, events []bond.Cashflow) ([]float64, error) {
	result := make([]float64, cal.Steps())

	i := 0
	for t := 0; t < cal.Steps(); t++ {
		for i < len(events) {
			if i > 0 && events[i].Date.Before(events[i-1].Date) {
				return nil, fmt.Errorf("%w: event %d (%s) dated before event %d (%s)",
					ErrOutOfOrder, i, events[i].Date.Format("2006-01-02"),
					i-1, events[i-1].Date.Format("2006-01-02"))
			}

			if !events[i].Date.Before(cal.Boundary(t)) && events[i].Date.Before(cal.Boundary(t+1)) {
				result[t] += events[i].Amount
			} else if !events[i].Date.Before(cal.Boundary(t+1)) {
				// leave the event for a later period
				break
			}

			i++
		}
	}

	return result, nil
}
