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
	"time"

	"github.com/bond-vault/bv-api/dataframe"
)

// TotalColumn names the portfolio aggregate column appended to period
// frames.
const TotalColumn = "TOTAL"

// CashflowFrame tabulates the binned cashflows of every bond, one
// column per bond identifier plus a TOTAL column, indexed by period
// start date.
func (m *Model) CashflowFrame() (*dataframe.DataFrame[time.Time], error) {
	return m.periodFrame(m.Cashflows)
}

// RedemptionFrame tabulates the binned principal repayments of every
// bond, one column per bond identifier plus a TOTAL column, indexed by
// period start date.
func (m *Model) RedemptionFrame() (*dataframe.DataFrame[time.Time], error) {
	return m.periodFrame(m.Redemptions)
}

func (m *Model) periodFrame(vector func(string) ([]float64, error)) (*dataframe.DataFrame[time.Time], error) {
	vals := make([][]float64, 0, len(m.ids)+1)
	for _, bondID := range m.ids {
		v, err := vector(bondID)
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
	}

	df := &dataframe.DataFrame[time.Time]{
		Index:    m.calendar.Starts(),
		ColNames: append([]string{}, m.ids...),
		Vals:     vals,
	}
	df.Insert(TotalColumn, Aggregate(m.calendar, vals))
	return df, nil
}

// MarketValueFrame tabulates the clean price and market value of every
// bond, indexed by bond identifier.
func (m *Model) MarketValueFrame() (*dataframe.DataFrame[string], error) {
	cleans := make([]float64, 0, len(m.ids))
	values := make([]float64, 0, len(m.ids))

	for _, bondID := range m.ids {
		b, err := m.Bond(bondID)
		if err != nil {
			return nil, err
		}
		spread := m.records[bondID].ZSpread
		cleans = append(cleans, b.CleanPrice(m.curve, spread))
		values = append(values, b.MarketValue(m.curve, spread))
	}

	return &dataframe.DataFrame[string]{
		Index:    append([]string{}, m.ids...),
		ColNames: []string{"clean_price", "market_value"},
		Vals:     [][]float64{cleans, values},
	}, nil
}

// SpreadFrame reprices every bond and tabulates the quoted spread, the
// implied spread recovered from the model price and their difference,
// indexed by bond identifier. Differences should sit at numerical noise
// level; anything larger flags inconsistent input data.
func (m *Model) SpreadFrame() (*dataframe.DataFrame[string], error) {
	quoted := make([]float64, 0, len(m.ids))
	implied := make([]float64, 0, len(m.ids))
	diff := make([]float64, 0, len(m.ids))

	for _, bondID := range m.ids {
		s, err := m.ImpliedSpread(bondID)
		if err != nil {
			return nil, err
		}
		z := m.records[bondID].ZSpread
		quoted = append(quoted, z)
		implied = append(implied, s)
		diff = append(diff, s-z)
	}

	return &dataframe.DataFrame[string]{
		Index:    append([]string{}, m.ids...),
		ColNames: []string{"quoted", "implied", "difference"},
		Vals:     [][]float64{quoted, implied, diff},
	}, nil
}
