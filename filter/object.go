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

package filter

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/bond-vault/bv-api/data"
	"github.com/goccy/go-json"
)

// FilterObject answers run queries from a cached projection run without
// touching the database.
type FilterObject struct {
	Run *data.ProjectionRun
}

func getValue(run *data.ProjectionRun, t int, field string) float64 {
	switch field {
	case "cashflow":
		return run.Cashflows[t]
	case "redemption":
		return run.Redemptions[t]
	case "interest":
		return run.Cashflows[t] - run.Redemptions[t]
	default:
		return math.NaN()
	}
}

// GetValues returns the run's periods on or after since with the two
// requested value fields. Periods are already stored in ascending order.
func (f *FilterObject) GetValues(_ context.Context, field1 string, field2 string, since time.Time) ([]byte, error) {
	if _, ok := valueColumns[field1]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownValueField, field1)
	}
	if _, ok := valueColumns[field2]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownValueField, field2)
	}

	values := data.ProjectionValueItemList{
		FieldNames: []string{field1, field2},
		Items:      make([]*data.ProjectionValueItem, 0, len(f.Run.PeriodStarts)),
	}

	for t, periodStart := range f.Run.PeriodStarts {
		if periodStart.Before(since) {
			continue
		}
		values.Items = append(values.Items, &data.ProjectionValueItem{
			Time:   periodStart,
			Value1: getValue(f.Run, t, field1),
			Value2: getValue(f.Run, t, field2),
		})
	}

	return json.Marshal(&values)
}

// GetRun returns the cached run as stored.
func (f *FilterObject) GetRun(_ context.Context) ([]byte, error) {
	return json.Marshal(f.Run)
}
