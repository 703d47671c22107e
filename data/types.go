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

package data

import (
	"time"

	"github.com/google/uuid"
)

// ProjectionRun is a saved portfolio projection: the aggregate cashflow and
// redemption vectors over the period grid, plus the inputs that produced
// them. RunHash is the model fingerprint so identical inputs can be
// deduplicated against previously saved runs.
type ProjectionRun struct {
	ID            uuid.UUID   `json:"id"`
	RunHash       string      `json:"run_hash"`
	Scenario      string      `json:"scenario"`
	ValuationDate time.Time   `json:"valuation_date"`
	EndDate       time.Time   `json:"end_date"`
	StepCount     int         `json:"step_count"`
	PeriodStarts  []time.Time `json:"period_starts"`
	Cashflows     []float64   `json:"cashflows"`
	Redemptions   []float64   `json:"redemptions"`
	Created       time.Time   `json:"created"`
}

// ProjectionValueItem is one reported period with two caller-selected
// values, e.g. cashflow and redemption.
type ProjectionValueItem struct {
	Time   time.Time `json:"time"`
	Value1 float64   `json:"value1"`
	Value2 float64   `json:"value2"`
}

// ProjectionValueItemList is the wire shape for period value queries.
// FieldNames records which fields populate Value1 and Value2.
type ProjectionValueItemList struct {
	FieldNames []string               `json:"fieldNames"`
	Items      []*ProjectionValueItem `json:"items"`
}
