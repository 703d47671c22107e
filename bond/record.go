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
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidRecord = errors.New("invalid bond record")
)

// Record is one row of portfolio input data describing a fixed-rate bond.
// Records are immutable once loaded; all derived quantities live on
// FixedRateBond.
type Record struct {
	ID             string    `json:"bond_id"`
	SettlementDays int       `json:"settlement_days"`
	FaceValue      float64   `json:"face_value"`
	IssueDate      time.Time `json:"issue_date"`
	Term           int       `json:"bond_term"`
	MaturityDate   time.Time `json:"maturity_date"`
	Tenor          string    `json:"tenor"`
	CouponRate     float64   `json:"coupon_rate"`
	ZSpread        float64   `json:"z_spread"`
}

// Validate checks that the record can produce a well-formed bond. The
// maturity date is authoritative; Term is carried through for reporting
// only.
func (r *Record) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("%w: empty bond id", ErrInvalidRecord)
	}
	if r.FaceValue <= 0 {
		return fmt.Errorf("%w: face value must be positive (bond %s)", ErrInvalidRecord, r.ID)
	}
	if r.SettlementDays < 0 {
		return fmt.Errorf("%w: settlement days must not be negative (bond %s)", ErrInvalidRecord, r.ID)
	}
	if r.CouponRate < 0 {
		return fmt.Errorf("%w: coupon rate must not be negative (bond %s)", ErrInvalidRecord, r.ID)
	}
	if !r.MaturityDate.After(r.IssueDate) {
		return fmt.Errorf("%w: maturity %s does not follow issue %s (bond %s)", ErrInvalidRecord,
			r.MaturityDate.Format("2006-01-02"), r.IssueDate.Format("2006-01-02"), r.ID)
	}
	if _, err := couponMonths(r.Tenor); err != nil {
		return fmt.Errorf("%w: bond %s: %s", ErrInvalidRecord, r.ID, err)
	}
	return nil
}
