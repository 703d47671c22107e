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

// Package bond builds fixed-rate bonds from portfolio records and prices
// them against a zero curve.
package bond

import (
	"time"

	"github.com/bond-vault/bv-api/curve"
	"github.com/bond-vault/bv-api/daycount"
)

// Cashflow is a single dated payment amount.
type Cashflow struct {
	Date   time.Time `json:"date"`
	Amount float64   `json:"amount"`
}

// FixedRateBond couples a Record with its generated schedule and cash
// events. Coupon amounts accrue on an ACT/360 basis over unadjusted
// schedule periods; the face value is repaid in full at maturity.
type FixedRateBond struct {
	record      *Record
	schedule    *Schedule
	coupons     []Cashflow
	redemptions []Cashflow
}

// NewFixedRateBond validates the record, generates the coupon schedule
// and computes the cash event sequence.
func NewFixedRateBond(rec *Record) (*FixedRateBond, error) {
	schedule, err := BuildSchedule(rec)
	if err != nil {
		return nil, err
	}

	coupons := make([]Cashflow, 0, schedule.Periods())
	for i := 0; i < schedule.Periods(); i++ {
		accrual := daycount.YearFrac(schedule.Start(i), schedule.End(i), daycount.Actual360)
		coupons = append(coupons, Cashflow{
			Date:   schedule.End(i),
			Amount: rec.FaceValue * rec.CouponRate * accrual,
		})
	}

	redemptions := []Cashflow{{
		Date:   rec.MaturityDate,
		Amount: rec.FaceValue,
	}}

	return &FixedRateBond{
		record:      rec,
		schedule:    schedule,
		coupons:     coupons,
		redemptions: redemptions,
	}, nil
}

// Record returns the input data the bond was built from.
func (b *FixedRateBond) Record() *Record {
	return b.record
}

// Schedule returns the coupon period boundaries.
func (b *FixedRateBond) Schedule() *Schedule {
	return b.schedule
}

// Cashflows returns the full cash event sequence in leg order: coupons
// by payment date followed by the redemption. The redemption shares the
// final coupon date, so the sequence is non-decreasing in time.
func (b *FixedRateBond) Cashflows() []Cashflow {
	leg := make([]Cashflow, 0, len(b.coupons)+len(b.redemptions))
	leg = append(leg, b.coupons...)
	leg = append(leg, b.redemptions...)
	return leg
}

// Coupons returns the coupon payments only.
func (b *FixedRateBond) Coupons() []Cashflow {
	return b.coupons
}

// Redemptions returns the principal repayments only.
func (b *FixedRateBond) Redemptions() []Cashflow {
	return b.redemptions
}

// Notional returns the face amount outstanding.
func (b *FixedRateBond) Notional() float64 {
	return b.record.FaceValue
}

// Maturity returns the final payment date.
func (b *FixedRateBond) Maturity() time.Time {
	return b.record.MaturityDate
}

// MarketValue scales the clean price from a per-100 quote to a currency
// amount on the bond's notional.
func (b *FixedRateBond) MarketValue(zc *curve.ZeroCurve, spread float64) float64 {
	return b.Notional() * b.CleanPrice(zc, spread) / 100
}
