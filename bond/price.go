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
	"time"

	"github.com/bond-vault/bv-api/curve"
	"github.com/bond-vault/bv-api/daycount"
)

// SettlementDate returns the bond's settlement date for a trade on the
// curve's valuation date.
func (b *FixedRateBond) SettlementDate(valuation time.Time) time.Time {
	return SettlementDate(valuation, b.record.SettlementDays)
}

// AccruedInterest returns the coupon interest earned between the start
// of the period containing the settlement date and the settlement date
// itself, quoted per 100 of face value. It is zero outside the accrual
// window.
func (b *FixedRateBond) AccruedInterest(settlement time.Time) float64 {
	for i := 0; i < b.schedule.Periods(); i++ {
		start := b.schedule.Start(i)
		end := b.schedule.End(i)
		if !settlement.Before(start) && settlement.Before(end) {
			return b.record.CouponRate * daycount.YearFrac(start, settlement, daycount.Actual360) * 100
		}
	}
	return 0
}

// DirtyPrice discounts the cash events falling after the settlement date
// back to settlement using the curve shifted by a flat spread, and quotes
// the result per 100 of face value.
func (b *FixedRateBond) DirtyPrice(zc *curve.ZeroCurve, spread float64) float64 {
	settlement := b.SettlementDate(zc.Valuation())

	npv := 0.0
	for _, cf := range b.coupons {
		if cf.Date.After(settlement) {
			npv += cf.Amount * zc.SpreadedDiscountFactor(cf.Date, spread)
		}
	}
	for _, cf := range b.redemptions {
		if cf.Date.After(settlement) {
			npv += cf.Amount * zc.SpreadedDiscountFactor(cf.Date, spread)
		}
	}

	return npv / zc.SpreadedDiscountFactor(settlement, spread) / b.record.FaceValue * 100
}

// CleanPrice is the dirty price net of accrued interest, per 100 of face
// value.
func (b *FixedRateBond) CleanPrice(zc *curve.ZeroCurve, spread float64) float64 {
	settlement := b.SettlementDate(zc.Valuation())
	return b.DirtyPrice(zc, spread) - b.AccruedInterest(settlement)
}
