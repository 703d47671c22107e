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

package bond_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/bond-vault/bv-api/bond"
	"github.com/bond-vault/bv-api/curve"
)

var _ = Describe("FixedRateBond", func() {
	var (
		valuation time.Time
		quoted    []curve.Point
	)

	BeforeEach(func() {
		valuation = time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
		quoted = []curve.Point{
			{Tenor: "1M", Rate: 0.0004},
			{Tenor: "2M", Rate: 0.0015},
			{Tenor: "3M", Rate: 0.0026},
			{Tenor: "6M", Rate: 0.0057},
			{Tenor: "1Y", Rate: 0.0091},
			{Tenor: "2Y", Rate: 0.0136},
			{Tenor: "3Y", Rate: 0.0161},
			{Tenor: "5Y", Rate: 0.0182},
			{Tenor: "7Y", Rate: 0.0192},
			{Tenor: "10Y", Rate: 0.0194},
			{Tenor: "20Y", Rate: 0.0231},
			{Tenor: "30Y", Rate: 0.0225},
		}
	})

	Describe("when generating cash events", func() {
		It("should pay one coupon per period plus a final redemption", func() {
			rec := &bond.Record{
				ID:           "1",
				FaceValue:    235000,
				IssueDate:    time.Date(2017, 12, 12, 0, 0, 0, 0, time.UTC),
				MaturityDate: time.Date(2027, 12, 12, 0, 0, 0, 0, time.UTC),
				Tenor:        "1Y",
				CouponRate:   0.07,
				ZSpread:      0.0304,
			}
			b, err := bond.NewFixedRateBond(rec)
			Expect(err).To(BeNil())

			Expect(b.Coupons()).To(HaveLen(10))
			Expect(b.Redemptions()).To(HaveLen(1))

			leg := b.Cashflows()
			Expect(leg).To(HaveLen(11))

			// first coupon accrues over 365 days on an ACT/360 basis
			Expect(leg[0].Date).To(Equal(time.Date(2018, 12, 12, 0, 0, 0, 0, time.UTC)))
			Expect(leg[0].Amount).Should(BeNumerically("~", 235000*0.07*365.0/360.0, 1e-9))

			// the redemption shares the final coupon date
			Expect(leg[10].Date).To(Equal(rec.MaturityDate))
			Expect(leg[10].Amount).To(Equal(235000.0))
			Expect(leg[9].Date).To(Equal(rec.MaturityDate))
		})

		It("should keep the leg in non-decreasing date order", func() {
			rec := &bond.Record{
				ID:           "3",
				FaceValue:    799000,
				IssueDate:    time.Date(2017, 2, 3, 0, 0, 0, 0, time.UTC),
				MaturityDate: time.Date(2027, 2, 3, 0, 0, 0, 0, time.UTC),
				Tenor:        "6M",
				CouponRate:   0.03,
			}
			b, err := bond.NewFixedRateBond(rec)
			Expect(err).To(BeNil())
			leg := b.Cashflows()
			for i := 1; i < len(leg); i++ {
				Expect(leg[i].Date.Before(leg[i-1].Date)).To(BeFalse())
			}
		})

		It("should grow coupons across leap periods", func() {
			rec := &bond.Record{
				ID:           "leap",
				FaceValue:    1000,
				IssueDate:    time.Date(2019, 3, 1, 0, 0, 0, 0, time.UTC),
				MaturityDate: time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC),
				Tenor:        "1Y",
				CouponRate:   0.04,
			}
			b, err := bond.NewFixedRateBond(rec)
			Expect(err).To(BeNil())
			coupons := b.Coupons()
			Expect(coupons).To(HaveLen(2))
			// 2019-03-01 to 2020-03-01 includes the 2020 leap day
			Expect(coupons[0].Amount).Should(BeNumerically("~", 1000*0.04*366.0/360.0, 1e-9))
			Expect(coupons[1].Amount).Should(BeNumerically("~", 1000*0.04*365.0/360.0, 1e-9))
		})
	})

	Describe("when pricing against a curve", func() {
		Context("with all zero rates", func() {
			var (
				b  *bond.FixedRateBond
				zc *curve.ZeroCurve
			)

			BeforeEach(func() {
				var err error
				zc, err = curve.NewZeroCurve([]curve.Point{{Tenor: "1Y", Rate: 0}}, valuation)
				Expect(err).To(BeNil())

				b, err = bond.NewFixedRateBond(&bond.Record{
					ID:           "flat",
					FaceValue:    1000,
					IssueDate:    time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
					MaturityDate: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
					Tenor:        "1Y",
					CouponRate:   0.05,
				})
				Expect(err).To(BeNil())
			})

			It("should quote the undiscounted cashflow sum as the dirty price", func() {
				want := (1000*0.05*365.0/360.0 + 1000) / 1000 * 100
				Expect(b.DirtyPrice(zc, 0)).Should(BeNumerically("~", want, 1e-10))
			})

			It("should net accrued interest out of the clean price", func() {
				// settlement rolls from the Saturday holiday to Monday
				// 2022-01-03, two accrual days after issue
				accrued := 0.05 * 2.0 / 360.0 * 100
				Expect(b.AccruedInterest(time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC))).Should(BeNumerically("~", accrued, 1e-12))
				Expect(b.CleanPrice(zc, 0)).Should(BeNumerically("~", b.DirtyPrice(zc, 0)-accrued, 1e-12))
			})

			It("should scale the clean price into a market value", func() {
				Expect(b.MarketValue(zc, 0)).Should(BeNumerically("~", b.Notional()*b.CleanPrice(zc, 0)/100, 1e-10))
			})

			It("should discount below par once a spread is applied", func() {
				Expect(b.DirtyPrice(zc, 0.05)).Should(BeNumerically("<", b.DirtyPrice(zc, 0)))
			})
		})

		Context("with cash events before settlement", func() {
			It("should exclude them from the dirty price", func() {
				zc, err := curve.NewZeroCurve([]curve.Point{{Tenor: "1Y", Rate: 0}}, time.Date(2022, 2, 1, 0, 0, 0, 0, time.UTC))
				Expect(err).To(BeNil())

				b, err := bond.NewFixedRateBond(&bond.Record{
					ID:           "mid",
					FaceValue:    1000,
					IssueDate:    time.Date(2021, 1, 5, 0, 0, 0, 0, time.UTC),
					MaturityDate: time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC),
					Tenor:        "1Y",
					CouponRate:   0.05,
				})
				Expect(err).To(BeNil())

				// only the 2023 coupon and the redemption remain
				want := (1000*0.05*365.0/360.0 + 1000) / 1000 * 100
				Expect(b.DirtyPrice(zc, 0)).Should(BeNumerically("~", want, 1e-10))

				// 27 days accrued between 2022-01-05 and settlement
				accrued := 0.05 * 27.0 / 360.0 * 100
				Expect(b.CleanPrice(zc, 0)).Should(BeNumerically("~", want-accrued, 1e-10))
			})
		})

		Context("with the quoted sample curve", func() {
			It("should round-trip the z-spread through the implied solver", func() {
				zc, err := curve.NewZeroCurve(quoted, valuation)
				Expect(err).To(BeNil())

				b, err := bond.NewFixedRateBond(&bond.Record{
					ID:           "1",
					FaceValue:    235000,
					IssueDate:    time.Date(2017, 12, 12, 0, 0, 0, 0, time.UTC),
					MaturityDate: time.Date(2027, 12, 12, 0, 0, 0, 0, time.UTC),
					Tenor:        "1Y",
					CouponRate:   0.07,
					ZSpread:      0.0304,
				})
				Expect(err).To(BeNil())

				price := b.CleanPrice(zc, 0.0304)
				implied, err := bond.ImpliedZSpread(b, price, zc)
				Expect(err).To(BeNil())
				Expect(implied).Should(BeNumerically("~", 0.0304, 1e-9))
			})

			It("should round-trip a semiannual bond as well", func() {
				zc, err := curve.NewZeroCurve(quoted, valuation)
				Expect(err).To(BeNil())

				b, err := bond.NewFixedRateBond(&bond.Record{
					ID:           "3",
					FaceValue:    799000,
					IssueDate:    time.Date(2017, 2, 3, 0, 0, 0, 0, time.UTC),
					MaturityDate: time.Date(2027, 2, 3, 0, 0, 0, 0, time.UTC),
					Tenor:        "6M",
					CouponRate:   0.03,
					ZSpread:      0.0155,
				})
				Expect(err).To(BeNil())

				price := b.CleanPrice(zc, 0.0155)
				implied, err := bond.ImpliedZSpread(b, price, zc)
				Expect(err).To(BeNil())
				Expect(implied).Should(BeNumerically("~", 0.0155, 1e-9))
			})

			It("should fail when no spread can reach the target price", func() {
				zc, err := curve.NewZeroCurve(quoted, valuation)
				Expect(err).To(BeNil())

				b, err := bond.NewFixedRateBond(&bond.Record{
					ID:           "1",
					FaceValue:    235000,
					IssueDate:    time.Date(2017, 12, 12, 0, 0, 0, 0, time.UTC),
					MaturityDate: time.Date(2027, 12, 12, 0, 0, 0, 0, time.UTC),
					Tenor:        "1Y",
					CouponRate:   0.07,
				})
				Expect(err).To(BeNil())

				_, err = bond.ImpliedZSpread(b, 1e9, zc)
				Expect(err).To(MatchError(bond.ErrNoBracket))
			})
		})
	})

	Describe("when computing accrued interest", func() {
		var b *bond.FixedRateBond

		BeforeEach(func() {
			var err error
			b, err = bond.NewFixedRateBond(&bond.Record{
				ID:           "acc",
				FaceValue:    1000,
				IssueDate:    time.Date(2021, 1, 5, 0, 0, 0, 0, time.UTC),
				MaturityDate: time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC),
				Tenor:        "1Y",
				CouponRate:   0.05,
			})
			Expect(err).To(BeNil())
		})

		It("should be zero on a coupon payment date", func() {
			Expect(b.AccruedInterest(time.Date(2022, 1, 5, 0, 0, 0, 0, time.UTC))).To(Equal(0.0))
		})

		It("should be zero before issue and after maturity", func() {
			Expect(b.AccruedInterest(time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC))).To(Equal(0.0))
			Expect(b.AccruedInterest(time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC))).To(Equal(0.0))
		})

		It("should accrue inside a coupon period", func() {
			want := 0.05 * 40.0 / 360.0 * 100
			Expect(b.AccruedInterest(time.Date(2022, 2, 14, 0, 0, 0, 0, time.UTC))).Should(BeNumerically("~", want, 1e-12))
		})
	})
})
