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

package projection_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/bond-vault/bv-api/bond"
	"github.com/bond-vault/bv-api/curve"
	"github.com/bond-vault/bv-api/projection"
)

var _ = Describe("Model", func() {
	var (
		records   []*bond.Record
		points    []curve.Point
		valuation time.Time
		end       time.Time
		model     *projection.Model
	)

	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	BeforeEach(func() {
		valuation = day(2022, time.January, 1)
		end = day(2053, time.January, 1)

		records = []*bond.Record{
			{
				ID:             "1",
				SettlementDays: 0,
				FaceValue:      235000,
				IssueDate:      day(2017, time.December, 12),
				Term:           10,
				MaturityDate:   day(2027, time.December, 12),
				Tenor:          "1Y",
				CouponRate:     0.07,
				ZSpread:        0.0304,
			},
			{
				ID:             "3",
				SettlementDays: 0,
				FaceValue:      799000,
				IssueDate:      day(2017, time.February, 3),
				Term:           10,
				MaturityDate:   day(2027, time.February, 3),
				Tenor:          "6M",
				CouponRate:     0.03,
				ZSpread:        0.0155,
			},
			{
				ID:             "4",
				SettlementDays: 0,
				FaceValue:      679000,
				IssueDate:      day(2017, time.November, 19),
				Term:           8,
				MaturityDate:   day(2025, time.November, 19),
				Tenor:          "1Y",
				CouponRate:     0.08,
				ZSpread:        0.0229,
			},
		}

		points = []curve.Point{
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

		var err error
		model, err = projection.NewModel(records, points, valuation, end)
		Expect(err).To(BeNil())
	})

	Describe("when constructing a model", func() {
		It("should sort bond identifiers", func() {
			Expect(model.BondIDs()).To(Equal([]string{"1", "3", "4"}))
		})

		It("should share one calendar across all bonds", func() {
			Expect(model.Calendar().Steps()).To(Equal(31))
		})

		It("should reject duplicate identifiers", func() {
			dup := append(records, records[0])
			_, err := projection.NewModel(dup, points, valuation, end)
			Expect(err).To(MatchError(projection.ErrDuplicateBond))
		})

		It("should reject invalid records", func() {
			bad := []*bond.Record{{
				ID:           "bad",
				FaceValue:    -5,
				IssueDate:    day(2020, time.January, 1),
				MaturityDate: day(2025, time.January, 1),
				Tenor:        "1Y",
			}}
			_, err := projection.NewModel(bad, points, valuation, end)
			Expect(err).To(MatchError(bond.ErrInvalidRecord))
		})

		It("should surface curve construction failures", func() {
			_, err := projection.NewModel(records, []curve.Point{}, valuation, end)
			Expect(err).To(MatchError(curve.ErrNoPoints))
		})
	})

	Describe("when projecting cashflows", func() {
		It("should produce one amount per period", func() {
			vec, err := model.Cashflows("1")
			Expect(err).To(BeNil())
			Expect(vec).To(HaveLen(31))
		})

		It("should place each redemption in its maturity period", func() {
			vec, err := model.Redemptions("4")
			Expect(err).To(BeNil())
			// 2025-11-19 falls in [2025-01-01, 2026-01-01)
			Expect(vec[3]).To(Equal(679000.0))
			for idx, amount := range vec {
				if idx != 3 {
					Expect(amount).To(BeZero())
				}
			}
		})

		It("should sum redemptions across the portfolio", func() {
			total, err := model.RedemptionsTotal()
			Expect(err).To(BeNil())
			Expect(total[3]).To(Equal(679000.0))
			Expect(total[5]).To(Equal(235000.0 + 799000.0))
		})

		It("should aggregate cashflows bond by bond", func() {
			total, err := model.CashflowsTotal()
			Expect(err).To(BeNil())

			want := make([]float64, model.Calendar().Steps())
			for _, bondID := range model.BondIDs() {
				vec, err := model.Cashflows(bondID)
				Expect(err).To(BeNil())
				for idx, amount := range vec {
					want[idx] += amount
				}
			}

			Expect(total).To(HaveLen(len(want)))
			for idx := range want {
				Expect(total[idx]).Should(BeNumerically("~", want[idx], 1e-9))
			}
		})

		It("should propagate unknown bond identifiers", func() {
			_, err := model.Cashflows("999")
			Expect(err).To(MatchError(projection.ErrBondNotFound))
			_, err = model.Redemptions("999")
			Expect(err).To(MatchError(projection.ErrBondNotFound))
			_, err = model.MarketValue("999")
			Expect(err).To(MatchError(projection.ErrBondNotFound))
			_, err = model.ImpliedSpread("999")
			Expect(err).To(MatchError(projection.ErrBondNotFound))
		})
	})

	Describe("when valuing the portfolio", func() {
		It("should scale clean prices onto notionals", func() {
			mv, err := model.MarketValue("1")
			Expect(err).To(BeNil())

			b, err := model.Bond("1")
			Expect(err).To(BeNil())
			clean := b.CleanPrice(model.Curve(), 0.0304)
			Expect(mv).Should(BeNumerically("~", 235000*clean/100, 1e-9))
		})

		It("should return one market value per bond", func() {
			values, err := model.MarketValues()
			Expect(err).To(BeNil())
			Expect(values).To(HaveLen(3))
			for _, mv := range values {
				Expect(mv).Should(BeNumerically(">", 0))
			}
		})

		It("should recover the quoted spread from the model price", func() {
			for _, bondID := range model.BondIDs() {
				rec, err := model.Record(bondID)
				Expect(err).To(BeNil())
				implied, err := model.ImpliedSpread(bondID)
				Expect(err).To(BeNil())
				Expect(implied).Should(BeNumerically("~", rec.ZSpread, 1e-9))
			}
		})
	})

	Describe("when tabulating results", func() {
		It("should append a TOTAL column to the cashflow frame", func() {
			df, err := model.CashflowFrame()
			Expect(err).To(BeNil())
			Expect(df.ColNames).To(Equal([]string{"1", "3", "4", "TOTAL"}))
			Expect(df.Len()).To(Equal(31))
			Expect(df.Index[0]).To(Equal(valuation))

			total, err := model.CashflowsTotal()
			Expect(err).To(BeNil())
			Expect(df.Vals[df.ColIndex(projection.TotalColumn)]).To(Equal(total))
		})

		It("should tabulate redemptions the same way", func() {
			df, err := model.RedemptionFrame()
			Expect(err).To(BeNil())
			Expect(df.ColCount()).To(Equal(4))

			total, err := model.RedemptionsTotal()
			Expect(err).To(BeNil())
			Expect(df.Vals[df.ColIndex(projection.TotalColumn)]).To(Equal(total))
		})

		It("should tabulate market values by bond", func() {
			df, err := model.MarketValueFrame()
			Expect(err).To(BeNil())
			Expect(df.Index).To(Equal([]string{"1", "3", "4"}))

			values, err := model.MarketValues()
			Expect(err).To(BeNil())
			Expect(df.Vals[df.ColIndex("market_value")]).To(Equal(values))

			cleanIdx := df.ColIndex("clean_price")
			mvIdx := df.ColIndex("market_value")
			for row, bondID := range df.Index {
				rec, err := model.Record(bondID)
				Expect(err).To(BeNil())
				Expect(df.Vals[mvIdx][row]).Should(BeNumerically("~", rec.FaceValue*df.Vals[cleanIdx][row]/100, 1e-9))
			}
		})

		It("should report near-zero spread differences", func() {
			df, err := model.SpreadFrame()
			Expect(err).To(BeNil())
			diffIdx := df.ColIndex("difference")
			for _, diff := range df.Vals[diffIdx] {
				Expect(diff).Should(BeNumerically("~", 0, 1e-9))
			}
		})
	})

	Describe("when fingerprinting a run", func() {
		It("should be stable for identical inputs", func() {
			first, err := model.Fingerprint()
			Expect(err).To(BeNil())
			second, err := model.Fingerprint()
			Expect(err).To(BeNil())
			Expect(first).To(Equal(second))
			Expect(first).To(HaveLen(32))
		})

		It("should change when a record changes", func() {
			altered := make([]*bond.Record, len(records))
			copy(altered, records)
			changed := *records[0]
			changed.ZSpread = 0.0305
			altered[0] = &changed

			other, err := projection.NewModel(altered, points, valuation, end)
			Expect(err).To(BeNil())

			a, err := model.Fingerprint()
			Expect(err).To(BeNil())
			b, err := other.Fingerprint()
			Expect(err).To(BeNil())
			Expect(a).NotTo(Equal(b))
		})
	})

	Describe("when the projection range is empty", func() {
		It("should produce empty vectors and frames", func() {
			degenerate, err := projection.NewModel(records, points, valuation, valuation)
			Expect(err).To(BeNil())
			Expect(degenerate.Calendar().Steps()).To(Equal(0))

			vec, err := degenerate.Cashflows("1")
			Expect(err).To(BeNil())
			Expect(vec).To(BeEmpty())

			total, err := degenerate.CashflowsTotal()
			Expect(err).To(BeNil())
			Expect(total).To(BeEmpty())

			df, err := degenerate.CashflowFrame()
			Expect(err).To(BeNil())
			Expect(df.Len()).To(Equal(0))
		})
	})
})
