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

package indicators_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/bond-vault/bv-api/curve"
	"github.com/bond-vault/bv-api/indicators"
	"github.com/bond-vault/bv-api/projection"
)

var _ = Describe("Indicators", func() {
	var (
		cal       *projection.Calendar
		valuation time.Time
	)

	BeforeEach(func() {
		valuation = time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC)
		cal = projection.NewCalendar(valuation, time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC))
	})

	Describe("when computing weighted average life", func() {
		It("should return the midpoint time of a single payment", func() {
			// all principal lands midway through the second period
			wal, err := indicators.WeightedAverageLife(cal, []float64{0, 1000, 0})
			Expect(err).To(BeNil())
			Expect(wal).Should(BeNumerically("~", 547.0/365.0, 1e-12))
		})

		It("should average evenly split principal", func() {
			wal, err := indicators.WeightedAverageLife(cal, []float64{500, 0, 500})
			Expect(err).To(BeNil())
			Expect(wal).Should(BeNumerically("~", 1.5, 1e-9))
		})

		It("should weight toward the larger payment", func() {
			front, err := indicators.WeightedAverageLife(cal, []float64{900, 0, 100})
			Expect(err).To(BeNil())
			back, err := indicators.WeightedAverageLife(cal, []float64{100, 0, 900})
			Expect(err).To(BeNil())
			Expect(front).Should(BeNumerically("<", back))
		})

		It("should reject a vector that does not fit the calendar", func() {
			_, err := indicators.WeightedAverageLife(cal, []float64{1, 2})
			Expect(err).To(MatchError(indicators.ErrLengthMismatch))
		})

		It("should report an all-zero vector", func() {
			_, err := indicators.WeightedAverageLife(cal, []float64{0, 0, 0})
			Expect(err).To(MatchError(indicators.ErrNoCashflows))
		})

		It("should report an empty projection window", func() {
			empty := projection.NewCalendar(valuation, valuation)
			_, err := indicators.WeightedAverageLife(empty, []float64{})
			Expect(err).To(MatchError(indicators.ErrNoCashflows))
		})
	})

	Describe("when computing Macaulay duration", func() {
		var (
			flat *curve.ZeroCurve
		)

		BeforeEach(func() {
			var err error
			flat, err = curve.NewZeroCurve([]curve.Point{{Tenor: "1Y", Rate: 0.0}}, valuation)
			Expect(err).To(BeNil())
		})

		It("should equal the undiscounted mean time on a zero curve of zeros", func() {
			dur, err := indicators.MacaulayDuration(cal, []float64{0, 1000, 0}, flat, 0)
			Expect(err).To(BeNil())
			Expect(dur).Should(BeNumerically("~", 547.0/360.0, 1e-12))
		})

		It("should shorten as discount rates rise", func() {
			amounts := []float64{500, 0, 500}

			riskless, err := indicators.MacaulayDuration(cal, amounts, flat, 0)
			Expect(err).To(BeNil())

			steep, err := curve.NewZeroCurve([]curve.Point{{Tenor: "1Y", Rate: 0.02}}, valuation)
			Expect(err).To(BeNil())
			discounted, err := indicators.MacaulayDuration(cal, amounts, steep, 0)
			Expect(err).To(BeNil())

			Expect(discounted).Should(BeNumerically("<", riskless))
		})

		It("should shorten as the z-spread rises", func() {
			amounts := []float64{500, 0, 500}

			base, err := indicators.MacaulayDuration(cal, amounts, flat, 0)
			Expect(err).To(BeNil())
			spread, err := indicators.MacaulayDuration(cal, amounts, flat, 0.03)
			Expect(err).To(BeNil())

			Expect(spread).Should(BeNumerically("<", base))
		})

		It("should reject a vector that does not fit the calendar", func() {
			_, err := indicators.MacaulayDuration(cal, []float64{1}, flat, 0)
			Expect(err).To(MatchError(indicators.ErrLengthMismatch))
		})

		It("should report an all-zero vector", func() {
			_, err := indicators.MacaulayDuration(cal, []float64{0, 0, 0}, flat, 0)
			Expect(err).To(MatchError(indicators.ErrNoCashflows))
		})
	})
})
