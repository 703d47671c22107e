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

package dataframe_test

import (
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/bond-vault/bv-api/dataframe"
)

var _ = Describe("DataFrame math", func() {
	var (
		df *dataframe.DataFrame[time.Time]
	)

	BeforeEach(func() {
		periods := make([]time.Time, 5)
		vals := make([]float64, 5)
		dt := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
		for idx := range periods {
			periods[idx] = dt
			dt = dt.AddDate(1, 0, 0)
			vals[idx] = float64(idx)
		}
		df = &dataframe.DataFrame[time.Time]{
			ColNames: []string{"TOTAL"},
			Index:    periods,
			Vals:     [][]float64{vals},
		}
	})

	Context("when applying scalar operations", func() {
		It("adds a scalar to every value", func() {
			df2 := df.AddScalar(10)
			Expect(df2.Vals[0]).To(Equal([]float64{10, 11, 12, 13, 14}))
		})

		It("does not modify the original on add", func() {
			df.AddScalar(10)
			Expect(df.Vals[0]).To(Equal([]float64{0, 1, 2, 3, 4}))
		})

		It("multiplies every value by a scalar", func() {
			df2 := df.MulScalar(2)
			Expect(df2.Vals[0]).To(Equal([]float64{0, 2, 4, 6, 8}))
		})

		It("does not modify the original on multiply", func() {
			df.MulScalar(2)
			Expect(df.Vals[0]).To(Equal([]float64{0, 1, 2, 3, 4}))
		})

		It("adds a vector to every column", func() {
			df2 := df.AddVec([]float64{1, 2, 3, 4, 5})
			Expect(df2.Vals[0]).To(Equal([]float64{1, 3, 5, 7, 9}))
		})
	})

	Context("when combining dataframes", func() {
		It("divides matching columns", func() {
			df2 := df.Copy()
			df3 := df.Div(df2)
			Expect(df3.Len()).To(Equal(5))
			Expect(math.IsNaN(df3.Vals[0][0])).To(BeTrue())
			Expect(df3.Vals[0][1]).To(Equal(1.0))
			Expect(df3.Vals[0][2]).To(Equal(1.0))
			Expect(df3.Vals[0][3]).To(Equal(1.0))
			Expect(df3.Vals[0][4]).To(Equal(1.0))
		})

		It("leaves columns without a match untouched on divide", func() {
			df2 := df.Copy()
			df2.ColNames[0] = "OTHER"
			df3 := df.Div(df2)
			Expect(df3.Vals[0]).To(Equal([]float64{0, 1, 2, 3, 4}))
		})

		It("matches columns by name not position", func() {
			df2 := df.Copy()
			df2.ColNames[0] = "OTHER"
			df2.ColNames = append(df2.ColNames, "TOTAL")
			df2.Vals = append(df2.Vals, []float64{2, 2, 2, 2, 2})
			df3 := df.Div(df2)
			Expect(df3.Vals[0]).To(Equal([]float64{0, 0.5, 1, 1.5, 2}))
		})

		It("multiplies matching columns", func() {
			df2 := df.Copy()
			df3 := df.Mul(df2)
			Expect(df3.Vals[0]).To(Equal([]float64{0, 1, 4, 9, 16}))
		})

		It("leaves columns without a match untouched on multiply", func() {
			df2 := df.Copy()
			df2.ColNames[0] = "OTHER"
			df3 := df.Mul(df2)
			Expect(df3.Vals[0]).To(Equal([]float64{0, 1, 2, 3, 4}))
		})

		It("averages like columns across dataframes", func() {
			df2 := df.Copy()
			df2.Vals[0] = []float64{2, 3, 4, 5, 6}
			mean := dataframe.Mean(df, df2)
			Expect(mean.Vals[0]).To(Equal([]float64{1, 2, 3, 4, 5}))
		})
	})

	Context("when counting values", func() {
		It("counts bonds redeeming in each period", func() {
			periods := []time.Time{
				time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			}
			redemptions := &dataframe.DataFrame[time.Time]{
				ColNames: []string{"1", "3", "4"},
				Index:    periods,
				Vals: [][]float64{
					{0, 0, 0, 235000},
					{0, 0, 799000, 0},
					{0, 679000, 0, 0},
				},
			}

			counts := redemptions.Count(func(x float64) bool { return x > 0 })
			Expect(counts.ColNames).To(Equal([]string{"count"}))
			Expect(counts.Vals[0]).To(Equal([]float64{0, 1, 1, 1}))
		})
	})
})

var _ = Describe("Map", func() {
	var (
		dfMap dataframe.Map[time.Time]
	)

	annual := func(start time.Time, vals []float64, col string) *dataframe.DataFrame[time.Time] {
		periods := make([]time.Time, len(vals))
		dt := start
		for idx := range periods {
			periods[idx] = dt
			dt = dt.AddDate(1, 0, 0)
		}
		return &dataframe.DataFrame[time.Time]{
			ColNames: []string{col},
			Index:    periods,
			Vals:     [][]float64{vals},
		}
	}

	BeforeEach(func() {
		dfMap = dataframe.Map[time.Time]{
			"base":    annual(time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), []float64{0, 1, 2, 3, 4}, "base"),
			"shifted": annual(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), []float64{10, 11, 12, 13, 14}, "shifted"),
		}
	})

	It("aligns dataframes to their common range", func() {
		aligned := dfMap.Align()
		Expect(aligned["base"].Len()).To(Equal(3))
		Expect(aligned["shifted"].Len()).To(Equal(3))
		Expect(aligned["base"].Start()).To(Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
		Expect(aligned["base"].End()).To(Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
		Expect(aligned["base"].Vals[0]).To(Equal([]float64{2, 3, 4}))
		Expect(aligned["shifted"].Vals[0]).To(Equal([]float64{10, 11, 12}))
	})

	It("merges into a single dataframe", func() {
		merged := dfMap.DataFrame()
		Expect(merged.Len()).To(Equal(3))
		Expect(merged.ColCount()).To(Equal(2))
		Expect(merged.ColIndex("base")).NotTo(Equal(-1))
		Expect(merged.ColIndex("shifted")).NotTo(Equal(-1))
		Expect(merged.Vals[merged.ColIndex("base")]).To(Equal([]float64{2, 3, 4}))
		Expect(merged.Vals[merged.ColIndex("shifted")]).To(Equal([]float64{10, 11, 12}))
	})

	It("drops values from each member", func() {
		dfMap["base"].Vals[0][0] = math.NaN()
		dfMap.Drop(math.NaN())
		Expect(dfMap["base"].Len()).To(Equal(4))
		Expect(dfMap["shifted"].Len()).To(Equal(5))
	})
})
