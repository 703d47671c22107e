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
)

var _ = Describe("BusinessDay", func() {
	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	Describe("when classifying days", func() {
		It("should treat weekends as non-business days", func() {
			Expect(bond.IsBusinessDay(day(2022, time.January, 8))).To(BeFalse())
			Expect(bond.IsBusinessDay(day(2022, time.January, 9))).To(BeFalse())
		})

		It("should treat an ordinary weekday as a business day", func() {
			Expect(bond.IsBusinessDay(day(2022, time.January, 12))).To(BeTrue())
		})

		It("should observe New Year's Day on the prior Friday when it falls on Saturday", func() {
			Expect(bond.IsBusinessDay(day(2021, time.December, 31))).To(BeFalse())
		})

		It("should observe Juneteenth on Monday when it falls on Sunday", func() {
			Expect(bond.IsBusinessDay(day(2022, time.June, 20))).To(BeFalse())
		})

		It("should not observe Juneteenth before 2022", func() {
			Expect(bond.IsBusinessDay(day(2019, time.June, 19))).To(BeTrue())
		})

		It("should recognize Independence Day", func() {
			Expect(bond.IsBusinessDay(day(2022, time.July, 4))).To(BeFalse())
		})

		It("should recognize Thanksgiving", func() {
			Expect(bond.IsBusinessDay(day(2022, time.November, 24))).To(BeFalse())
		})

		It("should observe Christmas on Monday when it falls on Sunday", func() {
			Expect(bond.IsBusinessDay(day(2022, time.December, 26))).To(BeFalse())
		})

		It("should recognize floating Monday holidays", func() {
			// Martin Luther King Jr. Day, Washington's Birthday, Memorial
			// Day, Labor Day and Columbus Day in 2022
			Expect(bond.IsBusinessDay(day(2022, time.January, 17))).To(BeFalse())
			Expect(bond.IsBusinessDay(day(2022, time.February, 21))).To(BeFalse())
			Expect(bond.IsBusinessDay(day(2022, time.May, 30))).To(BeFalse())
			Expect(bond.IsBusinessDay(day(2022, time.September, 5))).To(BeFalse())
			Expect(bond.IsBusinessDay(day(2022, time.October, 10))).To(BeFalse())
		})
	})

	Describe("when rolling dates", func() {
		It("should roll a holiday weekend to the next business day", func() {
			// 2022-01-01 is a Saturday and New Year's Day
			Expect(bond.NextBusinessDay(day(2022, time.January, 1))).To(Equal(day(2022, time.January, 3)))
		})

		It("should leave business days untouched", func() {
			Expect(bond.NextBusinessDay(day(2022, time.January, 12))).To(Equal(day(2022, time.January, 12)))
		})

		It("should skip holidays when counting business days", func() {
			// Friday 2022-07-01 plus one business day crosses Independence Day
			Expect(bond.AddBusinessDays(day(2022, time.July, 1), 1)).To(Equal(day(2022, time.July, 5)))
		})

		It("should count business days backward", func() {
			Expect(bond.AddBusinessDays(day(2022, time.July, 5), -1)).To(Equal(day(2022, time.July, 1)))
		})
	})

	Describe("when computing settlement dates", func() {
		It("should roll a zero-lag settlement onto a business day", func() {
			Expect(bond.SettlementDate(day(2022, time.January, 1), 0)).To(Equal(day(2022, time.January, 3)))
		})

		It("should add the settlement lag in business days", func() {
			Expect(bond.SettlementDate(day(2022, time.January, 10), 2)).To(Equal(day(2022, time.January, 12)))
		})
	})
})
