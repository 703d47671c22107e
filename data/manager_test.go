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

package data_test

import (
	"context"
	"path/filepath"
	"time"

	"github.com/bond-vault/bv-api/data"
	"github.com/bond-vault/bv-api/data/database"
	"github.com/bond-vault/bv-api/pgxmockhelper"
	"github.com/bond-vault/bv-api/scenario"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pashagolub/pgxmock"
	"github.com/spf13/viper"
	"github.com/tealeg/xlsx/v3"
)

var _ = Describe("Manager tests", func() {
	var (
		dbPool    pgxmock.PgxConnIface
		manager   *data.Manager
		ctx       context.Context
		valuation time.Time
		end       time.Time
	)

	BeforeEach(func() {
		var err error
		dbPool, err = pgxmock.NewConn()
		Expect(err).To(BeNil())
		database.SetPool(dbPool)
		scenario.Initialize()
		manager = data.GetManagerInstance()
		ctx = context.Background()
		valuation = time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
		end = time.Date(2053, 1, 1, 0, 0, 0, 0, time.UTC)
	})

	AfterEach(func() {
		viper.Set("input.bonds_xlsx", "")
		viper.Set("input.curve_xlsx", "")
	})

	Context("when positions and curves come from the database", func() {
		It("assembles a projection model", func() {
			pgxmockhelper.MockBondsQuery(dbPool, "../testdata/bonds.csv")
			pgxmockhelper.MockZeroCurveQuery(dbPool, "../testdata/zero_curve.csv")

			model, err := manager.BuildModel(ctx, "jdoe", "", valuation, end)
			Expect(err).To(BeNil())
			Expect(model.BondIDs()).To(Equal([]string{"1", "3", "4"}))
			Expect(model.Calendar().Steps()).To(Equal(31))

			cashflows, err := model.CashflowsTotal()
			Expect(err).To(BeNil())
			Expect(len(cashflows)).To(Equal(31))
		})

		It("rejects unknown scenario shortcodes", func() {
			pgxmockhelper.MockBondsQuery(dbPool, "../testdata/bonds.csv")
			pgxmockhelper.MockZeroCurveQuery(dbPool, "../testdata/zero_curve.csv")

			_, err := manager.BuildModel(ctx, "jdoe", "flatten99", valuation, end)
			Expect(err).To(MatchError(scenario.ErrUnknownScenario))
		})
	})

	Context("when workbook inputs are configured", func() {
		BeforeEach(func() {
			dir := GinkgoT().TempDir()

			wb := xlsx.NewFile()
			sheet, err := wb.AddSheet("bond_data")
			Expect(err).To(BeNil())
			writeRow(sheet, "bond_id", "settlement_days", "face_value", "issue_date", "bond_term", "maturity_date", "tenor", "coupon_rate", "z_spread")
			writeRow(sheet, "1", 0, 235000.0, "2017-12-12", 10, "2027-12-12", "1Y", 0.07, 0.0304)
			bondsFn := filepath.Join(dir, "bond_data.xlsx")
			Expect(wb.Save(bondsFn)).To(Succeed())

			wb = xlsx.NewFile()
			sheet, err = wb.AddSheet("zero_curve")
			Expect(err).To(BeNil())
			writeRow(sheet, "Duration", "Rate")
			writeRow(sheet, "1M", 0.0004)
			writeRow(sheet, "1Y", 0.0091)
			writeRow(sheet, "10Y", 0.0194)
			writeRow(sheet, "30Y", 0.0225)
			curveFn := filepath.Join(dir, "zero_curve.xlsx")
			Expect(wb.Save(curveFn)).To(Succeed())

			viper.Set("input.bonds_xlsx", bondsFn)
			viper.Set("input.curve_xlsx", curveFn)
		})

		It("builds the model without a database", func() {
			model, err := manager.BuildModel(ctx, "", "", valuation, end)
			Expect(err).To(BeNil())
			Expect(model.BondIDs()).To(Equal([]string{"1"}))

			mv, err := model.MarketValue("1")
			Expect(err).To(BeNil())
			Expect(mv).To(BeNumerically(">", 0))
		})

		It("prices lower when the curve shifts up", func() {
			base, err := manager.BuildModel(ctx, "", "", valuation, end)
			Expect(err).To(BeNil())
			shifted, err := manager.BuildModel(ctx, "", "up100", valuation, end)
			Expect(err).To(BeNil())

			baseMv, err := base.MarketValue("1")
			Expect(err).To(BeNil())
			shiftedMv, err := shifted.MarketValue("1")
			Expect(err).To(BeNil())
			Expect(shiftedMv).To(BeNumerically("<", baseMv))
		})
	})
})
