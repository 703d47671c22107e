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
	"time"

	"github.com/bond-vault/bv-api/curve"
	"github.com/bond-vault/bv-api/data"
	"github.com/bond-vault/bv-api/data/database"
	"github.com/bond-vault/bv-api/pgxmockhelper"
	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pashagolub/pgxmock"
)

var _ = Describe("BvDb tests", func() {
	var (
		dbPool pgxmock.PgxConnIface
		bvdb   *data.BvDb
		ctx    context.Context
	)

	BeforeEach(func() {
		var err error
		dbPool, err = pgxmock.NewConn()
		Expect(err).To(BeNil())
		database.SetPool(dbPool)
		bvdb = data.NewBvDb()
		ctx = context.Background()
	})

	Context("when loading bond positions", func() {
		It("returns every bond the user holds", func() {
			pgxmockhelper.MockBondsQuery(dbPool, "../testdata/bonds.csv")
			records, err := bvdb.GetBonds(ctx, "jdoe")
			Expect(err).To(BeNil())
			Expect(len(records)).To(Equal(3))

			Expect(records[0].ID).To(Equal("1"))
			Expect(records[0].SettlementDays).To(Equal(0))
			Expect(records[0].FaceValue).To(Equal(235000.0))
			Expect(records[0].IssueDate).To(Equal(time.Date(2017, 12, 12, 0, 0, 0, 0, time.UTC)))
			Expect(records[0].Term).To(Equal(10))
			Expect(records[0].MaturityDate).To(Equal(time.Date(2027, 12, 12, 0, 0, 0, 0, time.UTC)))
			Expect(records[0].Tenor).To(Equal("1Y"))
			Expect(records[0].CouponRate).To(Equal(0.07))
			Expect(records[0].ZSpread).To(Equal(0.0304))

			Expect(records[1].ID).To(Equal("3"))
			Expect(records[1].Tenor).To(Equal("6M"))
			Expect(records[2].ID).To(Equal("4"))
			Expect(records[2].MaturityDate).To(Equal(time.Date(2025, 11, 19, 0, 0, 0, 0, time.UTC)))
		})

		It("returns an empty slice when the user holds nothing", func() {
			dbPool.ExpectBegin()
			dbPool.ExpectExec("SET ROLE").WillReturnResult(pgconn.CommandTag("SET ROLE"))
			dbPool.ExpectQuery("SELECT bond_id, settlement_days, face_value, issue_date, bond_term, maturity_date, tenor, coupon_rate, z_spread FROM bonds").WillReturnRows(
				pgxmock.NewRows([]string{"bond_id", "settlement_days", "face_value", "issue_date", "bond_term", "maturity_date", "tenor", "coupon_rate", "z_spread"}))
			records, err := bvdb.GetBonds(ctx, "jdoe")
			Expect(err).To(BeNil())
			Expect(len(records)).To(Equal(0))
		})

		It("fetches a single bond by id", func() {
			pgxmockhelper.MockBondQuery(dbPool, "../testdata/bond_1.csv")
			rec, err := bvdb.GetBond(ctx, "jdoe", "1")
			Expect(err).To(BeNil())
			Expect(rec.ID).To(Equal("1"))
			Expect(rec.FaceValue).To(Equal(235000.0))
			Expect(rec.CouponRate).To(Equal(0.07))
		})

		It("returns ErrNotFound for an unknown bond id", func() {
			dbPool.ExpectBegin()
			dbPool.ExpectExec("SET ROLE").WillReturnResult(pgconn.CommandTag("SET ROLE"))
			dbPool.ExpectQuery("SELECT bond_id, settlement_days, face_value, issue_date, bond_term, maturity_date, tenor, coupon_rate, z_spread FROM bonds WHERE").WillReturnError(pgx.ErrNoRows)
			_, err := bvdb.GetBond(ctx, "jdoe", "99")
			Expect(err).To(Equal(data.ErrNotFound))
		})
	})

	Context("when loading the zero curve", func() {
		It("returns the curve quoted on or before the requested date", func() {
			pgxmockhelper.MockZeroCurveQuery(dbPool, "../testdata/zero_curve.csv")
			points, curveDate, err := bvdb.GetZeroCurve(ctx, time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC))
			Expect(err).To(BeNil())
			Expect(curveDate).To(Equal(time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)))
			Expect(len(points)).To(Equal(12))
			Expect(points[0]).To(Equal(curve.Point{Tenor: "1M", Rate: 0.0004}))
			Expect(points[11]).To(Equal(curve.Point{Tenor: "30Y", Rate: 0.0225}))
		})

		It("returns ErrNoCurve when nothing has been stored", func() {
			dbPool.ExpectBegin()
			dbPool.ExpectExec("SET ROLE").WillReturnResult(pgconn.CommandTag("SET ROLE"))
			dbPool.ExpectQuery("SELECT curve_date, duration, rate FROM zero_curve").WillReturnRows(
				pgxmock.NewRows([]string{"curve_date", "duration", "rate"}))
			_, _, err := bvdb.GetZeroCurve(ctx, time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC))
			Expect(err).To(Equal(data.ErrNoCurve))
		})
	})

	Context("when saving the zero curve", func() {
		It("upserts one row per quoted point", func() {
			points := []curve.Point{
				{Tenor: "1M", Rate: 0.0004},
				{Tenor: "1Y", Rate: 0.0091},
			}

			dbPool.ExpectBegin()
			dbPool.ExpectExec("SET ROLE").WillReturnResult(pgconn.CommandTag("SET ROLE"))
			dbPool.ExpectExec("INSERT INTO zero_curve").WillReturnResult(pgconn.CommandTag("INSERT 0 1"))
			dbPool.ExpectExec("INSERT INTO zero_curve").WillReturnResult(pgconn.CommandTag("INSERT 0 1"))
			dbPool.ExpectCommit()

			err := bvdb.SaveZeroCurve(ctx, time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), points)
			Expect(err).To(BeNil())
		})
	})

	Context("when saving and loading projection runs", func() {
		It("stores the run row and one value row per period", func() {
			run := &data.ProjectionRun{
				ID:            uuid.New(),
				RunHash:       "c0ffee",
				Scenario:      "",
				ValuationDate: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
				EndDate:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
				StepCount:     2,
				PeriodStarts: []time.Time{
					time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
					time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
				},
				Cashflows:   []float64{16450.0, 16450.0},
				Redemptions: []float64{0, 0},
				Created:     time.Date(2022, 6, 1, 12, 0, 0, 0, time.UTC),
			}

			dbPool.ExpectBegin()
			dbPool.ExpectExec("SET ROLE").WillReturnResult(pgconn.CommandTag("SET ROLE"))
			dbPool.ExpectExec("INSERT INTO projection_runs").WillReturnResult(pgconn.CommandTag("INSERT 0 1"))
			dbPool.ExpectExec("INSERT INTO projection_values").WillReturnResult(pgconn.CommandTag("INSERT 0 1"))
			dbPool.ExpectExec("INSERT INTO projection_values").WillReturnResult(pgconn.CommandTag("INSERT 0 1"))
			dbPool.ExpectCommit()

			err := bvdb.SaveProjection(ctx, "jdoe", run)
			Expect(err).To(BeNil())
		})

		It("loads a saved run with its values in period order", func() {
			runID := uuid.New()
			created := time.Date(2022, 6, 1, 12, 0, 0, 0, time.UTC)

			dbPool.ExpectBegin()
			dbPool.ExpectExec("SET ROLE").WillReturnResult(pgconn.CommandTag("SET ROLE"))
			dbPool.ExpectQuery("SELECT id, run_hash, scenario, valuation_date, end_date, step_count, created FROM projection_runs").WillReturnRows(
				pgxmock.NewRows([]string{"id", "run_hash", "scenario", "valuation_date", "end_date", "step_count", "created"}).
					AddRow(runID, "c0ffee", "up100", time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 2, created))
			dbPool.ExpectQuery("SELECT period_start, cashflow, redemption FROM projection_values").WillReturnRows(
				pgxmock.NewRows([]string{"period_start", "cashflow", "redemption"}).
					AddRow(time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), 16450.0, 0.0).
					AddRow(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), 251450.0, 235000.0))

			run, err := bvdb.GetProjection(ctx, "jdoe", runID)
			Expect(err).To(BeNil())
			Expect(run.ID).To(Equal(runID))
			Expect(run.RunHash).To(Equal("c0ffee"))
			Expect(run.Scenario).To(Equal("up100"))
			Expect(run.StepCount).To(Equal(2))
			Expect(run.PeriodStarts).To(Equal([]time.Time{
				time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
			}))
			Expect(run.Cashflows).To(Equal([]float64{16450.0, 251450.0}))
			Expect(run.Redemptions).To(Equal([]float64{0.0, 235000.0}))
		})

		It("returns ErrNotFound for an unknown run id", func() {
			dbPool.ExpectBegin()
			dbPool.ExpectExec("SET ROLE").WillReturnResult(pgconn.CommandTag("SET ROLE"))
			dbPool.ExpectQuery("SELECT id, run_hash, scenario, valuation_date, end_date, step_count, created FROM projection_runs").WillReturnError(pgx.ErrNoRows)
			_, err := bvdb.GetProjection(ctx, "jdoe", uuid.New())
			Expect(err).To(Equal(data.ErrNotFound))
		})
	})
})
