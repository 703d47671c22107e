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

package filter_test

import (
	"context"
	"time"

	"github.com/bond-vault/bv-api/data"
	"github.com/bond-vault/bv-api/data/database"
	"github.com/bond-vault/bv-api/filter"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pashagolub/pgxmock"
)

var _ = Describe("Filter database tests", func() {
	Describe("when building a select", func() {
		It("errors for an empty 'from'", func() {
			_, _, err := filter.BuildQuery("", make([]string, 0), make([]string, 0), make(map[string]string), "")
			Expect(err).To(MatchError(filter.ErrEmptyFrom))
		})

		It("escapes select identifiers", func() {
			fields := []string{"a\"a", "b"}
			where := map[string]string{}
			sql, _, err := filter.BuildQuery("my_table", fields, make([]string, 0), where, "period_start DESC")
			Expect(err).To(BeNil())
			Expect(sql).To(Equal(`select "a""a", "b" from "my_table" order by period_start DESC`))
		})

		It("escapes the from identifier", func() {
			fields := []string{"a"}
			where := map[string]string{}
			sql, _, err := filter.BuildQuery("my_\"table", fields, make([]string, 0), where, "period_start DESC")
			Expect(err).To(BeNil())
			Expect(sql).To(Equal(`select "a" from "my_""table" order by period_start DESC`))
		})

		It("binds where values as arguments", func() {
			fields := []string{"period_start", "cashflow"}
			where := map[string]string{"run_id": "eq.7c6bd7ff"}
			sql, args, err := filter.BuildQuery("projection_values", fields, make([]string, 0), where, "")
			Expect(err).To(BeNil())
			Expect(sql).To(ContainSubstring(`where "run_id" = $1`))
			Expect(args).To(Equal([]interface{}{"7c6bd7ff"}))
		})

		It("rejects malformed where clauses", func() {
			where := map[string]string{"run_id": "all-of-them"}
			_, _, err := filter.BuildQuery("projection_values", []string{"cashflow"}, make([]string, 0), where, "")
			Expect(err).To(MatchError(filter.ErrMalformedWhere))
		})

		It("rejects unknown operators", func() {
			where := map[string]string{"run_id": "almost.7c6bd7ff"}
			_, _, err := filter.BuildQuery("projection_values", []string{"cashflow"}, make([]string, 0), where, "")
			Expect(err).To(MatchError(filter.ErrUnknownOperator))
		})
	})

	Describe("when querying run values from the database", func() {
		var (
			dbPool pgxmock.PgxConnIface
			ctx    context.Context
			runID  uuid.UUID
		)

		BeforeEach(func() {
			var err error
			dbPool, err = pgxmock.NewConn()
			Expect(err).To(BeNil())
			database.SetPool(dbPool)
			ctx = context.Background()
			runID = uuid.New()
		})

		It("returns the selected fields per period", func() {
			doc := `[{"time":"2022-01-01T00:00:00Z","value1":16450,"value2":0},{"time":"2023-01-01T00:00:00Z","value1":251450,"value2":235000}]`

			dbPool.ExpectBegin()
			dbPool.ExpectExec("SET ROLE").WillReturnResult(pgconn.CommandTag("SET ROLE"))
			dbPool.ExpectQuery("array_to_json").WillReturnRows(
				pgxmock.NewRows([]string{"res"}).AddRow(&doc))

			f := &filter.FilterDatabase{RunID: runID, UserID: "jdoe"}
			raw, err := f.GetValues(ctx, "cashflow", "redemption", time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC))
			Expect(err).To(BeNil())

			values := data.ProjectionValueItemList{}
			Expect(json.Unmarshal(raw, &values)).To(Succeed())
			Expect(values.FieldNames).To(Equal([]string{"cashflow", "redemption"}))
			Expect(len(values.Items)).To(Equal(2))
			Expect(values.Items[0].Value1).To(Equal(16450.0))
			Expect(values.Items[1].Value2).To(Equal(235000.0))
		})

		It("returns an empty list when no periods match", func() {
			dbPool.ExpectBegin()
			dbPool.ExpectExec("SET ROLE").WillReturnResult(pgconn.CommandTag("SET ROLE"))
			dbPool.ExpectQuery("array_to_json").WillReturnRows(
				pgxmock.NewRows([]string{"res"}).AddRow(nil))

			f := &filter.FilterDatabase{RunID: runID, UserID: "jdoe"}
			raw, err := f.GetValues(ctx, "cashflow", "redemption", time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC))
			Expect(err).To(BeNil())

			values := data.ProjectionValueItemList{}
			Expect(json.Unmarshal(raw, &values)).To(Succeed())
			Expect(len(values.Items)).To(Equal(0))
		})

		It("rejects fields outside the whitelist", func() {
			f := &filter.FilterDatabase{RunID: runID, UserID: "jdoe"}
			_, err := f.GetValues(ctx, "cashflow", "run_hash; drop table bonds", time.Time{})
			Expect(err).To(MatchError(filter.ErrUnknownValueField))
		})
	})
})
