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

package filter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bond-vault/bv-api/data"
	"github.com/bond-vault/bv-api/data/database"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgsql"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog/log"
)

var (
	ErrEmptyFrom         = errors.New("'from' cannot be empty")
	ErrMalformedWhere    = errors.New("where clauses must take the form [OP].[value]")
	ErrUnknownOperator   = errors.New("unrecognized operator")
	ErrUnknownValueField = errors.New("unknown projection value field")
)

// FilterDatabase answers run queries straight from postgres. Queries run in
// a transaction for UserID so row-level security decides what is visible.
type FilterDatabase struct {
	RunID  uuid.UUID
	UserID string
}

// valueColumns maps API field names to select expressions over
// projection_values. The stored cashflow column carries every cash event,
// coupons and principal together, so interest is the difference of the two
// columns. Only expressions from this table reach BuildQuery's safe-field
// path.
var valueColumns = map[string]string{
	"cashflow":   `"cashflow"`,
	"redemption": `"redemption"`,
	"interest":   `("cashflow" - "redemption")`,
}

// BuildQuery constructs a select statement with PostgREST-style where
// clauses, e.g. {"period_start": "gte.2022-01-01"}. Plain fields are
// sanitized as identifiers; safeFields pass through verbatim and must come
// from a trusted table, never user input.
func BuildQuery(from string, fields []string, safeFields []string, where map[string]string, order string) (string, []interface{}, error) {
	if from == "" {
		return "", nil, ErrEmptyFrom
	}
	stmt := &pgsql.SelectStatement{}
	for _, ff := range fields {
		stmt.Select(pgx.Identifier{ff}.Sanitize())
	}

	for _, ff := range safeFields {
		stmt.Select(ff)
	}

	stmt.From(pgx.Identifier{from}.Sanitize())

	for k, v := range where {
		p := strings.SplitN(v, ".", 2)
		if len(p) != 2 {
			return "", nil, ErrMalformedWhere
		}
		op, val := p[0], p[1]
		k = pgx.Identifier{k}.Sanitize()
		switch op {
		case "eq":
			stmt.Where(fmt.Sprintf("%s = ?", k), val)
		case "gt":
			stmt.Where(fmt.Sprintf("%s > ?", k), val)
		case "gte":
			stmt.Where(fmt.Sprintf("%s >= ?", k), val)
		case "lt":
			stmt.Where(fmt.Sprintf("%s < ?", k), val)
		case "lte":
			stmt.Where(fmt.Sprintf("%s <= ?", k), val)
		case "neq":
			stmt.Where(fmt.Sprintf("%s <> ?", k), val)
		case "like":
			stmt.Where(fmt.Sprintf("%s like ?", k), val)
		case "ilike":
			stmt.Where(fmt.Sprintf("%s ilike ?", k), val)
		case "in":
			stmt.Where(fmt.Sprintf("%s in ?", k), val)
		case "is":
			stmt.Where(fmt.Sprintf("%s is ?", k), val)
		default:
			return "", nil, ErrUnknownOperator
		}
	}

	if order != "" {
		stmt.Order(order)
	}

	sql, args := pgsql.Build(stmt)
	return sql, args, nil
}

// jsonQuery wraps sql in an array_to_json aggregate and returns the raw
// JSON document, or nil when no rows matched
func jsonQuery(ctx context.Context, userID string, sql string, args []interface{}) (*string, error) {
	subLog := log.With().Str("UserID", userID).Logger()

	trx, err := database.TrxForUser(ctx, userID)
	if err != nil {
		subLog.Warn().Stack().Err(err).Msg("failed to filter runs -- could not get a database transaction")
		return nil, err
	}

	var j *string
	err = trx.QueryRow(ctx, fmt.Sprintf(`
	select array_to_json(array_agg(row_to_json(tbl))) as res
    from (
		%s
    ) tbl
	`, sql), args...).Scan(&j)
	if err != nil {
		subLog.Warn().Stack().Err(err).Str("SQL", sql).Msg("failed to filter runs -- db query failed")
		if err := trx.Rollback(ctx); err != nil {
			subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
		}
		return nil, err
	}

	if err := trx.Commit(ctx); err != nil {
		subLog.Warn().Stack().Err(err).Msg("could not commit transaction")
	}
	return j, nil
}

// GetValues returns the run's periods on or after since with the two
// requested value fields, ordered by period start.
func (f *FilterDatabase) GetValues(ctx context.Context, field1 string, field2 string, since time.Time) ([]byte, error) {
	col1, ok := valueColumns[field1]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownValueField, field1)
	}
	col2, ok := valueColumns[field2]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownValueField, field2)
	}

	where := map[string]string{
		"run_id":       fmt.Sprintf("eq.%s", f.RunID),
		"period_start": fmt.Sprintf("gte.%s", since.Format("2006-01-02")),
	}
	safeFields := []string{
		`"period_start" AS time`,
		fmt.Sprintf("%s AS value1", col1),
		fmt.Sprintf("%s AS value2", col2),
	}

	sql, args, err := BuildQuery("projection_values", []string{}, safeFields, where, "period_start ASC")
	if err != nil {
		log.Warn().Err(err).Msg("could not build projection value query")
		return nil, err
	}

	j, err := jsonQuery(ctx, f.UserID, sql, args)
	if err != nil {
		return nil, err
	}

	values := data.ProjectionValueItemList{
		FieldNames: []string{field1, field2},
		Items:      make([]*data.ProjectionValueItem, 0, 100),
	}
	if j != nil {
		if err := json.Unmarshal([]byte(*j), &values.Items); err != nil {
			return nil, err
		}
	}

	return json.Marshal(&values)
}

// GetRun returns the full saved run. The load goes through BvDb so the
// not-found behavior matches the rest of the data layer.
func (f *FilterDatabase) GetRun(ctx context.Context) ([]byte, error) {
	run, err := data.NewBvDb().GetProjection(ctx, f.UserID, f.RunID)
	if err != nil {
		return nil, err
	}
	return json.Marshal(run)
}
