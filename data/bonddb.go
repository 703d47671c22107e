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

package data

import (
	"context"
	"time"

	"github.com/bond-vault/bv-api/bond"
	"github.com/bond-vault/bv-api/curve"
	"github.com/bond-vault/bv-api/data/database"
	"github.com/bond-vault/bv-api/observability/opentelemetry"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

// BvDb loads bond positions, zero curves and saved projection runs from
// postgres. All queries run in a transaction for the requesting user so
// row-level security applies.
type BvDb struct {
}

// NewBvDb creates a new BvDb data provider
func NewBvDb() *BvDb {
	return &BvDb{}
}

// GetBonds returns every bond position the user holds, ordered by bond id
func (p *BvDb) GetBonds(ctx context.Context, userID string) ([]*bond.Record, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "bvdb.GetBonds")
	defer span.End()

	subLog := log.With().Str("UserID", userID).Logger()

	trx, err := database.TrxForUser(ctx, userID)
	if err != nil {
		span.RecordError(err)
		msg := "failed to load bonds -- could not get a database transaction"
		span.SetStatus(codes.Error, msg)
		subLog.Warn().Stack().Err(err).Msg(msg)
		return nil, err
	}

	sql := `SELECT bond_id, settlement_days, face_value, issue_date, bond_term, maturity_date, tenor, coupon_rate, z_spread FROM bonds ORDER BY bond_id`
	rows, err := trx.Query(ctx, sql)
	if err != nil {
		span.RecordError(err)
		msg := "failed to load bonds -- db query failed"
		span.SetStatus(codes.Error, msg)
		subLog.Warn().Stack().Err(err).Str("SQL", sql).Msg(msg)
		if err := trx.Rollback(ctx); err != nil {
			subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
		}
		return nil, err
	}

	records := make([]*bond.Record, 0, 100)
	for rows.Next() {
		rec := &bond.Record{}
		var issue, maturity time.Time
		if err := rows.Scan(&rec.ID, &rec.SettlementDays, &rec.FaceValue, &issue, &rec.Term, &maturity, &rec.Tenor, &rec.CouponRate, &rec.ZSpread); err != nil {
			subLog.Error().Stack().Err(err).Msg("failed to load bonds -- db scan failed")
			if err := trx.Rollback(ctx); err != nil {
				subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
			}
			return nil, err
		}
		rec.IssueDate = midnightUTC(issue)
		rec.MaturityDate = midnightUTC(maturity)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "db row read failed")
		subLog.Warn().Stack().Err(err).Msg("failed to load bonds -- db row read failed")
		if err := trx.Rollback(ctx); err != nil {
			subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
		}
		return nil, err
	}

	if err := trx.Commit(ctx); err != nil {
		subLog.Warn().Stack().Err(err).Msg("could not commit transaction")
	}
	return records, nil
}

// GetBond returns a single bond position by id. ErrNotFound is returned when
// the user holds no bond with that id.
func (p *BvDb) GetBond(ctx context.Context, userID string, bondID string) (*bond.Record, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "bvdb.GetBond")
	defer span.End()

	subLog := log.With().Str("UserID", userID).Str("BondID", bondID).Logger()

	trx, err := database.TrxForUser(ctx, userID)
	if err != nil {
		span.RecordError(err)
		msg := "failed to load bond -- could not get a database transaction"
		span.SetStatus(codes.Error, msg)
		subLog.Warn().Stack().Err(err).Msg(msg)
		return nil, err
	}

	sql := `SELECT bond_id, settlement_days, face_value, issue_date, bond_term, maturity_date, tenor, coupon_rate, z_spread FROM bonds WHERE bond_id=$1`
	row := trx.QueryRow(ctx, sql, bondID)

	rec := &bond.Record{}
	var issue, maturity time.Time
	err = row.Scan(&rec.ID, &rec.SettlementDays, &rec.FaceValue, &issue, &rec.Term, &maturity, &rec.Tenor, &rec.CouponRate, &rec.ZSpread)
	if err != nil {
		if err := trx.Rollback(ctx); err != nil {
			subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
		}
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "db query failed")
		subLog.Warn().Stack().Err(err).Msg("failed to load bond -- db query failed")
		return nil, err
	}
	rec.IssueDate = midnightUTC(issue)
	rec.MaturityDate = midnightUTC(maturity)

	if err := trx.Commit(ctx); err != nil {
		subLog.Warn().Stack().Err(err).Msg("could not commit transaction")
	}
	return rec, nil
}

// GetZeroCurve returns the zero curve quoted on the latest curve date on or
// before the requested date. Curves are market data shared by all users so
// the query runs under the bvuser role. ErrNoCurve is returned when no curve
// has been stored yet.
func (p *BvDb) GetZeroCurve(ctx context.Context, date time.Time) ([]curve.Point, time.Time, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "bvdb.GetZeroCurve")
	defer span.End()

	subLog := log.With().Time("Date", date).Logger()

	trx, err := database.TrxForUser(ctx, "bvuser")
	if err != nil {
		span.RecordError(err)
		msg := "failed to load zero curve -- could not get a database transaction"
		span.SetStatus(codes.Error, msg)
		subLog.Warn().Stack().Err(err).Msg(msg)
		return nil, time.Time{}, err
	}

	sql := `SELECT curve_date, duration, rate FROM zero_curve WHERE curve_date = (SELECT max(curve_date) FROM zero_curve WHERE curve_date <= $1) ORDER BY duration`
	rows, err := trx.Query(ctx, sql, date)
	if err != nil {
		span.RecordError(err)
		msg := "failed to load zero curve -- db query failed"
		span.SetStatus(codes.Error, msg)
		subLog.Warn().Stack().Err(err).Str("SQL", sql).Msg(msg)
		if err := trx.Rollback(ctx); err != nil {
			subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
		}
		return nil, time.Time{}, err
	}

	var curveDate time.Time
	points := make([]curve.Point, 0, 16)
	for rows.Next() {
		var pt curve.Point
		if err := rows.Scan(&curveDate, &pt.Tenor, &pt.Rate); err != nil {
			subLog.Error().Stack().Err(err).Msg("failed to load zero curve -- db scan failed")
			if err := trx.Rollback(ctx); err != nil {
				subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
			}
			return nil, time.Time{}, err
		}
		points = append(points, pt)
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "db row read failed")
		subLog.Warn().Stack().Err(err).Msg("failed to load zero curve -- db row read failed")
		if err := trx.Rollback(ctx); err != nil {
			subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
		}
		return nil, time.Time{}, err
	}

	if len(points) == 0 {
		span.SetStatus(codes.Error, "no zero curve found")
		subLog.Warn().Stack().Msg("no zero curve found on or before date")
		if err := trx.Rollback(ctx); err != nil {
			subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
		}
		return nil, time.Time{}, ErrNoCurve
	}

	if err := trx.Commit(ctx); err != nil {
		subLog.Warn().Stack().Err(err).Msg("could not commit transaction")
	}
	return points, midnightUTC(curveDate), nil
}

// SaveZeroCurve replaces the stored curve for the given curve date. The
// nightly refresh calls this after downloading new quotes.
func (p *BvDb) SaveZeroCurve(ctx context.Context, curveDate time.Time, points []curve.Point) error {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "bvdb.SaveZeroCurve")
	defer span.End()

	subLog := log.With().Time("CurveDate", curveDate).Int("NumPoints", len(points)).Logger()

	trx, err := database.TrxForUser(ctx, "bvuser")
	if err != nil {
		span.RecordError(err)
		msg := "failed to save zero curve -- could not get a database transaction"
		span.SetStatus(codes.Error, msg)
		subLog.Warn().Stack().Err(err).Msg(msg)
		return err
	}

	curveSQL := `INSERT INTO zero_curve ("curve_date", "duration", "rate") VALUES ($1, $2, $3) ON CONFLICT ON CONSTRAINT zero_curve_pkey DO UPDATE SET rate=$3`
	for _, pt := range points {
		if _, err := trx.Exec(ctx, curveSQL, curveDate, pt.Tenor, pt.Rate); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "db insert failed")
			subLog.Error().Stack().Err(err).Str("Duration", pt.Tenor).Msg("failed to save zero curve point")
			if err := trx.Rollback(ctx); err != nil {
				subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
			}
			return err
		}
	}

	if err := trx.Commit(ctx); err != nil {
		subLog.Error().Stack().Err(err).Msg("failed to commit zero curve")
		if err := trx.Rollback(ctx); err != nil {
			subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
		}
		return err
	}
	return nil
}

// SaveProjection stores a projection run and its per-period values
func (p *BvDb) SaveProjection(ctx context.Context, userID string, run *ProjectionRun) error {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "bvdb.SaveProjection")
	defer span.End()

	subLog := log.With().Str("UserID", userID).Str("RunID", run.ID.String()).Str("Scenario", run.Scenario).Logger()

	trx, err := database.TrxForUser(ctx, userID)
	if err != nil {
		span.RecordError(err)
		msg := "failed to save projection -- could not get a database transaction"
		span.SetStatus(codes.Error, msg)
		subLog.Warn().Stack().Err(err).Msg(msg)
		return err
	}

	runSQL := `
	INSERT INTO projection_runs (
		"id",
		"run_hash",
		"scenario",
		"valuation_date",
		"end_date",
		"step_count",
		"created"
	) VALUES (
		$1,
		$2,
		$3,
		$4,
		$5,
		$6,
		$7
	) ON CONFLICT ON CONSTRAINT projection_runs_pkey
	DO UPDATE SET
		run_hash=$2,
		scenario=$3,
		valuation_date=$4,
		end_date=$5,
		step_count=$6`
	_, err = trx.Exec(ctx, runSQL, run.ID, run.RunHash, run.Scenario, run.ValuationDate, run.EndDate, run.StepCount, run.Created)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "db insert failed")
		subLog.Error().Stack().Err(err).Str("Query", runSQL).Msg("failed to save projection run")
		if err := trx.Rollback(ctx); err != nil {
			subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
		}
		return err
	}

	valueSQL := `
	INSERT INTO projection_values (
		"run_id",
		"period_start",
		"cashflow",
		"redemption"
	) VALUES (
		$1,
		$2,
		$3,
		$4
	) ON CONFLICT ON CONSTRAINT projection_values_pkey
	DO UPDATE SET
		cashflow=$3,
		redemption=$4`
	for idx, periodStart := range run.PeriodStarts {
		_, err = trx.Exec(ctx, valueSQL, run.ID, periodStart, run.Cashflows[idx], run.Redemptions[idx])
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "db insert failed")
			subLog.Error().Stack().Err(err).Time("PeriodStart", periodStart).Msg("failed to save projection value")
			if err := trx.Rollback(ctx); err != nil {
				subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
			}
			return err
		}
	}

	if err := trx.Commit(ctx); err != nil {
		subLog.Error().Stack().Err(err).Msg("failed to commit projection run")
		if err := trx.Rollback(ctx); err != nil {
			subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
		}
		return err
	}
	return nil
}

// GetProjection loads a saved projection run by id. ErrNotFound is returned
// when the user has no run with that id.
func (p *BvDb) GetProjection(ctx context.Context, userID string, runID uuid.UUID) (*ProjectionRun, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "bvdb.GetProjection")
	defer span.End()

	subLog := log.With().Str("UserID", userID).Str("RunID", runID.String()).Logger()

	trx, err := database.TrxForUser(ctx, userID)
	if err != nil {
		span.RecordError(err)
		msg := "failed to load projection -- could not get a database transaction"
		span.SetStatus(codes.Error, msg)
		subLog.Warn().Stack().Err(err).Msg(msg)
		return nil, err
	}

	runSQL := `SELECT id, run_hash, scenario, valuation_date, end_date, step_count, created FROM projection_runs WHERE id=$1`
	row := trx.QueryRow(ctx, runSQL, runID)
	run := &ProjectionRun{}
	err = row.Scan(&run.ID, &run.RunHash, &run.Scenario, &run.ValuationDate, &run.EndDate, &run.StepCount, &run.Created)
	if err != nil {
		if err := trx.Rollback(ctx); err != nil {
			subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
		}
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "db query failed")
		subLog.Warn().Stack().Err(err).Msg("failed to load projection -- db query failed")
		return nil, err
	}
	run.ValuationDate = midnightUTC(run.ValuationDate)
	run.EndDate = midnightUTC(run.EndDate)

	valueSQL := `SELECT period_start, cashflow, redemption FROM projection_values WHERE run_id=$1 ORDER BY period_start`
	rows, err := trx.Query(ctx, valueSQL, runID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "db query failed")
		subLog.Warn().Stack().Err(err).Str("SQL", valueSQL).Msg("failed to load projection values")
		if err := trx.Rollback(ctx); err != nil {
			subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
		}
		return nil, err
	}

	run.PeriodStarts = make([]time.Time, 0, run.StepCount)
	run.Cashflows = make([]float64, 0, run.StepCount)
	run.Redemptions = make([]float64, 0, run.StepCount)
	for rows.Next() {
		var periodStart time.Time
		var cashflow, redemption float64
		if err := rows.Scan(&periodStart, &cashflow, &redemption); err != nil {
			subLog.Error().Stack().Err(err).Msg("failed to load projection -- db scan failed")
			if err := trx.Rollback(ctx); err != nil {
				subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
			}
			return nil, err
		}
		run.PeriodStarts = append(run.PeriodStarts, midnightUTC(periodStart))
		run.Cashflows = append(run.Cashflows, cashflow)
		run.Redemptions = append(run.Redemptions, redemption)
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "db row read failed")
		subLog.Warn().Stack().Err(err).Msg("failed to load projection -- db row read failed")
		if err := trx.Rollback(ctx); err != nil {
			subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
		}
		return nil, err
	}

	if err := trx.Commit(ctx); err != nil {
		subLog.Warn().Stack().Err(err).Msg("could not commit transaction")
	}
	return run, nil
}

// midnightUTC strips any driver-supplied clock time; position and curve
// dates are calendar dates
func midnightUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
