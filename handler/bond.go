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

package handler

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/bond-vault/bv-api/bond"
	"github.com/bond-vault/bv-api/data"
	"github.com/bond-vault/bv-api/data/database"
	"github.com/bond-vault/bv-api/filter"
	"github.com/bond-vault/bv-api/projection"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// bondColumns are the selectable and filterable columns of the bonds table,
// in the scan order used below
var bondColumns = []string{"bond_id", "settlement_days", "face_value", "issue_date", "bond_term", "maturity_date", "tenor", "coupon_rate", "z_spread"}

func filterableBondColumn(name string) bool {
	for _, col := range bondColumns {
		if col == name {
			return true
		}
	}
	return false
}

func parseRange(r string) (int, int, error) {
	if r == "" {
		return 100, 0, nil
	}

	re := regexp.MustCompile(`((\w+)=)?(\d+)-(\d+)`)
	res := re.FindStringSubmatch(r)

	if res == nil {
		return 10, 0, fiber.ErrRequestedRangeNotSatisfiable
	}

	if len(res) == 5 && res[2] != "items" {
		return 10, 0, fiber.ErrRequestedRangeNotSatisfiable
	}

	begin, err := strconv.ParseInt(res[3], 10, 32)
	if err != nil {
		log.Error().Err(err).Msg("could not parse limit")
		return 10, 0, fiber.ErrRequestedRangeNotSatisfiable
	}

	end, err := strconv.ParseInt(res[4], 10, 32)
	if err != nil {
		log.Error().Err(err).Msg("could not parse offset")
		return 10, 0, fiber.ErrRequestedRangeNotSatisfiable
	}

	if end <= begin {
		log.Error().Int64("Begin", begin).Int64("End", end).Msg("range error: end <= begin")
		return 10, 0, fiber.ErrRequestedRangeNotSatisfiable
	}

	limit := int(end - begin + 1)
	offset := int(begin)

	return limit, offset, nil
}

// ListBonds returns the user's bond positions. Query parameters named after
// bond columns become where clauses, e.g. ?maturity_date=gte.2025-01-01
func ListBonds(c *fiber.Ctx) error {
	ctx := context.Background()
	userID := c.Locals("userID").(string)
	subLog := log.With().Str("UserID", userID).Str("Endpoint", "ListBonds").Logger()

	rangeHeader := c.Get("range")
	limit, offset, err := parseRange(rangeHeader)
	if limit > 500 || err != nil {
		subLog.Error().Int("Limit", limit).Msg("range header error")
		return fiber.ErrRequestedRangeNotSatisfiable
	}

	where := make(map[string]string)
	var badColumn string
	c.Request().URI().QueryArgs().VisitAll(func(key []byte, value []byte) {
		k := string(key)
		if k == "apikey" {
			return
		}
		if !filterableBondColumn(k) {
			badColumn = k
			return
		}
		where[k] = string(value)
	})
	if badColumn != "" {
		subLog.Warn().Str("Column", badColumn).Msg("query filter references an unknown bond column")
		return fiber.ErrBadRequest
	}

	sql, args, err := filter.BuildQuery("bonds", bondColumns, nil, where, "bond_id ASC")
	if err != nil {
		subLog.Warn().Err(err).Msg("could not build bond query")
		return fiber.ErrBadRequest
	}
	sql = fmt.Sprintf("%s LIMIT %d OFFSET %d", sql, limit, offset)

	trx, err := database.TrxForUser(ctx, userID)
	if err != nil {
		subLog.Error().Stack().Err(err).Msg("unable to get database transaction for user")
		return fiber.ErrServiceUnavailable
	}

	rows, err := trx.Query(ctx, sql, args...)
	if err != nil {
		subLog.Warn().Stack().Err(err).Str("SQL", sql).Msg("database query failed")
		if err := trx.Rollback(ctx); err != nil {
			log.Error().Stack().Err(err).Msg("could not rollback transaction")
		}

		return fiber.ErrInternalServerError
	}

	bonds := make([]*bond.Record, 0, limit)
	for rows.Next() {
		rec := &bond.Record{}
		err := rows.Scan(&rec.ID, &rec.SettlementDays, &rec.FaceValue, &rec.IssueDate, &rec.Term, &rec.MaturityDate, &rec.Tenor, &rec.CouponRate, &rec.ZSpread)
		if err != nil {
			subLog.Error().Err(err).Msg("could not scan bond record")
			if err := trx.Rollback(ctx); err != nil {
				log.Error().Stack().Err(err).Msg("could not rollback transaction")
			}
			return fiber.ErrInternalServerError
		}
		bonds = append(bonds, rec)
	}

	if err := trx.Commit(ctx); err != nil {
		subLog.Warn().Stack().Err(err).Msg("could not commit transaction")
	}

	beginRange := offset
	endRange := offset + len(bonds) - 1
	count := "*"
	if len(bonds) < limit {
		count = fmt.Sprintf("%d", len(bonds)+offset)
	}
	c.Append("Content-Range", fmt.Sprintf("items %d-%d/%s", beginRange, endRange, count))
	return c.JSON(bonds)
}

// GetBond returns a single bond position
func GetBond(c *fiber.Ctx) error {
	ctx := context.Background()
	userID := c.Locals("userID").(string)
	bondID := c.Params("id")

	rec, err := data.NewBvDb().GetBond(ctx, userID, bondID)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return fiber.ErrNotFound
		}
		return fiber.ErrInternalServerError
	}
	return c.JSON(rec)
}

type bondCashflowResponse struct {
	BondID        string      `json:"bond_id"`
	ValuationDate time.Time   `json:"valuation_date"`
	EndDate       time.Time   `json:"end_date"`
	PeriodStarts  []time.Time `json:"period_starts"`
	Cashflows     []float64   `json:"cashflows"`
	Redemptions   []float64   `json:"redemptions"`
}

// GetBondCashflows projects one bond's cash events onto the period grid.
// The cashflow vector carries coupons and principal together; redemptions
// is the principal subset.
func GetBondCashflows(c *fiber.Ctx) error {
	ctx := context.Background()
	userID := c.Locals("userID").(string)
	bondID := c.Params("id")
	subLog := log.With().Str("UserID", userID).Str("BondID", bondID).Str("Endpoint", "GetBondCashflows").Logger()

	valuation, end, err := parseWindow(c)
	if err != nil {
		subLog.Warn().Err(err).Msg("cannot parse date query parameters")
		return fiber.ErrNotAcceptable
	}

	rec, err := data.NewBvDb().GetBond(ctx, userID, bondID)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return fiber.ErrNotFound
		}
		return fiber.ErrInternalServerError
	}

	b, err := bond.NewFixedRateBond(rec)
	if err != nil {
		subLog.Error().Err(err).Msg("could not build bond from stored record")
		return fiber.ErrInternalServerError
	}

	cal := projection.NewCalendar(valuation, end)
	cashflows, err := projection.Bin(cal, b.Cashflows())
	if err != nil {
		subLog.Error().Err(err).Msg("could not bin bond cashflows")
		return fiber.ErrInternalServerError
	}
	redemptions, err := projection.Bin(cal, b.Redemptions())
	if err != nil {
		subLog.Error().Err(err).Msg("could not bin bond redemptions")
		return fiber.ErrInternalServerError
	}

	return c.JSON(bondCashflowResponse{
		BondID:        bondID,
		ValuationDate: cal.Valuation(),
		EndDate:       cal.End(),
		PeriodStarts:  cal.Starts(),
		Cashflows:     cashflows,
		Redemptions:   redemptions,
	})
}
