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
	"runtime"
	"time"

	"github.com/bond-vault/bv-api/common"
	"github.com/bond-vault/bv-api/data"
	"github.com/bond-vault/bv-api/data/database"
	"github.com/bond-vault/bv-api/filter"
	"github.com/bond-vault/bv-api/scenario"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type projectionParams struct {
	ValuationDate string `json:"valuation_date"`
	EndDate       string `json:"end_date"`
	Scenario      string `json:"scenario"`
}

// parseWindow reads the projection window from startDate/endDate query
// parameters, falling back to the configured default window
func parseWindow(c *fiber.Ctx) (time.Time, time.Time, error) {
	return parseWindowStrings(c.Query("startDate"), c.Query("endDate"))
}

func parseWindowStrings(startStr string, endStr string) (time.Time, time.Time, error) {
	if startStr == "" {
		startStr = viper.GetString("projection.start_date")
	}
	if endStr == "" {
		endStr = viper.GetString("projection.end_date")
	}

	valuation, err := time.Parse("2006-01-02", startStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("cannot parse start date %q: %w", startStr, err)
	}

	var end time.Time
	if endStr == "now" {
		now := time.Now().UTC()
		end = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	} else {
		end, err = time.Parse("2006-01-02", endStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("cannot parse end date %q: %w", endStr, err)
		}
	}

	return valuation, end, nil
}

// RunProjection builds the portfolio projection for the authenticated user
// and stores it as a new run. The full run is returned immediately; the
// database write happens in the background while the cache serves reads.
func RunProjection(c *fiber.Ctx) (resp error) {
	ctx := context.Background()
	userID := c.Locals("userID").(string)
	subLog := log.With().Str("UserID", userID).Str("Endpoint", "RunProjection").Logger()

	defer func() {
		if err := recover(); err != nil {
			stackSlice := make([]byte, 1024)
			runtime.Stack(stackSlice, false)
			subLog.Error().Str("StackTrace", string(stackSlice)).Msg("caught panic in RunProjection")
			resp = fiber.ErrInternalServerError
		}
	}()

	params := projectionParams{}
	if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &params); err != nil {
			subLog.Warn().Err(err).Msg("bad projection request body")
			return fiber.ErrBadRequest
		}
	}

	valuation, end, err := parseWindowStrings(params.ValuationDate, params.EndDate)
	if err != nil {
		subLog.Warn().Err(err).Msg("cannot parse projection window")
		return fiber.ErrNotAcceptable
	}

	model, err := data.GetManagerInstance().BuildModel(ctx, userID, params.Scenario, valuation, end)
	if err != nil {
		if errors.Is(err, scenario.ErrUnknownScenario) {
			return fiber.ErrBadRequest
		}
		return fiber.ErrInternalServerError
	}

	run, err := data.RunFromModel(model, params.Scenario)
	if err != nil {
		subLog.Error().Err(err).Msg("could not evaluate projection model")
		return fiber.ErrInternalServerError
	}

	go func() {
		saveCtx := context.Background()
		if err := data.GetManagerInstance().SaveProjection(saveCtx, userID, run); err != nil {
			subLog.Error().Err(err).Str("RunID", run.ID.String()).Msg("could not save projection run")
		}
	}()

	serialized, err := json.Marshal(run)
	if err != nil {
		subLog.Error().Err(err).Str("RunID", run.ID.String()).Msg("serialization failed for projection run")
		return fiber.ErrInternalServerError
	}
	if err := common.CacheSet(run.ID.String(), serialized); err != nil {
		subLog.Warn().Err(err).Str("RunID", run.ID.String()).Msg("caching failed for projection run")
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	return c.Send(serialized)
}

// GetProjection returns a saved run with its full vectors
func GetProjection(c *fiber.Ctx) error {
	ctx := context.Background()
	userID := c.Locals("userID").(string)

	runID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		log.Warn().Err(err).Str("RunID", c.Params("id")).Msg("invalid run id")
		return fiber.ErrBadRequest
	}

	body, err := filter.New(runID, userID).GetRun(ctx)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return fiber.ErrNotFound
		}
		return fiber.ErrInternalServerError
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	return c.Send(body)
}

// GetProjectionValues returns two selected value series for a saved run.
// Fields default to cashflow and redemption; since limits the reported
// periods.
func GetProjectionValues(c *fiber.Ctx) error {
	ctx := context.Background()
	userID := c.Locals("userID").(string)

	runID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		log.Warn().Err(err).Str("RunID", c.Params("id")).Msg("invalid run id")
		return fiber.ErrBadRequest
	}

	field1 := c.Query("field1", "cashflow")
	field2 := c.Query("field2", "redemption")

	since := time.Time{}
	if sinceStr := c.Query("since"); sinceStr != "" {
		since, err = time.Parse("2006-01-02", sinceStr)
		if err != nil {
			log.Warn().Err(err).Str("SinceStr", sinceStr).Msg("cannot parse since query parameter")
			return fiber.ErrNotAcceptable
		}
	}

	body, err := filter.New(runID, userID).GetValues(ctx, field1, field2, since)
	if err != nil {
		if errors.Is(err, filter.ErrUnknownValueField) {
			return fiber.ErrBadRequest
		}
		return fiber.ErrInternalServerError
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	return c.Send(body)
}

type projectionRunSummary struct {
	ID            uuid.UUID `json:"id"`
	RunHash       string    `json:"run_hash"`
	Scenario      string    `json:"scenario"`
	ValuationDate time.Time `json:"valuation_date"`
	EndDate       time.Time `json:"end_date"`
	StepCount     int       `json:"step_count"`
	Created       time.Time `json:"created"`
}

// ListProjections returns the user's saved runs, newest first, without the
// period vectors
func ListProjections(c *fiber.Ctx) error {
	ctx := context.Background()
	userID := c.Locals("userID").(string)
	subLog := log.With().Str("UserID", userID).Str("Endpoint", "ListProjections").Logger()

	rangeHeader := c.Get("range")
	limit, offset, err := parseRange(rangeHeader)
	if limit > 500 || err != nil {
		subLog.Error().Int("Limit", limit).Msg("range header error")
		return fiber.ErrRequestedRangeNotSatisfiable
	}

	trx, err := database.TrxForUser(ctx, userID)
	if err != nil {
		subLog.Error().Stack().Err(err).Msg("unable to get database transaction for user")
		return fiber.ErrServiceUnavailable
	}

	sql := fmt.Sprintf("SELECT id, run_hash, scenario, valuation_date, end_date, step_count, created FROM projection_runs ORDER BY created DESC LIMIT %d OFFSET %d", limit, offset)
	rows, err := trx.Query(ctx, sql)
	if err != nil {
		subLog.Warn().Stack().Err(err).Str("SQL", sql).Msg("database query failed")
		if err := trx.Rollback(ctx); err != nil {
			log.Error().Stack().Err(err).Msg("could not rollback transaction")
		}

		return fiber.ErrInternalServerError
	}

	runs := make([]*projectionRunSummary, 0, limit)
	for rows.Next() {
		summary := &projectionRunSummary{}
		err := rows.Scan(&summary.ID, &summary.RunHash, &summary.Scenario, &summary.ValuationDate, &summary.EndDate, &summary.StepCount, &summary.Created)
		if err != nil {
			subLog.Error().Err(err).Msg("could not scan projection run")
			if err := trx.Rollback(ctx); err != nil {
				log.Error().Stack().Err(err).Msg("could not rollback transaction")
			}
			return fiber.ErrInternalServerError
		}
		runs = append(runs, summary)
	}

	if err := trx.Commit(ctx); err != nil {
		subLog.Warn().Stack().Err(err).Msg("could not commit transaction")
	}

	beginRange := offset
	endRange := offset + len(runs) - 1
	count := "*"
	if len(runs) < limit {
		count = fmt.Sprintf("%d", len(runs)+offset)
	}
	c.Append("Content-Range", fmt.Sprintf("items %d-%d/%s", beginRange, endRange, count))
	return c.JSON(runs)
}
