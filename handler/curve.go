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
	"time"

	"github.com/bond-vault/bv-api/curve"
	"github.com/bond-vault/bv-api/data"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type zeroCurveResponse struct {
	CurveDate time.Time     `json:"curve_date"`
	Points    []curve.Point `json:"points"`
}

// GetZeroCurve returns the zero curve quotes in effect on the requested
// date, defaulting to today
func GetZeroCurve(c *fiber.Ctx) error {
	ctx := context.Background()
	dateStr := c.Query("date", "now")

	var date time.Time
	if dateStr == "now" {
		now := time.Now().UTC()
		date = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	} else {
		var err error
		date, err = time.Parse("2006-01-02", dateStr)
		if err != nil {
			log.Warn().Err(err).Str("DateStr", dateStr).Msg("cannot parse date query parameter")
			return fiber.ErrNotAcceptable
		}
	}

	points, curveDate, err := data.GetManagerInstance().ZeroCurve(ctx, date)
	if err != nil {
		if errors.Is(err, data.ErrNoCurve) {
			return fiber.ErrNotFound
		}
		log.Error().Err(err).Time("Date", date).Msg("could not load zero curve")
		return fiber.ErrInternalServerError
	}

	return c.JSON(zeroCurveResponse{
		CurveDate: curveDate,
		Points:    points,
	})
}
