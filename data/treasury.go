// Copyright 2022
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package data

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/bond-vault/bv-api/curve"
	"github.com/bond-vault/bv-api/observability/opentelemetry"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// DownloadZeroCurve fetches current zero curve quotes from the treasury feed
// configured at curve.download_url. The feed is a CSV with duration and rate
// columns; rates are fractions, e.g. 0.0194 for 1.94%.
func DownloadZeroCurve(ctx context.Context) ([]curve.Point, error) {
	_, span := otel.Tracer(opentelemetry.Name).Start(ctx, "treasury.DownloadZeroCurve")
	defer span.End()

	curveURL := viper.GetString("curve.download_url")
	subLog := log.With().Str("Url", curveURL).Logger()

	span.SetAttributes(
		attribute.KeyValue{
			Key:   "Url",
			Value: attribute.StringValue(curveURL),
		},
	)

	resp, err := http.Get(curveURL)
	if err != nil {
		span.RecordError(err)
		msg := "treasury http request failed"
		span.SetStatus(codes.Error, msg)
		subLog.Error().Err(err).Msg(msg)
		return nil, err
	}

	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		span.SetAttributes(attribute.KeyValue{
			Key:   "StatusCode",
			Value: attribute.IntValue(resp.StatusCode),
		})
		msg := "treasury returned invalid response code"
		span.SetStatus(codes.Error, msg)
		subLog.Error().Int("HTTPResponseStatusCode", resp.StatusCode).Msg(msg)
		return nil, fmt.Errorf("%w: status code %d", ErrBadDownload, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		msg := "could not read treasury response body"
		span.SetStatus(codes.Error, msg)
		subLog.Error().Err(err).Msg(msg)
		return nil, err
	}

	points, err := parseCurveCSV(body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "could not parse treasury response")
		subLog.Error().Err(err).Msg("could not parse treasury response")
		return nil, err
	}

	subLog.Info().Int("NumPoints", len(points)).Msg("downloaded zero curve")
	return points, nil
}

// parseCurveCSV decodes duration,rate rows. A header row is required; every
// duration must be a valid tenor so a bad feed fails here rather than at
// curve construction.
func parseCurveCSV(body []byte) ([]curve.Point, error) {
	reader := csv.NewReader(bytes.NewReader(body))
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBadDownload, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: no data rows", ErrBadDownload)
	}

	header := rows[0]
	durationIdx, rateIdx := -1, -1
	for idx, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "duration":
			durationIdx = idx
		case "rate":
			rateIdx = idx
		}
	}
	if durationIdx == -1 || rateIdx == -1 {
		return nil, fmt.Errorf("%w: missing duration or rate column", ErrBadDownload)
	}

	points := make([]curve.Point, 0, len(rows)-1)
	for rowNum, row := range rows[1:] {
		duration := strings.TrimSpace(row[durationIdx])
		if _, err := curve.ParseTenor(duration); err != nil {
			return nil, fmt.Errorf("%w: row %d: bad duration %q", ErrBadDownload, rowNum+2, duration)
		}

		rate, err := strconv.ParseFloat(strings.TrimSpace(row[rateIdx]), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: bad rate %q", ErrBadDownload, rowNum+2, row[rateIdx])
		}

		points = append(points, curve.Point{Tenor: duration, Rate: rate})
	}

	return points, nil
}
