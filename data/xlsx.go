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

// Workbook loaders for the two spreadsheet inputs: a bond position table
// (bond_data.xlsx) and a quoted zero curve (zero_curve.xlsx). Columns are
// located by header name so column order in the workbook does not matter.

import (
	"fmt"
	"strings"
	"time"

	"github.com/bond-vault/bv-api/bond"
	"github.com/bond-vault/bv-api/curve"
	"github.com/rs/zerolog/log"
	"github.com/tealeg/xlsx/v3"
)

// LoadBonds reads bond positions from an xlsx workbook. The first sheet must
// carry a header row naming the bond_data columns.
func LoadBonds(fn string) ([]*bond.Record, error) {
	wb, err := xlsx.OpenFile(fn)
	if err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("could not open bond workbook")
		return nil, fmt.Errorf("%w: %s", ErrBadWorkbook, fn)
	}
	if len(wb.Sheets) == 0 {
		return nil, fmt.Errorf("%w: %s has no sheets", ErrBadWorkbook, fn)
	}
	sheet := wb.Sheets[0]

	cols, err := headerColumns(sheet, []string{"bond_id", "settlement_days", "face_value", "issue_date", "bond_term", "maturity_date", "tenor", "coupon_rate", "z_spread"})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrBadWorkbook, fn, err)
	}

	records := make([]*bond.Record, 0, sheet.MaxRow)
	for rowIdx := 1; rowIdx < sheet.MaxRow; rowIdx++ {
		row, err := sheet.Row(rowIdx)
		if err != nil {
			return nil, fmt.Errorf("%w: %s row %d: %s", ErrBadWorkbook, fn, rowIdx+1, err)
		}

		id := strings.TrimSpace(row.GetCell(cols["bond_id"]).String())
		if id == "" {
			// blank row marks the end of the table
			break
		}

		rec := &bond.Record{ID: id}
		if rec.SettlementDays, err = intCell(row, cols["settlement_days"]); err != nil {
			return nil, fmt.Errorf("%w: %s row %d: settlement_days: %s", ErrBadWorkbook, fn, rowIdx+1, err)
		}
		if rec.FaceValue, err = floatCell(row, cols["face_value"]); err != nil {
			return nil, fmt.Errorf("%w: %s row %d: face_value: %s", ErrBadWorkbook, fn, rowIdx+1, err)
		}
		if rec.IssueDate, err = dateCell(row, cols["issue_date"]); err != nil {
			return nil, fmt.Errorf("%w: %s row %d: issue_date: %s", ErrBadWorkbook, fn, rowIdx+1, err)
		}
		if rec.Term, err = intCell(row, cols["bond_term"]); err != nil {
			return nil, fmt.Errorf("%w: %s row %d: bond_term: %s", ErrBadWorkbook, fn, rowIdx+1, err)
		}
		if rec.MaturityDate, err = dateCell(row, cols["maturity_date"]); err != nil {
			return nil, fmt.Errorf("%w: %s row %d: maturity_date: %s", ErrBadWorkbook, fn, rowIdx+1, err)
		}
		rec.Tenor = strings.TrimSpace(row.GetCell(cols["tenor"]).String())
		if rec.CouponRate, err = floatCell(row, cols["coupon_rate"]); err != nil {
			return nil, fmt.Errorf("%w: %s row %d: coupon_rate: %s", ErrBadWorkbook, fn, rowIdx+1, err)
		}
		if rec.ZSpread, err = floatCell(row, cols["z_spread"]); err != nil {
			return nil, fmt.Errorf("%w: %s row %d: z_spread: %s", ErrBadWorkbook, fn, rowIdx+1, err)
		}

		records = append(records, rec)
	}

	log.Info().Str("FileName", fn).Int("NumBonds", len(records)).Msg("loaded bonds from workbook")
	return records, nil
}

// LoadZeroCurve reads quoted zero rates from an xlsx workbook with Duration
// and Rate columns.
func LoadZeroCurve(fn string) ([]curve.Point, error) {
	wb, err := xlsx.OpenFile(fn)
	if err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("could not open zero curve workbook")
		return nil, fmt.Errorf("%w: %s", ErrBadWorkbook, fn)
	}
	if len(wb.Sheets) == 0 {
		return nil, fmt.Errorf("%w: %s has no sheets", ErrBadWorkbook, fn)
	}
	sheet := wb.Sheets[0]

	cols, err := headerColumns(sheet, []string{"duration", "rate"})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrBadWorkbook, fn, err)
	}

	points := make([]curve.Point, 0, sheet.MaxRow)
	for rowIdx := 1; rowIdx < sheet.MaxRow; rowIdx++ {
		row, err := sheet.Row(rowIdx)
		if err != nil {
			return nil, fmt.Errorf("%w: %s row %d: %s", ErrBadWorkbook, fn, rowIdx+1, err)
		}

		duration := strings.TrimSpace(row.GetCell(cols["duration"]).String())
		if duration == "" {
			break
		}

		rate, err := floatCell(row, cols["rate"])
		if err != nil {
			return nil, fmt.Errorf("%w: %s row %d: rate: %s", ErrBadWorkbook, fn, rowIdx+1, err)
		}

		points = append(points, curve.Point{Tenor: duration, Rate: rate})
	}

	log.Info().Str("FileName", fn).Int("NumPoints", len(points)).Msg("loaded zero curve from workbook")
	return points, nil
}

// headerColumns maps the wanted header names (lowercased) to column indexes
// using the sheet's first row
func headerColumns(sheet *xlsx.Sheet, wanted []string) (map[string]int, error) {
	header, err := sheet.Row(0)
	if err != nil {
		return nil, err
	}

	cols := make(map[string]int, len(wanted))
	for colIdx := 0; colIdx < sheet.MaxCol; colIdx++ {
		name := strings.ToLower(strings.TrimSpace(header.GetCell(colIdx).String()))
		if name == "" {
			continue
		}
		if _, ok := cols[name]; !ok {
			cols[name] = colIdx
		}
	}

	for _, name := range wanted {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}
	return cols, nil
}

func intCell(row *xlsx.Row, colIdx int) (int, error) {
	return row.GetCell(colIdx).Int()
}

func floatCell(row *xlsx.Row, colIdx int) (float64, error) {
	return row.GetCell(colIdx).Float()
}

// dateCell accepts either a real excel date cell or a YYYY-MM-DD string
func dateCell(row *xlsx.Row, colIdx int) (time.Time, error) {
	cell := row.GetCell(colIdx)
	if cell.IsTime() {
		dt, err := cell.GetTime(false)
		if err != nil {
			return time.Time{}, err
		}
		return time.Date(dt.Year(), dt.Month(), dt.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse("2006-01-02", strings.TrimSpace(cell.String()))
}
