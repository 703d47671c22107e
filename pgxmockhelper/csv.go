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

// Package pgxmockhelper loads CSV fixtures into pgxmock row sets and bundles
// the expectation sequences the data layer produces: every query runs inside
// a transaction that first switches to the requesting user's role.
package pgxmockhelper

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgconn"
	"github.com/pashagolub/pgxmock"
	"github.com/rs/zerolog/log"
)

type CSVRows struct {
	rows   [][]any
	header []string
}

// NewCSVRows reads csvFn and converts columns according to typeMap, which
// maps column names to one of "date", "float64" or "int". Unmapped columns
// stay strings.
func NewCSVRows(csvFn string, typeMap map[string]string) *CSVRows {
	subLog := log.With().Str("CsvFn", csvFn).Logger()

	rows := &CSVRows{
		rows: make([][]any, 0),
	}
	rawData, err := os.ReadFile(csvFn)
	if err != nil {
		subLog.Panic().Err(err).Msg("could not read file")
	}

	// break raw data into an array of lines
	lines := strings.Split(string(rawData), "\n")

	// sanity checks:
	// - array length is at least 3 (header + content + trailing newline)
	// - make sure last line ends in newline
	if len(lines) < 2 {
		subLog.Panic().Int("NumLines", len(lines)).Msg("input file does not have enough lines, need at least 2 (header + trailing new line)")
	}
	if lines[len(lines)-1] != "" {
		subLog.Panic().Msg("input file is missing a trailing new line")
	}

	// parse header
	headerRaw := lines[0]
	lines = lines[1 : len(lines)-1] // discard first and last rows
	rows.header = strings.Split(headerRaw, ",")

	// parse each line and create a row
	for _, ll := range lines {
		cols := make([]any, len(rows.header))
		parts := strings.Split(ll, ",")
		for idx, val := range parts {
			colName := rows.header[idx]
			if typeConv, ok := typeMap[colName]; ok {
				switch typeConv {
				case "date":
					parsed, err := time.Parse("2006-01-02", val)
					if err != nil {
						subLog.Panic().Err(err).Str("Val", val).Msg("could not convert val to datetime of format 2006-01-02")
					}
					cols[idx] = parsed
				case "float64":
					parsed, err := strconv.ParseFloat(val, 64)
					if err != nil {
						subLog.Panic().Err(err).Str("Val", val).Msg("could not convert val to float64")
					}
					cols[idx] = parsed
				case "int":
					parsed, err := strconv.Atoi(val)
					if err != nil {
						subLog.Panic().Err(err).Str("Val", val).Msg("could not convert val to int")
					}
					cols[idx] = parsed
				default:
					// no type conversion specified - use as is
					cols[idx] = val
				}
			} else {
				cols[idx] = val
			}
		}
		rows.rows = append(rows.rows, cols)
	}

	return rows
}

func (csvRows *CSVRows) Rows() *pgxmock.Rows {
	r := pgxmock.NewRows(csvRows.header)
	for _, row := range csvRows.rows {
		r.AddRow(row...)
	}
	return r
}

// bondTypeMap converts the bonds fixture columns to the types GetBonds scans
func bondTypeMap() map[string]string {
	return map[string]string{
		"settlement_days": "int",
		"face_value":      "float64",
		"issue_date":      "date",
		"bond_term":       "int",
		"maturity_date":   "date",
		"coupon_rate":     "float64",
		"z_spread":        "float64",
	}
}

// MockBondsQuery arranges a transaction returning the bond rows in fn
func MockBondsQuery(db pgxmock.PgxConnIface, fn string) {
	db.ExpectBegin()
	db.ExpectExec("SET ROLE").WillReturnResult(pgconn.CommandTag("SET ROLE"))
	db.ExpectQuery("SELECT bond_id, settlement_days, face_value, issue_date, bond_term, maturity_date, tenor, coupon_rate, z_spread FROM bonds").WillReturnRows(
		NewCSVRows(fn, bondTypeMap()).Rows())
}

// MockBondQuery arranges a transaction returning a single bond row from fn
func MockBondQuery(db pgxmock.PgxConnIface, fn string) {
	db.ExpectBegin()
	db.ExpectExec("SET ROLE").WillReturnResult(pgconn.CommandTag("SET ROLE"))
	db.ExpectQuery("SELECT bond_id, settlement_days, face_value, issue_date, bond_term, maturity_date, tenor, coupon_rate, z_spread FROM bonds WHERE").WillReturnRows(
		NewCSVRows(fn, bondTypeMap()).Rows())
}

// MockZeroCurveQuery arranges a transaction returning the curve rows in fn
func MockZeroCurveQuery(db pgxmock.PgxConnIface, fn string) {
	db.ExpectBegin()
	db.ExpectExec("SET ROLE").WillReturnResult(pgconn.CommandTag("SET ROLE"))
	db.ExpectQuery("SELECT curve_date, duration, rate FROM zero_curve").WillReturnRows(
		NewCSVRows(fn, map[string]string{
			"curve_date": "date",
			"rate":       "float64",
		}).Rows())
}
