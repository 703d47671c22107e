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

package projection

import (
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zeebo/blake3"

	"github.com/bond-vault/bv-api/bond"
	"github.com/bond-vault/bv-api/curve"
)

var (
	ErrBondNotFound  = errors.New("bond not found")
	ErrDuplicateBond = errors.New("duplicate bond id")
)

// Model evaluates a bond portfolio over an annual period grid. The
// record table, curve and calendar are fixed at construction; every
// method is a pure computation over them, so a model may be shared
// across goroutines freely.
type Model struct {
	calendar *Calendar
	curve    *curve.ZeroCurve
	points   []curve.Point
	records  map[string]*bond.Record
	bonds    map[string]*bond.FixedRateBond
	ids      []string
}

// NewModel builds the period calendar, the zero curve and one bond per
// record. Records are validated up front; a bad record or a duplicate
// identifier fails construction rather than a later evaluation call.
func NewModel(records []*bond.Record, points []curve.Point, valuation, end time.Time) (*Model, error) {
	zc, err := curve.NewZeroCurve(points, valuation)
	if err != nil {
		return nil, err
	}

	m := &Model{
		calendar: NewCalendar(valuation, end),
		curve:    zc,
		points:   points,
		records:  make(map[string]*bond.Record, len(records)),
		bonds:    make(map[string]*bond.FixedRateBond, len(records)),
		ids:      make([]string, 0, len(records)),
	}

	for _, rec := range records {
		if _, ok := m.records[rec.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateBond, rec.ID)
		}
		b, err := bond.NewFixedRateBond(rec)
		if err != nil {
			return nil, err
		}
		m.records[rec.ID] = rec
		m.bonds[rec.ID] = b
		m.ids = append(m.ids, rec.ID)
	}
	sort.Strings(m.ids)

	return m, nil
}

// Calendar returns the period grid shared by every bond in the model.
func (m *Model) Calendar() *Calendar {
	return m.calendar
}

// Curve returns the zero curve bonds are priced against.
func (m *Model) Curve() *curve.ZeroCurve {
	return m.curve
}

// BondIDs returns every bond identifier in sorted order. All portfolio
// level results iterate in this order, keeping runs deterministic.
func (m *Model) BondIDs() []string {
	return m.ids
}

// Bond looks up the built bond for an identifier.
func (m *Model) Bond(bondID string) (*bond.FixedRateBond, error) {
	b, ok := m.bonds[bondID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBondNotFound, bondID)
	}
	return b, nil
}

// Record looks up the input record for an identifier.
func (m *Model) Record(bondID string) (*bond.Record, error) {
	rec, ok := m.records[bondID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBondNotFound, bondID)
	}
	return rec, nil
}

// Cashflows bins the bond's full cash event sequence, coupons and
// redemption together, into the period grid.
func (m *Model) Cashflows(bondID string) ([]float64, error) {
	b, err := m.Bond(bondID)
	if err != nil {
		return nil, err
	}
	return Bin(m.calendar, b.Cashflows())
}

// Redemptions bins the bond's principal repayments only.
func (m *Model) Redemptions(bondID string) ([]float64, error) {
	b, err := m.Bond(bondID)
	if err != nil {
		return nil, err
	}
	return Bin(m.calendar, b.Redemptions())
}

// CashflowsTotal sums the binned cashflows of every bond in the
// portfolio.
func (m *Model) CashflowsTotal() ([]float64, error) {
	vectors := make([][]float64, 0, len(m.ids))
	for _, bondID := range m.ids {
		v, err := m.Cashflows(bondID)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, v)
	}
	return Aggregate(m.calendar, vectors), nil
}

// RedemptionsTotal sums the binned principal repayments of every bond
// in the portfolio.
func (m *Model) RedemptionsTotal() ([]float64, error) {
	vectors := make([][]float64, 0, len(m.ids))
	for _, bondID := range m.ids {
		v, err := m.Redemptions(bondID)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, v)
	}
	return Aggregate(m.calendar, vectors), nil
}

// MarketValue prices one bond at its quoted spread and scales the clean
// price onto the notional.
func (m *Model) MarketValue(bondID string) (float64, error) {
	b, err := m.Bond(bondID)
	if err != nil {
		return 0, err
	}
	return b.MarketValue(m.curve, m.records[bondID].ZSpread), nil
}

// MarketValues returns one market value per bond, aligned with
// BondIDs.
func (m *Model) MarketValues() ([]float64, error) {
	values := make([]float64, 0, len(m.ids))
	for _, bondID := range m.ids {
		mv, err := m.MarketValue(bondID)
		if err != nil {
			return nil, err
		}
		values = append(values, mv)
	}
	return values, nil
}

// ImpliedSpread prices the bond at its quoted spread and solves the
// spread back out of the resulting clean price. A healthy model
// reproduces the quoted spread; a gap flags inconsistent input data.
func (m *Model) ImpliedSpread(bondID string) (float64, error) {
	b, err := m.Bond(bondID)
	if err != nil {
		return 0, err
	}
	price := b.CleanPrice(m.curve, m.records[bondID].ZSpread)
	return bond.ImpliedZSpread(b, price, m.curve)
}

// Fingerprint computes a 16-byte blake3 digest over the model inputs:
// the date range, the curve points and every bond record in sorted
// order. Runs with equal fingerprints produce equal results.
func (m *Model) Fingerprint() (string, error) {
	var sb strings.Builder

	sb.WriteString(m.calendar.Valuation().Format("2006-01-02"))
	sb.WriteString("|")
	sb.WriteString(m.calendar.End().Format("2006-01-02"))

	for _, pt := range m.points {
		fmt.Fprintf(&sb, "|%s=%g", pt.Tenor, pt.Rate)
	}

	for _, bondID := range m.ids {
		rec := m.records[bondID]
		fmt.Fprintf(&sb, "|%s;%d;%g;%s;%s;%s;%g;%g", rec.ID, rec.SettlementDays,
			rec.FaceValue, rec.IssueDate.Format("2006-01-02"),
			rec.MaturityDate.Format("2006-01-02"), rec.Tenor, rec.CouponRate,
			rec.ZSpread)
	}

	h := blake3.New()
	if _, err := h.Write([]byte(sb.String())); err != nil {
		log.Error().Stack().Err(err).Msg("could not write model inputs to blake3 hasher")
		return "", err
	}

	digest := h.Digest()
	buf := make([]byte, 16)
	if _, err := digest.Read(buf); err != nil {
		log.Error().Stack().Err(err).Msg("could not read blake3 digest")
		return "", err
	}

	return hex.EncodeToString(buf), nil
}
