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

// Package scenario applies named shifts to zero curve pillars before a
// projection model is built. Scenario definitions are TOML documents
// embedded with the binary; see the defs directory.
package scenario

import (
	"errors"
	"fmt"

	"github.com/bond-vault/bv-api/curve"
)

var (
	ErrUnknownScenario = errors.New("unknown scenario")
	ErrBadDefinition   = errors.New("invalid scenario definition")
)

const (
	// KindNone passes the curve through unshifted.
	KindNone = "none"
	// KindParallel moves every pillar by ShiftBp basis points.
	KindParallel = "parallel"
	// KindTilt rotates the curve around PivotTenor: the longest pillar
	// moves by the full TiltBp while pillars inside the pivot move the
	// opposite way in proportion to their distance from it.
	KindTilt = "tilt"
)

// Scenario is one named curve transformation.
type Scenario struct {
	Name        string  `toml:"name" json:"name"`
	Shortcode   string  `toml:"shortcode" json:"shortcode"`
	Description string  `toml:"description" json:"description"`
	Kind        string  `toml:"kind" json:"kind"`
	ShiftBp     float64 `toml:"shift_bp" json:"shiftBp"`
	TiltBp      float64 `toml:"tilt_bp" json:"tiltBp"`
	PivotTenor  string  `toml:"pivot_tenor" json:"pivotTenor"`
}

// Validate checks a parsed definition before it enters the registry.
func (s *Scenario) Validate() error {
	if s.Shortcode == "" {
		return fmt.Errorf("%w: shortcode is required", ErrBadDefinition)
	}
	if s.Name == "" {
		return fmt.Errorf("%w: scenario %s has no name", ErrBadDefinition, s.Shortcode)
	}

	switch s.Kind {
	case KindNone, KindParallel:
	case KindTilt:
		if _, err := curve.ParseTenor(s.PivotTenor); err != nil {
			return fmt.Errorf("%w: scenario %s pivot: %s", ErrBadDefinition, s.Shortcode, err)
		}
	default:
		return fmt.Errorf("%w: scenario %s has unknown kind %q", ErrBadDefinition, s.Shortcode, s.Kind)
	}

	return nil
}

// Apply returns a shifted copy of the curve pillars. The input slice is
// never modified.
func (s *Scenario) Apply(points []curve.Point) ([]curve.Point, error) {
	shifted := make([]curve.Point, len(points))
	copy(shifted, points)

	switch s.Kind {
	case KindNone:
		return shifted, nil
	case KindParallel:
		for idx := range shifted {
			shifted[idx].Rate += s.ShiftBp / 10000.0
		}
		return shifted, nil
	case KindTilt:
		return s.tilt(shifted)
	}

	return nil, fmt.Errorf("%w: scenario %s has unknown kind %q", ErrBadDefinition, s.Shortcode, s.Kind)
}

func (s *Scenario) tilt(shifted []curve.Point) ([]curve.Point, error) {
	pivot, err := curve.ParseTenor(s.PivotTenor)
	if err != nil {
		return nil, fmt.Errorf("%w: scenario %s pivot: %s", ErrBadDefinition, s.Shortcode, err)
	}
	pivotMonths := approxMonths(pivot)

	months := make([]float64, len(shifted))
	maxMonths := 0.0
	for idx, pt := range shifted {
		t, err := curve.ParseTenor(pt.Tenor)
		if err != nil {
			return nil, err
		}
		months[idx] = approxMonths(t)
		if months[idx] > maxMonths {
			maxMonths = months[idx]
		}
	}

	if maxMonths <= pivotMonths {
		return nil, fmt.Errorf("%w: scenario %s pivot %s is at or beyond the longest pillar", ErrBadDefinition, s.Shortcode, s.PivotTenor)
	}

	for idx := range shifted {
		shifted[idx].Rate += (s.TiltBp / 10000.0) * (months[idx] - pivotMonths) / (maxMonths - pivotMonths)
	}

	return shifted, nil
}

// approxMonths converts a tenor to months; day and week tenors use a
// 30-day month so they land near the short end of the tilt.
func approxMonths(t curve.Tenor) float64 {
	switch t.Unit {
	case curve.UnitDays:
		return float64(t.Count) / 30.0
	case curve.UnitWeeks:
		return float64(t.Count) * 7.0 / 30.0
	case curve.UnitMonths:
		return float64(t.Count)
	case curve.UnitYears:
		return float64(t.Count) * 12.0
	}
	return 0
}
