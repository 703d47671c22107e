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
	"sync"
	"time"

	"github.com/bond-vault/bv-api/bond"
	"github.com/bond-vault/bv-api/curve"
	"github.com/bond-vault/bv-api/observability/opentelemetry"
	"github.com/bond-vault/bv-api/projection"
	"github.com/bond-vault/bv-api/scenario"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

// Manager is the single entry point for projection inputs. Positions and
// curves normally come from postgres; when input.bonds_xlsx or
// input.curve_xlsx are configured the corresponding workbook is used
// instead, which lets the CLI run against the original spreadsheet inputs
// without a database.
type Manager struct {
	bvdb       *BvDb
	locker     sync.RWMutex
	fileBonds  []*bond.Record
	fileCurve  []curve.Point
	loadedFile map[string]bool
}

var (
	managerOnce     sync.Once
	managerInstance *Manager
)

func GetManagerInstance() *Manager {
	managerOnce.Do(func() {
		managerInstance = &Manager{
			bvdb:       NewBvDb(),
			loadedFile: make(map[string]bool),
		}
	})
	return managerInstance
}

// Bonds returns the user's bond positions
func (manager *Manager) Bonds(ctx context.Context, userID string) ([]*bond.Record, error) {
	if fn := viper.GetString("input.bonds_xlsx"); fn != "" {
		return manager.bondsFromFile(fn)
	}
	return manager.bvdb.GetBonds(ctx, userID)
}

// ZeroCurve returns the zero curve in effect on the valuation date along
// with the date the curve was quoted
func (manager *Manager) ZeroCurve(ctx context.Context, date time.Time) ([]curve.Point, time.Time, error) {
	if fn := viper.GetString("input.curve_xlsx"); fn != "" {
		points, err := manager.curveFromFile(fn)
		return points, date, err
	}
	return manager.bvdb.GetZeroCurve(ctx, date)
}

// BuildModel assembles a projection model for the user: positions plus the
// valuation date curve, with the named scenario shift applied to the curve
// quotes before model construction. An empty scenario name means no shift.
func (manager *Manager) BuildModel(ctx context.Context, userID string, scenarioName string, valuation, end time.Time) (*projection.Model, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "manager.BuildModel")
	defer span.End()

	subLog := log.With().Str("UserID", userID).Str("Scenario", scenarioName).Time("Valuation", valuation).Time("End", end).Logger()

	records, err := manager.Bonds(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "could not load bonds")
		subLog.Error().Err(err).Msg("could not load bonds")
		return nil, err
	}

	points, curveDate, err := manager.ZeroCurve(ctx, valuation)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "could not load zero curve")
		subLog.Error().Err(err).Msg("could not load zero curve")
		return nil, err
	}

	if scenarioName != "" {
		s, err := scenario.Get(scenarioName)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "unknown scenario")
			subLog.Error().Err(err).Msg("unknown scenario")
			return nil, err
		}
		points, err = s.Apply(points)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "could not apply scenario")
			subLog.Error().Err(err).Msg("could not apply scenario")
			return nil, err
		}
	}

	subLog.Debug().Int("NumBonds", len(records)).Time("CurveDate", curveDate).Msg("building projection model")
	model, err := projection.NewModel(records, points, valuation, end)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "could not build projection model")
		subLog.Error().Err(err).Msg("could not build projection model")
		return nil, err
	}
	return model, nil
}

// RefreshZeroCurve downloads current quotes from the treasury feed and
// stores them under today's curve date
func (manager *Manager) RefreshZeroCurve(ctx context.Context) error {
	points, err := DownloadZeroCurve(ctx)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	curveDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return manager.bvdb.SaveZeroCurve(ctx, curveDate, points)
}

// RunFromModel evaluates the model's portfolio totals and packages them as
// a storable projection run with a fresh id
func RunFromModel(model *projection.Model, scenarioName string) (*ProjectionRun, error) {
	cashflows, err := model.CashflowsTotal()
	if err != nil {
		return nil, err
	}
	redemptions, err := model.RedemptionsTotal()
	if err != nil {
		return nil, err
	}
	runHash, err := model.Fingerprint()
	if err != nil {
		return nil, err
	}

	cal := model.Calendar()
	return &ProjectionRun{
		ID:            uuid.New(),
		RunHash:       runHash,
		Scenario:      scenarioName,
		ValuationDate: cal.Valuation(),
		EndDate:       cal.End(),
		StepCount:     cal.Steps(),
		PeriodStarts:  cal.Starts(),
		Cashflows:     cashflows,
		Redemptions:   redemptions,
		Created:       time.Now().UTC(),
	}, nil
}

// SaveProjection stores a completed projection run for the user
func (manager *Manager) SaveProjection(ctx context.Context, userID string, run *ProjectionRun) error {
	return manager.bvdb.SaveProjection(ctx, userID, run)
}

// GetProjection loads a saved projection run; see BvDb.GetProjection
func (manager *Manager) GetProjection(ctx context.Context, userID string, runID uuid.UUID) (*ProjectionRun, error) {
	return manager.bvdb.GetProjection(ctx, userID, runID)
}

// workbook inputs do not change while the process runs; load them once

func (manager *Manager) bondsFromFile(fn string) ([]*bond.Record, error) {
	manager.locker.RLock()
	if manager.loadedFile[fn] {
		defer manager.locker.RUnlock()
		return manager.fileBonds, nil
	}
	manager.locker.RUnlock()

	records, err := LoadBonds(fn)
	if err != nil {
		return nil, err
	}

	manager.locker.Lock()
	manager.fileBonds = records
	manager.loadedFile[fn] = true
	manager.locker.Unlock()
	return records, nil
}

func (manager *Manager) curveFromFile(fn string) ([]curve.Point, error) {
	manager.locker.RLock()
	if manager.loadedFile[fn] {
		defer manager.locker.RUnlock()
		return manager.fileCurve, nil
	}
	manager.locker.RUnlock()

	points, err := LoadZeroCurve(fn)
	if err != nil {
		return nil, err
	}

	manager.locker.Lock()
	manager.fileCurve = points
	manager.loadedFile[fn] = true
	manager.locker.Unlock()
	return points, nil
}
