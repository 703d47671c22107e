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

// Package filter answers read queries against saved projection runs. A run
// that is still in the cache is served from memory; otherwise the query is
// pushed down to postgres. Both paths return the same JSON shapes so
// handlers do not care which one answered.
package filter

import (
	"context"
	"time"

	"github.com/bond-vault/bv-api/common"
	"github.com/bond-vault/bv-api/data"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type FilterInterface interface {
	GetValues(ctx context.Context, field1 string, field2 string, since time.Time) ([]byte, error)
	GetRun(ctx context.Context) ([]byte, error)
}

// getCachedRun returns the deserialized projection run if it is cached,
// otherwise nil
func getCachedRun(runID uuid.UUID) *data.ProjectionRun {
	raw, _ := common.CacheGet(runID.String())
	if len(raw) > 0 {
		run := data.ProjectionRun{}
		if err := json.Unmarshal(raw, &run); err != nil {
			log.Error().Err(err).Str("RunID", runID.String()).Msg("failed to deserialize projection run")
			return nil
		}
		return &run
	}
	return nil
}

func New(runID uuid.UUID, userID string) FilterInterface {
	if run := getCachedRun(runID); run != nil {
		return &FilterObject{
			Run: run,
		}
	}

	return &FilterDatabase{
		RunID:  runID,
		UserID: userID,
	}
}
