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

package cmd

import (
	"context"
	"time"

	"github.com/bond-vault/bv-api/data/database"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

func getUsers(ctx context.Context) []string {
	users, err := database.GetUsers(ctx)
	if err != nil {
		log.Panic().Err(err).Msg("could not load users from database")
	}
	return users
}

// projectionWindow resolves the valuation and end dates for a CLI run.
// Empty strings fall back to the configured projection window.
func projectionWindow(startStr string, endStr string) (time.Time, time.Time) {
	if startStr == "" {
		startStr = viper.GetString("projection.start_date")
	}
	if endStr == "" {
		endStr = viper.GetString("projection.end_date")
	}

	valuation, err := time.Parse("2006-01-02", startStr)
	if err != nil {
		log.Fatal().Err(err).Str("DateStr", startStr).Msg("could not parse start date with format 2006-01-02")
	}

	end, err := time.Parse("2006-01-02", endStr)
	if err != nil {
		log.Fatal().Err(err).Str("DateStr", endStr).Msg("could not parse end date with format 2006-01-02")
	}

	return valuation, end
}
