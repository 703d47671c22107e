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

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var purgeUser string

func init() {
	if err := viper.BindEnv("database.max_run_age_secs", "MAX_RUN_AGE_SECS"); err != nil {
		log.Panic().Err(err).Msg("could not bind database.max_run_age_secs")
	}
	purgeCmd.Flags().IntP("max_run_age_secs", "s", 2592000, "Maximum projection run age in seconds")
	if err := viper.BindPFlag("database.max_run_age_secs", purgeCmd.Flags().Lookup("max_run_age_secs")); err != nil {
		log.Panic().Err(err).Msg("could not bind database.max_run_age_secs")
	}

	purgeCmd.Flags().StringVar(&purgeUser, "user", "", "Only purge projection runs from specified user")

	rootCmd.AddCommand(purgeCmd)
}

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete projection runs older than max_run_age_secs",
	Run: func(_ *cobra.Command, _ []string) {
		ctx := context.Background()
		// setup database
		err := database.Connect(ctx)
		if err != nil {
			log.Panic().Err(err).Msg("could not connect to database")
		}

		userList := make([]string, 0)

		if purgeUser != "" {
			userList = append(userList, purgeUser)
		} else {
			// get a list of users from the database
			users, _ := database.GetUsers(ctx)
			userList = append(userList, users...)
		}

		maxAgeDuration := viper.GetDuration("database.max_run_age_secs") * -1 * time.Second
		maxAge := time.Now().Add(maxAgeDuration)

		for _, u := range userList {
			subLog := log.With().Str("User", u).Logger()
			trx, err := database.TrxForUser(ctx, u)
			if err != nil {
				subLog.Error().Stack().Err(err).Msg("could not get database transaction")
				continue
			}

			var cnt int64
			err = trx.QueryRow(ctx, "SELECT count(*) FROM projection_runs WHERE created < $1", maxAge).Scan(&cnt)
			if err != nil {
				subLog.Error().Stack().Err(err).Msg("could not get expired projection run count")
				if err := trx.Rollback(ctx); err != nil {
					log.Error().Stack().Err(err).Msg("could not rollback transaction")
				}

				continue
			}

			subLog.Info().Int64("NumExpiredRuns", cnt).Time("MaxAge", maxAge).Msg("number of expired projection runs")

			// projection values reference runs, delete them first
			_, err = trx.Exec(ctx, "DELETE FROM projection_values WHERE run_id IN (SELECT id FROM projection_runs WHERE created < $1)", maxAge)
			if err != nil {
				subLog.Error().Stack().Err(err).Msg("could not delete projection values")
				if err := trx.Rollback(ctx); err != nil {
					log.Error().Stack().Err(err).Msg("could not rollback transaction")
				}

				continue
			}

			_, err = trx.Exec(ctx, "DELETE FROM projection_runs WHERE created < $1", maxAge)
			if err != nil {
				subLog.Error().Stack().Err(err).Msg("could not delete projection runs")
				if err := trx.Rollback(ctx); err != nil {
					log.Error().Stack().Err(err).Msg("could not rollback transaction")
				}

				continue
			}

			err = trx.Commit(ctx)
			if err != nil {
				subLog.Error().Stack().Err(err).Msg("could not delete projection runs")
			}
		}
	},
}
