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
	"fmt"
	"time"

	"github.com/bond-vault/bv-api/common"
	"github.com/bond-vault/bv-api/data"
	"github.com/bond-vault/bv-api/data/database"
	"github.com/bond-vault/bv-api/dataframe"
	"github.com/bond-vault/bv-api/messenger"
	"github.com/rs/zerolog/log"

	"github.com/spf13/cobra"
)

var curveShowDate string
var curveQueue bool

func init() {
	curveCmd.Flags().StringVarP(&curveShowDate, "date", "d", "", "Print the curve in effect on date 2006-01-02 instead of refreshing")
	curveCmd.Flags().BoolVar(&curveQueue, "queue", false, "Queue a projection recompute for every user after the refresh")

	rootCmd.AddCommand(curveCmd)
}

var curveCmd = &cobra.Command{
	Use:   "curve",
	Short: "Download the latest zero curve, or print a stored one",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		common.SetupLogging()

		// setup database
		if err := database.Connect(ctx); err != nil {
			log.Fatal().Err(err).Msg("database connection failed")
		}

		manager := data.GetManagerInstance()

		if curveShowDate != "" {
			dt, err := time.Parse("2006-01-02", curveShowDate)
			if err != nil {
				log.Fatal().Err(err).Str("InputStr", curveShowDate).Msg("could not parse date - expected format 2006-01-02")
			}

			points, quoted, err := manager.ZeroCurve(ctx, dt)
			if err != nil {
				log.Fatal().Err(err).Msg("could not load zero curve")
			}

			tenors := make([]string, 0, len(points))
			rates := make([]float64, 0, len(points))
			for _, pt := range points {
				tenors = append(tenors, pt.Tenor)
				rates = append(rates, pt.Rate)
			}

			df := &dataframe.DataFrame[string]{
				Index:    tenors,
				ColNames: []string{"rate"},
				Vals:     [][]float64{rates},
			}
			fmt.Println(df.Table())
			fmt.Printf("Curve Date: %s\n", quoted.Format("2006-01-02"))
			return
		}

		if err := manager.RefreshZeroCurve(ctx); err != nil {
			log.Fatal().Err(err).Msg("zero curve refresh failed")
		}
		fmt.Println("zero curve refreshed")

		if curveQueue {
			if err := messenger.Initialize(); err != nil {
				log.Fatal().Err(err).Msg("could not connect to NATS")
			}
			for _, userID := range getUsers(ctx) {
				if err := messenger.CreateProjectionRequest(userID, ""); err != nil {
					log.Error().Err(err).Str("UserID", userID).Msg("could not queue projection request")
				}
			}
		}
	},
}
