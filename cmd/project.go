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

	"github.com/bond-vault/bv-api/data"
	"github.com/bond-vault/bv-api/data/database"
	"github.com/bond-vault/bv-api/dataframe"
	"github.com/bond-vault/bv-api/scenario"
	"github.com/rs/zerolog/log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var projectUser string
var projectAllUsers bool
var projectScenario string
var projectSave bool
var projectStart string
var projectEnd string

func init() {
	projectCmd.Flags().StringVarP(&projectUser, "user", "u", "", "project the portfolio of the specified user")
	projectCmd.Flags().BoolVar(&projectAllUsers, "all-users", false, "project every user's portfolio")
	projectCmd.Flags().StringVarP(&projectScenario, "scenario", "s", "", "curve scenario shortcode to apply; blank runs the base curve")
	projectCmd.Flags().BoolVar(&projectSave, "save", false, "save the run to the database")
	projectCmd.Flags().StringVar(&projectStart, "start", "", "valuation date 2006-01-02; defaults to the configured projection window")
	projectCmd.Flags().StringVar(&projectEnd, "end", "", "last projection date 2006-01-02; defaults to the configured projection window")

	rootCmd.AddCommand(projectCmd)
}

// projectOne builds, prints and optionally saves a single user's run.
func projectOne(ctx context.Context, userID string, valuation, end time.Time) error {
	manager := data.GetManagerInstance()

	model, err := manager.BuildModel(ctx, userID, projectScenario, valuation, end)
	if err != nil {
		return err
	}

	cashflows, err := model.CashflowsTotal()
	if err != nil {
		return err
	}

	redemptions, err := model.RedemptionsTotal()
	if err != nil {
		return err
	}

	interest := make([]float64, len(cashflows))
	for idx := range cashflows {
		interest[idx] = cashflows[idx] - redemptions[idx]
	}

	df := &dataframe.DataFrame[time.Time]{
		Index:    model.Calendar().Starts(),
		ColNames: []string{"cashflow", "redemption", "interest"},
		Vals:     [][]float64{cashflows, redemptions, interest},
	}
	fmt.Println(df.Table())

	if projectSave {
		run, err := data.RunFromModel(model, projectScenario)
		if err != nil {
			return err
		}
		if err := manager.SaveProjection(ctx, userID, run); err != nil {
			return err
		}
		fmt.Printf("Saved run: %s\n", run.ID.String())
	}

	return nil
}

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Print the annual cashflow projection for a portfolio",
	Long: `Build the cashflow and redemption projection for a portfolio of
fixed-rate bonds. Positions and the zero curve come from the database, or
from xlsx workbooks when --xlsx-bonds / --xlsx-curve are given.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		if !projectAllUsers && projectUser == "" && viper.GetString("input.bonds_xlsx") == "" {
			log.Fatal().Msg("must specify one of --user, --all-users, or --xlsx-bonds")
		}

		needsDatabase := projectSave || projectAllUsers ||
			viper.GetString("input.bonds_xlsx") == "" ||
			viper.GetString("input.curve_xlsx") == ""
		if needsDatabase {
			if err := database.Connect(ctx); err != nil {
				log.Panic().Err(err).Msg("could not connect to database")
			}
		}

		// load curve scenarios
		scenario.Initialize()

		valuation, end := projectionWindow(projectStart, projectEnd)

		var users []string
		if projectAllUsers {
			users = getUsers(ctx)
		} else {
			users = []string{projectUser}
		}

		for _, userID := range users {
			if len(users) > 1 {
				fmt.Printf("User: %s\n", userID)
			}
			if err := projectOne(ctx, userID, valuation, end); err != nil {
				if len(users) > 1 {
					log.Error().Err(err).Str("UserID", userID).Msg("projection failed; skipping user")
					continue
				}
				log.Fatal().Err(err).Msg("projection failed")
			}
		}
	},
}
