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
	"math"
	"os"

	"github.com/bond-vault/bv-api/data"
	"github.com/bond-vault/bv-api/data/database"
	"github.com/bond-vault/bv-api/scenario"
	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var zspreadUser string
var zspreadToleranceBp float64
var zspreadStart string
var zspreadEnd string

func init() {
	zspreadCmd.Flags().StringVarP(&zspreadUser, "user", "u", "", "check the portfolio of the specified user")
	zspreadCmd.Flags().Float64VarP(&zspreadToleranceBp, "tolerance", "t", 1.0, "maximum quoted vs implied spread deviation in basis points")
	zspreadCmd.Flags().StringVar(&zspreadStart, "start", "", "valuation date 2006-01-02; defaults to the configured projection window")
	zspreadCmd.Flags().StringVar(&zspreadEnd, "end", "", "last projection date 2006-01-02; defaults to the configured projection window")

	rootCmd.AddCommand(zspreadCmd)
}

var zspreadCmd = &cobra.Command{
	Use:   "zspread",
	Short: "Solve each bond's implied z-spread and compare it to the quote",
	Long: `Price every bond at its quoted z-spread and solve the spread back
out of the resulting clean price. A deviation beyond the tolerance flags an
inconsistent bond record or curve.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		if zspreadUser == "" && viper.GetString("input.bonds_xlsx") == "" {
			log.Fatal().Msg("must specify --user or --xlsx-bonds")
		}

		needsDatabase := viper.GetString("input.bonds_xlsx") == "" ||
			viper.GetString("input.curve_xlsx") == ""
		if needsDatabase {
			if err := database.Connect(ctx); err != nil {
				log.Panic().Err(err).Msg("could not connect to database")
			}
		}

		// load curve scenarios
		scenario.Initialize()

		valuation, end := projectionWindow(zspreadStart, zspreadEnd)

		model, err := data.GetManagerInstance().BuildModel(ctx, zspreadUser, "", valuation, end)
		if err != nil {
			log.Fatal().Err(err).Msg("could not build projection model")
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Bond", "Quoted", "Implied", "Deviation (bp)", "Status"})
		table.SetBorder(false)

		drifting := 0
		for _, bondID := range model.BondIDs() {
			rec, err := model.Record(bondID)
			if err != nil {
				log.Fatal().Err(err).Str("BondID", bondID).Msg("could not load bond record")
			}

			implied, err := model.ImpliedSpread(bondID)
			if err != nil {
				log.Fatal().Err(err).Str("BondID", bondID).Msg("could not solve implied spread")
			}

			deviationBp := math.Abs(implied-rec.ZSpread) * 10_000
			status := "ok"
			if deviationBp > zspreadToleranceBp {
				status = "drift"
				drifting++
			}

			table.Append([]string{
				bondID,
				fmt.Sprintf("%.6f", rec.ZSpread),
				fmt.Sprintf("%.6f", implied),
				fmt.Sprintf("%.3f", deviationBp),
				status,
			})
		}

		table.Render()
		fmt.Printf("Bonds outside tolerance: %d\n", drifting)
	},
}
