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
	"sort"

	"github.com/bond-vault/bv-api/common"
	"github.com/bond-vault/bv-api/data"
	"github.com/bond-vault/bv-api/data/database"
	"github.com/bond-vault/bv-api/dataframe"
	"github.com/bond-vault/bv-api/scenario"
	"github.com/rs/zerolog/log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var marketValueUser string
var marketValueScenario string
var marketValueStart string
var marketValueEnd string

func init() {
	marketValueCmd.Flags().StringVarP(&marketValueUser, "user", "u", "", "price the portfolio of the specified user")
	marketValueCmd.Flags().StringVarP(&marketValueScenario, "scenario", "s", "", "curve scenario shortcode to apply; blank prices off the base curve")
	marketValueCmd.Flags().StringVar(&marketValueStart, "start", "", "valuation date 2006-01-02; defaults to the configured projection window")
	marketValueCmd.Flags().StringVar(&marketValueEnd, "end", "", "last projection date 2006-01-02; defaults to the configured projection window")

	rootCmd.AddCommand(marketValueCmd)
}

var marketValueCmd = &cobra.Command{
	Use:   "marketvalue",
	Short: "Price every bond in a portfolio off the zero curve",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		if marketValueUser == "" && viper.GetString("input.bonds_xlsx") == "" {
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

		valuation, end := projectionWindow(marketValueStart, marketValueEnd)

		model, err := data.GetManagerInstance().BuildModel(ctx, marketValueUser, marketValueScenario, valuation, end)
		if err != nil {
			log.Fatal().Err(err).Msg("could not build projection model")
		}

		values, err := model.MarketValues()
		if err != nil {
			log.Fatal().Err(err).Msg("could not price portfolio")
		}

		// order the table largest position first
		pairs := make(common.PairList, 0, len(values))
		for idx, bondID := range model.BondIDs() {
			pairs = append(pairs, common.Pair{Key: bondID, Value: values[idx]})
		}
		sort.Sort(sort.Reverse(pairs))

		total := 0.0
		ids := make([]string, 0, len(pairs))
		sorted := make([]float64, 0, len(pairs))
		for _, pair := range pairs {
			ids = append(ids, pair.Key)
			sorted = append(sorted, pair.Value)
			total += pair.Value
		}

		df := &dataframe.DataFrame[string]{
			Index:    ids,
			ColNames: []string{"market_value"},
			Vals:     [][]float64{sorted},
		}
		fmt.Println(df.Table())
		fmt.Printf("Valuation Date: %s\n", valuation.Format("2006-01-02"))
		fmt.Printf("Portfolio Market Value: %.2f\n", total)
	},
}
