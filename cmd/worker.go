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

	"github.com/bond-vault/bv-api/common"
	"github.com/bond-vault/bv-api/data"
	"github.com/bond-vault/bv-api/data/database"
	"github.com/bond-vault/bv-api/loki"
	"github.com/bond-vault/bv-api/messenger"
	"github.com/bond-vault/bv-api/scenario"
	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var workerOnce bool
var workerPollSecs int

func init() {
	workerCmd.Flags().BoolVarP(&workerOnce, "once", "o", false, "drain the queue and exit instead of polling forever")
	workerCmd.Flags().IntVarP(&workerPollSecs, "poll-interval", "i", 15, "seconds to sleep when the queue is empty")

	rootCmd.AddCommand(workerCmd)
}

// processProjectionRequest recomputes and saves the projection named by a
// queued request, then announces the finished run. Requests that fail to
// build are nak'd so another worker can retry them; requests that fail to
// parse are ack'd and dropped because a retry cannot fix them.
func processProjectionRequest(ctx context.Context, msg *nats.Msg) {
	var req messenger.ProjectionRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		log.Error().Err(err).Msg("could not deserialize projection request; dropping message")
		if err := msg.Ack(); err != nil {
			log.Error().Err(err).Msg("could not ack projection request")
		}
		return
	}

	subLog := log.With().Str("UserID", req.UserID).Str("Scenario", req.Scenario).Logger()

	valuation, err := time.Parse("2006-01-02", viper.GetString("projection.start_date"))
	if err != nil {
		subLog.Error().Err(err).Msg("could not parse projection.start_date")
		return
	}
	end, err := time.Parse("2006-01-02", viper.GetString("projection.end_date"))
	if err != nil {
		subLog.Error().Err(err).Msg("could not parse projection.end_date")
		return
	}

	manager := data.GetManagerInstance()

	model, err := manager.BuildModel(ctx, req.UserID, req.Scenario, valuation, end)
	if err != nil {
		subLog.Error().Err(err).Msg("could not build projection model; will retry")
		if err := msg.Nak(); err != nil {
			subLog.Error().Err(err).Msg("could not nak projection request")
		}
		return
	}

	run, err := data.RunFromModel(model, req.Scenario)
	if err != nil {
		subLog.Error().Err(err).Msg("could not evaluate projection model; will retry")
		if err := msg.Nak(); err != nil {
			subLog.Error().Err(err).Msg("could not nak projection request")
		}
		return
	}

	if err := manager.SaveProjection(ctx, req.UserID, run); err != nil {
		subLog.Error().Err(err).Msg("could not save projection run; will retry")
		if err := msg.Nak(); err != nil {
			subLog.Error().Err(err).Msg("could not nak projection request")
		}
		return
	}

	// warm the read cache so the first lookup skips the database
	if serialized, err := json.Marshal(run); err == nil {
		if err := common.CacheSet(run.ID.String(), serialized); err != nil {
			subLog.Warn().Err(err).Msg("could not cache projection run")
		}
	}

	if err := msg.Ack(); err != nil {
		subLog.Error().Err(err).Msg("could not ack projection request")
	}

	if err := messenger.PublishRunCompleted(req.UserID, run.ID); err != nil {
		subLog.Error().Err(err).Msg("could not publish run completed event")
	}

	subLog.Info().Str("RunID", run.ID.String()).Msg("saved projection run")
}

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "recompute projections queued on the requests subject",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		common.SetupLogging()
		common.SetupCache()
		if viper.GetString("log.loki_url") != "" {
			loki.Init()
		}

		// setup database
		if err := database.Connect(ctx); err != nil {
			log.Panic().Err(err).Msg("could not connect to database")
		}

		// connect to NATS
		if err := messenger.Initialize(); err != nil {
			log.Panic().Err(err).Msg("could not connect to NATS")
		}

		// load curve scenarios
		scenario.Initialize()

		pollInterval := time.Duration(workerPollSecs) * time.Second

		for {
			msg, err := messenger.GetProjectionRequest()
			if err != nil {
				log.Error().Err(err).Msg("could not fetch projection request")
				time.Sleep(pollInterval)
				continue
			}

			if msg == nil {
				if workerOnce {
					break
				}
				time.Sleep(pollInterval)
				continue
			}

			processProjectionRequest(ctx, msg)
		}
	},
}
