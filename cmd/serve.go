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
	"os"
	"os/signal"
	"runtime/pprof"
	"runtime/trace"
	"time"

	"github.com/bond-vault/bv-api/common"
	"github.com/bond-vault/bv-api/data"
	"github.com/bond-vault/bv-api/data/database"
	"github.com/bond-vault/bv-api/feedcron"
	"github.com/bond-vault/bv-api/jwks"
	"github.com/bond-vault/bv-api/loki"
	"github.com/bond-vault/bv-api/messenger"
	"github.com/bond-vault/bv-api/middleware"
	"github.com/bond-vault/bv-api/observability/opentelemetry"
	"github.com/bond-vault/bv-api/router"
	"github.com/bond-vault/bv-api/scenario"

	"github.com/go-co-op/gocron"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	viper.BindEnv("server.port", "PORT")
	serveCmd.Flags().IntP("port", "p", 3000, "Port to run application server on")
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))

	rootCmd.AddCommand(serveCmd)
}

// nightlyRefresh downloads the latest zero curve and queues a base-curve
// projection recompute for every user.
func nightlyRefresh() {
	ctx := context.Background()

	if !feedcron.IsFeedDay(time.Now()) {
		log.Info().Msg("no curve published today; skipping nightly refresh")
		return
	}

	if err := data.GetManagerInstance().RefreshZeroCurve(ctx); err != nil {
		log.Error().Err(err).Msg("nightly zero curve refresh failed")
		return
	}

	users, err := database.GetUsers(ctx)
	if err != nil {
		log.Error().Err(err).Msg("could not list users for nightly projections")
		return
	}

	for _, userID := range users {
		if err := messenger.CreateProjectionRequest(userID, ""); err != nil {
			log.Error().Err(err).Str("UserID", userID).Msg("could not queue projection request")
		}
	}
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bv-api server",
	Long:  `Run HTTP server that implements the Bond Vault API`,
	Run: func(cmd *cobra.Command, args []string) {
		if Profile {
			f, err := os.Create("profile.out")
			if err != nil {
				log.Fatal().Err(err).Msg("could not create profile.out")
			}
			if err := pprof.StartCPUProfile(f); err != nil {
				log.Fatal().Err(err).Msg("could not start cpu profile")
			}
			defer pprof.StopCPUProfile()
		}

		if Trace {
			f, err := os.Create("trace.out")
			if err != nil {
				log.Fatal().Err(err).Msg("failed to create trace output file")
			}
			defer func() {
				if err := f.Close(); err != nil {
					log.Fatal().Err(err).Msg("failed to close trace file")
				}
			}()

			if err := trace.Start(f); err != nil {
				log.Fatal().Err(err).Msg("failed to start trace")
			}
			defer trace.Stop()
		}

		common.SetupLogging()
		common.SetupCache()
		if viper.GetString("log.loki_url") != "" {
			loki.Init()
		}
		log.Info().Msg("initialized logging")

		// setup open telemetry
		shutdownTracer, err := opentelemetry.Setup()
		if err != nil {
			log.Fatal().Err(err).Msg("could not configure tracing")
		}
		defer func() {
			if err := shutdownTracer(context.Background()); err != nil {
				log.Error().Err(err).Msg("tracer shutdown failed")
			}
		}()

		// setup database
		if err := database.Connect(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("could not connect to database")
		}

		// connect to NATS
		if err := messenger.Initialize(); err != nil {
			log.Fatal().Err(err).Msg("could not connect to NATS")
		}

		// load curve scenarios
		scenario.Initialize()

		// Create new Fiber instance
		app := fiber.New()

		// shutdown cleanly on interrupt
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt)
		go func() {
			sig := <-quit // block until signal is read
			log.Info().Str("Signal", sig.String()).Msg("received signal; shutting down")
			if err := app.Shutdown(); err != nil {
				log.Fatal().Err(err).Msg("app shutdown failed")
			}
		}()

		// Configure CORS
		corsConfig := cors.Config{
			AllowOrigins: "http://localhost:8080, https://www.bondvault.app, https://beta.bondvault.app",
			AllowHeaders: "*",
			AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		}
		app.Use(cors.New(corsConfig))

		// Setup logging middleware
		app.Use(middleware.NewLogger())

		// Configure authentication
		jwksAutoRefresh, jwksUrl := jwks.SetupJWKS()

		// Setup routes
		router.SetupRoutes(app, jwksAutoRefresh, jwksUrl)

		// refresh the curve and recompute projections after the market close
		scheduler := gocron.NewScheduler(common.GetTimezone())
		scheduler.Every(1).Day().At("18:30").Do(nightlyRefresh)
		scheduler.StartAsync()

		// Start server on http://${host}:${port}
		if err := app.Listen(":" + viper.GetString("server.port")); err != nil {
			log.Fatal().Err(err).Msg("api server stopped")
		}
	},
}
