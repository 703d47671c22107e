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
	"fmt"
	"os"

	"github.com/bond-vault/bv-api/common"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var Profile bool
var Trace bool

func init() {
	// BV secret key
	viper.BindEnv("secret_key", "BV_SECRET")
	rootCmd.PersistentFlags().String("secret-key", "", "Secret encryption key")
	viper.BindPFlag("secret_key", rootCmd.PersistentFlags().Lookup("secret-key"))

	// AUTH0
	viper.BindEnv("auth0.secret", "AUTH0_SECRET")
	rootCmd.PersistentFlags().String("auth0-secret", "", "Auth0 secret")
	viper.BindPFlag("auth0.secret", rootCmd.PersistentFlags().Lookup("auth0-secret"))

	viper.BindEnv("auth0.client_id", "AUTH0_CLIENT_ID")
	rootCmd.PersistentFlags().String("auth0-client-id", "", "Auth0 client id")
	viper.BindPFlag("auth0.client_id", rootCmd.PersistentFlags().Lookup("auth0-client-id"))

	viper.BindEnv("auth0.domain", "AUTH0_DOMAIN")
	rootCmd.PersistentFlags().String("auth0-domain", "", "Auth0 domain")
	viper.BindPFlag("auth0.domain", rootCmd.PersistentFlags().Lookup("auth0-domain"))

	// Database
	viper.BindEnv("database.url", "DATABASE_URL")
	rootCmd.PersistentFlags().String("database-url", "", "PostgreSQL connection string")
	viper.BindPFlag("database.url", rootCmd.PersistentFlags().Lookup("database-url"))

	// NATS
	viper.BindEnv("nats.server", "NATS_URL")
	rootCmd.PersistentFlags().String("nats-server", "", "NATS server url")
	viper.BindPFlag("nats.server", rootCmd.PersistentFlags().Lookup("nats-server"))

	viper.BindEnv("nats.credentials", "NATS_CREDENTIALS")
	rootCmd.PersistentFlags().String("nats-credentials", "", "NATS credentials file")
	viper.BindPFlag("nats.credentials", rootCmd.PersistentFlags().Lookup("nats-credentials"))

	viper.SetDefault("nats.requests_subject", "bv.projections.requests")
	viper.SetDefault("nats.requests_consumer", "projection-workers")
	viper.SetDefault("nats.completed_subject", "bv.projections.completed")

	// Cache
	viper.BindEnv("cache.redis_url", "REDIS_URL")
	rootCmd.PersistentFlags().String("cache-redis-url", "", "Redis url to use as a shared cache tier")
	viper.BindPFlag("cache.redis_url", rootCmd.PersistentFlags().Lookup("cache-redis-url"))

	viper.SetDefault("cache.local_size", 1000)
	viper.SetDefault("cache.ttl", 3600)

	// Zero curve feed
	viper.BindEnv("curve.download_url", "CURVE_DOWNLOAD_URL")
	rootCmd.PersistentFlags().String("curve-download-url", "", "URL the nightly zero curve CSV is downloaded from")
	viper.BindPFlag("curve.download_url", rootCmd.PersistentFlags().Lookup("curve-download-url"))

	// Projection window defaults
	viper.SetDefault("projection.start_date", "2022-01-01")
	viper.SetDefault("projection.end_date", "2053-01-01")

	// Workbook inputs
	rootCmd.PersistentFlags().String("xlsx-bonds", "", "Load bond positions from an xlsx workbook instead of the database")
	viper.BindPFlag("input.bonds_xlsx", rootCmd.PersistentFlags().Lookup("xlsx-bonds"))

	rootCmd.PersistentFlags().String("xlsx-curve", "", "Load the zero curve from an xlsx workbook instead of the database")
	viper.BindPFlag("input.curve_xlsx", rootCmd.PersistentFlags().Lookup("xlsx-curve"))

	// OTLP trace export
	viper.BindEnv("otlp.endpoint", "OTLP_ENDPOINT")
	rootCmd.PersistentFlags().String("otlp-endpoint", "", "OTLP trace collector endpoint")
	viper.BindPFlag("otlp.endpoint", rootCmd.PersistentFlags().Lookup("otlp-endpoint"))

	// Logging configuration
	viper.BindEnv("log.level", "BV_LOG_LEVEL")
	rootCmd.PersistentFlags().String("log-level", "warning", "Logging level")
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	viper.BindEnv("log.report_caller", "BV_LOG_REPORT_CALLER")
	rootCmd.PersistentFlags().Bool("log-report-caller", false, "Log function name that called log statement")
	viper.BindPFlag("log.report_caller", rootCmd.PersistentFlags().Lookup("log-report-caller"))

	viper.BindEnv("log.output", "BV_LOG_OUTPUT")
	rootCmd.PersistentFlags().String("log-output", "stdout", "Write logs to specified output one of: file path, `stdout`, or `stderr`")
	viper.BindPFlag("log.output", rootCmd.PersistentFlags().Lookup("log-output"))

	viper.BindEnv("log.pretty", "BV_LOG_PRETTY")
	rootCmd.PersistentFlags().Bool("log-pretty", false, "Print logs in a human friendly format")
	viper.BindPFlag("log.pretty", rootCmd.PersistentFlags().Lookup("log-pretty"))

	viper.BindEnv("log.loki_url", "LOKI_URL")
	rootCmd.PersistentFlags().String("log-loki-url", "", "Loki server to send log messages to, if blank don't send to Loki")
	viper.BindPFlag("log.loki_url", rootCmd.PersistentFlags().Lookup("log-loki-url"))

	rootCmd.PersistentFlags().BoolVar(&Profile, "cpu-profile", false, "Run pprof and save in profile.out")
	rootCmd.PersistentFlags().BoolVar(&Trace, "trace", false, "Trace program execution and save in trace.out")
}

var rootCmd = &cobra.Command{
	Use:     "bvapi",
	Version: common.CurrentVersion.String(),
	Short:   "Bond Vault projects cashflows for fixed-rate bond portfolios",
	Long: `Bond Vault builds annual cashflow and redemption projections for
portfolios of fixed-rate bonds, priced off a zero curve with optional
scenario shifts, and serves the results over an HTTP API.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
