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

package router

import (
	"github.com/bond-vault/bv-api/handler"
	"github.com/bond-vault/bv-api/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/lestrrat-go/jwx/jwk"
)

// SetupRoutes installs the /v1 api surface. Every route except the ping
// handler requires a JWT or api key.
func SetupRoutes(app *fiber.App, jwks *jwk.AutoRefresh, jwksURL string) {
	api := app.Group("/v1")
	api.Get("/", handler.Ping)

	auth := middleware.BVAuth(jwks, jwksURL)

	api.Get("/apikey", auth, handler.GetApiKey)
	api.Get("/curve", auth, handler.GetZeroCurve)

	// Bonds
	bonds := api.Group("/bonds", auth)
	bonds.Get("/", handler.ListBonds)
	bonds.Get("/:id", handler.GetBond)
	bonds.Get("/:id/cashflows", handler.GetBondCashflows)

	// Projections
	projections := api.Group("/projections", auth)
	projections.Get("/", handler.ListProjections)
	projections.Post("/", handler.RunProjection)
	projections.Get("/:id", handler.GetProjection)
	projections.Get("/:id/values", handler.GetProjectionValues)
}
