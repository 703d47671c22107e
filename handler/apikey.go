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

package handler

import (
	"encoding/base64"

	"github.com/bond-vault/bv-api/common"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type apiKeyClaims struct {
	UserID string `json:"sub"`
}

type apiKeyResponse struct {
	Token string `json:"token"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// GetApiKey mints a long-lived api key for the authenticated user. The key
// carries the same subject as the credential it was requested with and is
// accepted via the apikey query parameter or the X-Bv-Api header. The
// response echoes the account profile the key was issued to; a profile
// lookup failure does not block issuance.
func GetApiKey(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	subLog := log.With().Str("UserID", userID).Str("Endpoint", "GetApiKey").Logger()

	raw, err := json.Marshal(apiKeyClaims{UserID: userID})
	if err != nil {
		subLog.Error().Stack().Err(err).Msg("could not marshal api token claims")
		return fiber.ErrInternalServerError
	}

	encrypted, err := common.Encrypt(raw)
	if err != nil {
		subLog.Error().Stack().Err(err).Msg("could not encrypt api token")
		return fiber.ErrInternalServerError
	}

	resp := apiKeyResponse{
		Token: base64.URLEncoding.EncodeToString(encrypted),
	}

	if user, err := common.GetAuth0User(userID); err != nil {
		subLog.Warn().Err(err).Msg("could not load account profile for api key")
	} else {
		resp.Name = user.Name
		resp.Email = user.Email
	}

	return c.JSON(resp)
}
