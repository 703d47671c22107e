// Copyright 2022
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package common

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

var (
	ErrAuth0               = errors.New("cannot get Auth0 Management API access token")
	ErrAuth0AccountRequest = errors.New("user account request failed")
)

type Token struct {
	AccessToken string `json:"access_token"`
	Scope       string `json:"scope"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

type Auth0User struct {
	UserID        string                 `json:"user_id"`
	Name          string                 `json:"name"`
	Email         string                 `json:"email"`
	EmailVerified bool                   `json:"email_verified"`
	UserMetaData  map[string]interface{} `json:"user_metadata"`
}

// userMap caches account profiles so api key issuance does not hit the
// management API on every request
var userMap = make(map[string]Auth0User)

func getToken() (string, error) {
	domain := viper.GetString("auth0.domain")
	clientID := viper.GetString("auth0.client_id")
	secret := viper.GetString("auth0.secret")

	subLog := log.With().Str("ClientID", clientID).Str("Domain", domain).Logger()

	tokenURL := fmt.Sprintf("https://%s/oauth/token", domain)
	bodyStr := fmt.Sprintf(`grant_type=client_credentials&client_id=%s&client_secret=%s&audience=https://%s/api/v2/`, clientID, secret, domain)
	body := strings.NewReader(bodyStr)
	req, err := http.NewRequest("POST", tokenURL, body)
	if err != nil {
		subLog.Error().Err(err).Msg("cannot build Auth0 Management API access token request")
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		subLog.Error().Err(err).Msg("cannot get Auth0 Management API access token")
		return "", err
	}

	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		subLog.Error().Err(err).Int("StatusCode", resp.StatusCode).Msg("could not read Auth0 access token response")
		return "", ErrAuth0
	}

	if resp.StatusCode >= 400 {
		subLog.Error().Int("StatusCode", resp.StatusCode).Bytes("Body", respBody).Msg("cannot get Auth0 Management API access token")
		return "", ErrAuth0
	}

	managementToken := &Token{}
	err = json.Unmarshal(respBody, managementToken)
	if err != nil {
		subLog.Error().Err(err).Int("StatusCode", resp.StatusCode).Bytes("Body", respBody).Msg("could not decode Auth0 access token response")
		return "", ErrAuth0
	}

	return managementToken.AccessToken, nil
}

// GetAuth0User fetches the account profile for userID from the identity
// provider. Profiles are cached for the lifetime of the process.
func GetAuth0User(userID string) (*Auth0User, error) {
	if u, ok := userMap[userID]; ok {
		return &u, nil
	}

	domain := viper.GetString("auth0.domain")
	token, err := getToken()
	if err != nil {
		return nil, err
	}

	subLog := log.With().Str("UserID", userID).Str("Domain", domain).Logger()
	subLog.Info().Msg("requesting user from auth0")

	encodedUserID := url.QueryEscape(userID)
	userURL := fmt.Sprintf("https://%s/api/v2/users/%s", domain, encodedUserID)
	req, err := http.NewRequest("GET", userURL, nil)
	if err != nil {
		subLog.Error().Err(err).Msg("could not create Auth0 user request")
		return nil, err
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		subLog.Error().Err(err).Msg("user account request failed")
		return nil, err
	}

	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		subLog.Error().Int("StatusCode", resp.StatusCode).Str("Body", string(respBody)).Msg("user account request failed")
		return nil, ErrAuth0AccountRequest
	}

	auth0User := Auth0User{}
	err = json.Unmarshal(respBody, &auth0User)
	if err != nil {
		subLog.Error().Err(err).Str("Body", string(respBody)).Msg("could not decode user response")
	}

	userMap[userID] = auth0User
	return &auth0User, nil
}
