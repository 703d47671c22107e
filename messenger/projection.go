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

package messenger

import (
	"errors"
	"time"

	"github.com/bond-vault/bv-api/common"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// ProjectionRequest asks a worker to recompute and save a user's portfolio
// projection. An empty scenario means the base curve.
type ProjectionRequest struct {
	UserID      string `json:"user_id"`
	Scenario    string `json:"scenario"`
	RequestTime string `json:"request_time"`
}

// RunCompleted announces that a requested projection run has been saved and
// is ready to read.
type RunCompleted struct {
	UserID        string `json:"user_id"`
	RunID         string `json:"run_id"`
	CompletedTime string `json:"completed_time"`
}

// GetProjectionRequest returns a single queued projection request, or nil
// when the queue is empty. The durable consumer must already exist.
func GetProjectionRequest() (*nats.Msg, error) {
	sub, err := jetStream.PullSubscribe(viper.GetString("nats.requests_subject"), viper.GetString("nats.requests_consumer"))
	if err != nil {
		log.Error().Err(err).Msg("could not connect to durable consumer (note: make sure the consumer already exists)")
		return nil, err
	}

	msgs, err := sub.Fetch(1)
	if err != nil {
		if errors.Is(err, nats.ErrTimeout) {
			return nil, nil
		}
		log.Error().Err(err).Msg("could not fetch new messages")
		return nil, err
	}

	if len(msgs) == 0 {
		log.Info().Msg("no projection requests in queue")
		return nil, nil
	}

	return msgs[0], nil
}

// CreateProjectionRequest queues a projection recompute for the user
func CreateProjectionRequest(userID string, scenario string) error {
	nyc := common.GetTimezone()

	subject := viper.GetString("nats.requests_subject")

	req := ProjectionRequest{
		UserID:      userID,
		Scenario:    scenario,
		RequestTime: time.Now().In(nyc).String(),
	}

	jsonReq, err := json.Marshal(req)
	if err != nil {
		log.Error().Err(err).Msg("could not serialize request to JSON")
		return err
	}

	if _, err := jetStream.Publish(subject, jsonReq); err != nil {
		log.Error().Err(err).Msg("could not publish a projection request")
		return err
	}

	return nil
}

// PublishRunCompleted announces a saved run on the completed subject
func PublishRunCompleted(userID string, runID uuid.UUID) error {
	nyc := common.GetTimezone()

	subject := viper.GetString("nats.completed_subject")

	event := RunCompleted{
		UserID:        userID,
		RunID:         runID.String(),
		CompletedTime: time.Now().In(nyc).String(),
	}

	jsonEvent, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("could not serialize completion event to JSON")
		return err
	}

	if _, err := jetStream.Publish(subject, jsonEvent); err != nil {
		log.Error().Err(err).Msg("could not publish a run completed event")
		return err
	}

	return nil
}
