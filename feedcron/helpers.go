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

package feedcron

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// expandBriefFormat pads a timespec that has trailing fields omitted for
// brevity; modifier tokens do not count toward the five cron fields
func expandBriefFormat(spec string) string {
	tokens := strings.Fields(spec)

	special := 0
	for _, token := range tokens {
		if token[0] == '@' {
			special++
		}
	}

	expectedLength := 5 + special
	for len(tokens) < expectedLength {
		tokens = append(tokens, "*")
	}

	return strings.Join(tokens, " ")
}

// parseOffsetToken interprets a single timespec field as a signed offset; a
// bare "*" means no offset
func parseOffsetToken(token string, field string) (int, error) {
	if token == "*" {
		return 0, nil
	}

	val, err := strconv.Atoi(token)
	if err != nil {
		log.Error().Str("Token", token).Str("Field", field).Msg("could not parse timespec field")
		return 0, ErrMalformedTimeSpec
	}

	return val, nil
}

// parseTimeRelativeTo builds a concrete timespec from the given tokens,
// treating the minute and hour fields as offsets from the reference time
func parseTimeRelativeTo(tokens []string, hours int, minutes int) (string, error) {
	mins, err := parseOffsetToken(tokens[0], "minutes")
	if err != nil {
		return "", err
	}

	hrs, err := parseOffsetToken(tokens[1], "hours")
	if err != nil {
		return "", err
	}

	mins += minutes

	// an offset larger than an hour rolls over into the hour field
	if mins > 59 || mins < -59 {
		hrs += (mins / 60)
		mins = mins % 60
	}

	hrs += hours

	if mins < 0 {
		mins = 60 + mins
		hrs--
	}

	if hrs < 0 || hrs > 23 {
		return "", ErrFieldOutOfBounds
	}

	result := fmt.Sprintf("%d %d %s %s %s", mins, hrs, tokens[2], tokens[3], tokens[4])
	return result, nil
}
