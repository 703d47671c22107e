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

package scenario

import (
	"embed"
	"fmt"
	"sort"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
)

//go:embed defs/*.toml
var resources embed.FS

// List of all registered scenarios ordered by shortcode
var List = []*Scenario{}

// Map of scenarios keyed by shortcode
var Map = make(map[string]*Scenario)

// Initialize loads every scenario definition embedded under defs/. A
// malformed definition is logged and skipped so one bad file cannot take
// the rest of the registry down with it.
func Initialize() {
	entries, err := resources.ReadDir("defs")
	if err != nil {
		log.Error().Stack().Err(err).Msg("could not read embedded scenario definitions")
		return
	}

	for _, entry := range entries {
		fn := "defs/" + entry.Name()
		doc, err := resources.ReadFile(fn)
		if err != nil {
			log.Error().Stack().Err(err).Str("File", fn).Msg("failed to read file")
			continue
		}
		Register(doc)
	}

	sort.Slice(List, func(i, j int) bool {
		return List[i].Shortcode < List[j].Shortcode
	})
}

// Register parses a TOML scenario definition and adds it to the registry
func Register(doc []byte) {
	var scen Scenario
	if err := toml.Unmarshal(doc, &scen); err != nil {
		log.Error().Stack().Err(err).Msg("failed to parse toml file")
		return
	}

	if err := scen.Validate(); err != nil {
		log.Error().Stack().Err(err).Str("Shortcode", scen.Shortcode).Msg("invalid scenario definition")
		return
	}

	if _, ok := Map[scen.Shortcode]; ok {
		log.Warn().Str("Shortcode", scen.Shortcode).Msg("duplicate scenario shortcode ignored")
		return
	}

	List = append(List, &scen)
	Map[scen.Shortcode] = &scen
}

// Get returns the registered scenario for shortcode
func Get(shortcode string) (*Scenario, error) {
	if scen, ok := Map[shortcode]; ok {
		return scen, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownScenario, shortcode)
}
