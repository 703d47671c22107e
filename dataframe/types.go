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

package dataframe

import (
	"errors"
)

// DataFrame stores a table of values organized by a typed index. For
// projection output the index is the period start date and each column
// is a bond; curve tables index by tenor string instead. The vals array
// is column major - e.g.,
//
// date        1      3
// 2022-01-01  16450  23970
// 2023-01-01  16450  23970
//
// Vals[0] = [16450, 16450]
// Vals[1] = [23970, 23970]
type DataFrame[T comparable] struct {
	Index    []T
	ColNames []string
	Vals     [][]float64
}

// Map is a collection of single-concern dataframes keyed by name.
type Map[T comparable] map[string]*DataFrame[T]

var (
	ErrIndexNotAligned = errors.New("index does not align")
)
