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
	"gonum.org/v1/gonum/floats"
)

// AddScalar adds the scalar value to all columns in dataframe df and returns a new dataframe
func (df *DataFrame[T]) AddScalar(scalar float64) *DataFrame[T] {
	df = df.Copy()

	for colIdx := range df.ColNames {
		for rowIdx := range df.Vals[colIdx] {
			df.Vals[colIdx][rowIdx] += scalar
		}
	}
	return df
}

// AddVec adds the vector to all columns in dataframe and returns a new dataframe
// panics if rows are not equal.
func (df *DataFrame[T]) AddVec(vec []float64) *DataFrame[T] {
	df = df.Copy()
	for idx := range df.ColNames {
		floats.Add(df.Vals[idx], vec)
	}
	return df
}

// Count creates a new dataframe with the number of columns where the expression lambda func(float64) bool evaluates to true is placed
// in the `count` column
func (df *DataFrame[T]) Count(lambda func(x float64) bool) *DataFrame[T] {
	res := &DataFrame[T]{
		Index:    df.Index,
		Vals:     [][]float64{make([]float64, df.Len())},
		ColNames: []string{"count"},
	}

	for rowIdx := range df.Index {
		cnt := 0
		for _, col := range df.Vals {
			if lambda(col[rowIdx]) {
				cnt++
			}
		}
		res.Vals[0][rowIdx] = float64(cnt)
	}

	return res
}

// Div divides all columns in `df` by the corresponding column in `other` and returns a new dataframe.
// Panics if rows are not equal.
func (df *DataFrame[T]) Div(other *DataFrame[T]) *DataFrame[T] {
	df = df.Copy()

	otherMap := make(map[string]int, len(other.ColNames))
	for idx, val := range other.ColNames {
		otherMap[val] = idx
	}

	for idx, colName := range df.ColNames {
		if otherIdx, ok := otherMap[colName]; ok {
			floats.Div(df.Vals[idx], other.Vals[otherIdx])
		}
	}
	return df
}

// Mean calculates the mean of all like columns in the dataframes and returns a new dataframe
// panics if rows are not equal.
func Mean[T comparable](dfs ...*DataFrame[T]) *DataFrame[T] {
	resDf := dfs[0].Copy()

	otherMaps := make([]map[string]int, len(dfs))
	for dfIdx, df := range dfs {
		otherMaps[dfIdx] = make(map[string]int, len(df.ColNames))
		for idx, val := range df.ColNames {
			otherMaps[dfIdx][val] = idx
		}
	}

	for resColIdx, colName := range resDf.ColNames {
		for rowIdx := range resDf.Vals[0] {
			row := 0.0
			cnt := 0.0
			for dfIdx := range dfs {
				df := dfs[dfIdx]
				colIdx := otherMaps[dfIdx][colName]
				row += df.Vals[colIdx][rowIdx]
				cnt++
			}
			resDf.Vals[resColIdx][rowIdx] = row / cnt
		}
	}

	return resDf
}

// Mul multiplies all columns in dataframe df by the corresponding column in dataframe other and returns a new dataframe
// panics if rows are not equal.
func (df *DataFrame[T]) Mul(other *DataFrame[T]) *DataFrame[T] {
	df = df.Copy()

	otherMap := make(map[string]int, len(other.ColNames))
	for idx, val := range other.ColNames {
		otherMap[val] = idx
	}

	for idx, colName := range df.ColNames {
		if otherIdx, ok := otherMap[colName]; ok {
			floats.Mul(df.Vals[idx], other.Vals[otherIdx])
		}
	}
	return df
}

// MulScalar multiplies all columns in dataframe df by the scalar and returns a new dataframe
func (df *DataFrame[T]) MulScalar(scalar float64) *DataFrame[T] {
	df = df.Copy()

	for colIdx := range df.ColNames {
		for rowIdx := range df.Vals[colIdx] {
			df.Vals[colIdx][rowIdx] *= scalar
		}
	}
	return df
}
