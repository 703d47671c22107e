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

package bond

import (
	"github.com/bond-vault/bv-api/curve"
)

// Search interval for implied spreads. Quoted credit spreads sit well
// inside this range; anything outside it indicates bad input data.
const (
	spreadLo = -1.0
	spreadHi = 2.0
)

// ImpliedZSpread solves for the flat spread over the zero curve that
// reprices the bond at the given clean price. It is the inverse of
// CleanPrice in its spread argument and is used to validate quoted
// spreads against recomputed ones.
func ImpliedZSpread(b *FixedRateBond, cleanPrice float64, zc *curve.ZeroCurve) (float64, error) {
	objective := func(spread float64) float64 {
		return b.CleanPrice(zc, spread) - cleanPrice
	}
	return fsolve(objective, spreadLo, spreadHi)
}
