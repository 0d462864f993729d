// Copyright 2025 PolyCrypt GmbH
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

package test

import (
	"math/rand"

	"perun.network/perun-statechannel/wallet"
)

// NewRandomAddresses returns n distinct random account addresses.
func NewRandomAddresses(rng *rand.Rand, n int) []wallet.Address {
	addrs := make([]wallet.Address, 0, n)
	seen := make(map[wallet.Address]struct{}, n)
	for len(addrs) < n {
		addr := wallet.NewRandomAddressFromRng(rng)
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		addrs = append(addrs, addr)
	}
	return addrs
}
