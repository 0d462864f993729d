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
	"math/big"
	"math/rand"
	"sync"
	"time"

	"perun.network/perun-statechannel/channel"
)

// Clock is a manually advanced channel.Clock.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

var _ channel.Clock = (*Clock)(nil)

// NewClock returns a Clock set to start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now implements channel.Clock.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// NewRandomBalances returns n random balances below 100000.
func NewRandomBalances(rng *rand.Rand, n int) channel.Balances {
	bals := make(channel.Balances, n)
	for i := range bals {
		bals[i] = big.NewInt(rng.Int63n(100_000)) //nolint:gomnd
	}
	return bals
}
