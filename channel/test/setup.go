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
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	pkgtest "polycry.pt/poly-go/test"

	"perun.network/perun-statechannel/channel"
	"perun.network/perun-statechannel/event"
	"perun.network/perun-statechannel/store"
	"perun.network/perun-statechannel/wallet"
	wtest "perun.network/perun-statechannel/wallet/test"
)

// DefaultStart is the time a Setup's clock starts at.
var DefaultStart = time.Date(2025, time.February, 26, 12, 0, 0, 0, time.UTC)

// Setup bundles an adjudicator over an in-memory store with a manual clock
// and an event bus.
type Setup struct {
	t           *testing.T
	Adjudicator *channel.Adjudicator
	Store       *store.Memory
	Clock       *Clock
	Bus         *event.Bus
	Accounts    []wallet.Address
}

// NewTestSetup creates a Setup with numAccounts random accounts. opts are
// applied after the setup's clock and bus.
func NewTestSetup(t *testing.T, numAccounts int, opts ...channel.Option) *Setup {
	t.Helper()
	rng := pkgtest.Prng(t)
	s := &Setup{
		t:        t,
		Store:    store.NewMemory(),
		Clock:    NewClock(DefaultStart),
		Bus:      event.NewBus(),
		Accounts: wtest.NewRandomAddresses(rng, numAccounts),
	}
	opts = append([]channel.Option{
		channel.WithClock(s.Clock),
		channel.WithPublisher(s.Bus),
	}, opts...)
	s.Adjudicator = channel.NewAdjudicator(s.Store, opts...)
	t.Cleanup(func() { require.NoError(t, s.Bus.Close()) })
	return s
}

// Open opens a channel between the given accounts and fails the test on error.
func (s *Setup) Open(participants []wallet.Address, balances channel.Balances) channel.ID {
	s.t.Helper()
	id, err := s.Adjudicator.Open(context.Background(), participants, balances)
	require.NoError(s.t, err)
	return id
}

// Channel returns the record of channel id and fails the test on error.
func (s *Setup) Channel(id channel.ID) channel.Channel {
	s.t.Helper()
	ch, err := s.Adjudicator.Channel(context.Background(), id)
	require.NoError(s.t, err)
	return ch
}
