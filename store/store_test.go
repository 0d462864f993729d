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

package store_test

import (
	"context"
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	pkgtest "polycry.pt/poly-go/test"

	"perun.network/perun-statechannel/channel"
	"perun.network/perun-statechannel/store"
	"perun.network/perun-statechannel/wallet"
)

func TestMemory(t *testing.T) {
	testStore(t, store.NewMemory())
}

func TestSQLite(t *testing.T) {
	s, err := store.OpenSQL(filepath.Join(t.TempDir(), "channels.db"), store.SQLOpts{
		Driver:       store.DriverSQLite,
		TablePrefix:  "test",
		CreateSchema: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })

	testStore(t, s)
}

func TestSQLiteReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "channels.db")
	opts := store.SQLOpts{Driver: store.DriverSQLite, CreateSchema: true}
	ch := newChannel(t, 2)

	s, err := store.OpenSQL(path, opts)
	require.NoError(t, err)
	id, err := s.Insert(ctx, ch)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = store.OpenSQL(path, opts)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Channel(ctx, id)
	require.NoError(t, err)
	ch.ID = id
	requireChannelEqual(t, ch, got)
}

func TestCachedMemory(t *testing.T) {
	s, err := store.NewCached(store.NewMemory(), 16)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })

	testStore(t, s)
}

func newChannel(t *testing.T, n int) channel.Channel {
	t.Helper()
	rng := pkgtest.Prng(t, n)
	ch := channel.Channel{Status: channel.StatusOpen}
	for i := 0; i < n; i++ {
		ch.Participants = append(ch.Participants, wallet.NewRandomAddressFromRng(rng))
		ch.Balances = append(ch.Balances, big.NewInt(rng.Int63n(1000)))
	}
	return ch
}

func requireChannelEqual(t *testing.T, want, got channel.Channel) {
	t.Helper()
	require.Equal(t, want.ID, got.ID)
	require.Equal(t, want.Participants, got.Participants)
	require.True(t, want.Balances.Equal(got.Balances), "balances: want %v, got %v", want.Balances, got.Balances)
	require.Equal(t, want.Nonce, got.Nonce)
	require.Equal(t, want.Status, got.Status)
	require.True(t, want.DisputeDeadline.Equal(got.DisputeDeadline))
}

func testStore(t *testing.T, s channel.Store) {
	ctx := context.Background()
	a, b := newChannel(t, 2), newChannel(t, 3)
	b.Participants[0] = a.Participants[0]

	idA, err := s.Insert(ctx, a)
	require.NoError(t, err)
	idB, err := s.Insert(ctx, b)
	require.NoError(t, err)
	require.Equal(t, channel.ID(1), idA)
	require.Equal(t, channel.ID(2), idB)
	a.ID, b.ID = idA, idB

	t.Run("Channel", func(t *testing.T) {
		got, err := s.Channel(ctx, idA)
		require.NoError(t, err)
		requireChannelEqual(t, a, got)

		got.Balances[0].SetInt64(-5)
		got.Participants[0] = ""
		again, err := s.Channel(ctx, idA)
		require.NoError(t, err)
		requireChannelEqual(t, a, again)

		_, err = s.Channel(ctx, 99)
		require.ErrorIs(t, err, channel.ErrChannelNotFound)
		require.ErrorIs(t, err, channel.ErrNotFound)
	})

	t.Run("ParticipantChannels", func(t *testing.T) {
		ids, err := s.ParticipantChannels(ctx, a.Participants[0])
		require.NoError(t, err)
		require.Equal(t, []channel.ID{idA, idB}, ids)

		ids, err = s.ParticipantChannels(ctx, b.Participants[2])
		require.NoError(t, err)
		require.Equal(t, []channel.ID{idB}, ids)

		ids, err = s.ParticipantChannels(ctx, wallet.NewRandomAddressFromRng(pkgtest.Prng(t)))
		require.NoError(t, err)
		require.Empty(t, ids)
	})

	t.Run("Commit", func(t *testing.T) {
		_, err := s.Dispute(ctx, idB)
		require.ErrorIs(t, err, channel.ErrNoActiveDispute)

		disputedAt := time.Date(2025, 2, 26, 12, 0, 0, 0, time.UTC)
		b.Nonce = 5
		b.Balances = channel.MakeBalances(1, 2, 3)
		b.Status = channel.StatusDisputed
		b.DisputeDeadline = disputedAt.Add(72 * time.Hour)
		d := channel.Dispute{
			ChannelID:  idB,
			DisputedAt: disputedAt,
			Nonce:      4,
			Challenger: b.Participants[1],
			Challenged: []wallet.Address{b.Participants[0], b.Participants[2]},
		}
		require.NoError(t, s.Commit(ctx, channel.Change{Channel: b, Dispute: &d}))

		got, err := s.Channel(ctx, idB)
		require.NoError(t, err)
		requireChannelEqual(t, b, got)
		gotDispute, err := s.Dispute(ctx, idB)
		require.NoError(t, err)
		require.Equal(t, d, gotDispute)

		b.Status = channel.StatusClosed
		require.NoError(t, s.Commit(ctx, channel.Change{Channel: b, ClearDispute: true}))
		got, err = s.Channel(ctx, idB)
		require.NoError(t, err)
		requireChannelEqual(t, b, got)
		_, err = s.Dispute(ctx, idB)
		require.ErrorIs(t, err, channel.ErrNoActiveDispute)

		unknown := a.Clone()
		unknown.ID = 42
		require.ErrorIs(t, s.Commit(ctx, channel.Change{Channel: unknown}), channel.ErrChannelNotFound)
	})
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	for _, opts := range []store.Options{
		{Driver: store.DriverMemory},
		{Driver: store.DriverSQLite, DataSource: filepath.Join(t.TempDir(), "plain.db")},
		{Driver: store.DriverSQLite, DataSource: filepath.Join(t.TempDir(), "cached.db"), TablePrefix: "perun", CacheSize: 8},
	} {
		t.Run(opts.Driver, func(t *testing.T) {
			s, err := store.Open(opts)
			require.NoError(t, err)
			defer func() { require.NoError(t, s.Close()) }()

			id, err := s.Insert(ctx, newChannel(t, 2))
			require.NoError(t, err)
			require.Equal(t, channel.ID(1), id)
		})
	}

	_, err := store.Open(store.Options{Driver: "mysql"})
	require.ErrorIs(t, err, store.ErrUnknownDriver)
}
