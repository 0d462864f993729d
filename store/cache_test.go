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
	"testing"

	"github.com/stretchr/testify/require"

	"perun.network/perun-statechannel/channel"
	"perun.network/perun-statechannel/store"
)

func TestCachedServesCommittedRecords(t *testing.T) {
	ctx := context.Background()
	backing := store.NewMemory()
	s, err := store.NewCached(backing, 0)
	require.NoError(t, err)
	defer s.Close()

	ch := newChannel(t, 2)
	id, err := s.Insert(ctx, ch)
	require.NoError(t, err)
	ch.ID = id

	// A write that bypasses the cache is not observed.
	bypass := ch.Clone()
	bypass.Nonce = 9
	require.NoError(t, backing.Commit(ctx, channel.Change{Channel: bypass}))
	got, err := s.Channel(ctx, id)
	require.NoError(t, err)
	require.Equal(t, uint64(0), got.Nonce)

	// A write through the cache is.
	ch.Nonce = 10
	require.NoError(t, s.Commit(ctx, channel.Change{Channel: ch}))
	got, err = s.Channel(ctx, id)
	require.NoError(t, err)
	require.Equal(t, uint64(10), got.Nonce)
}

func TestCachedLoadsFromBacking(t *testing.T) {
	ctx := context.Background()
	backing := store.NewMemory()
	ch := newChannel(t, 2)
	id, err := backing.Insert(ctx, ch)
	require.NoError(t, err)

	s, err := store.NewCached(backing, 4)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Channel(ctx, id)
	require.NoError(t, err)
	require.Equal(t, id, got.ID)
	require.Equal(t, ch.Participants, got.Participants)

	ids, err := s.ParticipantChannels(ctx, ch.Participants[1])
	require.NoError(t, err)
	require.Equal(t, []channel.ID{id}, ids)
}
