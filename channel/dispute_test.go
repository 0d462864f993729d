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

package channel_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"perun.network/perun-statechannel/channel"
	chtest "perun.network/perun-statechannel/channel/test"
	"perun.network/perun-statechannel/event"
	"perun.network/perun-statechannel/metrics"
	"perun.network/perun-statechannel/wallet"
)

const day = 24 * time.Hour

// openAtNonce opens a channel between the first two accounts and updates it
// to the given nonce.
func openAtNonce(t *testing.T, setup *chtest.Setup, nonce uint64) channel.ID {
	t.Helper()
	id := setup.Open(setup.Accounts[:2], channel.MakeBalances(100, 50))
	for n := uint64(1); n <= nonce; n++ {
		bals := channel.MakeBalances(100-int64(n), 50+int64(n))
		require.NoError(t, setup.Adjudicator.UpdateState(context.Background(), setup.Accounts[0], id, bals, n))
	}
	return id
}

// Contest nonce 3 on a channel at nonce 5, then try again.
func TestInitiateDispute(t *testing.T) {
	ctx := context.Background()
	setup := chtest.NewTestSetup(t, 2)
	alice, bob := setup.Accounts[0], setup.Accounts[1]
	id := openAtNonce(t, setup, 5)

	require.NoError(t, setup.Adjudicator.InitiateDispute(ctx, alice, id, 3))

	ch := setup.Channel(id)
	require.Equal(t, channel.StatusDisputed, ch.Status)
	require.Equal(t, chtest.DefaultStart.Add(channel.DefaultDisputeDuration), ch.DisputeDeadline)
	require.Equal(t, uint64(5), ch.Nonce)

	d, err := setup.Adjudicator.Dispute(ctx, id)
	require.NoError(t, err)
	require.Equal(t, channel.Dispute{
		ChannelID:  id,
		DisputedAt: chtest.DefaultStart,
		Nonce:      3,
		Challenger: alice,
		Challenged: []wallet.Address{bob},
	}, d)

	err = setup.Adjudicator.InitiateDispute(ctx, bob, id, 3)
	require.ErrorIs(t, err, channel.ErrDisputeAlreadyActive)
	require.ErrorIs(t, err, channel.ErrInvalidChannelState)

	// A disputed channel accepts no updates and cannot be closed cooperatively.
	require.ErrorIs(t, setup.Adjudicator.UpdateState(ctx, bob, id, channel.MakeBalances(0, 150), 6), channel.ErrChannelNotOpen)
	require.ErrorIs(t, setup.Adjudicator.Close(ctx, bob, id), channel.ErrChannelNotOpen)
}

func TestInitiateDisputeInvalid(t *testing.T) {
	ctx := context.Background()
	setup := chtest.NewTestSetup(t, 3)
	alice, mallory := setup.Accounts[0], setup.Accounts[2]
	id := openAtNonce(t, setup, 5)

	require.ErrorIs(t, setup.Adjudicator.InitiateDispute(ctx, mallory, id, 3), channel.ErrNotParticipant)
	require.ErrorIs(t, setup.Adjudicator.InitiateDispute(ctx, alice, 99, 3), channel.ErrChannelNotFound)
	require.ErrorIs(t, setup.Adjudicator.InitiateDispute(ctx, alice, id, 5), channel.ErrInvalidContestedNonce)
	require.ErrorIs(t, setup.Adjudicator.InitiateDispute(ctx, alice, id, 6), channel.ErrInvalidContestedNonce)

	fresh := openAtNonce(t, setup, 0)
	require.ErrorIs(t, setup.Adjudicator.InitiateDispute(ctx, alice, fresh, 0), channel.ErrInvalidContestedNonce)

	require.Equal(t, channel.StatusOpen, setup.Channel(id).Status)
	_, err := setup.Adjudicator.Dispute(ctx, id)
	require.ErrorIs(t, err, channel.ErrNoActiveDispute)
}

func TestInitiateDisputeMultiParty(t *testing.T) {
	ctx := context.Background()
	setup := chtest.NewTestSetup(t, 4)
	a, b, c, d := setup.Accounts[0], setup.Accounts[1], setup.Accounts[2], setup.Accounts[3]
	id := setup.Open(setup.Accounts, channel.MakeBalances(1, 2, 3, 4))
	require.NoError(t, setup.Adjudicator.UpdateState(ctx, a, id, channel.MakeBalances(4, 3, 2, 1), 1))

	require.NoError(t, setup.Adjudicator.InitiateDispute(ctx, c, id, 0))
	dispute, err := setup.Adjudicator.Dispute(ctx, id)
	require.NoError(t, err)
	require.Equal(t, c, dispute.Challenger)
	require.Equal(t, []wallet.Address{a, b, d}, dispute.Challenged)
}

// Dispute at T with a three day window: resolving at T+2d fails, at T+3d it
// succeeds.
func TestResolveDispute(t *testing.T) {
	ctx := context.Background()
	m, err := metrics.New(prometheus.NewRegistry())
	require.NoError(t, err)
	setup := chtest.NewTestSetup(t, 2, channel.WithDisputeDuration(3*day), channel.WithMetrics(m))
	alice, bob := setup.Accounts[0], setup.Accounts[1]
	id := openAtNonce(t, setup, 2)
	sub := setup.Bus.Subscribe(uint64(id))
	defer sub.Close()

	require.NoError(t, setup.Adjudicator.InitiateDispute(ctx, bob, id, 1))
	disputed := next(t, sub).(*event.DisputedEvent)
	require.Equal(t, bob, disputed.Challenger)
	require.Equal(t, []wallet.Address{alice}, disputed.Challenged)
	require.Equal(t, event.Version(1), disputed.ContestedVersion)
	require.Equal(t, chtest.DefaultStart.Add(3*day), disputed.Deadline)

	final := channel.MakeBalances(120, 30)
	setup.Clock.Advance(2 * day)
	err = setup.Adjudicator.ResolveDispute(ctx, id, final)
	require.ErrorIs(t, err, channel.ErrWindowNotElapsed)
	require.Equal(t, channel.StatusDisputed, setup.Channel(id).Status)

	setup.Clock.Advance(day - time.Nanosecond)
	require.ErrorIs(t, setup.Adjudicator.ResolveDispute(ctx, id, final), channel.ErrWindowNotElapsed)

	setup.Clock.Advance(time.Nanosecond)
	require.NoError(t, setup.Adjudicator.ResolveDispute(ctx, id, final))

	ch := setup.Channel(id)
	require.Equal(t, channel.StatusClosed, ch.Status)
	require.True(t, final.Equal(ch.Balances))
	_, err = setup.Adjudicator.Dispute(ctx, id)
	require.ErrorIs(t, err, channel.ErrNoActiveDispute)

	closed := next(t, sub).(*event.ClosedEvent)
	require.False(t, closed.Cooperative)
	require.True(t, final.Equal(closed.Balances))

	require.ErrorIs(t, setup.Adjudicator.ResolveDispute(ctx, id, final), channel.ErrNoActiveDispute)
	require.ErrorIs(t, setup.Adjudicator.Close(ctx, alice, id), channel.ErrChannelAlreadyClosed)

	require.Equal(t, 1.0, testutil.ToFloat64(m.DisputesInitiated))
	require.Equal(t, 1.0, testutil.ToFloat64(m.ChannelsClosed.WithLabelValues(metrics.PathDispute)))
	require.Equal(t, 2.0, testutil.ToFloat64(m.Failures.WithLabelValues("resolve", "window_not_elapsed")))
}

func TestResolveDisputeInvalid(t *testing.T) {
	ctx := context.Background()
	setup := chtest.NewTestSetup(t, 2)
	alice := setup.Accounts[0]
	id := openAtNonce(t, setup, 2)

	require.ErrorIs(t, setup.Adjudicator.ResolveDispute(ctx, 99, channel.MakeBalances(1, 1)), channel.ErrChannelNotFound)
	require.ErrorIs(t, setup.Adjudicator.ResolveDispute(ctx, id, channel.MakeBalances(1, 1)), channel.ErrNoActiveDispute)

	require.NoError(t, setup.Adjudicator.InitiateDispute(ctx, alice, id, 1))
	setup.Clock.Advance(channel.DefaultDisputeDuration)

	require.ErrorIs(t, setup.Adjudicator.ResolveDispute(ctx, id, channel.MakeBalances(1)), channel.ErrBalanceLengthMismatch)
	require.ErrorIs(t, setup.Adjudicator.ResolveDispute(ctx, id, channel.MakeBalances(1, -1)), channel.ErrInvalidBalance)
	require.Equal(t, channel.StatusDisputed, setup.Channel(id).Status)
}

func TestResolveDisputeConservation(t *testing.T) {
	ctx := context.Background()
	setup := chtest.NewTestSetup(t, 2, channel.WithConservation(true))
	id := openAtNonce(t, setup, 1)
	require.NoError(t, setup.Adjudicator.InitiateDispute(ctx, setup.Accounts[1], id, 0))
	setup.Clock.Advance(channel.DefaultDisputeDuration)

	require.ErrorIs(t, setup.Adjudicator.ResolveDispute(ctx, id, channel.MakeBalances(150, 150)), channel.ErrBalanceNotConserved)
	require.NoError(t, setup.Adjudicator.ResolveDispute(ctx, id, channel.MakeBalances(150, 0)))
}

func TestDisputeQueryUnknownChannel(t *testing.T) {
	setup := chtest.NewTestSetup(t, 2)
	_, err := setup.Adjudicator.Dispute(context.Background(), 7)
	require.ErrorIs(t, err, channel.ErrChannelNotFound)
}
