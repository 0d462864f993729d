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

package wire_test

import (
	"math/big"
	"testing"
	"time"

	"github.com/stellar/go/xdr"
	"github.com/stretchr/testify/require"
	pkgtest "polycry.pt/poly-go/test"

	"perun.network/perun-statechannel/channel"
	"perun.network/perun-statechannel/wallet"
	"perun.network/perun-statechannel/wire"
)

func newChannel(t *testing.T, n int) channel.Channel {
	rng := pkgtest.Prng(t)
	ch := channel.Channel{ID: 7, Nonce: 42, Status: channel.StatusOpen}
	for i := 0; i < n; i++ {
		ch.Participants = append(ch.Participants, wallet.NewRandomAddressFromRng(rng))
		ch.Balances = append(ch.Balances, big.NewInt(rng.Int63()))
	}
	return ch
}

func TestChannelRecord(t *testing.T) {
	ch := newChannel(t, 3)
	ch.Status = channel.StatusDisputed
	ch.DisputeDeadline = time.Date(2025, 3, 1, 12, 0, 0, 123, time.UTC)
	ch.Balances[1] = new(big.Int).Set(channel.MaxBalance)

	data, err := wire.EncodeChannel(ch)
	require.NoError(t, err)

	decoded, err := wire.DecodeChannel(data)
	require.NoError(t, err)
	require.Equal(t, ch.ID, decoded.ID)
	require.Equal(t, ch.Participants, decoded.Participants)
	require.True(t, ch.Balances.Equal(decoded.Balances))
	require.Equal(t, ch.Nonce, decoded.Nonce)
	require.Equal(t, ch.Status, decoded.Status)
	require.True(t, ch.DisputeDeadline.Equal(decoded.DisputeDeadline))

	again, err := wire.EncodeChannel(decoded)
	require.NoError(t, err)
	require.Equal(t, data, again, "encoding must be deterministic")
}

func TestChannelRecordZeroDeadline(t *testing.T) {
	ch := newChannel(t, 2)

	data, err := wire.EncodeChannel(ch)
	require.NoError(t, err)
	decoded, err := wire.DecodeChannel(data)
	require.NoError(t, err)
	require.True(t, decoded.DisputeDeadline.IsZero())
}

func TestChannelRecordRejectsInvalid(t *testing.T) {
	ch := newChannel(t, 2)
	ch.Balances[0] = big.NewInt(-1)
	_, err := wire.EncodeChannel(ch)
	require.Error(t, err)

	ch = newChannel(t, 2)
	ch.Balances[0] = new(big.Int).Add(channel.MaxBalance, big.NewInt(1))
	_, err = wire.EncodeChannel(ch)
	require.Error(t, err)

	ch = newChannel(t, 2)
	ch.Balances = ch.Balances[:1]
	_, err = wire.EncodeChannel(ch)
	require.Error(t, err)

	ch = newChannel(t, 2)
	ch.Participants[0] = "not-an-account"
	_, err = wire.EncodeChannel(ch)
	require.ErrorIs(t, err, wallet.ErrInvalidAddress)
}

func TestDecodeChannelMismatchedLengths(t *testing.T) {
	rec, err := wire.MakeChannel(newChannel(t, 2))
	require.NoError(t, err)
	rec.State.Balances = rec.State.Balances[:1]

	data, err := rec.MarshalBinary()
	require.NoError(t, err)
	_, err = wire.DecodeChannel(data)
	require.Error(t, err)
}

func TestDecodeChannelTrailingBytes(t *testing.T) {
	data, err := wire.EncodeChannel(newChannel(t, 2))
	require.NoError(t, err)

	_, err = wire.DecodeChannel(append(data, 0, 0, 0, 0))
	require.Error(t, err)
	_, err = wire.DecodeChannel(data[:len(data)-4])
	require.Error(t, err)
}

func TestDisputeRecord(t *testing.T) {
	ch := newChannel(t, 3)
	d := channel.Dispute{
		ChannelID:  ch.ID,
		DisputedAt: time.Date(2025, 2, 26, 12, 0, 0, 0, time.UTC),
		Nonce:      3,
		Challenger: ch.Participants[0],
		Challenged: ch.Participants[1:],
	}

	data, err := wire.EncodeDispute(d)
	require.NoError(t, err)
	decoded, err := wire.DecodeDispute(data)
	require.NoError(t, err)
	require.Equal(t, d, decoded)

	_, err = wire.DecodeChannel(data)
	require.Error(t, err, "a dispute record is not a channel record")
}

func TestInt128Parts(t *testing.T) {
	for _, v := range []*big.Int{
		big.NewInt(0),
		big.NewInt(1),
		new(big.Int).Lsh(big.NewInt(1), 64),
		channel.MaxBalance,
	} {
		parts, err := wire.MakeInt128Parts(v)
		require.NoError(t, err)
		back, err := wire.ToBigInt(parts)
		require.NoError(t, err)
		require.Zero(t, v.Cmp(back), "value %v", v)
	}

	_, err := wire.ToBigInt(xdr.Int128Parts{Hi: -1, Lo: 0})
	require.Error(t, err)
}
