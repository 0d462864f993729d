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

package wallet_test

import (
	"testing"

	"github.com/stellar/go/keypair"
	"github.com/stellar/go/xdr"
	"github.com/stretchr/testify/require"
	pkgtest "polycry.pt/poly-go/test"

	"perun.network/perun-statechannel/wallet"
)

func TestParseAddress(t *testing.T) {
	kp := keypair.MustRandom()

	addr, err := wallet.ParseAddress(kp.Address())
	require.NoError(t, err)
	require.Equal(t, kp.Address(), addr.String())
	require.True(t, addr.Valid())

	for _, invalid := range []string{"", "alice", "GABC", kp.Seed()} {
		_, err := wallet.ParseAddress(invalid)
		require.ErrorIs(t, err, wallet.ErrInvalidAddress, "input %q", invalid)
		require.False(t, wallet.Address(invalid).Valid())
	}
}

func TestNewRandomAddressFromRng(t *testing.T) {
	rng := pkgtest.Prng(t)
	a := wallet.NewRandomAddressFromRng(rng)
	b := wallet.NewRandomAddressFromRng(rng)

	require.True(t, a.Valid())
	require.True(t, b.Valid())
	require.NotEqual(t, a, b)
}

func TestScAddress(t *testing.T) {
	addr, err := wallet.NewRandomAddress()
	require.NoError(t, err)

	scAddr, err := addr.ScAddress()
	require.NoError(t, err)
	require.Equal(t, xdr.ScAddressTypeScAddressTypeAccount, scAddr.Type)

	back, err := wallet.AddressFromScAddress(scAddr)
	require.NoError(t, err)
	require.Equal(t, addr, back)

	var contract xdr.Hash
	contractAddr, err := xdr.NewScAddress(xdr.ScAddressTypeScAddressTypeContract, contract)
	require.NoError(t, err)
	_, err = wallet.AddressFromScAddress(contractAddr)
	require.ErrorIs(t, err, wallet.ErrInvalidAddress)

	_, err = wallet.Address("bogus").ScAddress()
	require.ErrorIs(t, err, wallet.ErrInvalidAddress)
}

func TestAccount(t *testing.T) {
	acc, err := wallet.NewRandomAccount()
	require.NoError(t, err)
	require.True(t, acc.Address().Valid())

	restored, err := wallet.AccountFromSeed(acc.Seed())
	require.NoError(t, err)
	require.Equal(t, acc.Address(), restored.Address())

	_, err = wallet.AccountFromSeed(acc.Address().String())
	require.Error(t, err)
}
