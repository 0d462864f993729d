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

package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/stellar/go/xdr"

	"perun.network/perun-statechannel/channel"
	"perun.network/perun-statechannel/wire/scval"
)

// Balances is the persisted form of channel balances: a vec of i128 values in
// participant order.
type Balances xdr.ScVec

// MakeBalances converts channel balances to their persisted form.
func MakeBalances(bals channel.Balances) (Balances, error) {
	vec := make(Balances, len(bals))
	for i, bal := range bals {
		if bal == nil {
			return nil, fmt.Errorf("balance %d is nil", i)
		}
		parts, err := MakeInt128Parts(bal)
		if err != nil {
			return nil, fmt.Errorf("balance %d: %w", i, err)
		}
		if vec[i], err = scval.WrapInt128Parts(parts); err != nil {
			return nil, err
		}
	}
	return vec, nil
}

// ToBalances converts persisted balances back to channel balances.
func ToBalances(b Balances) (channel.Balances, error) {
	bals := make(channel.Balances, len(b))
	for i, v := range b {
		parts, ok := v.GetI128()
		if !ok {
			return nil, fmt.Errorf("balance %d: expected i128", i)
		}
		bal, err := ToBigInt(parts)
		if err != nil {
			return nil, fmt.Errorf("balance %d: %w", i, err)
		}
		bals[i] = bal
	}
	return bals, nil
}

// MakeInt128Parts converts a big.Int to xdr.Int128Parts.
// It returns an error if the big.Int is negative or too large.
//
//nolint:gomnd
func MakeInt128Parts(i *big.Int) (xdr.Int128Parts, error) {
	if i.Sign() < 0 {
		return xdr.Int128Parts{}, errors.New("expected non-negative balance")
	}
	if i.Cmp(channel.MaxBalance) > 0 {
		return xdr.Int128Parts{}, errors.New("balance too large")
	}
	b := make([]byte, 16)
	i.FillBytes(b)
	return xdr.Int128Parts{
		Hi: xdr.Int64(binary.BigEndian.Uint64(b[:8])),
		Lo: xdr.Uint64(binary.BigEndian.Uint64(b[8:])),
	}, nil
}

// ToBigInt converts xdr.Int128Parts to a big.Int. Negative values are rejected
// since balances never are.
//
//nolint:gomnd
func ToBigInt(i xdr.Int128Parts) (*big.Int, error) {
	if i.Hi < 0 {
		return nil, errors.New("negative balance")
	}
	b := make([]byte, 16)
	binary.BigEndian.PutUint64(b[:8], uint64(i.Hi))
	binary.BigEndian.PutUint64(b[8:], uint64(i.Lo))
	return new(big.Int).SetBytes(b), nil
}
