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
	"fmt"

	xdr3 "github.com/stellar/go-xdr/xdr3"
	"github.com/stellar/go/xdr"

	"perun.network/perun-statechannel/channel"
	"perun.network/perun-statechannel/wire/scval"
)

const (
	SymbolStateBalances xdr.ScSymbol = "balances"
	SymbolStateNonce    xdr.ScSymbol = "nonce"
)

// State is the off-chain agreed part of a channel record.
type State struct {
	Balances Balances
	Nonce    xdr.Uint64
}

func (s State) ToScVal() (xdr.ScVal, error) {
	balances, err := scval.WrapVec(xdr.ScVec(s.Balances))
	if err != nil {
		return xdr.ScVal{}, err
	}
	nonce, err := scval.WrapUint64(s.Nonce)
	if err != nil {
		return xdr.ScVal{}, err
	}
	m, err := MakeSymbolScMap(
		[]xdr.ScSymbol{SymbolStateBalances, SymbolStateNonce},
		[]xdr.ScVal{balances, nonce},
	)
	if err != nil {
		return xdr.ScVal{}, err
	}
	return scval.WrapScMap(m)
}

func (s *State) FromScVal(v xdr.ScVal) error {
	m, err := symbolMap(v, 2) //nolint:gomnd
	if err != nil {
		return fmt.Errorf("decoding state: %w", err)
	}
	balances, err := getVec(SymbolStateBalances, m)
	if err != nil {
		return err
	}
	for i, bal := range balances {
		if _, ok := bal.GetI128(); !ok {
			return fmt.Errorf("balance %d: expected i128", i)
		}
	}
	nonce, err := getUint64(SymbolStateNonce, m)
	if err != nil {
		return err
	}
	s.Balances = Balances(balances)
	s.Nonce = nonce
	return nil
}

func (s State) EncodeTo(e *xdr3.Encoder) error {
	v, err := s.ToScVal()
	if err != nil {
		return err
	}
	return v.EncodeTo(e)
}

func (s *State) DecodeFrom(d *xdr3.Decoder) (int, error) {
	return decodeFrom(d, s)
}

func (s State) MarshalBinary() ([]byte, error) {
	return marshal(s)
}

func (s *State) UnmarshalBinary(data []byte) error {
	return unmarshal(data, s)
}

// MakeState extracts the persisted state of ch.
func MakeState(ch channel.Channel) (State, error) {
	balances, err := MakeBalances(ch.Balances)
	if err != nil {
		return State{}, err
	}
	return State{
		Balances: balances,
		Nonce:    xdr.Uint64(ch.Nonce),
	}, nil
}
