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

	"github.com/stellar/go/xdr"

	"perun.network/perun-statechannel/wallet"
	"perun.network/perun-statechannel/wire/scval"
)

// Participants is the persisted form of a participant list: a vec of account
// addresses.
type Participants xdr.ScVec

// MakeParticipants converts participant accounts to their persisted form.
func MakeParticipants(accs []wallet.Address) (Participants, error) {
	vec := make(Participants, len(accs))
	for i, acc := range accs {
		addr, err := acc.ScAddress()
		if err != nil {
			return nil, fmt.Errorf("participant %d: %w", i, err)
		}
		if vec[i], err = scval.WrapScAddress(addr); err != nil {
			return nil, err
		}
	}
	return vec, nil
}

// ToParticipants converts persisted participants back to accounts.
func ToParticipants(p Participants) ([]wallet.Address, error) {
	accs := make([]wallet.Address, len(p))
	for i, v := range p {
		addr, ok := v.GetAddress()
		if !ok {
			return nil, fmt.Errorf("participant %d: expected address", i)
		}
		acc, err := wallet.AddressFromScAddress(addr)
		if err != nil {
			return nil, fmt.Errorf("participant %d: %w", i, err)
		}
		accs[i] = acc
	}
	return accs, nil
}
