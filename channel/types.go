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

package channel

import (
	"fmt"
	"math/big"
	"time"

	pchannel "perun.network/go-perun/channel"

	"perun.network/perun-statechannel/wallet"
)

// MaxBalance is the largest balance a participant may hold. It is bounded by
// the signed 128 bit integers of the persisted record format.
var MaxBalance = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1)) //nolint:gomnd

// ID identifies a channel. IDs are assigned by the Store in ascending order,
// starting at 1.
type ID uint64

// Status is the lifecycle state of a channel.
type Status uint8

const (
	StatusOpen Status = iota
	StatusDisputed
	StatusClosed
)

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusDisputed:
		return "disputed"
	case StatusClosed:
		return "closed"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Balances holds one balance per participant, in participant order.
type Balances []pchannel.Bal

// Clone returns a deep copy of b.
func (b Balances) Clone() Balances {
	if b == nil {
		return nil
	}
	clone := make(Balances, len(b))
	for i, bal := range b {
		if bal != nil {
			clone[i] = new(big.Int).Set(bal)
		}
	}
	return clone
}

// Sum returns the total of all balances.
func (b Balances) Sum() *big.Int {
	sum := new(big.Int)
	for _, bal := range b {
		if bal != nil {
			sum.Add(sum, bal)
		}
	}
	return sum
}

// Equal reports whether b and other hold the same values.
func (b Balances) Equal(other Balances) bool {
	if len(b) != len(other) {
		return false
	}
	for i := range b {
		if b[i] == nil || other[i] == nil {
			if b[i] != other[i] {
				return false
			}
			continue
		}
		if b[i].Cmp(other[i]) != 0 {
			return false
		}
	}
	return true
}

// Valid checks that every balance is set, non-negative and representable.
func (b Balances) Valid() error {
	for i, bal := range b {
		if bal == nil {
			return fmt.Errorf("%w: balance %d is nil", ErrInvalidBalance, i)
		}
		if bal.Sign() < 0 {
			return fmt.Errorf("%w: balance %d is negative", ErrInvalidBalance, i)
		}
		if bal.Cmp(MaxBalance) > 0 {
			return fmt.Errorf("%w: balance %d is too large", ErrInvalidBalance, i)
		}
	}
	return nil
}

// MakeBalances is a convenience constructor for small balances.
func MakeBalances(bals ...int64) Balances {
	b := make(Balances, len(bals))
	for i, bal := range bals {
		b[i] = big.NewInt(bal)
	}
	return b
}

// Channel is the on-record state of an off-chain channel.
type Channel struct {
	ID           ID
	Participants []wallet.Address
	Balances     Balances
	Nonce        uint64
	Status       Status
	// DisputeDeadline is only meaningful while Status is StatusDisputed.
	DisputeDeadline time.Time
}

// Clone returns a deep copy of c.
func (c Channel) Clone() Channel {
	clone := c
	clone.Participants = append([]wallet.Address(nil), c.Participants...)
	clone.Balances = c.Balances.Clone()
	return clone
}

// Index returns the position of acc among the participants.
func (c Channel) Index(acc wallet.Address) (int, bool) {
	for i, p := range c.Participants {
		if p == acc {
			return i, true
		}
	}
	return -1, false
}

// IsParticipant reports whether acc is a participant of c.
func (c Channel) IsParticipant(acc wallet.Address) bool {
	_, ok := c.Index(acc)
	return ok
}

// Dispute is an active challenge against a channel's recorded state.
type Dispute struct {
	ChannelID  ID
	DisputedAt time.Time
	// Nonce is the nonce the challenger contests.
	Nonce      uint64
	Challenger wallet.Address
	// Challenged holds every participant other than the challenger.
	Challenged []wallet.Address
}

// Clone returns a deep copy of d.
func (d Dispute) Clone() Dispute {
	clone := d
	clone.Challenged = append([]wallet.Address(nil), d.Challenged...)
	return clone
}
