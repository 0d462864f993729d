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
	SymbolChannelID           xdr.ScSymbol = "id"
	SymbolChannelParticipants xdr.ScSymbol = "participants"
	SymbolChannelState        xdr.ScSymbol = "state"
	SymbolChannelControl      xdr.ScSymbol = "control"
)

// Channel is the persisted record of a channel.
type Channel struct {
	ID           xdr.Uint64
	Participants Participants
	State        State
	Control      Control
}

// ToScVal converts a Channel to an xdr.ScVal.
func (c Channel) ToScVal() (xdr.ScVal, error) {
	id, err := scval.WrapUint64(c.ID)
	if err != nil {
		return xdr.ScVal{}, err
	}
	participants, err := scval.WrapVec(xdr.ScVec(c.Participants))
	if err != nil {
		return xdr.ScVal{}, err
	}
	state, err := c.State.ToScVal()
	if err != nil {
		return xdr.ScVal{}, err
	}
	control, err := c.Control.ToScVal()
	if err != nil {
		return xdr.ScVal{}, err
	}
	m, err := MakeSymbolScMap(
		[]xdr.ScSymbol{
			SymbolChannelID,
			SymbolChannelParticipants,
			SymbolChannelState,
			SymbolChannelControl,
		},
		[]xdr.ScVal{id, participants, state, control},
	)
	if err != nil {
		return xdr.ScVal{}, err
	}
	return scval.WrapScMap(m)
}

// FromScVal converts an xdr.ScVal to a Channel.
func (c *Channel) FromScVal(v xdr.ScVal) error {
	m, err := symbolMap(v, 4) //nolint:gomnd
	if err != nil {
		return fmt.Errorf("decoding channel: %w", err)
	}
	id, err := getUint64(SymbolChannelID, m)
	if err != nil {
		return err
	}
	participants, err := getVec(SymbolChannelParticipants, m)
	if err != nil {
		return err
	}
	for i, p := range participants {
		if _, ok := p.GetAddress(); !ok {
			return fmt.Errorf("participant %d: expected address", i)
		}
	}
	stateVal, err := GetScMapValueFromSymbol(SymbolChannelState, m)
	if err != nil {
		return err
	}
	var state State
	if err := state.FromScVal(stateVal); err != nil {
		return err
	}
	if len(state.Balances) != len(participants) {
		return fmt.Errorf("%d balances for %d participants", len(state.Balances), len(participants))
	}
	controlVal, err := GetScMapValueFromSymbol(SymbolChannelControl, m)
	if err != nil {
		return err
	}
	var control Control
	if err := control.FromScVal(controlVal); err != nil {
		return err
	}
	c.ID = id
	c.Participants = Participants(participants)
	c.State = state
	c.Control = control
	return nil
}

// EncodeTo encodes a Channel to an xdr.Encoder.
func (c Channel) EncodeTo(e *xdr3.Encoder) error {
	v, err := c.ToScVal()
	if err != nil {
		return err
	}
	return v.EncodeTo(e)
}

// DecodeFrom decodes a Channel from an xdr.Decoder.
func (c *Channel) DecodeFrom(d *xdr3.Decoder) (int, error) {
	return decodeFrom(d, c)
}

// MarshalBinary encodes a Channel to a binary format.
func (c Channel) MarshalBinary() ([]byte, error) {
	return marshal(c)
}

// UnmarshalBinary decodes a Channel from a binary format.
func (c *Channel) UnmarshalBinary(data []byte) error {
	return unmarshal(data, c)
}

// MakeChannel converts ch into its persisted record.
func MakeChannel(ch channel.Channel) (Channel, error) {
	if len(ch.Balances) != len(ch.Participants) {
		return Channel{}, fmt.Errorf("%d balances for %d participants", len(ch.Balances), len(ch.Participants))
	}
	participants, err := MakeParticipants(ch.Participants)
	if err != nil {
		return Channel{}, err
	}
	state, err := MakeState(ch)
	if err != nil {
		return Channel{}, err
	}
	control, err := MakeControl(ch)
	if err != nil {
		return Channel{}, err
	}
	return Channel{
		ID:           xdr.Uint64(ch.ID),
		Participants: participants,
		State:        state,
		Control:      control,
	}, nil
}

// ToChannel converts a persisted record back into a channel.
func ToChannel(c Channel) (channel.Channel, error) {
	participants, err := ToParticipants(c.Participants)
	if err != nil {
		return channel.Channel{}, err
	}
	balances, err := ToBalances(c.State.Balances)
	if err != nil {
		return channel.Channel{}, err
	}
	return channel.Channel{
		ID:              channel.ID(c.ID),
		Participants:    participants,
		Balances:        balances,
		Nonce:           uint64(c.State.Nonce),
		Status:          channel.Status(c.Control.Status),
		DisputeDeadline: ToTime(c.Control.Deadline),
	}, nil
}

// EncodeChannel returns the binary record of ch.
func EncodeChannel(ch channel.Channel) ([]byte, error) {
	c, err := MakeChannel(ch)
	if err != nil {
		return nil, err
	}
	return c.MarshalBinary()
}

// DecodeChannel parses a binary record written by EncodeChannel.
func DecodeChannel(data []byte) (channel.Channel, error) {
	var c Channel
	if err := c.UnmarshalBinary(data); err != nil {
		return channel.Channel{}, err
	}
	return ToChannel(c)
}
