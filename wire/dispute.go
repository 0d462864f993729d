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
	"perun.network/perun-statechannel/wallet"
	"perun.network/perun-statechannel/wire/scval"
)

const (
	SymbolDisputeChannelID  xdr.ScSymbol = "channel_id"
	SymbolDisputeDisputedAt xdr.ScSymbol = "disputed_at"
	SymbolDisputeNonce      xdr.ScSymbol = "nonce"
	SymbolDisputeChallenger xdr.ScSymbol = "challenger"
	SymbolDisputeChallenged xdr.ScSymbol = "challenged"
)

// Dispute is the persisted record of an active dispute.
type Dispute struct {
	ChannelID  xdr.Uint64
	DisputedAt xdr.Uint64
	Nonce      xdr.Uint64
	Challenger xdr.ScAddress
	Challenged Participants
}

func (d Dispute) ToScVal() (xdr.ScVal, error) {
	channelID, err := scval.WrapUint64(d.ChannelID)
	if err != nil {
		return xdr.ScVal{}, err
	}
	disputedAt, err := scval.WrapUint64(d.DisputedAt)
	if err != nil {
		return xdr.ScVal{}, err
	}
	nonce, err := scval.WrapUint64(d.Nonce)
	if err != nil {
		return xdr.ScVal{}, err
	}
	challenger, err := scval.WrapScAddress(d.Challenger)
	if err != nil {
		return xdr.ScVal{}, err
	}
	challenged, err := scval.WrapVec(xdr.ScVec(d.Challenged))
	if err != nil {
		return xdr.ScVal{}, err
	}
	m, err := MakeSymbolScMap(
		[]xdr.ScSymbol{
			SymbolDisputeChannelID,
			SymbolDisputeDisputedAt,
			SymbolDisputeNonce,
			SymbolDisputeChallenger,
			SymbolDisputeChallenged,
		},
		[]xdr.ScVal{channelID, disputedAt, nonce, challenger, challenged},
	)
	if err != nil {
		return xdr.ScVal{}, err
	}
	return scval.WrapScMap(m)
}

func (d *Dispute) FromScVal(v xdr.ScVal) error {
	m, err := symbolMap(v, 5) //nolint:gomnd
	if err != nil {
		return fmt.Errorf("decoding dispute: %w", err)
	}
	channelID, err := getUint64(SymbolDisputeChannelID, m)
	if err != nil {
		return err
	}
	disputedAt, err := getUint64(SymbolDisputeDisputedAt, m)
	if err != nil {
		return err
	}
	nonce, err := getUint64(SymbolDisputeNonce, m)
	if err != nil {
		return err
	}
	challengerVal, err := GetScMapValueFromSymbol(SymbolDisputeChallenger, m)
	if err != nil {
		return err
	}
	challenger, ok := challengerVal.GetAddress()
	if !ok {
		return fmt.Errorf("expected address for %q", string(SymbolDisputeChallenger))
	}
	challenged, err := getVec(SymbolDisputeChallenged, m)
	if err != nil {
		return err
	}
	d.ChannelID = channelID
	d.DisputedAt = disputedAt
	d.Nonce = nonce
	d.Challenger = challenger
	d.Challenged = Participants(challenged)
	return nil
}

func (d Dispute) EncodeTo(e *xdr3.Encoder) error {
	v, err := d.ToScVal()
	if err != nil {
		return err
	}
	return v.EncodeTo(e)
}

func (d *Dispute) DecodeFrom(dec *xdr3.Decoder) (int, error) {
	return decodeFrom(dec, d)
}

func (d Dispute) MarshalBinary() ([]byte, error) {
	return marshal(d)
}

func (d *Dispute) UnmarshalBinary(data []byte) error {
	return unmarshal(data, d)
}

// MakeDispute converts d into its persisted record.
func MakeDispute(d channel.Dispute) (Dispute, error) {
	disputedAt, err := MakeTimestamp(d.DisputedAt)
	if err != nil {
		return Dispute{}, err
	}
	challenger, err := d.Challenger.ScAddress()
	if err != nil {
		return Dispute{}, err
	}
	challenged, err := MakeParticipants(d.Challenged)
	if err != nil {
		return Dispute{}, err
	}
	return Dispute{
		ChannelID:  xdr.Uint64(d.ChannelID),
		DisputedAt: disputedAt,
		Nonce:      xdr.Uint64(d.Nonce),
		Challenger: challenger,
		Challenged: challenged,
	}, nil
}

// ToDispute converts a persisted record back into a dispute.
func ToDispute(d Dispute) (channel.Dispute, error) {
	challenger, err := wallet.AddressFromScAddress(d.Challenger)
	if err != nil {
		return channel.Dispute{}, err
	}
	challenged, err := ToParticipants(d.Challenged)
	if err != nil {
		return channel.Dispute{}, err
	}
	return channel.Dispute{
		ChannelID:  channel.ID(d.ChannelID),
		DisputedAt: ToTime(d.DisputedAt),
		Nonce:      uint64(d.Nonce),
		Challenger: challenger,
		Challenged: challenged,
	}, nil
}

// EncodeDispute returns the binary record of d.
func EncodeDispute(d channel.Dispute) ([]byte, error) {
	rec, err := MakeDispute(d)
	if err != nil {
		return nil, err
	}
	return rec.MarshalBinary()
}

// DecodeDispute parses a binary record written by EncodeDispute.
func DecodeDispute(data []byte) (channel.Dispute, error) {
	var rec Dispute
	if err := rec.UnmarshalBinary(data); err != nil {
		return channel.Dispute{}, err
	}
	return ToDispute(rec)
}
