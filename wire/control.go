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
	SymbolControlStatus   xdr.ScSymbol = "status"
	SymbolControlDeadline xdr.ScSymbol = "deadline"
)

// Control is the lifecycle part of a channel record.
type Control struct {
	Status xdr.Uint32
	// Deadline is the dispute deadline in unix nanoseconds, 0 if unset.
	Deadline xdr.Uint64
}

func (c Control) ToScVal() (xdr.ScVal, error) {
	status, err := scval.WrapUint32(c.Status)
	if err != nil {
		return xdr.ScVal{}, err
	}
	deadline, err := scval.WrapUint64(c.Deadline)
	if err != nil {
		return xdr.ScVal{}, err
	}
	m, err := MakeSymbolScMap(
		[]xdr.ScSymbol{SymbolControlStatus, SymbolControlDeadline},
		[]xdr.ScVal{status, deadline},
	)
	if err != nil {
		return xdr.ScVal{}, err
	}
	return scval.WrapScMap(m)
}

func (c *Control) FromScVal(v xdr.ScVal) error {
	m, err := symbolMap(v, 2) //nolint:gomnd
	if err != nil {
		return fmt.Errorf("decoding control: %w", err)
	}
	statusVal, err := GetScMapValueFromSymbol(SymbolControlStatus, m)
	if err != nil {
		return err
	}
	status, ok := statusVal.GetU32()
	if !ok {
		return fmt.Errorf("expected uint32 for %q", string(SymbolControlStatus))
	}
	if status > xdr.Uint32(channel.StatusClosed) {
		return fmt.Errorf("unknown channel status %d", status)
	}
	deadline, err := getUint64(SymbolControlDeadline, m)
	if err != nil {
		return err
	}
	c.Status = status
	c.Deadline = deadline
	return nil
}

func (c Control) EncodeTo(e *xdr3.Encoder) error {
	v, err := c.ToScVal()
	if err != nil {
		return err
	}
	return v.EncodeTo(e)
}

func (c *Control) DecodeFrom(d *xdr3.Decoder) (int, error) {
	return decodeFrom(d, c)
}

func (c Control) MarshalBinary() ([]byte, error) {
	return marshal(c)
}

func (c *Control) UnmarshalBinary(data []byte) error {
	return unmarshal(data, c)
}

// MakeControl extracts the lifecycle state of ch.
func MakeControl(ch channel.Channel) (Control, error) {
	deadline, err := MakeTimestamp(ch.DisputeDeadline)
	if err != nil {
		return Control{}, err
	}
	return Control{
		Status:   xdr.Uint32(ch.Status),
		Deadline: deadline,
	}, nil
}
