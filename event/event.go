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

package event

import (
	"errors"
	"math/big"
	"time"

	pchannel "perun.network/go-perun/channel"

	"perun.network/perun-statechannel/wallet"
)

type Version = uint64
type EventType int

const (
	EventTypeOpened   EventType = iota // channel created
	EventTypeUpdated                   // participant checkpointed a newer state
	EventTypeDisputed                  // participant challenged the recorded state
	EventTypeClosed                    // channel finalized, settlement may proceed
)

func (t EventType) String() string {
	switch t {
	case EventTypeOpened:
		return "opened"
	case EventTypeUpdated:
		return "updated"
	case EventTypeDisputed:
		return "disputed"
	case EventTypeClosed:
		return "closed"
	default:
		return "unknown"
	}
}

var (
	ErrNoOpenedEvent   = errors.New("opened event not found")
	ErrNoUpdatedEvent  = errors.New("updated event not found")
	ErrNoDisputedEvent = errors.New("disputed event not found")
	ErrNoClosedEvent   = errors.New("closed event not found")
)

type (
	// ChannelEvent is emitted after a channel mutation has been committed.
	ChannelEvent interface {
		ID() uint64
		Version() Version
		Type() EventType
		Time() time.Time
	}

	OpenedEvent struct {
		IDV          uint64
		Participants []wallet.Address
		Balances     []*big.Int
		Timestamp    time.Time
	}

	UpdatedEvent struct {
		IDV       uint64
		VersionV  Version
		Balances  []*big.Int
		Submitter wallet.Address
		Timestamp time.Time
	}

	DisputedEvent struct {
		IDV              uint64
		VersionV         Version
		ContestedVersion Version
		Challenger       wallet.Address
		Challenged       []wallet.Address
		Deadline         time.Time
		Timestamp        time.Time
	}

	// ClosedEvent carries the final balances the settlement ledger has to apply.
	ClosedEvent struct {
		IDV         uint64
		VersionV    Version
		Balances    []*big.Int
		Cooperative bool
		Timestamp   time.Time
	}
)

func (e *OpenedEvent) ID() uint64       { return e.IDV }
func (e *OpenedEvent) Version() Version { return 0 }
func (e *OpenedEvent) Type() EventType  { return EventTypeOpened }
func (e *OpenedEvent) Time() time.Time  { return e.Timestamp }

func (e *UpdatedEvent) ID() uint64       { return e.IDV }
func (e *UpdatedEvent) Version() Version { return e.VersionV }
func (e *UpdatedEvent) Type() EventType  { return EventTypeUpdated }
func (e *UpdatedEvent) Time() time.Time  { return e.Timestamp }

func (e *DisputedEvent) ID() uint64       { return e.IDV }
func (e *DisputedEvent) Version() Version { return e.VersionV }
func (e *DisputedEvent) Type() EventType  { return EventTypeDisputed }
func (e *DisputedEvent) Time() time.Time  { return e.Timestamp }

// Timeout elapses when the dispute may be resolved.
func (e *DisputedEvent) Timeout() pchannel.Timeout {
	return NewTimeTimeout(e.Deadline)
}

func (e *ClosedEvent) ID() uint64       { return e.IDV }
func (e *ClosedEvent) Version() Version { return e.VersionV }
func (e *ClosedEvent) Type() EventType  { return EventTypeClosed }
func (e *ClosedEvent) Time() time.Time  { return e.Timestamp }

func assertEvent(evs []ChannelEvent, want EventType, notFound error) error {
	for _, ev := range evs {
		if ev.Type() == want {
			return nil
		}
	}
	return notFound
}

// AssertOpenedEvent checks that evs contains an OpenedEvent.
func AssertOpenedEvent(evs []ChannelEvent) error {
	return assertEvent(evs, EventTypeOpened, ErrNoOpenedEvent)
}

// AssertUpdatedEvent checks that evs contains an UpdatedEvent.
func AssertUpdatedEvent(evs []ChannelEvent) error {
	return assertEvent(evs, EventTypeUpdated, ErrNoUpdatedEvent)
}

// AssertDisputedEvent checks that evs contains a DisputedEvent.
func AssertDisputedEvent(evs []ChannelEvent) error {
	return assertEvent(evs, EventTypeDisputed, ErrNoDisputedEvent)
}

// AssertClosedEvent checks that evs contains a ClosedEvent.
func AssertClosedEvent(evs []ChannelEvent) error {
	return assertEvent(evs, EventTypeClosed, ErrNoClosedEvent)
}
