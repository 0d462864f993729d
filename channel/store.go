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
	"context"

	"perun.network/perun-statechannel/wallet"
)

// Change is a single atomic write against a Store.
type Change struct {
	// Channel replaces the stored record with the same ID.
	Channel Channel
	// Dispute, if set, is stored as the channel's active dispute.
	Dispute *Dispute
	// ClearDispute removes the channel's active dispute.
	ClearDispute bool
}

// Store persists channels and their active disputes. Implementations must
// apply Insert and Commit atomically and must not retain references to the
// values passed in or returned.
type Store interface {
	// Insert assigns the next ID to ch, stores it and indexes it per participant.
	Insert(ctx context.Context, ch Channel) (ID, error)
	// Commit applies change. The channel must exist.
	Commit(ctx context.Context, change Change) error
	// Channel returns ErrChannelNotFound for unknown IDs.
	Channel(ctx context.Context, id ID) (Channel, error)
	// Dispute returns ErrNoActiveDispute if the channel has no active dispute.
	Dispute(ctx context.Context, id ID) (Dispute, error)
	// ParticipantChannels returns the IDs of all channels acc participates in,
	// in ascending order.
	ParticipantChannels(ctx context.Context, acc wallet.Address) ([]ID, error)
}
