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

// Channel returns the recorded state of channel id.
func (a *Adjudicator) Channel(ctx context.Context, id ID) (Channel, error) {
	if err := a.lock(ctx); err != nil {
		return Channel{}, err
	}
	defer a.mu.Unlock()
	return a.store.Channel(ctx, id)
}

// Dispute returns the active dispute of channel id.
func (a *Adjudicator) Dispute(ctx context.Context, id ID) (Dispute, error) {
	if err := a.lock(ctx); err != nil {
		return Dispute{}, err
	}
	defer a.mu.Unlock()
	if _, err := a.store.Channel(ctx, id); err != nil {
		return Dispute{}, err
	}
	return a.store.Dispute(ctx, id)
}

// ParticipantChannels returns the IDs of all channels acc participates in.
func (a *Adjudicator) ParticipantChannels(ctx context.Context, acc wallet.Address) ([]ID, error) {
	if err := a.lock(ctx); err != nil {
		return nil, err
	}
	defer a.mu.Unlock()
	return a.store.ParticipantChannels(ctx, acc)
}

// IsParticipant reports whether acc participates in channel id.
func (a *Adjudicator) IsParticipant(ctx context.Context, id ID, acc wallet.Address) (bool, error) {
	ch, err := a.Channel(ctx, id)
	if err != nil {
		return false, err
	}
	return ch.IsParticipant(acc), nil
}
