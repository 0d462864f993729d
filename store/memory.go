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

package store

import (
	"context"
	"fmt"
	"sort"

	pkgsync "polycry.pt/poly-go/sync"

	"perun.network/perun-statechannel/channel"
	"perun.network/perun-statechannel/wallet"
)

// Memory is a channel.Store that keeps all records in process memory.
type Memory struct {
	mu           pkgsync.Mutex
	nextID       channel.ID
	channels     map[channel.ID]channel.Channel
	disputes     map[channel.ID]channel.Dispute
	participants map[wallet.Address][]channel.ID
}

var _ channel.Store = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		nextID:       1,
		channels:     make(map[channel.ID]channel.Channel),
		disputes:     make(map[channel.ID]channel.Dispute),
		participants: make(map[wallet.Address][]channel.ID),
	}
}

func (m *Memory) lock(ctx context.Context) error {
	if !m.mu.TryLockCtx(ctx) {
		return ctx.Err()
	}
	return nil
}

// Insert implements channel.Store.
func (m *Memory) Insert(ctx context.Context, ch channel.Channel) (channel.ID, error) {
	if err := m.lock(ctx); err != nil {
		return 0, err
	}
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	ch = ch.Clone()
	ch.ID = id
	m.channels[id] = ch
	for _, p := range ch.Participants {
		// IDs are handed out in ascending order, so appending keeps the index sorted.
		m.participants[p] = append(m.participants[p], id)
	}
	return id, nil
}

// Commit implements channel.Store.
func (m *Memory) Commit(ctx context.Context, change channel.Change) error {
	if err := m.lock(ctx); err != nil {
		return err
	}
	defer m.mu.Unlock()

	id := change.Channel.ID
	if _, ok := m.channels[id]; !ok {
		return fmt.Errorf("%w: %d", channel.ErrChannelNotFound, id)
	}
	m.channels[id] = change.Channel.Clone()
	switch {
	case change.Dispute != nil:
		m.disputes[id] = change.Dispute.Clone()
	case change.ClearDispute:
		delete(m.disputes, id)
	}
	return nil
}

// Channel implements channel.Store.
func (m *Memory) Channel(ctx context.Context, id channel.ID) (channel.Channel, error) {
	if err := m.lock(ctx); err != nil {
		return channel.Channel{}, err
	}
	defer m.mu.Unlock()

	ch, ok := m.channels[id]
	if !ok {
		return channel.Channel{}, fmt.Errorf("%w: %d", channel.ErrChannelNotFound, id)
	}
	return ch.Clone(), nil
}

// Dispute implements channel.Store.
func (m *Memory) Dispute(ctx context.Context, id channel.ID) (channel.Dispute, error) {
	if err := m.lock(ctx); err != nil {
		return channel.Dispute{}, err
	}
	defer m.mu.Unlock()

	d, ok := m.disputes[id]
	if !ok {
		return channel.Dispute{}, fmt.Errorf("%w: channel %d", channel.ErrNoActiveDispute, id)
	}
	return d.Clone(), nil
}

// ParticipantChannels implements channel.Store.
func (m *Memory) ParticipantChannels(ctx context.Context, acc wallet.Address) ([]channel.ID, error) {
	if err := m.lock(ctx); err != nil {
		return nil, err
	}
	defer m.mu.Unlock()

	ids := append([]channel.ID{}, m.participants[acc]...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Close is a no-op; it lets Memory serve as a Backend.
func (m *Memory) Close() error {
	return nil
}
