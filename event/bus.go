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
	"context"
	"errors"

	"perun.network/go-perun/log"
	pkgsync "polycry.pt/poly-go/sync"
)

// DefaultBufferSize is the number of undelivered events a Subscription holds
// before further events are dropped for it.
const DefaultBufferSize = 1024

// ErrSubscriptionClosed is returned by Next once the subscription is closed.
var ErrSubscriptionClosed = errors.New("subscription closed")

// Publisher receives committed channel events.
type Publisher interface {
	Publish(ev ChannelEvent)
}

// Bus fans events out to subscriptions. Publish never blocks.
type Bus struct {
	mu   pkgsync.Mutex
	subs map[*Subscription]struct{}
	log  log.Embedding
}

var _ Publisher = (*Bus)(nil)

// NewBus returns an empty Bus.
func NewBus() *Bus {
	return &Bus{
		subs: make(map[*Subscription]struct{}),
		log:  log.MakeEmbedding(log.Default()),
	}
}

// Publish delivers ev to every matching subscription that has buffer space.
func (b *Bus) Publish(ev ChannelEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs {
		if sub.channelID != 0 && sub.channelID != ev.ID() {
			continue
		}
		select {
		case sub.events <- ev:
		default:
			b.log.Log().WithField("channel", ev.ID()).Warnf("Dropping %v event, subscriber buffer full", ev.Type())
		}
	}
}

// Subscribe returns a subscription for the events of channel channelID, or for
// all channels if channelID is 0.
func (b *Bus) Subscribe(channelID uint64) *Subscription {
	sub := &Subscription{
		channelID: channelID,
		events:    make(chan ChannelEvent, DefaultBufferSize),
		closer:    new(pkgsync.Closer),
	}
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	sub.closer.OnCloseAlways(func() {
		b.mu.Lock()
		delete(b.subs, sub)
		b.mu.Unlock()
	})
	return sub
}

// Close closes all subscriptions.
func (b *Bus) Close() error {
	b.mu.Lock()
	subs := make([]*Subscription, 0, len(b.subs))
	for sub := range b.subs {
		subs = append(subs, sub)
	}
	b.mu.Unlock()

	var errs []error
	for _, sub := range subs {
		if err := sub.Close(); err != nil && !pkgsync.IsAlreadyClosedError(err) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Subscription is a buffered stream of channel events.
type Subscription struct {
	channelID uint64
	events    chan ChannelEvent
	closer    *pkgsync.Closer
}

// Next blocks until the next event arrives, the subscription is closed or ctx
// is done.
func (s *Subscription) Next(ctx context.Context) (ChannelEvent, error) {
	select {
	case ev := <-s.events:
		return ev, nil
	case <-s.closer.Closed():
		return nil, ErrSubscriptionClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops delivery to s.
func (s *Subscription) Close() error {
	return s.closer.Close()
}
