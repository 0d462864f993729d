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
	"io"
	"strconv"
	"sync"

	"github.com/dgraph-io/ristretto/v2"
	"golang.org/x/sync/singleflight"

	"perun.network/perun-statechannel/channel"
)

// Default cache configuration values.
const (
	DefaultCacheSize   = 1 << 16
	DefaultBufferItems = 64
	counterFactor      = 10
)

// Cached is a read-through, write-through cache of channel records in front
// of another store. Disputes and participant lookups are not cached.
type Cached struct {
	channel.Store

	// mu orders loads against writes so that a load never overwrites a
	// newer committed record.
	mu       sync.RWMutex
	channels *ristretto.Cache[uint64, channel.Channel]
	sfg      singleflight.Group
}

// NewCached wraps backing in a cache holding up to size channel records.
func NewCached(backing channel.Store, size int64) (*Cached, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := ristretto.NewCache(&ristretto.Config[uint64, channel.Channel]{
		NumCounters: size * counterFactor,
		MaxCost:     size,
		BufferItems: DefaultBufferItems,
		Cost:        func(channel.Channel) int64 { return 1 },
		// MaxCost counts records, not bytes.
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &Cached{Store: backing, channels: c}, nil
}

// Insert implements channel.Store.
func (c *Cached) Insert(ctx context.Context, ch channel.Channel) (channel.ID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id, err := c.Store.Insert(ctx, ch)
	if err != nil {
		return 0, err
	}
	ch = ch.Clone()
	ch.ID = id
	c.add(ch)
	return id, nil
}

// Commit implements channel.Store.
func (c *Cached) Commit(ctx context.Context, change channel.Change) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.Store.Commit(ctx, change); err != nil {
		c.channels.Del(uint64(change.Channel.ID))
		c.channels.Wait()
		return err
	}
	c.add(change.Channel.Clone())
	return nil
}

// Channel implements channel.Store.
func (c *Cached) Channel(ctx context.Context, id channel.ID) (channel.Channel, error) {
	if ch, ok := c.channels.Get(uint64(id)); ok {
		return ch.Clone(), nil
	}
	res, err, _ := c.sfg.Do(strconv.FormatUint(uint64(id), 10), func() (interface{}, error) {
		c.mu.RLock()
		defer c.mu.RUnlock()

		ch, err := c.Store.Channel(ctx, id)
		if err != nil {
			return nil, err
		}
		c.add(ch)
		return ch, nil
	})
	if err != nil {
		return channel.Channel{}, err
	}
	return res.(channel.Channel).Clone(), nil
}

func (c *Cached) add(ch channel.Channel) {
	c.channels.Set(uint64(ch.ID), ch, 0)
	c.channels.Wait()
}

// Close releases the cache and closes the backing store if it is closable.
func (c *Cached) Close() error {
	c.channels.Close()
	if closer, ok := c.Store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
