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
	"fmt"
	"io"

	"perun.network/perun-statechannel/channel"
)

// Backend is a closable channel.Store.
type Backend interface {
	channel.Store
	io.Closer
}

// Options selects and configures a Backend.
type Options struct {
	Driver      string
	DataSource  string
	TablePrefix string
	// CacheSize is the number of channel records cached in front of a SQL
	// backend. Zero disables the cache.
	CacheSize int64
}

// Open returns the backend selected by opts. SQL backends get their schema
// created on first use.
func Open(opts Options) (Backend, error) {
	switch opts.Driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opts.Driver)
	}

	s, err := OpenSQL(opts.DataSource, SQLOpts{
		Driver:       opts.Driver,
		TablePrefix:  opts.TablePrefix,
		CreateSchema: true,
	})
	if err != nil {
		return nil, err
	}
	if opts.CacheSize <= 0 {
		return s, nil
	}
	c, err := NewCached(s, opts.CacheSize)
	if err != nil {
		s.Close()
		return nil, err
	}
	return c, nil
}
