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
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "modernc.org/sqlite"             // registers the "sqlite" driver
	"perun.network/go-perun/log"

	"perun.network/perun-statechannel/channel"
	"perun.network/perun-statechannel/wallet"
	"perun.network/perun-statechannel/wire"
)

// Supported store drivers. DriverMemory has no SQL backing.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var (
	// ErrUnknownDriver is returned for drivers without a backend.
	ErrUnknownDriver = errors.New("unknown store driver")
	// ErrInvalidTablePrefix is returned for table prefixes that are not
	// plain identifiers.
	ErrInvalidTablePrefix = errors.New("invalid table prefix")

	tablePrefixPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
)

type tableNames struct {
	Channels     string
	Participants string
	Disputes     string
}

// GetTableNames returns the table names for the given prefix. An empty prefix
// yields the bare names.
func GetTableNames(prefix string) (tableNames, error) {
	if prefix != "" && !tablePrefixPattern.MatchString(prefix) {
		return tableNames{}, fmt.Errorf("%w: %q", ErrInvalidTablePrefix, prefix)
	}
	if prefix != "" {
		prefix += "_"
	}
	return tableNames{
		Channels:     prefix + "channels",
		Participants: prefix + "channel_participants",
		Disputes:     prefix + "disputes",
	}, nil
}

// SQLOpts configures a SQL store.
type SQLOpts struct {
	Driver       string
	TablePrefix  string
	CreateSchema bool
}

// SQL is a channel.Store backed by a relational database. Channel and
// dispute records are stored as XDR blobs next to the columns needed for
// lookups.
type SQL struct {
	DB     *sql.DB
	Driver string
	Table  tableNames
	log.Embedding
}

var _ channel.Store = (*SQL)(nil)

// OpenSQL opens the database at dataSource with the given driver and wraps it
// in a SQL store.
func OpenSQL(dataSource string, opts SQLOpts) (*SQL, error) {
	var driverName string
	switch opts.Driver {
	case DriverSQLite:
		driverName = "sqlite"
	case DriverPostgres:
		driverName = "pgx"
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opts.Driver)
	}
	db, err := sql.Open(driverName, dataSource)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", opts.Driver, err)
	}
	if opts.Driver == DriverSQLite {
		// SQLite allows a single writer.
		db.SetMaxOpenConns(1)
	}
	s, err := NewSQL(db, opts)
	if err != nil {
		return nil, errors.Join(err, db.Close())
	}
	return s, nil
}

// NewSQL wraps db in a SQL store.
func NewSQL(db *sql.DB, opts SQLOpts) (*SQL, error) {
	if opts.Driver != DriverSQLite && opts.Driver != DriverPostgres {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opts.Driver)
	}
	tables, err := GetTableNames(opts.TablePrefix)
	if err != nil {
		return nil, err
	}
	s := &SQL{
		DB:        db,
		Driver:    opts.Driver,
		Table:     tables,
		Embedding: log.MakeEmbedding(log.WithField("store", opts.Driver)),
	}
	if opts.CreateSchema {
		if err := s.InitSchema(context.Background()); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// InitSchema creates the store's tables if they do not exist.
func (s *SQL) InitSchema(ctx context.Context) error {
	s.Log().Debug("Initializing schema")
	if _, err := s.DB.ExecContext(ctx, s.GetSchema()); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// GetSchema returns the DDL of the store's tables.
func (s *SQL) GetSchema() string {
	blob := "BLOB"
	if s.Driver == DriverPostgres {
		blob = "BYTEA"
	}
	return fmt.Sprintf(`
		-- Channels
		CREATE TABLE IF NOT EXISTS %[1]s (
			id BIGINT PRIMARY KEY,
			status INT NOT NULL,
			record %[4]s NOT NULL
		);
		-- Participants
		CREATE TABLE IF NOT EXISTS %[2]s (
			account TEXT NOT NULL,
			channel_id BIGINT NOT NULL,
			PRIMARY KEY(account, channel_id)
		);
		-- Disputes
		CREATE TABLE IF NOT EXISTS %[3]s (
			channel_id BIGINT PRIMARY KEY,
			record %[4]s NOT NULL
		);`,
		s.Table.Channels, s.Table.Participants, s.Table.Disputes, blob,
	)
}

// Insert implements channel.Store.
func (s *SQL) Insert(ctx context.Context, ch channel.Channel) (_ channel.ID, err error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback())
		}
	}()

	var last int64
	query := fmt.Sprintf("SELECT COALESCE(MAX(id), 0) FROM %s", s.Table.Channels)
	s.Log().Trace(query)
	if err = tx.QueryRowContext(ctx, query).Scan(&last); err != nil {
		return 0, fmt.Errorf("querying last channel id: %w", err)
	}
	ch.ID = channel.ID(last + 1)

	record, err := wire.EncodeChannel(ch)
	if err != nil {
		return 0, fmt.Errorf("encoding channel: %w", err)
	}
	query = fmt.Sprintf("INSERT INTO %s (id, status, record) VALUES ($1, $2, $3)", s.Table.Channels)
	s.Log().Trace(query, ch.ID)
	if _, err = tx.ExecContext(ctx, query, int64(ch.ID), int(ch.Status), record); err != nil {
		return 0, fmt.Errorf("inserting channel: %w", err)
	}
	query = fmt.Sprintf("INSERT INTO %s (account, channel_id) VALUES ($1, $2)", s.Table.Participants)
	for _, p := range ch.Participants {
		if _, err = tx.ExecContext(ctx, query, p.String(), int64(ch.ID)); err != nil {
			return 0, fmt.Errorf("indexing participant %s: %w", p, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return ch.ID, nil
}

// Commit implements channel.Store.
func (s *SQL) Commit(ctx context.Context, change channel.Change) (err error) {
	ch := change.Channel
	record, err := wire.EncodeChannel(ch)
	if err != nil {
		return fmt.Errorf("encoding channel: %w", err)
	}
	var dispute []byte
	if change.Dispute != nil {
		if dispute, err = wire.EncodeDispute(*change.Dispute); err != nil {
			return fmt.Errorf("encoding dispute: %w", err)
		}
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback())
		}
	}()

	query := fmt.Sprintf("UPDATE %s SET status = $1, record = $2 WHERE id = $3", s.Table.Channels)
	s.Log().Trace(query, ch.ID)
	res, err := tx.ExecContext(ctx, query, int(ch.Status), record, int64(ch.ID))
	if err != nil {
		return fmt.Errorf("updating channel: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating channel: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", channel.ErrChannelNotFound, ch.ID)
	}

	if change.Dispute != nil || change.ClearDispute {
		query = fmt.Sprintf("DELETE FROM %s WHERE channel_id = $1", s.Table.Disputes)
		s.Log().Trace(query, ch.ID)
		if _, err = tx.ExecContext(ctx, query, int64(ch.ID)); err != nil {
			return fmt.Errorf("clearing dispute: %w", err)
		}
	}
	if change.Dispute != nil {
		query = fmt.Sprintf("INSERT INTO %s (channel_id, record) VALUES ($1, $2)", s.Table.Disputes)
		s.Log().Trace(query, ch.ID)
		if _, err = tx.ExecContext(ctx, query, int64(ch.ID), dispute); err != nil {
			return fmt.Errorf("inserting dispute: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Channel implements channel.Store.
func (s *SQL) Channel(ctx context.Context, id channel.ID) (channel.Channel, error) {
	query := fmt.Sprintf("SELECT record FROM %s WHERE id = $1", s.Table.Channels)
	s.Log().Trace(query, id)
	var record []byte
	err := s.DB.QueryRowContext(ctx, query, int64(id)).Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		return channel.Channel{}, fmt.Errorf("%w: %d", channel.ErrChannelNotFound, id)
	} else if err != nil {
		return channel.Channel{}, fmt.Errorf("querying channel %d: %w", id, err)
	}
	ch, err := wire.DecodeChannel(record)
	if err != nil {
		return channel.Channel{}, fmt.Errorf("decoding channel %d: %w", id, err)
	}
	ch.ID = id
	return ch, nil
}

// Dispute implements channel.Store.
func (s *SQL) Dispute(ctx context.Context, id channel.ID) (channel.Dispute, error) {
	query := fmt.Sprintf("SELECT record FROM %s WHERE channel_id = $1", s.Table.Disputes)
	s.Log().Trace(query, id)
	var record []byte
	err := s.DB.QueryRowContext(ctx, query, int64(id)).Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		return channel.Dispute{}, fmt.Errorf("%w: channel %d", channel.ErrNoActiveDispute, id)
	} else if err != nil {
		return channel.Dispute{}, fmt.Errorf("querying dispute of channel %d: %w", id, err)
	}
	d, err := wire.DecodeDispute(record)
	if err != nil {
		return channel.Dispute{}, fmt.Errorf("decoding dispute of channel %d: %w", id, err)
	}
	return d, nil
}

// ParticipantChannels implements channel.Store.
func (s *SQL) ParticipantChannels(ctx context.Context, acc wallet.Address) ([]channel.ID, error) {
	query := fmt.Sprintf("SELECT channel_id FROM %s WHERE account = $1 ORDER BY channel_id ASC", s.Table.Participants)
	s.Log().Trace(query, acc)
	rows, err := s.DB.QueryContext(ctx, query, acc.String())
	if err != nil {
		return nil, fmt.Errorf("querying channels of %s: %w", acc, err)
	}
	defer rows.Close()

	ids := []channel.ID{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, channel.ID(id))
	}
	return ids, rows.Err()
}

// Close closes the underlying database.
func (s *SQL) Close() error {
	s.Log().Info("Closing database")
	return s.DB.Close()
}
