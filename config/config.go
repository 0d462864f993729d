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

// Package config loads the settings of a channel adjudicator from defaults,
// an optional config file and PERUN_ prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	plogrus "perun.network/go-perun/log/logrus"

	"perun.network/perun-statechannel/channel"
	"perun.network/perun-statechannel/store"
)

// EnvPrefix is the prefix of environment variables overriding config keys.
// Key "store.driver" is read from PERUN_STORE_DRIVER.
const EnvPrefix = "PERUN"

// Config keys.
const (
	KeyDisputeDuration     = "dispute.duration"
	KeyEnforceConservation = "dispute.enforce_conservation"
	KeyStoreDriver         = "store.driver"
	KeyStoreDataSource     = "store.datasource"
	KeyStoreTablePrefix    = "store.table_prefix"
	KeyStoreCacheSize      = "store.cache_size"
	KeyLogLevel            = "log.level"
	KeyLogFormat           = "log.format"
)

// Log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

var ErrInvalidConfig = errors.New("invalid config")

type (
	Config struct {
		Dispute Dispute `mapstructure:"dispute"`
		Store   Store   `mapstructure:"store"`
		Log     Log     `mapstructure:"log"`
	}

	Dispute struct {
		Duration            time.Duration `mapstructure:"duration"`
		EnforceConservation bool          `mapstructure:"enforce_conservation"`
	}

	Store struct {
		Driver      string `mapstructure:"driver"`
		DataSource  string `mapstructure:"datasource"`
		TablePrefix string `mapstructure:"table_prefix"`
		CacheSize   int64  `mapstructure:"cache_size"`
	}

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	}
)

// New returns a viper instance holding the defaults and reading overrides from
// the environment.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyDisputeDuration, channel.DefaultDisputeDuration)
	v.SetDefault(KeyEnforceConservation, false)
	v.SetDefault(KeyStoreDriver, store.DriverSQLite)
	v.SetDefault(KeyStoreDataSource, "perunchan.db")
	v.SetDefault(KeyStoreTablePrefix, "")
	v.SetDefault(KeyStoreCacheSize, 0)
	v.SetDefault(KeyLogLevel, logrus.InfoLevel.String())
	v.SetDefault(KeyLogFormat, FormatText)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load merges file into v, if given, and decodes and validates the result.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %q: %w", file, err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the config for values the adjudicator cannot run with.
func (c *Config) Validate() error {
	if c.Dispute.Duration <= 0 {
		return fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidConfig, KeyDisputeDuration, c.Dispute.Duration)
	}
	switch c.Store.Driver {
	case store.DriverMemory, store.DriverSQLite:
	case store.DriverPostgres:
		if c.Store.DataSource == "" {
			return fmt.Errorf("%w: %s is required for postgres", ErrInvalidConfig, KeyStoreDataSource)
		}
	default:
		return fmt.Errorf("%w: unknown %s %q", ErrInvalidConfig, KeyStoreDriver, c.Store.Driver)
	}
	if _, err := store.GetTableNames(c.Store.TablePrefix); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Store.CacheSize < 0 {
		return fmt.Errorf("%w: %s must not be negative", ErrInvalidConfig, KeyStoreCacheSize)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Log.Format != FormatText && c.Log.Format != FormatJSON {
		return fmt.Errorf("%w: unknown %s %q", ErrInvalidConfig, KeyLogFormat, c.Log.Format)
	}
	return nil
}

// StoreOptions returns the options to open the configured store with.
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		Driver:      c.Store.Driver,
		DataSource:  c.Store.DataSource,
		TablePrefix: c.Store.TablePrefix,
		CacheSize:   c.Store.CacheSize,
	}
}

// AdjudicatorOptions returns the channel options derived from the config.
func (c *Config) AdjudicatorOptions() []channel.Option {
	return []channel.Option{
		channel.WithDisputeDuration(c.Dispute.Duration),
		channel.WithConservation(c.Dispute.EnforceConservation),
	}
}

// SetupLogging installs a logrus backend for go-perun's logging facade.
func (c *Config) SetupLogging() {
	level, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	var formatter logrus.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	if c.Log.Format == FormatJSON {
		formatter = &logrus.JSONFormatter{}
	}
	plogrus.Set(level, formatter)
}
