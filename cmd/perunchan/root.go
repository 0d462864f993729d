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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"perun.network/go-perun/log"

	"perun.network/perun-statechannel/channel"
	"perun.network/perun-statechannel/config"
	"perun.network/perun-statechannel/store"
)

type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	backend store.Backend
	adj     *channel.Adjudicator
}

// execute runs the command line args and closes the store opened on the way.
func execute(ctx context.Context, args []string, out, errOut io.Writer) error {
	a := &app{v: config.New()}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)
	err := root.ExecuteContext(ctx)
	return errors.Join(err, a.close())
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:               "perunchan",
		Short:             "Operate state channels.",
		Long:              `Opens, updates, disputes and closes state channels recorded in a persistent store.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (yaml, json or toml)")
	flags.String("store-driver", store.DriverSQLite, "store driver: memory, sqlite or postgres")
	flags.String("store-datasource", "", "store data source, a file path for sqlite or a connection string for postgres")
	flags.String("log-level", "", "log level")
	for key, flag := range map[string]string{
		config.KeyStoreDriver:     "store-driver",
		config.KeyStoreDataSource: "store-datasource",
		config.KeyLogLevel:        "log-level",
	} {
		if err := a.v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}

	root.AddCommand(
		keygenCmd(),
		openCmd(a),
		updateCmd(a),
		disputeCmd(a),
		resolveCmd(a),
		closeCmd(a),
		showCmd(a),
		listCmd(a),
	)
	return root
}

func (a *app) setup(*cobra.Command, []string) error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	cfg.SetupLogging()
	a.cfg = cfg
	return nil
}

func (a *app) close() error {
	if a.backend == nil {
		return nil
	}
	err := a.backend.Close()
	a.backend, a.adj = nil, nil
	return err
}

// adjudicator opens the configured store on first use.
func (a *app) adjudicator() (*channel.Adjudicator, error) {
	if a.adj != nil {
		return a.adj, nil
	}
	backend, err := store.Open(a.cfg.StoreOptions())
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	log.WithField("driver", a.cfg.Store.Driver).Debug("Opened store")
	a.backend = backend
	a.adj = channel.NewAdjudicator(backend, a.cfg.AdjudicatorOptions()...)
	return a.adj, nil
}
