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

// Package metrics instruments channel operations with Prometheus collectors.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "perun"

const (
	PathCooperative = "cooperative"
	PathDispute     = "dispute"
)

// Metrics holds the collectors of an adjudicator.
type Metrics struct {
	ChannelsOpened    prometheus.Counter
	StateUpdates      prometheus.Counter
	DisputesInitiated prometheus.Counter
	ChannelsClosed    *prometheus.CounterVec
	Failures          *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. Collectors that are
// already registered with reg are reused.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		ChannelsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channels_opened_total",
			Help:      "Number of channels opened.",
		}),
		StateUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_updates_total",
			Help:      "Number of accepted channel state updates.",
		}),
		DisputesInitiated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "disputes_initiated_total",
			Help:      "Number of disputes initiated.",
		}),
		ChannelsClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channels_closed_total",
			Help:      "Number of channels closed, by closing path.",
		}, []string{"path"}),
		Failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_failures_total",
			Help:      "Number of rejected channel operations, by operation and error kind.",
		}, []string{"operation", "kind"}),
	}
	var err error
	if m.ChannelsOpened, err = register(reg, m.ChannelsOpened); err != nil {
		return nil, err
	}
	if m.StateUpdates, err = register(reg, m.StateUpdates); err != nil {
		return nil, err
	}
	if m.DisputesInitiated, err = register(reg, m.DisputesInitiated); err != nil {
		return nil, err
	}
	if m.ChannelsClosed, err = register(reg, m.ChannelsClosed); err != nil {
		return nil, err
	}
	if m.Failures, err = register(reg, m.Failures); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing, nil
		}
	}
	return c, err
}

func (m *Metrics) Opened() {
	if m != nil {
		m.ChannelsOpened.Inc()
	}
}

func (m *Metrics) Updated() {
	if m != nil {
		m.StateUpdates.Inc()
	}
}

func (m *Metrics) Disputed() {
	if m != nil {
		m.DisputesInitiated.Inc()
	}
}

// Closed counts a closed channel; path is PathCooperative or PathDispute.
func (m *Metrics) Closed(path string) {
	if m != nil {
		m.ChannelsClosed.WithLabelValues(path).Inc()
	}
}

// Failed counts a rejected operation.
func (m *Metrics) Failed(operation, kind string) {
	if m != nil {
		m.Failures.WithLabelValues(operation, kind).Inc()
	}
}
