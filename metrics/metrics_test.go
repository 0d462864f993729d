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

package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"perun.network/perun-statechannel/metrics"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	m.Opened()
	m.Updated()
	m.Updated()
	m.Disputed()
	m.Closed(metrics.PathDispute)
	m.Failed("update", "stale_nonce")

	require.Equal(t, 1.0, testutil.ToFloat64(m.ChannelsOpened))
	require.Equal(t, 2.0, testutil.ToFloat64(m.StateUpdates))
	require.Equal(t, 1.0, testutil.ToFloat64(m.DisputesInitiated))
	require.Equal(t, 1.0, testutil.ToFloat64(m.ChannelsClosed.WithLabelValues(metrics.PathDispute)))
	require.Equal(t, 0.0, testutil.ToFloat64(m.ChannelsClosed.WithLabelValues(metrics.PathCooperative)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Failures.WithLabelValues("update", "stale_nonce")))
}

func TestMetricsReuseRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := metrics.New(reg)
	require.NoError(t, err)
	second, err := metrics.New(reg)
	require.NoError(t, err)

	second.Opened()
	require.Equal(t, 1.0, testutil.ToFloat64(first.ChannelsOpened))
}

func TestNilMetrics(t *testing.T) {
	var m *metrics.Metrics
	require.NotPanics(t, func() {
		m.Opened()
		m.Updated()
		m.Disputed()
		m.Closed(metrics.PathCooperative)
		m.Failed("open", "invalid_input")
	})
}
