// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for the SHGAT core.
type Metrics struct {
	config   *MetricsConfig
	registry *prometheus.Registry

	// Forward pass (C3/C4)
	ForwardDuration *prometheus.HistogramVec // labels: phase (upward|downward|cooccurrence)
	ForwardErrors   *prometheus.CounterVec   // labels: error_type

	// Local Alpha (C6)
	AlphaValue     *prometheus.HistogramVec // labels: algorithm
	AlphaCacheHits *prometheus.CounterVec   // labels: hit ("true"|"false")

	// Thompson Sampling (C7)
	ThompsonDecisions *prometheus.CounterVec   // labels: accept ("true"|"false"), mode, risk
	ThompsonUCBBonus  *prometheus.HistogramVec // labels: mode

	// Suggester (C8)
	SuggestRequests *prometheus.CounterVec   // labels: outcome (ok|null|warning|error)
	SuggestDuration *prometheus.HistogramVec // labels: stage (search|rank|path|confidence)

	// Trainer (C5)
	TrainEpochLoss     *prometheus.GaugeVec // labels: run_id
	TrainInvalidSkips  *prometheus.CounterVec

	// Query HTTP API
	HTTPRequests *prometheus.CounterVec   // labels: method, path, status
	HTTPDuration *prometheus.HistogramVec // labels: method, path
}

// NewMetrics creates a Metrics instance, or nil if disabled.
func NewMetrics(cfg *MetricsConfig) (*Metrics, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}
	cfg.SetDefaults()

	m := &Metrics{config: cfg, registry: prometheus.NewRegistry()}

	m.ForwardDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: cfg.Namespace, Subsystem: "shgat", Name: "forward_duration_seconds",
		Help:    "Duration of a message-passing forward pass phase.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
	}, []string{"phase"})

	m.ForwardErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace, Subsystem: "shgat", Name: "forward_errors_total",
		Help: "Forward pass failures by error type.",
	}, []string{"error_type"})

	m.AlphaValue = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: cfg.Namespace, Subsystem: "localalpha", Name: "value",
		Help:    "Distribution of Local Alpha values returned, by algorithm.",
		Buckets: prometheus.LinearBuckets(0.5, 0.05, 10),
	}, []string{"algorithm"})

	m.AlphaCacheHits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace, Subsystem: "localalpha", Name: "cache_lookups_total",
		Help: "Local Alpha cache lookups by hit/miss.",
	}, []string{"hit"})

	m.ThompsonDecisions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace, Subsystem: "thompson", Name: "decisions_total",
		Help: "Thompson-Sampling arbiter decisions.",
	}, []string{"accept", "mode", "risk"})

	m.ThompsonUCBBonus = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: cfg.Namespace, Subsystem: "thompson", Name: "ucb_bonus",
		Help:    "UCB exploration bonus applied to the threshold.",
		Buckets: prometheus.LinearBuckets(0, 0.1, 11),
	}, []string{"mode"})

	m.SuggestRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace, Subsystem: "suggester", Name: "requests_total",
		Help: "suggestDAG calls by outcome.",
	}, []string{"outcome"})

	m.SuggestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: cfg.Namespace, Subsystem: "suggester", Name: "stage_duration_seconds",
		Help:    "Duration of each suggester pipeline stage.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	}, []string{"stage"})

	m.TrainEpochLoss = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: cfg.Namespace, Subsystem: "trainer", Name: "epoch_loss",
		Help: "Most recent mean BCE loss per training run.",
	}, []string{"run_id"})

	m.TrainInvalidSkips = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace, Subsystem: "trainer", Name: "invalid_examples_total",
		Help: "Training examples skipped due to unknown id or dimension mismatch.",
	}, []string{"reason"})

	m.HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace, Subsystem: "http", Name: "requests_total",
		Help: "Query API requests by method, path, and status code.",
	}, []string{"method", "path", "status"})

	m.HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: cfg.Namespace, Subsystem: "http", Name: "request_duration_seconds",
		Help:    "Query API request latency.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	}, []string{"method", "path"})

	m.registry.MustRegister(
		m.ForwardDuration, m.ForwardErrors,
		m.AlphaValue, m.AlphaCacheHits,
		m.ThompsonDecisions, m.ThompsonUCBBonus,
		m.SuggestRequests, m.SuggestDuration,
		m.TrainEpochLoss, m.TrainInvalidSkips,
		m.HTTPRequests, m.HTTPDuration,
	)

	return m, nil
}

// Handler returns the HTTP handler serving these metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("metrics not enabled"))
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
