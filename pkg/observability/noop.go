// Copyright 2025 Kadir Pekel
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

package observability

import (
	"strconv"
	"time"
)

// RecordForwardDuration is nil-safe: it is a no-op when metrics are disabled.
func (m *Metrics) RecordForwardDuration(phase string, d time.Duration) {
	if m == nil || m.ForwardDuration == nil {
		return
	}
	m.ForwardDuration.WithLabelValues(phase).Observe(d.Seconds())
}

// RecordForwardError is nil-safe.
func (m *Metrics) RecordForwardError(errType string) {
	if m == nil || m.ForwardErrors == nil {
		return
	}
	m.ForwardErrors.WithLabelValues(errType).Inc()
}

// RecordAlpha is nil-safe.
func (m *Metrics) RecordAlpha(algorithm string, value float64, cacheHit bool) {
	if m == nil || m.AlphaValue == nil {
		return
	}
	m.AlphaValue.WithLabelValues(algorithm).Observe(value)
	m.AlphaCacheHits.WithLabelValues(boolLabel(cacheHit)).Inc()
}

// RecordThompsonDecision is nil-safe.
func (m *Metrics) RecordThompsonDecision(accepted bool, mode, risk string, ucbBonus float64) {
	if m == nil || m.ThompsonDecisions == nil {
		return
	}
	m.ThompsonDecisions.WithLabelValues(boolLabel(accepted), mode, risk).Inc()
	m.ThompsonUCBBonus.WithLabelValues(mode).Observe(ucbBonus)
}

// RecordSuggestRequest is nil-safe.
func (m *Metrics) RecordSuggestRequest(outcome string) {
	if m == nil || m.SuggestRequests == nil {
		return
	}
	m.SuggestRequests.WithLabelValues(outcome).Inc()
}

// RecordSuggestStage is nil-safe.
func (m *Metrics) RecordSuggestStage(stage string, d time.Duration) {
	if m == nil || m.SuggestDuration == nil {
		return
	}
	m.SuggestDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordTrainEpoch is nil-safe.
func (m *Metrics) RecordTrainEpoch(runID string, loss float64) {
	if m == nil || m.TrainEpochLoss == nil {
		return
	}
	m.TrainEpochLoss.WithLabelValues(runID).Set(loss)
}

// RecordTrainInvalidSkip is nil-safe.
func (m *Metrics) RecordTrainInvalidSkip(reason string) {
	if m == nil || m.TrainInvalidSkips == nil {
		return
	}
	m.TrainInvalidSkips.WithLabelValues(reason).Inc()
}

// RecordHTTPRequest is nil-safe.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, d time.Duration) {
	if m == nil || m.HTTPRequests == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
