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
	"context"
	"fmt"
	"net/http"
)

// Manager is the lifecycle owner for tracing and metrics. Callers obtain
// a Tracer/Metrics handle from it and call Shutdown once during drain.
type Manager struct {
	cfg     *Config
	tracer  *Tracer
	metrics *Metrics
}

// NewManager builds a Manager from cfg. A nil cfg, or one with both
// sub-configs disabled, yields a fully no-op Manager.
func NewManager(ctx context.Context, cfg *Config) (*Manager, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("observability: invalid config: %w", err)
	}

	tracer, err := NewTracer(ctx, &cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("observability: tracer: %w", err)
	}

	metrics, err := NewMetrics(&cfg.Metrics)
	if err != nil {
		return nil, fmt.Errorf("observability: metrics: %w", err)
	}

	return &Manager{cfg: cfg, tracer: tracer, metrics: metrics}, nil
}

// Noop returns a Manager with tracing and metrics both disabled.
func Noop() *Manager {
	return &Manager{cfg: &Config{}}
}

// Tracer returns the manager's tracer. Never nil: returns a no-op Tracer
// when tracing is disabled.
func (m *Manager) Tracer() *Tracer {
	if m == nil || m.tracer == nil {
		return &Tracer{}
	}
	return m.tracer
}

// Metrics returns the manager's metrics recorder. Never nil.
func (m *Manager) Metrics() *Metrics {
	if m == nil || m.metrics == nil {
		return &Metrics{}
	}
	return m.metrics
}

// MetricsHandler returns the HTTP handler serving Prometheus metrics.
func (m *Manager) MetricsHandler() http.Handler {
	return m.Metrics().Handler()
}

// Shutdown flushes the tracer and releases resources.
func (m *Manager) Shutdown(ctx context.Context) error {
	if m == nil || m.tracer == nil {
		return nil
	}
	return m.tracer.Shutdown(ctx)
}
