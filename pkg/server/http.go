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

// Package server exposes suggestDAG (C8) over HTTP: a single /suggest
// endpoint plus health and metrics, fronted by the same tracing/logging
// middleware chain the rest of the SHGAT core uses.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/kadirpekel/shgat/pkg/config"
	"github.com/kadirpekel/shgat/pkg/hypergraph"
	"github.com/kadirpekel/shgat/pkg/localalpha"
	"github.com/kadirpekel/shgat/pkg/observability"
	"github.com/kadirpekel/shgat/pkg/suggester"
)

// Server is the SHGAT query HTTP API. The hypergraph it queries can be
// swapped out wholesale (Reload) without restarting the process — a
// bootstrap or training run elsewhere simply replaces the pointer pair
// under a write lock.
type Server struct {
	cfg       *config.ServerConfig
	engine    *suggester.Engine
	obsv      *observability.Manager
	server    *http.Server

	mu    sync.RWMutex
	graph *hypergraph.Graph
	snap  *hypergraph.Snapshot
}

// New builds a Server. graph/snap is the initial hypergraph to serve;
// use Reload to swap it later (e.g. after a bootstrap or training run).
func New(cfg *config.ServerConfig, engine *suggester.Engine, graph *hypergraph.Graph, snap *hypergraph.Snapshot, obsv *observability.Manager) *Server {
	if cfg == nil {
		cfg = &config.ServerConfig{}
	}
	cfg.SetDefaults()
	if obsv == nil {
		obsv = observability.Noop()
	}
	return &Server{cfg: cfg, engine: engine, graph: graph, snap: snap, obsv: obsv}
}

// Reload atomically replaces the graph/snapshot pair the server queries.
func (s *Server) Reload(graph *hypergraph.Graph, snap *hypergraph.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.graph = graph
	s.snap = snap
}

func (s *Server) current() (*hypergraph.Graph, *hypergraph.Snapshot) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph, s.snap
}

// Address returns the host:port the server binds to.
func (s *Server) Address() string {
	return s.cfg.Address()
}

// Start runs the HTTP server until ctx is cancelled, then shuts it down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	mux := s.routes()

	var handler http.Handler = mux
	handler = s.corsMiddleware(handler)
	handler = s.loggingMiddleware(handler)
	handler = observability.HTTPMiddleware(s.obsv.Tracer(), s.obsv.Metrics())(handler)

	s.server = &http.Server{
		Addr:         s.cfg.Address(),
		Handler:      handler,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	slog.Info("query API starting", "address", s.cfg.Address())

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()

	slog.Info("query API shutting down")
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("query API shutdown: %w", err)
	}
	return nil
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", s.obsv.MetricsHandler())
	mux.HandleFunc("/suggest", s.handleSuggest)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	graph, snap := s.current()
	status := "ok"
	if graph == nil || snap == nil {
		status = "no graph loaded"
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

// suggestRequest is the /suggest request body.
type suggestRequest struct {
	Text         string   `json:"text"`
	ContextTools []string `json:"contextTools,omitempty"`
	K            int      `json:"k,omitempty"`
	Mode         string   `json:"mode,omitempty"`
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req suggestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body: " + err.Error()})
		return
	}
	if req.Text == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "text is required"})
		return
	}

	graph, snap := s.current()
	if graph == nil || snap == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no hypergraph loaded"})
		return
	}

	query := suggester.Query{
		Text:         req.Text,
		ContextTools: req.ContextTools,
		K:            req.K,
		Mode:         localAlphaMode(req.Mode),
	}

	suggestion, err := s.engine.SuggestDAG(r.Context(), graph, snap, query)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if suggestion == nil {
		writeJSON(w, http.StatusOK, map[string]any{"suggestion": nil})
		return
	}
	writeJSON(w, http.StatusOK, suggestion)
}

// localAlphaMode maps the request's free-text mode onto a
// localalpha.Mode, defaulting to active search when unset or unknown.
func localAlphaMode(mode string) localalpha.Mode {
	switch localalpha.Mode(mode) {
	case localalpha.ModePassive:
		return localalpha.ModePassive
	case localalpha.ModeSpeculation:
		return localalpha.ModeSpeculation
	default:
		return localalpha.ModeActiveSearch
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
