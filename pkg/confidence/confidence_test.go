// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel

package confidence

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kadirpekel/shgat/pkg/config"
)

func newTestCalculator() *Calculator {
	cfg := &config.DAGConfig{}
	cfg.SetDefaults()
	return New(cfg)
}

func TestPathConfidence(t *testing.T) {
	c := newTestCalculator()
	assert.InDelta(t, 0.95, c.PathConfidence(1), 1e-9)
	assert.InDelta(t, 0.80, c.PathConfidence(2), 1e-9)
	assert.InDelta(t, 0.65, c.PathConfidence(3), 1e-9)
	assert.InDelta(t, 0.45, c.PathConfidence(4), 1e-9)
	assert.InDelta(t, 0.45, c.PathConfidence(10), 1e-9)
	assert.InDelta(t, 0.45, c.PathConfidence(0), 1e-9)
	assert.InDelta(t, 0.45, c.PathConfidence(-1), 1e-9)
}

func TestAdaptiveWeights_AtAlphaHalf(t *testing.T) {
	c := newTestCalculator()
	w := c.AdaptiveWeights(0.5)
	assert.InDelta(t, 0.55, w.Hybrid, 1e-9)
	assert.InDelta(t, 0.30, w.Pagerank, 1e-9)
	assert.InDelta(t, 0.15, w.Path, 1e-9)
}

func TestAdaptiveWeights_AtAlphaOne(t *testing.T) {
	c := newTestCalculator()
	w := c.AdaptiveWeights(1.0)
	assert.InDelta(t, 0.85, w.Hybrid, 1e-9)
	assert.InDelta(t, 0.05, w.Pagerank, 1e-9)
	assert.InDelta(t, 0.10, w.Path, 1e-9)
}

func TestAdaptiveWeights_ClipsBelowHalf(t *testing.T) {
	c := newTestCalculator()
	w := c.AdaptiveWeights(0.1)
	assert.InDelta(t, 0.55, w.Hybrid, 1e-9)
}

func TestHybridConfidence_CapsAtMax(t *testing.T) {
	c := newTestCalculator()
	weights := config.ConfidenceWeights{Hybrid: 0.85, Pagerank: 0.05, Path: 0.10}
	got := c.HybridConfidence(1.0, 1.0, 1.0, weights)
	assert.InDelta(t, 0.95, got, 1e-9)
}

func TestHybridConfidence_MissingComponentsNotRenormalised(t *testing.T) {
	c := newTestCalculator()
	weights := config.ConfidenceWeights{Hybrid: 0.55, Pagerank: 0.30, Path: 0.15}
	got := c.HybridConfidence(0.8, 0, 0, weights)
	assert.InDelta(t, 0.55*0.8, got, 1e-9)
}

func TestRationale_BaseOnly(t *testing.T) {
	c := newTestCalculator()
	got := c.Rationale(RationaleInput{Score: 0.8})
	assert.Equal(t, "hybrid search (80%)", got)
}

func TestRationale_FullySpecified(t *testing.T) {
	c := newTestCalculator()
	semantic := 0.7
	graph := 0.6
	pagerank := 0.5
	got := c.Rationale(RationaleInput{
		Score:                 0.8,
		SemanticScore:         &semantic,
		GraphScore:            &graph,
		PagerankScore:         &pagerank,
		DependencyCount:       3,
		DirectDependencyCount: 1,
	})
	assert.Equal(t, "hybrid search (80%), semantic: 70%, graph: 60%, PageRank: 50%, 3 deps (1 direct)", got)
}

func TestRationale_PageRankOmittedBelowThreshold(t *testing.T) {
	c := newTestCalculator()
	pagerank := 0.001
	got := c.Rationale(RationaleInput{Score: 0.8, PagerankScore: &pagerank})
	assert.Equal(t, "hybrid search (80%)", got)
}

func TestPredictionRationale_UnknownSource(t *testing.T) {
	got := PredictionRationale(PredictionSource("bogus"), PredictionInput{})
	assert.Equal(t, "Unknown prediction source", got)
}

func TestPredictionRationale_KnownSources(t *testing.T) {
	assert.Contains(t, PredictionRationale(SourceCommunity, PredictionInput{ToolID: "t1", CommunityID: 3, Score: 0.9}), "t1")
	assert.Contains(t, PredictionRationale(SourceCooccurrence, PredictionInput{ToolID: "t1", CooccurrenceWeight: 0.4}), "t1")
	assert.Contains(t, PredictionRationale(SourceCapability, PredictionInput{ToolID: "t1", CapabilityID: "cap1"}), "cap1")
	assert.Contains(t, PredictionRationale(SourceAlternative, PredictionInput{ToolID: "t1", AlternativeRank: 2}), "#2")
}
