// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel

package thompson

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/shgat/pkg/config"
)

func newTestConfig() *config.ThompsonConfig {
	cfg := &config.ThompsonConfig{}
	cfg.SetDefaults()
	return cfg
}

func TestClassifyRisk(t *testing.T) {
	assert.Equal(t, RiskDangerous, ClassifyRisk("delete_user_account", ""))
	assert.Equal(t, RiskDangerous, ClassifyRisk("", "Drop Table"))
	assert.Equal(t, RiskModerate, ClassifyRisk("update_profile", ""))
	assert.Equal(t, RiskSafe, ClassifyRisk("get_weather", ""))
	assert.Equal(t, RiskModerate, ClassifyRisk("frobnicate_gizmo", ""))
}

func TestArbiter_UnseenToolUsesPrior(t *testing.T) {
	a := New(newTestConfig(), 42)
	require.Equal(t, 0, a.Observations("tool-a"))
	bonus := a.GetUCBBonus("tool-a")
	assert.Equal(t, 1.0, bonus, "an unobserved arm gets the maximal exploration bonus")
}

func TestArbiter_RecordOutcomeIncrementsObservations(t *testing.T) {
	a := New(newTestConfig(), 7)
	a.RecordOutcome("tool-a", true)
	a.RecordOutcome("tool-a", true)
	a.RecordOutcome("tool-a", false)
	assert.Equal(t, 3, a.Observations("tool-a"))
}

func TestArbiter_ThresholdOrderingByMode(t *testing.T) {
	cfg := newTestConfig()
	a := New(cfg, 1)
	// Warm up a tool past cold-start so comparisons aren't dominated by
	// differing UCB bonuses across modes (bonus only depends on tool id).
	for i := 0; i < 50; i++ {
		a.RecordOutcome("tool-a", true)
	}
	active := a.GetThreshold("tool-a", RiskModerate, ModeActiveSearch)
	passive := a.GetThreshold("tool-a", RiskModerate, ModePassive)
	speculation := a.GetThreshold("tool-a", RiskModerate, ModeSpeculation)

	assert.Greater(t, active, passive, "active_search threshold must exceed passive")
	assert.Greater(t, passive, speculation, "passive threshold must exceed speculation")
}

func TestArbiter_ThresholdScalesByRisk(t *testing.T) {
	cfg := newTestConfig()
	a := New(cfg, 2)
	for i := 0; i < 50; i++ {
		a.RecordOutcome("tool-a", true)
	}
	safe := a.GetThreshold("tool-a", RiskSafe, ModeActiveSearch)
	dangerous := a.GetThreshold("tool-a", RiskDangerous, ModeActiveSearch)
	assert.Greater(t, dangerous, safe, "a dangerous tool must clear a higher bar than a safe one")
}

func TestArbiter_ThresholdClipped(t *testing.T) {
	cfg := newTestConfig()
	cfg.Mode.Speculation.Base = 0.01
	a := New(cfg, 3)
	tau := a.GetThreshold("never-seen", RiskSafe, ModeSpeculation)
	assert.GreaterOrEqual(t, tau, minThreshold)
	assert.LessOrEqual(t, tau, maxThreshold)
}

func TestArbiter_MakeDecisionHasNoSideEffects(t *testing.T) {
	a := New(newTestConfig(), 4)
	before := a.Observations("tool-a")
	_ = a.MakeDecision("tool-a", 0.9, RiskSafe, ModeActiveSearch)
	after := a.Observations("tool-a")
	assert.Equal(t, before, after, "makeDecision must not record an outcome")
}

func TestArbiter_RecordOutcomeAppliesDecay(t *testing.T) {
	cfg := newTestConfig()
	cfg.DecayWindow = 5
	cfg.DecayFactor = 0.5
	a := New(cfg, 5)
	for i := 0; i < 5; i++ {
		a.RecordOutcome("tool-a", true)
	}
	// After decay the pseudo-count shrinks back toward the prior rather
	// than growing unboundedly with every observation.
	p := a.get("tool-a")
	assert.Less(t, p.alphaSucc, priorAlphaSucc+5)
}
