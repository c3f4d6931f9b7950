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

package config

import "fmt"

// ThompsonConfig configures the Thompson-Sampling arbiter (C7).
type ThompsonConfig struct {
	Mode ThompsonModeConfig `yaml:"mode,omitempty"`

	// RiskMultiplier scales the acceptance threshold by risk classification.
	RiskMultiplier RiskMultiplierConfig `yaml:"riskMultiplier,omitempty"`

	// DecayWindow is the observation-count window after which per-tool
	// Beta posteriors are discounted (see Open Question #2 in DESIGN.md:
	// decay is by observation count, not calendar time).
	DecayWindow int `yaml:"decayWindow,omitempty"`

	// DecayFactor is the multiplicative discount applied to alpha/beta
	// counts every DecayWindow observations.
	DecayFactor float64 `yaml:"decayFactor,omitempty"`

	// ExplorationBonus scales the UCB exploration term.
	ExplorationBonus float64 `yaml:"explorationBonus,omitempty"`
}

// ThompsonModeConfig gives each operating mode its own base threshold.
// Ordered speculation < passive < active by construction (see spec.md
// §4.7: "speculation lowest, active_search highest").
type ThompsonModeConfig struct {
	Active      ModeThreshold `yaml:"active,omitempty"`
	Passive     ModeThreshold `yaml:"passive,omitempty"`
	Speculation ModeThreshold `yaml:"speculation,omitempty"`
}

// ModeThreshold is the base acceptance threshold for one mode.
type ModeThreshold struct {
	Base float64 `yaml:"base,omitempty"`
}

// RiskMultiplierConfig scales ModeThreshold.Base by risk classification.
type RiskMultiplierConfig struct {
	Low    float64 `yaml:"low,omitempty"`
	Medium float64 `yaml:"medium,omitempty"`
	High   float64 `yaml:"high,omitempty"`
}

const (
	DefaultThompsonActiveBase      = 0.7
	DefaultThompsonPassiveBase     = 0.5
	DefaultThompsonSpeculationBase = 0.3
	DefaultRiskLow                 = 0.8
	DefaultRiskMedium              = 1.0
	DefaultRiskHigh                = 1.3
	DefaultDecayWindow             = 1000
	DefaultDecayFactor             = 0.9
	DefaultExplorationBonus        = 1.0
)

func (c *ThompsonConfig) SetDefaults() {
	if c.Mode.Active.Base == 0 {
		c.Mode.Active.Base = DefaultThompsonActiveBase
	}
	if c.Mode.Passive.Base == 0 {
		c.Mode.Passive.Base = DefaultThompsonPassiveBase
	}
	if c.Mode.Speculation.Base == 0 {
		c.Mode.Speculation.Base = DefaultThompsonSpeculationBase
	}
	if c.RiskMultiplier.Low == 0 {
		c.RiskMultiplier.Low = DefaultRiskLow
	}
	if c.RiskMultiplier.Medium == 0 {
		c.RiskMultiplier.Medium = DefaultRiskMedium
	}
	if c.RiskMultiplier.High == 0 {
		c.RiskMultiplier.High = DefaultRiskHigh
	}
	if c.DecayWindow == 0 {
		c.DecayWindow = DefaultDecayWindow
	}
	if c.DecayFactor == 0 {
		c.DecayFactor = DefaultDecayFactor
	}
	if c.ExplorationBonus == 0 {
		c.ExplorationBonus = DefaultExplorationBonus
	}
}

func (c *ThompsonConfig) Validate() error {
	if c.Mode.Active.Base <= 0 || c.Mode.Active.Base > 1 {
		return fmt.Errorf("mode.active.base must lie in (0,1], got %f", c.Mode.Active.Base)
	}
	if c.Mode.Passive.Base <= 0 || c.Mode.Passive.Base > 1 {
		return fmt.Errorf("mode.passive.base must lie in (0,1], got %f", c.Mode.Passive.Base)
	}
	if c.Mode.Speculation.Base <= 0 || c.Mode.Speculation.Base > 1 {
		return fmt.Errorf("mode.speculation.base must lie in (0,1], got %f", c.Mode.Speculation.Base)
	}
	if c.RiskMultiplier.Low <= 0 || c.RiskMultiplier.Medium <= 0 || c.RiskMultiplier.High <= 0 {
		return fmt.Errorf("riskMultiplier entries must be positive")
	}
	if c.DecayWindow < 1 {
		return fmt.Errorf("decayWindow must be >= 1, got %d", c.DecayWindow)
	}
	if c.DecayFactor <= 0 || c.DecayFactor > 1 {
		return fmt.Errorf("decayFactor must lie in (0,1], got %f", c.DecayFactor)
	}
	if c.ExplorationBonus < 0 {
		return fmt.Errorf("explorationBonus must be non-negative, got %f", c.ExplorationBonus)
	}
	return nil
}

// Threshold resolves the base acceptance threshold for a (mode, risk)
// pair, before the UCB exploration bonus is subtracted. mode is one of
// "active_search", "passive_suggestion", "speculation"; unrecognised
// modes fall back to the active_search base. risk is one of "safe",
// "moderate", "dangerous" (pkg/thompson.Risk); unrecognised risk values
// fall back to the moderate multiplier.
func (c *ThompsonConfig) Threshold(mode string, risk string) float64 {
	base := c.Mode.Active.Base
	switch mode {
	case "passive_suggestion", "passive":
		base = c.Mode.Passive.Base
	case "speculation":
		base = c.Mode.Speculation.Base
	}
	switch risk {
	case "safe":
		return base * c.RiskMultiplier.Low
	case "dangerous":
		return base * c.RiskMultiplier.High
	default:
		return base * c.RiskMultiplier.Medium
	}
}
