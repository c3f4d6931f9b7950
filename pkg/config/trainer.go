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

// TrainerConfig configures the mini-batch SGD training loop (C5).
type TrainerConfig struct {
	LearningRate float64 `yaml:"learningRate,omitempty"`
	Epochs       int     `yaml:"epochs,omitempty"`
	BatchSize    int     `yaml:"batchSize,omitempty"`
	Momentum     float64 `yaml:"momentum,omitempty"`

	// MaxInvalidFraction aborts an epoch when more than this fraction of
	// examples are skipped for referencing an unknown id or a dimension
	// mismatch. Default 0.5 per spec.
	MaxInvalidFraction float64 `yaml:"maxInvalidFraction,omitempty"`

	// GradientClip bounds the per-parameter update magnitude.
	GradientClip float64 `yaml:"gradientClip,omitempty"`
}

const (
	DefaultLearningRate       = 0.01
	DefaultEpochs             = 10
	DefaultBatchSize          = 32
	DefaultMomentum           = 0.9
	DefaultMaxInvalidFraction = 0.5
	DefaultGradientClip       = 5.0
)

func (c *TrainerConfig) SetDefaults() {
	if c.LearningRate == 0 {
		c.LearningRate = DefaultLearningRate
	}
	if c.Epochs == 0 {
		c.Epochs = DefaultEpochs
	}
	if c.BatchSize == 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.Momentum == 0 {
		c.Momentum = DefaultMomentum
	}
	if c.MaxInvalidFraction == 0 {
		c.MaxInvalidFraction = DefaultMaxInvalidFraction
	}
	if c.GradientClip == 0 {
		c.GradientClip = DefaultGradientClip
	}
}

func (c *TrainerConfig) Validate() error {
	if c.LearningRate <= 0 {
		return fmt.Errorf("learningRate must be positive, got %f", c.LearningRate)
	}
	if c.Epochs <= 0 {
		return fmt.Errorf("epochs must be positive, got %d", c.Epochs)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batchSize must be positive, got %d", c.BatchSize)
	}
	if c.Momentum < 0 || c.Momentum >= 1 {
		return fmt.Errorf("momentum must be in [0,1), got %f", c.Momentum)
	}
	if c.MaxInvalidFraction <= 0 || c.MaxInvalidFraction > 1 {
		return fmt.Errorf("maxInvalidFraction must be in (0,1], got %f", c.MaxInvalidFraction)
	}
	if c.GradientClip <= 0 {
		return fmt.Errorf("gradientClip must be positive, got %f", c.GradientClip)
	}
	return nil
}
