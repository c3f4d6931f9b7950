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

package localalpha

import "github.com/kadirpekel/shgat/pkg/config"

// bayesianColdStart implements §4.6 branch (1): alpha interpolates
// linearly from priorAlpha toward targetAlpha as observations grow from 0
// to coldStart.threshold.
func bayesianColdStart(cfg *config.AlphaConfig, observations int) float64 {
	threshold := cfg.ColdStart.Threshold
	if threshold < 1 {
		threshold = 1
	}
	t := float64(observations) / float64(threshold)
	if t > 1 {
		t = 1
	}
	prior := cfg.ColdStart.PriorAlpha
	target := cfg.ColdStart.TargetAlpha
	return prior + (target-prior)*t
}
