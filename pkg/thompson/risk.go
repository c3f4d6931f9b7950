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

package thompson

import "strings"

// dangerousPatterns and moderatePatterns are substrings matched against a
// lowercased tool id/name. The first match wins, scanning dangerous
// before moderate and then the safe patterns; no match classifies the
// tool as moderate. These are
// deliberately conservative — a tool named "delete_stale_cache_entry"
// should classify as dangerous even though the blast radius is small,
// because the classifier has no notion of blast radius, only lexical
// intent.
var dangerousPatterns = []string{
	"delete", "drop", "destroy", "remove", "purge", "truncate",
	"format", "wipe", "shutdown", "kill", "terminate", "revoke",
	"rm_", "rm-", "deprovision", "rotate_credential", "payment", "transfer_funds",
}

var moderatePatterns = []string{
	"write", "update", "modify", "patch", "send", "post", "put",
	"execute", "run", "create", "insert", "publish", "deploy",
	"grant", "restart", "scale",
}

// ClassifyRisk is the pure risk classifier of spec.md §4.7: a function
// over tool id/name patterns returning one of {safe, moderate,
// dangerous}; unrecognised tools default to moderate — an unrecognised
// tool is not assumed destructive, but it is not assumed harmless either.
func ClassifyRisk(toolID, toolName string) Risk {
	haystack := strings.ToLower(toolID + " " + toolName)

	for _, p := range dangerousPatterns {
		if strings.Contains(haystack, p) {
			return RiskDangerous
		}
	}

	trimmed := strings.TrimSpace(haystack)
	for _, p := range moderatePatterns {
		if strings.Contains(haystack, p) {
			return RiskModerate
		}
	}
	if containsAnyReadPattern(trimmed) {
		return RiskSafe
	}
	return RiskModerate
}

var safePatterns = []string{
	"get", "list", "read", "query", "search", "lookup", "fetch",
	"describe", "view", "show", "check", "validate", "count",
}

func containsAnyReadPattern(haystack string) bool {
	for _, p := range safePatterns {
		if strings.Contains(haystack, p) {
			return true
		}
	}
	return false
}
