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

// Package shgaterrors defines the error taxonomy shared by every SHGAT
// component: graph construction, query evaluation, cancellation, and
// transient backend failures. pkg/config.ConfigError is the fifth member
// of the taxonomy and lives alongside the configuration it guards.
package shgaterrors

import "fmt"

// GraphError is returned synchronously from commit() when the incidence
// graph cannot be built: a cycle, a dangling member reference, or a
// dimension mismatch between an embedding and the configured D.
type GraphError struct {
	Reason string
}

func (e *GraphError) Error() string { return fmt.Sprintf("graph error: %s", e.Reason) }

// CycleDetected reports a cycle found in the member relation during
// build_incidence(). Path is the sequence of ids forming the cycle,
// starting and ending on the same id.
type CycleDetected struct {
	Path []string
}

func (e *CycleDetected) Error() string {
	return fmt.Sprintf("cycle detected in member relation: %v", e.Path)
}

// UnknownMember is raised when a capability references a member id that
// was never registered as a tool or a capability.
type UnknownMember struct {
	ParentID string
	MemberID string
}

func (e *UnknownMember) Error() string {
	return fmt.Sprintf("capability %q references unknown member %q", e.ParentID, e.MemberID)
}

// DimensionMismatch is raised when an embedding row does not match the
// configured embedding dimension D.
type DimensionMismatch struct {
	Expected int
	Actual   int
	Context  string
}

func (e *DimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch in %s: expected %d, got %d", e.Context, e.Expected, e.Actual)
}

// GraphNotBuilt is raised when a forward pass or query is attempted before
// build_incidence()/commit() has produced an incidence snapshot.
type GraphNotBuilt struct{}

func (e *GraphNotBuilt) Error() string { return "graph not built: call commit() first" }

// QueryError is surfaced to the caller for a malformed query: wrong intent
// dimension, an unknown filter key. It never mutates engine state.
type QueryError struct {
	Reason string
}

func (e *QueryError) Error() string { return fmt.Sprintf("query error: %s", e.Reason) }

// Cancelled is returned when a query's deadline is exceeded. Partial
// results are discarded and no side effects (e.g. Thompson outcome
// recording) are performed for a cancelled query.
type Cancelled struct {
	Stage string
}

func (e *Cancelled) Error() string { return fmt.Sprintf("cancelled at stage %q: deadline exceeded", e.Stage) }

// TransientBackendError wraps a failure from an external collaborator
// (vector store, embedder) that the suggester may retry with bounded
// exponential backoff before surfacing to the caller.
type TransientBackendError struct {
	Backend string
	Err     error
}

func (e *TransientBackendError) Error() string {
	return fmt.Sprintf("transient backend error (%s): %v", e.Backend, e.Err)
}

func (e *TransientBackendError) Unwrap() error { return e.Err }

// VersionMismatch is raised by importParameters when the binary format
// version does not match what this build produces.
type VersionMismatch struct {
	Expected uint32
	Actual   uint32
}

func (e *VersionMismatch) Error() string {
	return fmt.Sprintf("parameter format version mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// ShapeMismatch is raised by importParameters when the encoded tensor
// shapes do not match the current model configuration.
type ShapeMismatch struct {
	Reason string
}

func (e *ShapeMismatch) Error() string { return fmt.Sprintf("parameter shape mismatch: %s", e.Reason) }
