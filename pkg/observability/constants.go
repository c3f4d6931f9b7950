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

// Span names used across the SHGAT core.
const (
	SpanForwardPass   = "shgat.forward_pass"
	SpanLocalAlpha    = "shgat.local_alpha"
	SpanThompsonDraw  = "shgat.thompson_draw"
	SpanSuggestDAG    = "shgat.suggest_dag"
	SpanTrainEpoch    = "shgat.train_epoch"
	SpanVectorSearch  = "shgat.vector_search"
	SpanEmbedText     = "shgat.embed_text"
	SpanHTTPRequest   = "shgat.http_request"
)

// Attribute keys attached to spans and log records.
const (
	AttrNodeID       = "shgat.node_id"
	AttrNodeType     = "shgat.node_type"
	AttrAlphaMode    = "shgat.alpha_mode"
	AttrAlphaValue   = "shgat.alpha_value"
	AttrThompsonMode = "shgat.thompson_mode"
	AttrRiskLevel    = "shgat.risk_level"
	AttrAccepted     = "shgat.accepted"
	AttrHeadCount    = "shgat.head_count"
	AttrLevel        = "shgat.level"

	AttrHTTPMethod     = "http.method"
	AttrHTTPPath       = "http.path"
	AttrHTTPStatusCode = "http.status_code"
	AttrErrorType      = "error.type"
)
