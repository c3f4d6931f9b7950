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

// Package vector adapts external vector-database backends (chromem-go,
// Qdrant, Pinecone, Weaviate, Chroma) behind a single Provider interface,
// so the suggester (C8) can search tool and capability embeddings without
// depending on any one backend's wire format.
package vector

import "context"

// Result is a single scored match returned from a vector similarity search.
type Result struct {
	// ID is the tool or capability identifier stored alongside the vector.
	ID string

	// Score is the similarity score, backend-specific in scale but always
	// higher-is-more-similar.
	Score float32

	// Content is an optional human-readable payload (e.g. the tool's
	// description) stored alongside the vector.
	Content string

	// Metadata carries arbitrary key/value pairs attached at upsert time.
	Metadata map[string]any
}

// Provider abstracts a vector database backend.
//
// Implementations must be safe for concurrent use.
type Provider interface {
	// Upsert inserts or updates a single vector with its metadata.
	Upsert(ctx context.Context, collection string, id string, vector []float32, metadata map[string]any) error

	// Search finds the topK most similar vectors to vector in collection.
	Search(ctx context.Context, collection string, vector []float32, topK int) ([]Result, error)

	// SearchWithFilter is Search with an additional metadata filter.
	SearchWithFilter(ctx context.Context, collection string, vector []float32, topK int, filter map[string]any) ([]Result, error)

	// Delete removes a single vector by id.
	Delete(ctx context.Context, collection string, id string) error

	// DeleteByFilter removes every vector matching filter.
	DeleteByFilter(ctx context.Context, collection string, filter map[string]any) error

	// DeleteCollection removes an entire collection.
	DeleteCollection(ctx context.Context, collection string) error

	// Close releases resources held by the provider.
	Close() error
}

// NilProvider is a zero-value Provider used when no vector store is
// configured. Every method returns either an empty result or an error,
// so that callers that forget to check for a configured store fail loudly
// rather than silently searching nothing.
type NilProvider struct{}

func (NilProvider) Upsert(context.Context, string, string, []float32, map[string]any) error {
	return errNilProvider
}

func (NilProvider) Search(context.Context, string, []float32, int) ([]Result, error) {
	return nil, errNilProvider
}

func (NilProvider) SearchWithFilter(context.Context, string, []float32, int, map[string]any) ([]Result, error) {
	return nil, errNilProvider
}

func (NilProvider) Delete(context.Context, string, string) error {
	return errNilProvider
}

func (NilProvider) DeleteByFilter(context.Context, string, map[string]any) error {
	return errNilProvider
}

func (NilProvider) DeleteCollection(context.Context, string) error {
	return errNilProvider
}

func (NilProvider) Close() error {
	return nil
}

var errNilProvider = providerError("no vector store provider configured")

type providerError string

func (e providerError) Error() string { return string(e) }
