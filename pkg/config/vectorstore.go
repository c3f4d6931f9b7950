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

package config

import (
	"fmt"

	"github.com/kadirpekel/shgat/pkg/vector"
)

// VectorStoreConfig configures the vector database backing tool/capability
// semantic search (C10, external collaborator consumed through the
// VectorStore interface).
//
// Example YAML:
//
//	vector_store:
//	  type: chromem
//	  persist_path: .shgat/vectors
type VectorStoreConfig struct {
	// Type is the vector store type: "chromem", "qdrant", "pinecone", "weaviate", "chroma".
	Type string `yaml:"type"`

	// Host for external vector stores (qdrant, weaviate).
	Host string `yaml:"host,omitempty"`

	// Port for external vector stores.
	Port int `yaml:"port,omitempty"`

	// APIKey for authenticated access.
	APIKey string `yaml:"api_key,omitempty"`

	// EnableTLS enables TLS connections.
	EnableTLS *bool `yaml:"enable_tls,omitempty"`

	// PersistPath for chromem file persistence.
	PersistPath string `yaml:"persist_path,omitempty"`

	// Collection is the default collection name (optional).
	Collection string `yaml:"collection,omitempty"`

	// IndexName for Pinecone.
	IndexName string `yaml:"index_name,omitempty"`

	// Environment for Pinecone.
	Environment string `yaml:"environment,omitempty"`
}

// SetDefaults applies default values.
func (c *VectorStoreConfig) SetDefaults() {
	if c.Type == "" {
		c.Type = "chromem" // Default to embedded
	}
	if c.Port == 0 {
		switch c.Type {
		case "qdrant":
			c.Port = 6333
		case "weaviate":
			c.Port = 8080
		}
	}
	if c.PersistPath == "" && c.Type == "chromem" {
		c.PersistPath = ".shgat/vectors"
	}
}

// Validate checks the configuration for errors.
func (c *VectorStoreConfig) Validate() error {
	validTypes := map[string]bool{
		"chromem":  true,
		"qdrant":   true,
		"pinecone": true,
		"weaviate": true,
		"chroma":   true,
	}

	if !validTypes[c.Type] {
		return fmt.Errorf("invalid vector store type %q (valid: chromem, qdrant, pinecone, weaviate, chroma)", c.Type)
	}

	externalStores := map[string]bool{
		"qdrant":   true,
		"weaviate": true,
	}
	if externalStores[c.Type] && c.Host == "" {
		return fmt.Errorf("host is required for %s vector store", c.Type)
	}

	if c.Type == "pinecone" && c.APIKey == "" {
		return fmt.Errorf("api_key is required for pinecone vector store")
	}

	return nil
}

// IsEmbedded returns true for embedded vector stores (chromem).
func (c *VectorStoreConfig) IsEmbedded() bool {
	return c.Type == "chromem"
}

// ToProviderConfig converts the flat, YAML-facing VectorStoreConfig into the
// nested, per-provider vector.ProviderConfig that vector.NewProvider
// consumes. Only the sub-struct matching c.Type is populated.
func (c *VectorStoreConfig) ToProviderConfig() *vector.ProviderConfig {
	if c == nil {
		return &vector.ProviderConfig{}
	}

	tls := c.EnableTLS != nil && *c.EnableTLS

	out := &vector.ProviderConfig{Type: vector.ProviderType(c.Type)}
	switch c.Type {
	case "qdrant":
		out.Qdrant = &vector.QdrantConfig{
			Host:   c.Host,
			Port:   c.Port,
			APIKey: c.APIKey,
			UseTLS: tls,
		}
	case "pinecone":
		out.Pinecone = &vector.PineconeConfig{
			APIKey:      c.APIKey,
			Host:        c.Host,
			IndexName:   c.IndexName,
			Environment: c.Environment,
		}
	case "weaviate":
		out.Weaviate = &vector.WeaviateConfig{
			Host:   c.Host,
			Port:   c.Port,
			APIKey: c.APIKey,
			UseTLS: tls,
		}
	case "chroma":
		out.Chroma = &vector.ChromaConfig{
			Host:   c.Host,
			Port:   c.Port,
			APIKey: c.APIKey,
			UseTLS: tls,
		}
	default: // "chromem", "" (defaulted upstream to chromem)
		out.Chromem = &vector.ChromemConfig{
			PersistPath: c.PersistPath,
		}
	}
	return out
}
