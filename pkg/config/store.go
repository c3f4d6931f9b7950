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

// StoreConfig configures tool/capability persistence (pkg/store).
type StoreConfig struct {
	// Driver selects the backing database: "memory", "sqlite3", "postgres", "mysql".
	Driver string `yaml:"driver,omitempty"`

	// DSN is the driver-specific connection string. Ignored for "memory".
	DSN string `yaml:"dsn,omitempty"`

	// MaxOpenConns bounds the database/sql connection pool.
	MaxOpenConns int `yaml:"maxOpenConns,omitempty"`
}

const DefaultStoreDriver = "memory"

func (c *StoreConfig) SetDefaults() {
	if c.Driver == "" {
		c.Driver = DefaultStoreDriver
	}
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = 10
	}
}

func (c *StoreConfig) Validate() error {
	switch c.Driver {
	case "memory":
	case "sqlite3", "postgres", "mysql":
		if c.DSN == "" {
			return fmt.Errorf("dsn is required for driver %q", c.Driver)
		}
	default:
		return fmt.Errorf("unknown driver %q (valid: memory, sqlite3, postgres, mysql)", c.Driver)
	}
	if c.MaxOpenConns < 0 {
		return fmt.Errorf("maxOpenConns must be non-negative, got %d", c.MaxOpenConns)
	}
	return nil
}
