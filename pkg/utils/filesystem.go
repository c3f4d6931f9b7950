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

// Package utils provides small filesystem helpers shared across packages.
package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureShgatDir ensures the .shgat directory exists at the given base path.
// If basePath is empty or ".", it creates ./.shgat in the current directory.
// Otherwise, it creates {basePath}/.shgat.
//
// This is used by facilities that persist local state:
//   - chromem vector store: ./.shgat/vectors/
//   - level-parameter snapshots: ./.shgat/params/
//   - SQLite tool/capability store: ./.shgat/store.db
//
// Returns the full path to the .shgat directory and any error.
func EnsureShgatDir(basePath string) (string, error) {
	var dir string
	if basePath == "" || basePath == "." {
		dir = ".shgat"
	} else {
		dir = filepath.Join(basePath, ".shgat")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create .shgat directory at '%s': %w", dir, err)
	}

	return dir, nil
}

// DefaultConfigPath returns the default bootstrap config path.
func DefaultConfigPath() string {
	return "shgat.yaml"
}

// DefaultStorePath returns the default path for the local tool/capability store.
func DefaultStorePath() string {
	return filepath.Join(".shgat", "store.db")
}
