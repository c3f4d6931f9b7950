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

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const createToolsSchemaSQL = `
CREATE TABLE IF NOT EXISTS shgat_tools (
    id VARCHAR(255) PRIMARY KEY,
    embedding BLOB,
    page_rank DOUBLE PRECISION NOT NULL DEFAULT 0,
    louvain_community INTEGER NOT NULL DEFAULT 0,
    adamic_adar DOUBLE PRECISION NOT NULL DEFAULT 0,
    cooccurrence DOUBLE PRECISION NOT NULL DEFAULT 0,
    recency DOUBLE PRECISION NOT NULL DEFAULT 0
)`

const createCapabilitiesSchemaSQL = `
CREATE TABLE IF NOT EXISTS shgat_capabilities (
    id VARCHAR(255) PRIMARY KEY,
    embedding BLOB,
    hierarchy_level INTEGER NOT NULL DEFAULT 0,
    success_rate DOUBLE PRECISION NOT NULL DEFAULT 0
)`

const createMembersSchemaSQL = `
CREATE TABLE IF NOT EXISTS shgat_members (
    parent_id VARCHAR(255) NOT NULL,
    child_id VARCHAR(255) NOT NULL,
    child_kind VARCHAR(16) NOT NULL,
    ordinal INTEGER NOT NULL,
    PRIMARY KEY (parent_id, child_id)
)`

const createMembersIndexSQL = `
CREATE INDEX IF NOT EXISTS idx_shgat_members_parent ON shgat_members(parent_id, ordinal)`

// dialectOf maps a database/sql driver name to the query-builder dialect
// used below, mirroring the teacher's own driver-name -> dialect switch
// (v2/session.NewSQLSessionService).
func dialectOf(driverName string) string {
	switch driverName {
	case "postgres":
		return "postgres"
	case "mysql":
		return "mysql"
	default:
		return "sqlite"
	}
}

// convertToPostgresPlaceholders rewrites `?` positional placeholders
// into Postgres's `$1, $2, ...` form, grounded directly on the teacher's
// v2/session.convertToPostgresPlaceholders helper.
func convertToPostgresPlaceholders(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 20)
	n := 1
	for _, r := range query {
		if r == '?' {
			fmt.Fprintf(&b, "$%d", n)
			n++
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func initSchema(db *sql.DB) error {
	stmts := []string{createToolsSchemaSQL, createCapabilitiesSchemaSQL, createMembersSchemaSQL, createMembersIndexSQL}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}

// Open opens a database/sql connection for driverName/dsn, applies the
// shgat schema, and returns repositories backed by it. driverName is one
// of "sqlite3", "postgres", "mysql" (config.StoreConfig.Driver).
func Open(driverName, dsn string, maxOpenConns int) (ToolRepository, CapabilityRepository, func() error, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driverName == "sqlite3" {
		// SQLite only supports one writer; serialise everything to avoid
		// "database is locked" errors, same rationale as the teacher's DBPool.
		db.SetMaxOpenConns(1)
	} else if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := initSchema(db); err != nil {
		db.Close()
		return nil, nil, nil, err
	}

	dialect := dialectOf(driverName)
	tools := &sqlToolRepository{db: db, dialect: dialect}
	caps := &sqlCapabilityRepository{db: db, dialect: dialect}
	return tools, caps, db.Close, nil
}

type sqlToolRepository struct {
	db      *sql.DB
	dialect string
}

func (r *sqlToolRepository) query(q string) string {
	if r.dialect == "postgres" {
		return convertToPostgresPlaceholders(q)
	}
	return q
}

func (r *sqlToolRepository) Get(ctx context.Context, id string) (ToolRow, error) {
	q := r.query(`SELECT id, embedding, page_rank, louvain_community, adamic_adar, cooccurrence, recency
	              FROM shgat_tools WHERE id = ?`)
	var row ToolRow
	var blob []byte
	err := r.db.QueryRowContext(ctx, q, id).Scan(&row.ID, &blob, &row.PageRank, &row.LouvainCommunity, &row.AdamicAdar, &row.Cooccurrence, &row.Recency)
	if err == sql.ErrNoRows {
		return ToolRow{}, fmt.Errorf("tool %q not found", id)
	}
	if err != nil {
		return ToolRow{}, fmt.Errorf("failed to get tool %q: %w", id, err)
	}
	row.Embedding = decodeEmbedding(blob)
	return row, nil
}

func (r *sqlToolRepository) List(ctx context.Context) ([]ToolRow, error) {
	q := `SELECT id, embedding, page_rank, louvain_community, adamic_adar, cooccurrence, recency
	      FROM shgat_tools ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list tools: %w", err)
	}
	defer rows.Close()

	var out []ToolRow
	for rows.Next() {
		var row ToolRow
		var blob []byte
		if err := rows.Scan(&row.ID, &blob, &row.PageRank, &row.LouvainCommunity, &row.AdamicAdar, &row.Cooccurrence, &row.Recency); err != nil {
			return nil, fmt.Errorf("failed to scan tool row: %w", err)
		}
		row.Embedding = decodeEmbedding(blob)
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *sqlToolRepository) Upsert(ctx context.Context, row ToolRow) error {
	if row.ID == "" {
		return fmt.Errorf("tool id must not be empty")
	}
	blob := encodeEmbedding(row.Embedding)

	var q string
	switch r.dialect {
	case "postgres":
		q = `INSERT INTO shgat_tools (id, embedding, page_rank, louvain_community, adamic_adar, cooccurrence, recency)
		     VALUES ($1,$2,$3,$4,$5,$6,$7)
		     ON CONFLICT (id) DO UPDATE SET embedding=$2, page_rank=$3, louvain_community=$4, adamic_adar=$5, cooccurrence=$6, recency=$7`
	case "mysql":
		q = `INSERT INTO shgat_tools (id, embedding, page_rank, louvain_community, adamic_adar, cooccurrence, recency)
		     VALUES (?,?,?,?,?,?,?)
		     ON DUPLICATE KEY UPDATE embedding=VALUES(embedding), page_rank=VALUES(page_rank), louvain_community=VALUES(louvain_community), adamic_adar=VALUES(adamic_adar), cooccurrence=VALUES(cooccurrence), recency=VALUES(recency)`
	default:
		q = `INSERT INTO shgat_tools (id, embedding, page_rank, louvain_community, adamic_adar, cooccurrence, recency)
		     VALUES (?,?,?,?,?,?,?)
		     ON CONFLICT (id) DO UPDATE SET embedding=excluded.embedding, page_rank=excluded.page_rank, louvain_community=excluded.louvain_community, adamic_adar=excluded.adamic_adar, cooccurrence=excluded.cooccurrence, recency=excluded.recency`
	}

	_, err := r.db.ExecContext(ctx, q, row.ID, blob, row.PageRank, row.LouvainCommunity, row.AdamicAdar, row.Cooccurrence, row.Recency)
	if err != nil {
		return fmt.Errorf("failed to upsert tool %q: %w", row.ID, err)
	}
	return nil
}

func (r *sqlToolRepository) Delete(ctx context.Context, id string) error {
	q := r.query(`DELETE FROM shgat_tools WHERE id = ?`)
	_, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return fmt.Errorf("failed to delete tool %q: %w", id, err)
	}
	return nil
}

func (r *sqlToolRepository) Close() error { return r.db.Close() }

type sqlCapabilityRepository struct {
	db      *sql.DB
	dialect string
}

func (r *sqlCapabilityRepository) query(q string) string {
	if r.dialect == "postgres" {
		return convertToPostgresPlaceholders(q)
	}
	return q
}

func (r *sqlCapabilityRepository) Get(ctx context.Context, id string) (CapabilityRow, error) {
	q := r.query(`SELECT id, embedding, hierarchy_level, success_rate FROM shgat_capabilities WHERE id = ?`)
	var row CapabilityRow
	var blob []byte
	err := r.db.QueryRowContext(ctx, q, id).Scan(&row.ID, &blob, &row.HierarchyLevel, &row.SuccessRate)
	if err == sql.ErrNoRows {
		return CapabilityRow{}, fmt.Errorf("capability %q not found", id)
	}
	if err != nil {
		return CapabilityRow{}, fmt.Errorf("failed to get capability %q: %w", id, err)
	}
	row.Embedding = decodeEmbedding(blob)
	return row, nil
}

func (r *sqlCapabilityRepository) List(ctx context.Context) ([]CapabilityRow, error) {
	q := `SELECT id, embedding, hierarchy_level, success_rate FROM shgat_capabilities ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list capabilities: %w", err)
	}
	defer rows.Close()

	var out []CapabilityRow
	for rows.Next() {
		var row CapabilityRow
		var blob []byte
		if err := rows.Scan(&row.ID, &blob, &row.HierarchyLevel, &row.SuccessRate); err != nil {
			return nil, fmt.Errorf("failed to scan capability row: %w", err)
		}
		row.Embedding = decodeEmbedding(blob)
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *sqlCapabilityRepository) Upsert(ctx context.Context, row CapabilityRow) error {
	if row.ID == "" {
		return fmt.Errorf("capability id must not be empty")
	}
	blob := encodeEmbedding(row.Embedding)

	var q string
	switch r.dialect {
	case "postgres":
		q = `INSERT INTO shgat_capabilities (id, embedding, hierarchy_level, success_rate)
		     VALUES ($1,$2,$3,$4)
		     ON CONFLICT (id) DO UPDATE SET embedding=$2, hierarchy_level=$3, success_rate=$4`
	case "mysql":
		q = `INSERT INTO shgat_capabilities (id, embedding, hierarchy_level, success_rate)
		     VALUES (?,?,?,?)
		     ON DUPLICATE KEY UPDATE embedding=VALUES(embedding), hierarchy_level=VALUES(hierarchy_level), success_rate=VALUES(success_rate)`
	default:
		q = `INSERT INTO shgat_capabilities (id, embedding, hierarchy_level, success_rate)
		     VALUES (?,?,?,?)
		     ON CONFLICT (id) DO UPDATE SET embedding=excluded.embedding, hierarchy_level=excluded.hierarchy_level, success_rate=excluded.success_rate`
	}

	_, err := r.db.ExecContext(ctx, q, row.ID, blob, row.HierarchyLevel, row.SuccessRate)
	if err != nil {
		return fmt.Errorf("failed to upsert capability %q: %w", row.ID, err)
	}
	return nil
}

func (r *sqlCapabilityRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, r.query(`DELETE FROM shgat_capabilities WHERE id = ?`), id); err != nil {
		return fmt.Errorf("failed to delete capability %q: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, r.query(`DELETE FROM shgat_members WHERE parent_id = ?`), id); err != nil {
		return fmt.Errorf("failed to delete members of %q: %w", id, err)
	}
	return tx.Commit()
}

func (r *sqlCapabilityRepository) Members(ctx context.Context, parentID string) ([]MemberRow, error) {
	q := r.query(`SELECT parent_id, child_id, child_kind, ordinal FROM shgat_members WHERE parent_id = ? ORDER BY ordinal`)
	rows, err := r.db.QueryContext(ctx, q, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members of %q: %w", parentID, err)
	}
	defer rows.Close()

	var out []MemberRow
	for rows.Next() {
		var m MemberRow
		var kind string
		if err := rows.Scan(&m.ParentID, &m.ChildID, &kind, &m.Ordinal); err != nil {
			return nil, fmt.Errorf("failed to scan member row: %w", err)
		}
		m.ChildKind = ChildKind(kind)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *sqlCapabilityRepository) SetMembers(ctx context.Context, parentID string, members []MemberRow) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, r.query(`DELETE FROM shgat_members WHERE parent_id = ?`), parentID); err != nil {
		return fmt.Errorf("failed to clear members of %q: %w", parentID, err)
	}

	insertQ := r.query(`INSERT INTO shgat_members (parent_id, child_id, child_kind, ordinal) VALUES (?,?,?,?)`)
	for _, m := range members {
		if _, err := tx.ExecContext(ctx, insertQ, parentID, m.ChildID, string(m.ChildKind), m.Ordinal); err != nil {
			return fmt.Errorf("failed to insert member %q -> %q: %w", parentID, m.ChildID, err)
		}
	}
	return tx.Commit()
}

func (r *sqlCapabilityRepository) Close() error { return r.db.Close() }
