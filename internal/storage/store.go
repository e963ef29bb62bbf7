// Copyright 2026 The Neuract Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/neuract/agent/internal/agenterr"
	"github.com/neuract/agent/internal/catalog"
)

// Store is the process-wide handle onto external storage targets
// (spec §4.3/§6). Create one with NewStore and share it.
type Store struct {
	pool *EnginePool
}

func NewStore() *Store {
	return &Store{pool: NewEnginePool()}
}

// TestConnection dials (or reuses) the engine for target and round
// trips a trivial query, returning (ok, latency_ms, error).
func (s *Store) TestConnection(ctx context.Context, provider catalog.StorageProvider, connectionString string) (bool, int64, string) {
	start := time.Now()
	db, _, err := s.pool.get(ctx, provider, connectionString)
	if err != nil {
		return false, time.Since(start).Milliseconds(), err.Error()
	}
	if _, err := db.ExecContext(ctx, "SELECT 1"); err != nil {
		s.pool.Evict(provider, connectionString)
		return false, time.Since(start).Milliseconds(), err.Error()
	}
	return true, time.Since(start).Milliseconds(), ""
}

// CreateTable ensures the namespace exists (postgres/mssql only) and
// creates tableName with one column per schema field plus
// timestamp_utc, per spec §4.3.
func (s *Store) CreateTable(ctx context.Context, provider catalog.StorageProvider, connectionString, tableName string, columns []catalog.SchemaField) error {
	db, dialect, err := s.pool.get(ctx, provider, connectionString)
	if err != nil {
		return agenterr.Wrap(agenterr.StorageError, "open storage engine", err)
	}
	if err := dialect.EnsureNamespace(ctx, db); err != nil {
		return agenterr.Wrap(agenterr.StorageError, "ensure namespace schema", err)
	}
	if _, err := db.ExecContext(ctx, dialect.CreateTableSQL(tableName, columns)); err != nil {
		return agenterr.Wrap(agenterr.StorageError, fmt.Sprintf("create table %s", tableName), err)
	}
	return nil
}

// DropTable drops tableName if it exists.
func (s *Store) DropTable(ctx context.Context, provider catalog.StorageProvider, connectionString, tableName string) error {
	db, dialect, err := s.pool.get(ctx, provider, connectionString)
	if err != nil {
		return agenterr.Wrap(agenterr.StorageError, "open storage engine", err)
	}
	if _, err := db.ExecContext(ctx, dialect.DropTableSQL(tableName)); err != nil {
		return agenterr.Wrap(agenterr.StorageError, fmt.Sprintf("drop table %s", tableName), err)
	}
	return nil
}

// TableExists reports whether tableName currently exists in the
// target database.
func (s *Store) TableExists(ctx context.Context, provider catalog.StorageProvider, connectionString, tableName string) (bool, error) {
	db, dialect, err := s.pool.get(ctx, provider, connectionString)
	if err != nil {
		return false, agenterr.Wrap(agenterr.StorageError, "open storage engine", err)
	}
	query, args := dialect.TableExistsSQL(tableName)

	var exists interface{}
	if err := db.QueryRowContext(ctx, query, args...).Scan(&exists); err != nil {
		return false, agenterr.Wrap(agenterr.StorageError, "check table existence", err)
	}
	return truthy(exists), nil
}

func truthy(v interface{}) bool {
	switch n := v.(type) {
	case bool:
		return n
	case int64:
		return n != 0
	case int:
		return n != 0
	default:
		return false
	}
}

// DiscoverTables lists every namespaced table already present in the
// target database, with the storage prefix/schema stripped back to
// logical table names.
func (s *Store) DiscoverTables(ctx context.Context, provider catalog.StorageProvider, connectionString string) ([]string, error) {
	db, dialect, err := s.pool.get(ctx, provider, connectionString)
	if err != nil {
		return nil, agenterr.Wrap(agenterr.StorageError, "open storage engine", err)
	}
	query, args := dialect.DiscoverTablesSQL()

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, agenterr.Wrap(agenterr.StorageError, "discover tables", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, agenterr.Wrap(agenterr.StorageError, "scan discovered table name", err)
		}
		names = append(names, dialect.StripPrefix(raw))
	}
	return names, rows.Err()
}

// InsertBatch inserts rows into tableName, injecting timestamp_utc
// when a row omits it and using the first row's key set as the
// column list (spec §4.3). Every row must share that exact key set —
// a mismatched row is a caller error, not something this method
// reconciles. A zero-length rows is a no-op.
func (s *Store) InsertBatch(ctx context.Context, provider catalog.StorageProvider, connectionString, tableName string, rows []map[string]interface{}) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	columns := rowColumns(rows[0])
	for i, row := range rows {
		if !sameColumns(rowColumns(row), columns) {
			return 0, agenterr.New(agenterr.ConfigError, fmt.Sprintf("row %d has a different column set than row 0", i))
		}
	}

	db, dialect, err := s.pool.get(ctx, provider, connectionString)
	if err != nil {
		return 0, agenterr.Wrap(agenterr.StorageError, "open storage engine", err)
	}

	insertSQL := dialect.InsertSQL(tableName, columns)
	now := time.Now().UTC()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, agenterr.Wrap(agenterr.StorageError, "begin batch transaction", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return 0, agenterr.Wrap(agenterr.StorageError, "prepare insert", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		args := make([]interface{}, len(columns))
		for i, col := range columns {
			if col == "timestamp_utc" {
				if v, ok := row[col]; ok {
					args[i] = v
				} else {
					args[i] = now
				}
				continue
			}
			args[i] = row[col]
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, agenterr.Wrap(agenterr.StorageError, fmt.Sprintf("insert into %s", tableName), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, agenterr.Wrap(agenterr.StorageError, "commit batch transaction", err)
	}
	return len(rows), nil
}

func rowColumns(row map[string]interface{}) []string {
	cols := make([]string, 0, len(row)+1)
	for k := range row {
		if k == "timestamp_utc" {
			continue
		}
		cols = append(cols, k)
	}
	sortStrings(cols)
	return append([]string{"timestamp_utc"}, cols...)
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
