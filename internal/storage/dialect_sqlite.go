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
	"database/sql"
	"fmt"
	"strings"

	"github.com/neuract/agent/internal/catalog"
)

const sqlitePrefix = namespace + "__"

type sqliteDialect struct{}

func (sqliteDialect) DriverName() string { return "sqlite" }

// BuildDSN treats connection_string as the database file path, per
// spec §6.
func (sqliteDialect) BuildDSN(connectionString string) string {
	return connectionString
}

func (sqliteDialect) QualifiedTable(tableName string) string {
	return sqlitePrefix + tableName
}

func (sqliteDialect) EnsureNamespace(ctx context.Context, db *sql.DB) error {
	return nil
}

func (sqliteDialect) ColumnType(ft catalog.FieldType) string {
	return columnTypeCommon(ft, "BOOLEAN", "INTEGER", "REAL", "TEXT")
}

func (d sqliteDialect) CreateTableSQL(tableName string, columns []catalog.SchemaField) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (timestamp_utc DATETIME NOT NULL", d.QualifiedTable(tableName))
	for _, c := range columns {
		fmt.Fprintf(&b, ", %s %s", c.Key, d.ColumnType(c.FieldType))
	}
	b.WriteString(")")
	return b.String()
}

func (d sqliteDialect) DropTableSQL(tableName string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", d.QualifiedTable(tableName))
}

func (d sqliteDialect) TableExistsSQL(tableName string) (string, []interface{}) {
	return "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?",
		[]interface{}{d.QualifiedTable(tableName)}
}

func (sqliteDialect) DiscoverTablesSQL() (string, []interface{}) {
	return "SELECT name FROM sqlite_master WHERE type='table' AND name LIKE ?",
		[]interface{}{sqlitePrefix + "%"}
}

func (sqliteDialect) StripPrefix(raw string) string {
	return stripPrefix(raw, sqlitePrefix)
}

func (d sqliteDialect) InsertSQL(tableName string, columns []string) string {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(columns)), ",")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", d.QualifiedTable(tableName), strings.Join(columns, ", "), placeholders)
}
