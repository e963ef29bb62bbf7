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

const mysqlPrefix = namespace + "__"

type mysqlDialect struct{}

func (mysqlDialect) DriverName() string { return "mysql" }

// BuildDSN accepts a go-sql-driver/mysql style DSN, stripping a
// mysql:// scheme prefix if present, per spec §6.
func (mysqlDialect) BuildDSN(connectionString string) string {
	return strings.TrimPrefix(connectionString, "mysql://")
}

func (mysqlDialect) QualifiedTable(tableName string) string {
	return mysqlPrefix + tableName
}

func (mysqlDialect) EnsureNamespace(ctx context.Context, db *sql.DB) error {
	return nil
}

func (mysqlDialect) ColumnType(ft catalog.FieldType) string {
	return columnTypeCommon(ft, "BOOLEAN", "BIGINT", "DOUBLE", "VARCHAR(255)")
}

func (d mysqlDialect) CreateTableSQL(tableName string, columns []catalog.SchemaField) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (timestamp_utc DATETIME NOT NULL", d.QualifiedTable(tableName))
	for _, c := range columns {
		fmt.Fprintf(&b, ", %s %s", c.Key, d.ColumnType(c.FieldType))
	}
	b.WriteString(")")
	return b.String()
}

func (d mysqlDialect) DropTableSQL(tableName string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", d.QualifiedTable(tableName))
}

func (mysqlDialect) TableExistsSQL(tableName string) (string, []interface{}) {
	return "SELECT COUNT(*) FROM information_schema.tables WHERE table_name = ?",
		[]interface{}{mysqlPrefix + tableName}
}

func (mysqlDialect) DiscoverTablesSQL() (string, []interface{}) {
	return "SELECT table_name FROM information_schema.tables WHERE table_name LIKE ?",
		[]interface{}{mysqlPrefix + "%"}
}

func (mysqlDialect) StripPrefix(raw string) string {
	return stripPrefix(raw, mysqlPrefix)
}

func (d mysqlDialect) InsertSQL(tableName string, columns []string) string {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(columns)), ",")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", d.QualifiedTable(tableName), strings.Join(columns, ", "), placeholders)
}
