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

type postgresDialect struct{}

func (postgresDialect) DriverName() string { return "pgx" }

// BuildDSN accepts either a full postgresql:// URL or a bare
// host:port/db?user=...&password=... string, per spec §6.
func (postgresDialect) BuildDSN(connectionString string) string {
	if strings.HasPrefix(connectionString, "postgres://") || strings.HasPrefix(connectionString, "postgresql://") {
		return connectionString
	}
	return "postgresql://" + connectionString
}

func (postgresDialect) QualifiedTable(tableName string) string {
	return namespace + "." + tableName
}

func (postgresDialect) EnsureNamespace(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", namespace))
	return err
}

func (postgresDialect) ColumnType(ft catalog.FieldType) string {
	return columnTypeCommon(ft, "BOOLEAN", "BIGINT", "DOUBLE PRECISION", "VARCHAR(255)")
}

func (d postgresDialect) CreateTableSQL(tableName string, columns []catalog.SchemaField) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (timestamp_utc TIMESTAMP NOT NULL", d.QualifiedTable(tableName))
	for _, c := range columns {
		fmt.Fprintf(&b, ", %s %s", c.Key, d.ColumnType(c.FieldType))
	}
	b.WriteString(")")
	return b.String()
}

func (d postgresDialect) DropTableSQL(tableName string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", d.QualifiedTable(tableName))
}

func (postgresDialect) TableExistsSQL(tableName string) (string, []interface{}) {
	return `SELECT EXISTS (
		SELECT FROM information_schema.tables
		WHERE table_schema = $1 AND table_name = $2
	)`, []interface{}{namespace, tableName}
}

func (postgresDialect) DiscoverTablesSQL() (string, []interface{}) {
	return "SELECT table_name FROM information_schema.tables WHERE table_schema = $1", []interface{}{namespace}
}

func (postgresDialect) StripPrefix(raw string) string {
	return raw
}

func (d postgresDialect) InsertSQL(tableName string, columns []string) string {
	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", d.QualifiedTable(tableName), strings.Join(columns, ", "), strings.Join(placeholders, ", "))
}
