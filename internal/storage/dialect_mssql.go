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

type mssqlDialect struct{}

func (mssqlDialect) DriverName() string { return "sqlserver" }

// BuildDSN accepts a sqlserver:// URL or a bare host:port/db-style
// string, per spec §6.
func (mssqlDialect) BuildDSN(connectionString string) string {
	if strings.HasPrefix(connectionString, "sqlserver://") {
		return connectionString
	}
	return "sqlserver://" + connectionString
}

func (mssqlDialect) QualifiedTable(tableName string) string {
	return namespace + "." + tableName
}

func (mssqlDialect) EnsureNamespace(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf(`
		IF NOT EXISTS (SELECT * FROM sys.schemas WHERE name = '%s')
		BEGIN EXEC('CREATE SCHEMA %s') END
	`, namespace, namespace))
	return err
}

func (mssqlDialect) ColumnType(ft catalog.FieldType) string {
	return columnTypeCommon(ft, "BIT", "BIGINT", "FLOAT", "NVARCHAR(255)")
}

func (d mssqlDialect) CreateTableSQL(tableName string, columns []catalog.SchemaField) string {
	var b strings.Builder
	fmt.Fprintf(&b, `IF NOT EXISTS (SELECT * FROM sys.tables t JOIN sys.schemas s ON t.schema_id = s.schema_id WHERE s.name = '%s' AND t.name = '%s')
	CREATE TABLE %s (timestamp_utc DATETIME2 NOT NULL`, namespace, tableName, d.QualifiedTable(tableName))
	for _, c := range columns {
		fmt.Fprintf(&b, ", %s %s", c.Key, d.ColumnType(c.FieldType))
	}
	b.WriteString(")")
	return b.String()
}

func (d mssqlDialect) DropTableSQL(tableName string) string {
	return fmt.Sprintf("IF OBJECT_ID('%s', 'U') IS NOT NULL DROP TABLE %s", d.QualifiedTable(tableName), d.QualifiedTable(tableName))
}

func (mssqlDialect) TableExistsSQL(tableName string) (string, []interface{}) {
	return `SELECT CASE WHEN EXISTS (
		SELECT * FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = @p1 AND TABLE_NAME = @p2
	) THEN 1 ELSE 0 END`, []interface{}{namespace, tableName}
}

func (mssqlDialect) DiscoverTablesSQL() (string, []interface{}) {
	return "SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = @p1", []interface{}{namespace}
}

func (mssqlDialect) StripPrefix(raw string) string {
	return raw
}

func (d mssqlDialect) InsertSQL(tableName string, columns []string) string {
	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("@p%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", d.QualifiedTable(tableName), strings.Join(columns, ", "), strings.Join(placeholders, ", "))
}
