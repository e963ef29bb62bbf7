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

// Package storage implements C3: dynamic DDL, namespacing and batched
// writes across the four supported external database providers (spec
// §6), on top of database/sql with one driver per provider.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/neuract/agent/internal/catalog"
)

// namespace is the logical schema name every dynamically created
// table lives under.
const namespace = "neuract"

// Dialect hides the provider-specific SQL and naming rules behind one
// interface so the rest of the package works in terms of logical
// table names.
type Dialect interface {
	// DriverName is the database/sql driver to Open with.
	DriverName() string

	// BuildDSN turns a provider-specific connection string into a
	// driver-ready data source name.
	BuildDSN(connectionString string) string

	// QualifiedTable returns the full, provider-correct identifier for
	// a logical table name.
	QualifiedTable(tableName string) string

	// EnsureNamespace creates the namespace schema if the provider
	// uses a real schema (postgres/mssql); a no-op otherwise.
	EnsureNamespace(ctx context.Context, db *sql.DB) error

	// ColumnType maps a field type to the provider's column type.
	ColumnType(ft catalog.FieldType) string

	// CreateTableSQL returns the DDL to create tableName with columns.
	CreateTableSQL(tableName string, columns []catalog.SchemaField) string

	// DropTableSQL returns the DDL to drop tableName.
	DropTableSQL(tableName string) string

	// TableExistsSQL returns a query returning one row with one column
	// that is truthy iff tableName exists.
	TableExistsSQL(tableName string) (query string, args []interface{})

	// DiscoverTablesSQL returns a query listing every namespaced table
	// name (with namespace prefix/schema applied, to be stripped by
	// the caller via StripPrefix).
	DiscoverTablesSQL() (query string, args []interface{})

	// StripPrefix removes the dialect's storage-level prefix from a
	// discovered raw table name, returning the logical name.
	StripPrefix(raw string) string

	// InsertSQL returns parameterized INSERT DDL for tableName with
	// the given ordered column list, using the dialect's placeholder
	// style.
	InsertSQL(tableName string, columns []string) string
}

func dialectFor(provider catalog.StorageProvider) (Dialect, error) {
	switch provider {
	case catalog.ProviderSQLite:
		return sqliteDialect{}, nil
	case catalog.ProviderPostgres:
		return postgresDialect{}, nil
	case catalog.ProviderMySQL:
		return mysqlDialect{}, nil
	case catalog.ProviderMSSQL:
		return mssqlDialect{}, nil
	default:
		return nil, fmt.Errorf("unknown storage provider %q", provider)
	}
}

func columnTypeCommon(ft catalog.FieldType, bool_, int_, float_, string_ string) string {
	switch ft {
	case catalog.FieldBool:
		return bool_
	case catalog.FieldInt:
		return int_
	case catalog.FieldString:
		return string_
	default:
		return float_
	}
}

func stripPrefix(raw, prefix string) string {
	if strings.HasPrefix(raw, prefix) {
		return raw[len(prefix):]
	}
	return raw
}
