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
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/smartystreets/goconvey/convey"

	"github.com/neuract/agent/internal/catalog"
)

func newTestStore(t *testing.T) (*Store, sqlmock.Sqlmock, catalog.StorageProvider, string) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	mock.ExpectPing()

	s := &Store{pool: &EnginePool{
		engines: make(map[engineKey]*sql.DB),
		open: func(driverName, dsn string) (*sql.DB, error) {
			return db, nil
		},
	}}
	return s, mock, catalog.ProviderSQLite, "test.db"
}

func TestCreateTableIssuesExpectedDDL(t *testing.T) {
	s, mock, provider, conn := newTestStore(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS neuract__readings").WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.CreateTable(context.Background(), provider, conn, "readings", []catalog.SchemaField{
		{Key: "temperature", FieldType: catalog.FieldFloat},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	convey.Convey("CreateTable issues the expected DDL", t, func() {
		convey.So(mock.ExpectationsWereMet(), convey.ShouldBeNil)
	})
}

func TestInsertBatchNoRowsIsNoop(t *testing.T) {
	s, _, provider, conn := newTestStore(t)
	n, err := s.InsertBatch(context.Background(), provider, conn, "readings", nil)

	convey.Convey("an empty batch is a no-op", t, func() {
		convey.So(err, convey.ShouldBeNil)
		convey.So(n, convey.ShouldEqual, 0)
	})
}

func TestInsertBatchMismatchedRowsIsCallerError(t *testing.T) {
	s, mock, provider, conn := newTestStore(t)
	mock.MatchExpectationsInOrder(false)

	rows := []map[string]interface{}{
		{"temperature": 1.0},
		{"pressure": 2.0},
	}
	_, err := s.InsertBatch(context.Background(), provider, conn, "readings", rows)

	convey.Convey("a batch whose rows don't share a column set is a caller error", t, func() {
		convey.So(err, convey.ShouldNotBeNil)
	})
}

func TestInsertBatchInsertsEachRow(t *testing.T) {
	s, mock, provider, conn := newTestStore(t)
	mock.ExpectBegin()
	mock.ExpectPrepare("INSERT INTO neuract__readings")
	mock.ExpectExec("INSERT INTO neuract__readings").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO neuract__readings").WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	rows := []map[string]interface{}{
		{"temperature": 20.5},
		{"temperature": 21.0},
	}
	n, err := s.InsertBatch(context.Background(), provider, conn, "readings", rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	convey.Convey("InsertBatch writes every row in one transaction", t, func() {
		convey.So(n, convey.ShouldEqual, 2)
		convey.So(mock.ExpectationsWereMet(), convey.ShouldBeNil)
	})
}

func TestTableExistsSqlite(t *testing.T) {
	s, mock, provider, conn := newTestStore(t)
	rows := sqlmock.NewRows([]string{"count"}).AddRow(1)
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM sqlite_master").WillReturnRows(rows)

	exists, err := s.TableExists(context.Background(), provider, conn, "readings")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	convey.Convey("TableExists reports a present table", t, func() {
		convey.So(exists, convey.ShouldBeTrue)
	})
}
