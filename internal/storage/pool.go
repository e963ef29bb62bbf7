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
	"sync"
	"time"

	"github.com/neuract/agent/internal/catalog"
)

// Pool sizing mirrors a SQLAlchemy QueuePool(pool_size=5,
// max_overflow=10, pool_pre_ping=True), spec §6.
const (
	poolSize        = 5
	poolMaxOverflow = 10
	connMaxLifetime = 30 * time.Minute
)

type engineKey struct {
	provider         catalog.StorageProvider
	connectionString string
}

// EnginePool is a process-wide registry of *sql.DB handles keyed by
// (provider, connection_string), spec §9.
type EnginePool struct {
	mu      sync.Mutex
	engines map[engineKey]*sql.DB
	open    func(driverName, dsn string) (*sql.DB, error)
}

func NewEnginePool() *EnginePool {
	return &EnginePool{
		engines: make(map[engineKey]*sql.DB),
		open:    sql.Open,
	}
}

func (p *EnginePool) get(ctx context.Context, provider catalog.StorageProvider, connectionString string) (*sql.DB, Dialect, error) {
	dialect, err := dialectFor(provider)
	if err != nil {
		return nil, nil, err
	}

	key := engineKey{provider, connectionString}

	p.mu.Lock()
	db, ok := p.engines[key]
	p.mu.Unlock()
	if ok {
		if err := db.PingContext(ctx); err != nil {
			p.Evict(provider, connectionString)
		} else {
			return db, dialect, nil
		}
	}

	db, err = p.open(dialect.DriverName(), dialect.BuildDSN(connectionString))
	if err != nil {
		return nil, nil, fmt.Errorf("open %s engine: %w", provider, err)
	}
	db.SetMaxOpenConns(poolSize + poolMaxOverflow)
	db.SetMaxIdleConns(poolSize)
	db.SetConnMaxLifetime(connMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping %s engine: %w", provider, err)
	}

	p.mu.Lock()
	if existing, ok := p.engines[key]; ok {
		p.mu.Unlock()
		_ = db.Close()
		return existing, dialect, nil
	}
	p.engines[key] = db
	p.mu.Unlock()

	return db, dialect, nil
}

// Evict closes and removes the pooled engine for (provider,
// connection_string).
func (p *EnginePool) Evict(provider catalog.StorageProvider, connectionString string) {
	key := engineKey{provider, connectionString}

	p.mu.Lock()
	db, ok := p.engines[key]
	delete(p.engines, key)
	p.mu.Unlock()

	if ok {
		_ = db.Close()
	}
}

// Size reports the number of pooled engines, for tests/diagnostics.
func (p *EnginePool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.engines)
}
