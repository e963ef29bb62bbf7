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

// Package modbusclient implements C1: a pooled Modbus/TCP client with
// the address-convention parser, byte-order/type codecs and
// evict-on-failure reconnect described in spec §4.1.
package modbusclient

import (
	"fmt"
	"sync"
	"time"
)

type poolKey struct {
	host string
	port int
}

// pooledClient owns one transport plus the mutex that serializes all
// readers of that (host,port), per spec §5.
type pooledClient struct {
	mu        sync.Mutex
	transport transport
}

// Pool is a process-wide registry of Modbus clients keyed by (host,port).
// The zero value is not usable; use NewPool.
type Pool struct {
	mu      sync.Mutex
	clients map[poolKey]*pooledClient
	dial    func(host string, port int, timeout time.Duration) (transport, error)
}

func NewPool() *Pool {
	return &Pool{
		clients: make(map[poolKey]*pooledClient),
		dial: func(host string, port int, timeout time.Duration) (transport, error) {
			return dialTCP(host, port, timeout)
		},
	}
}

// get returns the pooled client for (host,port), dialing a fresh one if
// none exists yet. It does not evict on dial failure by itself; callers
// evict via Evict() after an I/O error.
func (p *Pool) get(host string, port int, timeout time.Duration) (*pooledClient, error) {
	key := poolKey{host, port}

	p.mu.Lock()
	pc, ok := p.clients[key]
	p.mu.Unlock()
	if ok {
		return pc, nil
	}

	tr, err := p.dial(host, port, timeout)
	if err != nil {
		return nil, fmt.Errorf("dial %s:%d: %w", host, port, err)
	}

	pc = &pooledClient{transport: tr}

	p.mu.Lock()
	if existing, ok := p.clients[key]; ok {
		p.mu.Unlock()
		_ = tr.Close()
		return existing, nil
	}
	p.clients[key] = pc
	p.mu.Unlock()

	return pc, nil
}

// Evict closes and removes the pooled client for (host,port), forcing
// the next Read/Test call to reconnect.
func (p *Pool) Evict(host string, port int) {
	key := poolKey{host, port}

	p.mu.Lock()
	pc, ok := p.clients[key]
	delete(p.clients, key)
	p.mu.Unlock()

	if ok {
		pc.mu.Lock()
		_ = pc.transport.Close()
		pc.mu.Unlock()
	}
}

// Size reports the number of pooled connections, for tests/diagnostics.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.clients)
}
