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

package opcuaclient

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/neuract/agent/internal/catalog"
)

// normalizeEndpoint rewrites a 0.0.0.0 bind address to a dialable
// loopback address, per spec §4.2.
func normalizeEndpoint(endpoint string) string {
	return strings.Replace(endpoint, "//0.0.0.0:", "//127.0.0.1:", 1)
}

type nodeKey struct {
	endpoint string
	nodeID   string
}

// pooledSession owns one connected session plus the node-handle cache
// for that endpoint, guarded by mu so concurrent reads/browses on the
// same session serialize.
type pooledSession struct {
	mu      sync.Mutex
	session session
	nodes   map[string]NodeHandle
}

func (ps *pooledSession) node(nodeID string) (NodeHandle, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if nh, ok := ps.nodes[nodeID]; ok {
		return nh, nil
	}
	nh, err := ps.session.Node(nodeID)
	if err != nil {
		return nil, err
	}
	ps.nodes[nodeID] = nh
	return nh, nil
}

// Pool is a process-wide registry of OPC UA sessions keyed by
// normalized endpoint (spec §9, "process-wide pools as singletons").
type Pool struct {
	mu       sync.Mutex
	sessions map[string]*pooledSession
	dial     dialFunc
}

func NewPool() *Pool {
	return &Pool{
		sessions: make(map[string]*pooledSession),
		dial:     dialGopcua,
	}
}

// get returns the pooled session for endpoint, opening a fresh one if
// none exists. Callers evict via Evict() after an I/O error.
func (p *Pool) get(ctx context.Context, endpoint string, auth catalog.AuthType, username, password string, timeoutMs int) (*pooledSession, error) {
	endpoint = normalizeEndpoint(endpoint)

	p.mu.Lock()
	ps, ok := p.sessions[endpoint]
	p.mu.Unlock()
	if ok {
		return ps, nil
	}

	s, err := p.dial(ctx, endpoint, auth, username, password, timeoutMs)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}

	ps = &pooledSession{session: s, nodes: make(map[string]NodeHandle)}

	p.mu.Lock()
	if existing, ok := p.sessions[endpoint]; ok {
		p.mu.Unlock()
		_ = s.Close()
		return existing, nil
	}
	p.sessions[endpoint] = ps
	p.mu.Unlock()

	return ps, nil
}

// Evict closes and removes the pooled session for endpoint, forcing
// the next call to reconnect and rebuild the node cache.
func (p *Pool) Evict(endpoint string) {
	endpoint = normalizeEndpoint(endpoint)

	p.mu.Lock()
	ps, ok := p.sessions[endpoint]
	delete(p.sessions, endpoint)
	p.mu.Unlock()

	if ok {
		ps.mu.Lock()
		_ = ps.session.Close()
		ps.mu.Unlock()
	}
}

// Size reports the number of pooled sessions, for tests/diagnostics.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sessions)
}
