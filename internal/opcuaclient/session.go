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

// Package opcuaclient implements C2: a pooled OPC UA client with a
// node-handle cache, read, and hierarchical browse (spec §4.2), on top
// of github.com/gopcua/opcua.
package opcuaclient

import (
	"context"

	"github.com/neuract/agent/internal/catalog"
)

// NodeHandle is this package's node reference, independent of the
// underlying gopcua node so the rest of the package (cache, browse) can
// be tested without a real server.
type NodeHandle interface {
	NodeID() string
	BrowseName(ctx context.Context) (string, uint16, error)
	NodeClass(ctx context.Context) (string, error)
	Value(ctx context.Context) (interface{}, string, error) // value, data type tag, error
	Children(ctx context.Context) ([]NodeHandle, error)
}

// session is the minimal surface this package needs from a connected
// OPC UA client session.
type session interface {
	Node(nodeID string) (NodeHandle, error)
	Root() NodeHandle
	Close() error
}

// dialFunc opens a new session to endpoint, normalized per spec §4.2.
type dialFunc func(ctx context.Context, endpoint string, auth catalog.AuthType, username, password string, timeoutMs int) (session, error)
