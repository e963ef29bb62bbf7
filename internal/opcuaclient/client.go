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
	"time"

	"github.com/neuract/agent/internal/agenterr"
	"github.com/neuract/agent/internal/catalog"
)

// ReadRequest describes one typed read (spec §4.2).
type ReadRequest struct {
	Endpoint  string
	NodeID    string
	DataType  catalog.FieldType
	Auth      catalog.AuthType
	Username  string
	Password  string
	Scale     float64
	TimeoutMs int
}

// Client is the process-wide OPC UA client handle (spec §9,
// "process-wide pools as singletons"). Create one with NewClient and
// share it.
type Client struct {
	pool *Pool
}

func NewClient() *Client {
	return &Client{pool: NewPool()}
}

// Read opens (or reuses) a session to req.Endpoint, resolves req.NodeID
// (via the session's node cache) and reads its current value, applying
// Scale to numeric results per spec §4.2.
func (c *Client) Read(ctx context.Context, req ReadRequest) (interface{}, error) {
	ps, err := c.pool.get(ctx, req.Endpoint, req.Auth, req.Username, req.Password, req.TimeoutMs)
	if err != nil {
		return nil, agenterr.Wrap(agenterr.TransportError, "open opcua session", err)
	}

	nh, err := ps.node(req.NodeID)
	if err != nil {
		c.pool.Evict(req.Endpoint)
		return nil, agenterr.Wrap(agenterr.TransportError, "resolve opcua node", err)
	}

	raw, _, err := nh.Value(ctx)
	if err != nil {
		c.pool.Evict(req.Endpoint)
		return nil, agenterr.Wrap(agenterr.TransportError, "read opcua node value", err)
	}

	return applyScale(raw, req.DataType, req.Scale), nil
}

// applyScale multiplies numeric reads by scale (default 1.0) and
// leaves bool/string values untouched, per spec §4.2.
func applyScale(raw interface{}, dataType catalog.FieldType, scale float64) interface{} {
	if scale == 0 {
		scale = 1.0
	}
	switch dataType {
	case catalog.FieldInt:
		if v, ok := toInt64(raw); ok {
			return int64(float64(v) * scale)
		}
		return raw
	case catalog.FieldFloat:
		if v, ok := toFloat64(raw); ok {
			return v * scale
		}
		return raw
	default:
		return raw
	}
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int16:
		return int64(n), true
	case int:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	default:
		return 0, false
	}
}

func toFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		if i, ok := toInt64(v); ok {
			return float64(i), true
		}
		return 0, false
	}
}

// Test opens a session to endpoint and, if nodeID is non-empty, reads
// it once; it returns ok/latency/error/value per spec §4.2.
func (c *Client) Test(ctx context.Context, endpoint, nodeID string, auth catalog.AuthType, username, password string, timeoutMs int) (ok bool, latencyMs int64, value interface{}, errMsg string) {
	start := time.Now()

	ps, err := c.pool.get(ctx, endpoint, auth, username, password, timeoutMs)
	if err != nil {
		return false, time.Since(start).Milliseconds(), nil, err.Error()
	}

	if nodeID == "" {
		return true, time.Since(start).Milliseconds(), nil, ""
	}

	nh, err := ps.node(nodeID)
	if err != nil {
		c.pool.Evict(endpoint)
		return false, time.Since(start).Milliseconds(), nil, err.Error()
	}

	v, _, err := nh.Value(ctx)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		c.pool.Evict(endpoint)
		return false, latency, nil, err.Error()
	}
	return true, latency, v, ""
}
