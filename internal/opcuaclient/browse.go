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

	"github.com/neuract/agent/internal/agenterr"
	"github.com/neuract/agent/internal/catalog"
)

// BrowseResult is one node discovered under a browse root (spec §4.2).
type BrowseResult struct {
	NodeID         string
	BrowseName     string
	NamespaceIndex uint16
	NodeClass      string
	Value          interface{}
	DataType       string
}

const defaultMaxDepth = 5
const variableNodeClass = "Variable"

// Browse walks the hierarchy under rootNodeID up to maxDepth levels
// (spec §4.2: "hierarchical node browsing with depth limit and
// per-subtree failure swallowing" — a child that fails to expand is
// skipped rather than aborting the whole browse).
func (c *Client) Browse(ctx context.Context, endpoint, rootNodeID string, auth catalog.AuthType, username, password string, timeoutMs, maxDepth int) ([]BrowseResult, error) {
	if maxDepth <= 0 {
		maxDepth = defaultMaxDepth
	}

	ps, err := c.pool.get(ctx, endpoint, auth, username, password, timeoutMs)
	if err != nil {
		return nil, agenterr.Wrap(agenterr.TransportError, "open opcua session", err)
	}

	var root NodeHandle
	if rootNodeID == "" {
		root = ps.session.Root()
	} else {
		root, err = ps.node(rootNodeID)
		if err != nil {
			c.pool.Evict(endpoint)
			return nil, agenterr.Wrap(agenterr.TransportError, "resolve opcua browse root", err)
		}
	}

	var out []BrowseResult
	walk(ctx, root, maxDepth, &out)
	return out, nil
}

// walk recurses into node's children, appending one BrowseResult per
// node visited and swallowing any error from an individual subtree so
// one unreadable branch does not fail the whole browse.
func walk(ctx context.Context, node NodeHandle, depthRemaining int, out *[]BrowseResult) {
	name, ns, err := node.BrowseName(ctx)
	if err != nil {
		return
	}
	class, err := node.NodeClass(ctx)
	if err != nil {
		class = ""
	}

	result := BrowseResult{
		NodeID:         node.NodeID(),
		BrowseName:     name,
		NamespaceIndex: ns,
		NodeClass:      class,
	}
	if class == variableNodeClass {
		if v, dt, err := node.Value(ctx); err == nil {
			result.Value = v
			result.DataType = dt
		}
	}
	*out = append(*out, result)

	if depthRemaining <= 0 {
		return
	}

	children, err := node.Children(ctx)
	if err != nil {
		return
	}
	for _, child := range children {
		walk(ctx, child, depthRemaining-1, out)
	}
}
