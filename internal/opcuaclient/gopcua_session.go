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
	"time"

	"github.com/gopcua/opcua"
	"github.com/gopcua/opcua/ua"
	"github.com/neuract/agent/internal/catalog"
)

// gopcuaSession adapts a connected *opcua.Client to the session interface.
type gopcuaSession struct {
	client *opcua.Client
}

func dialGopcua(ctx context.Context, endpoint string, auth catalog.AuthType, username, password string, timeoutMs int) (session, error) {
	opts := []opcua.Option{
		opcua.SecurityMode(ua.MessageSecurityModeNone),
	}
	if timeoutMs > 0 {
		opts = append(opts, opcua.RequestTimeout(time.Duration(timeoutMs)*time.Millisecond))
	}
	if auth == catalog.AuthUserPassword && username != "" {
		opts = append(opts, opcua.AuthUsername(username, password))
	} else {
		opts = append(opts, opcua.AuthAnonymous())
	}

	c, err := opcua.NewClient(endpoint, opts...)
	if err != nil {
		return nil, err
	}
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}
	return &gopcuaSession{client: c}, nil
}

func (s *gopcuaSession) Close() error {
	return s.client.Close(context.Background())
}

func (s *gopcuaSession) Node(nodeID string) (NodeHandle, error) {
	id, err := ua.ParseNodeID(nodeID)
	if err != nil {
		return nil, fmt.Errorf("parse node id %q: %w", nodeID, err)
	}
	return &gopcuaNode{node: s.client.Node(id)}, nil
}

func (s *gopcuaSession) Root() NodeHandle {
	return &gopcuaNode{node: s.client.Node(ua.NewTwoByteNodeID(ua.ObjectIDRootFolder))}
}

type gopcuaNode struct {
	node *opcua.Node
}

func (n *gopcuaNode) NodeID() string {
	return n.node.ID.String()
}

func (n *gopcuaNode) BrowseName(ctx context.Context) (string, uint16, error) {
	bn, err := n.node.BrowseName(ctx)
	if err != nil {
		return "", 0, err
	}
	return bn.Name, bn.NamespaceIndex, nil
}

func (n *gopcuaNode) NodeClass(ctx context.Context) (string, error) {
	nc, err := n.node.NodeClass(ctx)
	if err != nil {
		return "", err
	}
	return nc.String(), nil
}

func (n *gopcuaNode) Value(ctx context.Context) (interface{}, string, error) {
	v, err := n.node.Value(ctx)
	if err != nil {
		return nil, "", err
	}
	if v == nil {
		return nil, "", nil
	}
	return v.Value(), v.Type().String(), nil
}

func (n *gopcuaNode) Children(ctx context.Context) ([]NodeHandle, error) {
	refs, err := n.node.Children(ctx, 0, ua.NodeClassAll)
	if err != nil {
		return nil, err
	}
	out := make([]NodeHandle, 0, len(refs))
	for _, r := range refs {
		out = append(out, &gopcuaNode{node: r})
	}
	return out, nil
}
