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
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/smartystreets/goconvey/convey"

	"github.com/neuract/agent/internal/catalog"
)

// fakeNode is an in-memory NodeHandle for tests.
type fakeNode struct {
	id       string
	name     string
	ns       uint16
	class    string
	value    interface{}
	dataType string
	children []NodeHandle
	failNext int
}

func (n *fakeNode) NodeID() string { return n.id }

func (n *fakeNode) BrowseName(ctx context.Context) (string, uint16, error) {
	if n.failNext > 0 {
		n.failNext--
		return "", 0, errors.New("simulated browse error")
	}
	return n.name, n.ns, nil
}

func (n *fakeNode) NodeClass(ctx context.Context) (string, error) {
	return n.class, nil
}

func (n *fakeNode) Value(ctx context.Context) (interface{}, string, error) {
	if n.value == nil {
		return nil, "", errors.New("no value")
	}
	return n.value, n.dataType, nil
}

func (n *fakeNode) Children(ctx context.Context) ([]NodeHandle, error) {
	return n.children, nil
}

// fakeSession is an in-memory session for tests, keyed by node id.
type fakeSession struct {
	nodes  map[string]NodeHandle
	root   NodeHandle
	closed bool
}

func (s *fakeSession) Node(nodeID string) (NodeHandle, error) {
	if nh, ok := s.nodes[nodeID]; ok {
		return nh, nil
	}
	return nil, errors.New("unknown node " + nodeID)
}

func (s *fakeSession) Root() NodeHandle { return s.root }

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

func newTestClient(dialCount *int, fs *fakeSession) *Client {
	c := NewClient()
	c.pool.dial = func(ctx context.Context, endpoint string, auth catalog.AuthType, username, password string, timeoutMs int) (session, error) {
		*dialCount++
		return fs, nil
	}
	return c
}

func TestReadAppliesScale(t *testing.T) {
	fs := &fakeSession{nodes: map[string]NodeHandle{
		"ns=2;i=10": &fakeNode{id: "ns=2;i=10", name: "Temperature", class: variableNodeClass, value: float32(23.0), dataType: "Float"},
	}}
	var dials int
	c := newTestClient(&dials, fs)

	v, err := c.Read(context.Background(), ReadRequest{
		Endpoint: "opc.tcp://10.0.0.5:4840", NodeID: "ns=2;i=10",
		DataType: catalog.FieldFloat, Scale: 2.0,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	convey.Convey("scale is applied and the dial is pooled", t, func() {
		convey.So(v.(float64), convey.ShouldEqual, 46.0)
		convey.So(dials, convey.ShouldEqual, 1)
	})
}

func TestReadReusesPooledSession(t *testing.T) {
	fs := &fakeSession{nodes: map[string]NodeHandle{
		"ns=2;i=11": &fakeNode{id: "ns=2;i=11", name: "Running", class: variableNodeClass, value: true, dataType: "Boolean"},
	}}
	var dials int
	c := newTestClient(&dials, fs)

	req := ReadRequest{Endpoint: "opc.tcp://10.0.0.5:4840", NodeID: "ns=2;i=11", DataType: catalog.FieldBool}
	if _, err := c.Read(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Read(context.Background(), req); err != nil {
		t.Fatal(err)
	}

	convey.Convey("the second read reuses the pooled session", t, func() {
		convey.So(dials, convey.ShouldEqual, 1)
	})
}

func TestNormalizeEndpointRewritesWildcard(t *testing.T) {
	got := normalizeEndpoint("opc.tcp://0.0.0.0:4840")
	convey.Convey("the 0.0.0.0 wildcard is rewritten to loopback", t, func() {
		convey.So(got, convey.ShouldEqual, "opc.tcp://127.0.0.1:4840")
	})
}

func TestBrowseSwallowsSubtreeFailure(t *testing.T) {
	leafOK := &fakeNode{id: "ns=2;i=21", name: "Good", class: variableNodeClass, value: int32(1), dataType: "Int32"}
	leafFail := &fakeNode{id: "ns=2;i=22", name: "", class: variableNodeClass, failNext: 1}
	root := &fakeNode{id: "ns=0;i=85", name: "Objects", class: "Object", children: []NodeHandle{leafOK, leafFail}}

	fs := &fakeSession{root: root}
	var dials int
	c := newTestClient(&dials, fs)

	results, err := c.Browse(context.Background(), "opc.tcp://10.0.0.5:4840", "", catalog.AuthAnonymous, "", "", 0, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var good *BrowseResult
	var sawFailed bool
	for i, r := range results {
		if r.NodeID == "ns=2;i=21" {
			good = &results[i]
		}
		if r.NodeID == "ns=2;i=22" {
			sawFailed = true
		}
	}

	want := BrowseResult{NodeID: "ns=2;i=21", BrowseName: "Good", NamespaceIndex: 0, NodeClass: variableNodeClass, Value: int32(1), DataType: "Int32"}

	convey.Convey("the failed subtree is swallowed and the healthy leaf survives", t, func() {
		convey.So(sawFailed, convey.ShouldBeFalse)
		convey.So(good, convey.ShouldNotBeNil)
		if diff := cmp.Diff(want, *good); diff != "" {
			t.Errorf("browse result mismatch (-want +got):\n%s", diff)
		}
	})
}
