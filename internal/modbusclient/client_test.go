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

package modbusclient

import (
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/neuract/agent/internal/catalog"
)

// fakeTransport simulates a Modbus/TCP connection for tests, with a
// switch to fail the next N calls (to exercise eviction/reconnect).
type fakeTransport struct {
	slaveID   byte
	failNext  int
	dialCount *int
	closed    bool
}

func (f *fakeTransport) SetSlaveID(id byte) { f.slaveID = id }

func (f *fakeTransport) maybeFail() error {
	if f.failNext > 0 {
		f.failNext--
		return errors.New("simulated i/o error")
	}
	return nil
}

func (f *fakeTransport) ReadCoils(address, quantity uint16) ([]byte, error) {
	if err := f.maybeFail(); err != nil {
		return nil, err
	}
	return []byte{0x01}, nil
}

func (f *fakeTransport) ReadDiscreteInputs(address, quantity uint16) ([]byte, error) {
	return f.ReadCoils(address, quantity)
}

func (f *fakeTransport) ReadHoldingRegisters(address, quantity uint16) ([]byte, error) {
	if err := f.maybeFail(); err != nil {
		return nil, err
	}
	buf := make([]byte, int(quantity)*2)
	// 230.5 encoded ABCD into regs[0],regs[1] when quantity==2; 1 register -> value 7.
	if quantity == 2 {
		r1, r2, _ := Float32ToRegisters(230.5, catalog.ByteOrderABCD)
		binary.BigEndian.PutUint16(buf[0:2], r1)
		binary.BigEndian.PutUint16(buf[2:4], r2)
	} else {
		binary.BigEndian.PutUint16(buf[0:2], 7)
	}
	return buf, nil
}

func (f *fakeTransport) ReadInputRegisters(address, quantity uint16) ([]byte, error) {
	return f.ReadHoldingRegisters(address, quantity)
}

func (f *fakeTransport) Close() error {
	f.closed = true
	return nil
}

func newTestClient(dialCount *int, failNext int) *Client {
	c := NewClient()
	c.pool.dial = func(host string, port int, timeout time.Duration) (transport, error) {
		*dialCount++
		// Only the first connection fails; a reconnect gets a healthy one.
		fail := 0
		if *dialCount == 1 {
			fail = failNext
		}
		return &fakeTransport{failNext: fail, dialCount: dialCount}, nil
	}
	return c
}

func TestReadFloatHoldingRegister(t *testing.T) {
	var dials int
	c := newTestClient(&dials, 0)

	v, err := c.Read(ReadRequest{
		Host: "10.0.0.5", Port: 502, Address: 40001,
		DataType: catalog.FieldFloat, UnitID: 1, ByteOrder: catalog.ByteOrderABCD, Scale: 1.0,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	convey.Convey("the float holding register decodes and dials once", t, func() {
		convey.So(v.(float64), convey.ShouldEqual, 230.5)
		convey.So(dials, convey.ShouldEqual, 1)
	})
}

func TestReconnectAfterTransportError(t *testing.T) {
	var dials int
	c := newTestClient(&dials, 1) // first read fails, then the replacement connection succeeds

	_, err := c.Read(ReadRequest{Host: "10.0.0.5", Port: 502, Address: 0, DataType: catalog.FieldBool, UnitID: 1})
	if err == nil {
		t.Fatal("expected transport error on first read")
	}
	if c.pool.Size() != 0 {
		t.Fatalf("expected client evicted from pool, size=%d", c.pool.Size())
	}

	v, err := c.Read(ReadRequest{Host: "10.0.0.5", Port: 502, Address: 0, DataType: catalog.FieldBool, UnitID: 1})
	if err != nil {
		t.Fatalf("expected reconnect to succeed: %v", err)
	}

	convey.Convey("the replacement connection reconnects and succeeds", t, func() {
		convey.So(v.(bool), convey.ShouldBeTrue)
		convey.So(dials, convey.ShouldEqual, 2)
	})
}

func TestReadIntSignedConversion(t *testing.T) {
	var dials int
	c := newTestClient(&dials, 0)
	v, err := c.Read(ReadRequest{Host: "h", Port: 502, Address: 40001, DataType: catalog.FieldInt, UnitID: 1, Scale: 1.0})
	if err != nil {
		t.Fatal(err)
	}

	convey.Convey("the holding register is sign-converted to an int64", t, func() {
		convey.So(v.(int64), convey.ShouldEqual, 7)
	})
}
