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
	"time"

	"github.com/neuract/agent/internal/agenterr"
	"github.com/neuract/agent/internal/catalog"
)

// ReadRequest describes one typed read (spec §4.1).
type ReadRequest struct {
	Host      string
	Port      int
	Address   int
	DataType  catalog.FieldType
	UnitID    int
	ByteOrder catalog.ByteOrder
	Scale     float64
	TimeoutMs int
}

// Client is the process-wide Modbus client handle (spec §9, "process-wide
// pools as singletons"). Create one with NewClient and share it.
type Client struct {
	pool *Pool
}

func NewClient() *Client {
	return &Client{pool: NewPool()}
}

func (c *Client) timeout(ms int) time.Duration {
	if ms <= 0 {
		ms = 3000
	}
	return time.Duration(ms) * time.Millisecond
}

// Read performs a typed read per spec §4.1 and evicts the pooled client
// on any transport failure so the next call reconnects.
func (c *Client) Read(req ReadRequest) (interface{}, error) {
	kind, offset := ParseAddress(req.Address)

	pc, err := c.pool.get(req.Host, req.Port, c.timeout(req.TimeoutMs))
	if err != nil {
		return nil, agenterr.Wrap(agenterr.TransportError, "open modbus connection", err)
	}

	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.transport.SetSlaveID(byte(req.UnitID))

	switch req.DataType {
	case catalog.FieldBool:
		return c.readBool(pc, kind, offset, req)
	case catalog.FieldInt:
		return c.readInt(pc, kind, offset, req)
	case catalog.FieldFloat:
		return c.readFloat(pc, kind, offset, req)
	case catalog.FieldString:
		return c.readString(pc, kind, offset, req)
	default:
		return nil, agenterr.New(agenterr.ConfigError, "unknown modbus data type "+string(req.DataType))
	}
}

func (c *Client) evictOnErr(req ReadRequest, err error) error {
	if err == nil {
		return nil
	}
	c.pool.Evict(req.Host, req.Port)
	return agenterr.Wrap(agenterr.TransportError, "modbus read failed", err)
}

func (c *Client) readBool(pc *pooledClient, kind RegisterKind, offset int, req ReadRequest) (interface{}, error) {
	if kind == Coil || kind == DiscreteInput {
		bits, err := c.readBits(pc, kind, offset, 1)
		if err != nil {
			return nil, c.evictOnErr(req, err)
		}
		return bits[0], nil
	}
	words, err := c.readWords(pc, kind, offset, 1)
	if err != nil {
		return nil, c.evictOnErr(req, err)
	}
	return words[0] != 0, nil
}

func (c *Client) readInt(pc *pooledClient, kind RegisterKind, offset int, req ReadRequest) (interface{}, error) {
	words, err := c.readWords(pc, kind, offset, 1)
	if err != nil {
		return nil, c.evictOnErr(req, err)
	}
	value := int64(ToSignedInt16(words[0]))
	scale := req.Scale
	if scale == 0 {
		scale = 1.0
	}
	return int64(float64(value) * scale), nil
}

func (c *Client) readFloat(pc *pooledClient, kind RegisterKind, offset int, req ReadRequest) (interface{}, error) {
	words, err := c.readWords(pc, kind, offset, 2)
	if err != nil {
		return nil, c.evictOnErr(req, err)
	}
	order := req.ByteOrder
	if order == "" {
		order = catalog.ByteOrderABCD
	}
	f, err := RegistersToFloat32(words[0], words[1], order)
	if err != nil {
		return nil, agenterr.Wrap(agenterr.DecodeError, "decode modbus float", err)
	}
	scale := req.Scale
	if scale == 0 {
		scale = 1.0
	}
	return float64(f) * scale, nil
}

func (c *Client) readString(pc *pooledClient, kind RegisterKind, offset int, req ReadRequest) (interface{}, error) {
	words, err := c.readWords(pc, kind, offset, 16)
	if err != nil {
		return nil, c.evictOnErr(req, err)
	}
	return RegistersToASCII(words), nil
}

func (c *Client) readBits(pc *pooledClient, kind RegisterKind, offset, quantity int) ([]bool, error) {
	var raw []byte
	var err error
	switch kind {
	case DiscreteInput:
		raw, err = pc.transport.ReadDiscreteInputs(uint16(offset), uint16(quantity))
	default:
		raw, err = pc.transport.ReadCoils(uint16(offset), uint16(quantity))
	}
	if err != nil {
		return nil, err
	}
	out := make([]bool, quantity)
	for i := 0; i < quantity; i++ {
		byteIdx := i / 8
		bitIdx := uint(i % 8)
		if byteIdx >= len(raw) {
			break
		}
		out[i] = raw[byteIdx]&(1<<bitIdx) != 0
	}
	return out, nil
}

func (c *Client) readWords(pc *pooledClient, kind RegisterKind, offset, quantity int) ([]uint16, error) {
	var raw []byte
	var err error
	switch kind {
	case InputRegister:
		raw, err = pc.transport.ReadInputRegisters(uint16(offset), uint16(quantity))
	default:
		raw, err = pc.transport.ReadHoldingRegisters(uint16(offset), uint16(quantity))
	}
	if err != nil {
		return nil, err
	}
	out := make([]uint16, quantity)
	for i := 0; i < quantity; i++ {
		out[i] = binary.BigEndian.Uint16(raw[i*2 : i*2+2])
	}
	return out, nil
}

// Test performs a single holding-register read at offset 0 (spec §4.1).
func (c *Client) Test(host string, port, unitID, timeoutMs int) (ok bool, latencyMs int64, errMsg string) {
	start := time.Now()
	pc, err := c.pool.get(host, port, c.timeout(timeoutMs))
	if err != nil {
		return false, time.Since(start).Milliseconds(), err.Error()
	}

	pc.mu.Lock()
	pc.transport.SetSlaveID(byte(unitID))
	_, err = pc.transport.ReadHoldingRegisters(0, 1)
	pc.mu.Unlock()

	latency := time.Since(start).Milliseconds()
	if err != nil {
		c.pool.Evict(host, port)
		return false, latency, err.Error()
	}
	return true, latency, ""
}
