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
	"fmt"
	"time"

	"github.com/goburrow/modbus"
)

// transport is the minimal surface this package needs from a Modbus/TCP
// client. It is satisfied by *goTCPTransport (github.com/goburrow/modbus)
// and by fakes in tests.
type transport interface {
	SetSlaveID(id byte)
	ReadCoils(address, quantity uint16) ([]byte, error)
	ReadDiscreteInputs(address, quantity uint16) ([]byte, error)
	ReadHoldingRegisters(address, quantity uint16) ([]byte, error)
	ReadInputRegisters(address, quantity uint16) ([]byte, error)
	Close() error
}

// goTCPTransport adapts goburrow/modbus's TCP client handler to transport.
type goTCPTransport struct {
	handler *modbus.TCPClientHandler
	client  modbus.Client
}

func dialTCP(host string, port int, timeout time.Duration) (*goTCPTransport, error) {
	handler := modbus.NewTCPClientHandler(fmt.Sprintf("%s:%d", host, port))
	handler.Timeout = timeout
	if err := handler.Connect(); err != nil {
		return nil, err
	}
	return &goTCPTransport{
		handler: handler,
		client:  modbus.NewClient(handler),
	}, nil
}

func (t *goTCPTransport) SetSlaveID(id byte) {
	t.handler.SlaveId = id
}

func (t *goTCPTransport) ReadCoils(address, quantity uint16) ([]byte, error) {
	return t.client.ReadCoils(address, quantity)
}

func (t *goTCPTransport) ReadDiscreteInputs(address, quantity uint16) ([]byte, error) {
	return t.client.ReadDiscreteInputs(address, quantity)
}

func (t *goTCPTransport) ReadHoldingRegisters(address, quantity uint16) ([]byte, error) {
	return t.client.ReadHoldingRegisters(address, quantity)
}

func (t *goTCPTransport) ReadInputRegisters(address, quantity uint16) ([]byte, error) {
	return t.client.ReadInputRegisters(address, quantity)
}

func (t *goTCPTransport) Close() error {
	return t.handler.Close()
}
