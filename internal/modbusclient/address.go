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

// RegisterKind is the Modbus register/coil space an address falls into.
type RegisterKind int

const (
	Coil RegisterKind = iota
	DiscreteInput
	InputRegister
	HoldingRegister
)

func (k RegisterKind) String() string {
	switch k {
	case Coil:
		return "coil"
	case DiscreteInput:
		return "discrete_input"
	case InputRegister:
		return "input_register"
	case HoldingRegister:
		return "holding_register"
	default:
		return "unknown"
	}
}

// ParseAddress decodes a single Modbus convention address (spec §4.1):
//
//	0..9999       -> coil,             offset = address
//	10001..19999  -> discrete input,   offset = address - 10001
//	30001..39999  -> input register,   offset = address - 30001
//	40001..49999  -> holding register, offset = address - 40001
//	otherwise     -> holding register, offset = address
func ParseAddress(address int) (RegisterKind, int) {
	switch {
	case address >= 0 && address <= 9999:
		return Coil, address
	case address >= 10001 && address <= 19999:
		return DiscreteInput, address - 10001
	case address >= 30001 && address <= 39999:
		return InputRegister, address - 30001
	case address >= 40001 && address <= 49999:
		return HoldingRegister, address - 40001
	default:
		return HoldingRegister, address
	}
}
