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
	"fmt"
	"math"

	"github.com/neuract/agent/internal/catalog"
)

// ToSignedInt16 interprets a raw 16-bit register as a signed two's
// complement value (spec §4.1 / §8): 0x0000..0x7FFF -> 0..32767,
// 0x8000..0xFFFF -> -32768..-1.
func ToSignedInt16(v uint16) int16 {
	if v >= 0x8000 {
		return int16(int32(v) - 0x10000)
	}
	return int16(v)
}

// RegistersToFloat32 decodes two 16-bit registers into an IEEE-754 float
// according to the byte-order permutation in spec §4.1.
func RegistersToFloat32(r1, r2 uint16, order catalog.ByteOrder) (float32, error) {
	var buf [4]byte
	switch order {
	case catalog.ByteOrderABCD:
		binary.BigEndian.PutUint16(buf[0:2], r1)
		binary.BigEndian.PutUint16(buf[2:4], r2)
	case catalog.ByteOrderDCBA:
		// R2_lo R2_hi R1_lo R1_hi
		buf[0] = byte(r2)
		buf[1] = byte(r2 >> 8)
		buf[2] = byte(r1)
		buf[3] = byte(r1 >> 8)
	case catalog.ByteOrderBADC:
		// R2_hi R2_lo R1_hi R1_lo
		binary.BigEndian.PutUint16(buf[0:2], r2)
		binary.BigEndian.PutUint16(buf[2:4], r1)
	case catalog.ByteOrderCDAB:
		// R1_lo R1_hi R2_lo R2_hi
		buf[0] = byte(r1)
		buf[1] = byte(r1 >> 8)
		buf[2] = byte(r2)
		buf[3] = byte(r2 >> 8)
	default:
		return 0, fmt.Errorf("unknown byte order %q", order)
	}

	bits := binary.BigEndian.Uint32(buf[:])
	return math.Float32frombits(bits), nil
}

// Float32ToRegisters is the inverse of RegistersToFloat32, used by the
// codec round-trip tests (spec §8).
func Float32ToRegisters(v float32, order catalog.ByteOrder) (r1, r2 uint16, err error) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], math.Float32bits(v))

	switch order {
	case catalog.ByteOrderABCD:
		return binary.BigEndian.Uint16(buf[0:2]), binary.BigEndian.Uint16(buf[2:4]), nil
	case catalog.ByteOrderDCBA:
		r2 = uint16(buf[0]) | uint16(buf[1])<<8
		r1 = uint16(buf[2]) | uint16(buf[3])<<8
		return r1, r2, nil
	case catalog.ByteOrderBADC:
		return binary.BigEndian.Uint16(buf[2:4]), binary.BigEndian.Uint16(buf[0:2]), nil
	case catalog.ByteOrderCDAB:
		r1 = uint16(buf[0]) | uint16(buf[1])<<8
		r2 = uint16(buf[2]) | uint16(buf[3])<<8
		return r1, r2, nil
	default:
		return 0, 0, fmt.Errorf("unknown byte order %q", order)
	}
}

// RegistersToASCII decodes up to 16 registers to an ASCII string, high
// byte then low byte of each register, stopping at the first zero byte
// (spec §4.1).
func RegistersToASCII(regs []uint16) string {
	out := make([]byte, 0, len(regs)*2)
	for _, r := range regs {
		hi := byte(r >> 8)
		lo := byte(r)
		if hi == 0 {
			break
		}
		out = append(out, hi)
		if lo == 0 {
			break
		}
		out = append(out, lo)
	}
	return string(out)
}
