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
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestParseAddress(t *testing.T) {
	cases := []struct {
		address  int
		wantKind RegisterKind
		wantOff  int
	}{
		{0, Coil, 0},
		{9999, Coil, 9999},
		{10001, DiscreteInput, 0},
		{19999, DiscreteInput, 9998},
		{30001, InputRegister, 0},
		{39999, InputRegister, 9998},
		{40001, HoldingRegister, 0},
		{49999, HoldingRegister, 9998},
		{50000, HoldingRegister, 50000},
		{20000, HoldingRegister, 20000},
		{-1, HoldingRegister, -1},
	}

	convey.Convey("ParseAddress resolves the register space from the address", t, func() {
		for _, c := range cases {
			kind, off := ParseAddress(c.address)
			convey.So(kind, convey.ShouldEqual, c.wantKind)
			convey.So(off, convey.ShouldEqual, c.wantOff)
		}
	})
}
