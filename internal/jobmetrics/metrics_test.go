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

package jobmetrics

import (
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestP95NullUnderThreshold(t *testing.T) {
	m := NewJobMetrics("job-1")
	for i := 0; i < 20; i++ {
		m.RecordRead(float64(i), true)
	}
	s := m.Summary()

	convey.Convey("p95 stays nil below the 20-sample threshold", t, func() {
		convey.So(s.P95ReadLatencyMs, convey.ShouldBeNil)
		convey.So(s.AvgReadLatencyMs, convey.ShouldNotBeNil)
	})
}

func TestP95PresentAboveThreshold(t *testing.T) {
	m := NewJobMetrics("job-1")
	for i := 1; i <= 21; i++ {
		m.RecordRead(float64(i), true)
	}
	s := m.Summary()

	convey.Convey("p95 appears once the sample count passes 20", t, func() {
		convey.So(s.P95ReadLatencyMs, convey.ShouldNotBeNil)
	})
}

func TestRollingWindowCapsAt1000(t *testing.T) {
	m := NewJobMetrics("job-1")
	for i := 0; i < 1500; i++ {
		m.RecordRead(1.0, true)
	}

	convey.Convey("the rolling window is capped", t, func() {
		convey.So(len(m.readLatencies), convey.ShouldEqual, rollingWindowCap)
	})
}

func TestErrorLogCapsAt100(t *testing.T) {
	m := NewJobMetrics("job-1")
	for i := 0; i < 150; i++ {
		m.RecordError("STORAGE_ERROR", "write failed")
	}

	convey.Convey("the error log is capped", t, func() {
		convey.So(len(m.errors), convey.ShouldEqual, errorLogCap)
	})
}

func TestFailedReadDoesNotEnterLatencyWindow(t *testing.T) {
	m := NewJobMetrics("job-1")
	m.RecordRead(5.0, false)
	s := m.Summary()

	convey.Convey("a failed read counts as an error but not a latency sample", t, func() {
		convey.So(s.ReadErrors, convey.ShouldEqual, 1)
		convey.So(s.AvgReadLatencyMs, convey.ShouldBeNil)
	})
}

func TestResetClearsEverything(t *testing.T) {
	m := NewJobMetrics("job-1")
	m.RecordRead(5.0, true)
	m.RecordError("DECODE_ERROR", "bad payload")
	m.Reset()

	s := m.Summary()
	convey.Convey("Reset clears reads, errors and latency", t, func() {
		convey.So(s.Reads, convey.ShouldEqual, 0)
		convey.So(len(s.RecentErrors), convey.ShouldEqual, 0)
		convey.So(s.AvgReadLatencyMs, convey.ShouldBeNil)
	})
}

func TestRegistryGetIsIdempotent(t *testing.T) {
	r := NewRegistry()
	a := r.Get("job-1")
	b := r.Get("job-1")

	convey.Convey("Get returns the same JobMetrics instance for the same job id", t, func() {
		convey.So(a, convey.ShouldEqual, b)
	})
}
