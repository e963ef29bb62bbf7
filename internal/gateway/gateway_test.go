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

package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/go-kit/log"
	"github.com/smartystreets/goconvey/convey"

	"github.com/neuract/agent/internal/catalog"
	"github.com/neuract/agent/internal/executor"
	"github.com/neuract/agent/internal/jobmetrics"
	"github.com/neuract/agent/internal/modbusclient"
	"github.com/neuract/agent/internal/opcuaclient"
	"github.com/neuract/agent/internal/storage"
)

func TestDryRunReportsPerFieldErrorsWithoutWriting(t *testing.T) {
	mem := catalog.NewMemory()
	mem.PutDevice(catalog.Device{ID: "dev-1", Protocol: catalog.ProtocolModbus, Modbus: &catalog.ModbusConfig{Host: "10.0.0.5", Port: 502, UnitID: 1}})
	mem.PutDeviceTable(context.Background(), catalog.DeviceTable{
		ID: "table-1", Name: "readings", DeviceID: strPtr("dev-1"),
		Mappings: []catalog.FieldMapping{
			{FieldKey: "temperature", Protocol: catalog.ProtocolModbus, Address: "40001", DataType: catalog.FieldFloat, ByteOrder: catalog.ByteOrderABCD, Scale: 1.0},
		},
	})

	g := NewGateway(mem, modbusclient.NewClient(), opcuaclient.NewClient(), storage.NewStore(), executor.NewEngine(jobmetrics.NewRegistry(), log.NewNopLogger()))

	values, errs, err := g.DryRun(context.Background(), "table-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	convey.Convey("dry run reports a per-field error without writing", t, func() {
		convey.So(len(values), convey.ShouldEqual, 0)
		_, ok := errs["temperature"]
		convey.So(ok, convey.ShouldBeTrue)
	})
}

func TestStartJobCreatesOpenJobRun(t *testing.T) {
	mem := catalog.NewMemory()
	mem.PutDevice(catalog.Device{ID: "dev-1", Protocol: catalog.ProtocolModbus, Modbus: &catalog.ModbusConfig{Host: "10.0.0.5", Port: 502, UnitID: 1}})
	mem.PutStorageTarget(catalog.StorageTarget{ID: "store-1", Provider: catalog.ProviderSQLite, ConnectionString: ":memory:"})
	mem.PutDeviceTable(context.Background(), catalog.DeviceTable{
		ID: "table-1", Name: "readings", DeviceID: strPtr("dev-1"), StorageTargetID: "store-1",
		Mappings: []catalog.FieldMapping{
			{FieldKey: "temperature", Protocol: catalog.ProtocolModbus, Address: "40001", DataType: catalog.FieldFloat, ByteOrder: catalog.ByteOrderABCD, Scale: 1.0},
		},
	})
	job := catalog.Job{ID: "job-1", Enabled: true, JobType: catalog.JobContinuous, TableIDs: []string{"table-1"}, IntervalMs: 50, BatchSize: 1}
	mem.PutJob(context.Background(), job)

	engine := executor.NewEngine(jobmetrics.NewRegistry(), log.NewNopLogger())
	g := NewGateway(mem, modbusclient.NewClient(), opcuaclient.NewClient(), storage.NewStore(), engine)

	if err := g.StartJob(context.Background(), "job-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer engine.Stop("job-1")

	runs := mem.JobRuns()
	if len(runs) != 1 {
		t.Fatalf("got %d job runs, want 1", len(runs))
	}

	time.Sleep(20 * time.Millisecond)
	stored, err := mem.GetJob(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("unexpected error fetching job: %v", err)
	}

	convey.Convey("starting a job opens a run and persists running status", t, func() {
		convey.So(runs[0].StoppedAt, convey.ShouldBeNil)
		convey.So(engine.IsRunning("job-1"), convey.ShouldBeTrue)
		convey.So(stored.Status, convey.ShouldEqual, catalog.JobRunning)
	})
}

// TestStopJobPersistsStoppedStatus verifies StopJob finalizes the open
// run and transitions Job.Status to stopped (spec §4.6/§4.7, C7
// "reports job lifecycle state").
func TestStopJobPersistsStoppedStatus(t *testing.T) {
	mem := catalog.NewMemory()
	mem.PutDevice(catalog.Device{ID: "dev-1", Protocol: catalog.ProtocolModbus, Modbus: &catalog.ModbusConfig{Host: "10.0.0.5", Port: 502, UnitID: 1}})
	mem.PutStorageTarget(catalog.StorageTarget{ID: "store-1", Provider: catalog.ProviderSQLite, ConnectionString: ":memory:"})
	mem.PutDeviceTable(context.Background(), catalog.DeviceTable{
		ID: "table-1", Name: "readings", DeviceID: strPtr("dev-1"), StorageTargetID: "store-1",
		Mappings: []catalog.FieldMapping{
			{FieldKey: "temperature", Protocol: catalog.ProtocolModbus, Address: "40001", DataType: catalog.FieldFloat, ByteOrder: catalog.ByteOrderABCD, Scale: 1.0},
		},
	})
	job := catalog.Job{ID: "job-2", Enabled: true, JobType: catalog.JobContinuous, TableIDs: []string{"table-1"}, IntervalMs: 50, BatchSize: 1}
	mem.PutJob(context.Background(), job)

	engine := executor.NewEngine(jobmetrics.NewRegistry(), log.NewNopLogger())
	g := NewGateway(mem, modbusclient.NewClient(), opcuaclient.NewClient(), storage.NewStore(), engine)

	if err := g.StartJob(context.Background(), "job-2"); err != nil {
		t.Fatalf("unexpected error starting: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if err := g.StopJob(context.Background(), "job-2"); err != nil {
		t.Fatalf("unexpected error stopping: %v", err)
	}

	stored, err := mem.GetJob(context.Background(), "job-2")
	if err != nil {
		t.Fatalf("unexpected error fetching job: %v", err)
	}
	runs := mem.JobRuns()

	convey.Convey("stopping a job finalizes the run and persists stopped status", t, func() {
		convey.So(stored.Status, convey.ShouldEqual, catalog.JobStopped)
		convey.So(runs[0].StoppedAt, convey.ShouldNotBeNil)
	})
}

func strPtr(s string) *string { return &s }
