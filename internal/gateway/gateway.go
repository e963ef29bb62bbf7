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

// Package gateway implements C7: it turns catalog records into the
// executor's immutable job snapshot and the two callbacks a worker
// calls every tick, resolves each field mapping to the right protocol
// client call, and keeps the JobRun history row current across a
// job's lifecycle (spec §4.7).
package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/neuract/agent/internal/agenterr"
	"github.com/neuract/agent/internal/catalog"
	"github.com/neuract/agent/internal/executor"
	"github.com/neuract/agent/internal/modbusclient"
	"github.com/neuract/agent/internal/opcuaclient"
	"github.com/neuract/agent/internal/storage"
)

// Gateway is the process-wide handle tying the catalog to the
// protocol clients, the storage writer and the executor (spec §9).
type Gateway struct {
	store           catalog.Store
	modbus          *modbusclient.Client
	opcua           *opcuaclient.Client
	storage         *storage.Store
	engine          *executor.Engine
	credentialsFile string
}

func NewGateway(store catalog.Store, modbus *modbusclient.Client, opcua *opcuaclient.Client, storageStore *storage.Store, engine *executor.Engine) *Gateway {
	return &Gateway{store: store, modbus: modbus, opcua: opcua, storage: storageStore, engine: engine}
}

// SetCredentialsFile points the gateway at an INI credentials file
// (one [section] per storage target name) used to fill in user/password
// for any target whose connection_string doesn't already carry them,
// the same external-secrets-file convention as the teacher's
// -config.my-cnf flag.
func (g *Gateway) SetCredentialsFile(path string) {
	g.credentialsFile = path
}

// StartJob resolves jobID's tables/mappings into a read/write
// callback pair, opens a new JobRun record and starts the worker.
func (g *Gateway) StartJob(ctx context.Context, jobID string) error {
	job, err := g.store.GetJob(ctx, jobID)
	if err != nil {
		return err
	}

	run := catalog.JobRun{ID: uuid.NewString(), JobID: jobID, StartedAt: time.Now().UTC()}
	if _, err := g.store.CreateJobRun(ctx, run); err != nil {
		return agenterr.Wrap(agenterr.StorageError, "create job run record", err)
	}

	readFn, err := g.buildReadFunc(ctx, job)
	if err != nil {
		return err
	}
	writeFn, err := g.buildWriteFunc(ctx, job)
	if err != nil {
		return err
	}

	if err := g.engine.Start(job, readFn, writeFn); err != nil {
		return err
	}

	job.Status = catalog.JobRunning
	return g.store.PutJob(ctx, job)
}

// StopJob halts jobID's worker, finalizes its most recent open JobRun
// with stopped_at/duration/metrics, and persists status=stopped
// (spec §4.7, §4.6).
func (g *Gateway) StopJob(ctx context.Context, jobID string) error {
	return g.haltJob(ctx, jobID, catalog.JobStopped)
}

// PauseJob halts jobID's worker the same way StopJob does but
// persists status=paused instead of stopped. Stop and pause are
// mechanically identical — both tear down the worker and finalize the
// open JobRun — and differ only in the resulting status label; a
// subsequent Start resets metrics regardless of which one preceded it
// (spec §4.6/§9).
func (g *Gateway) PauseJob(ctx context.Context, jobID string) error {
	return g.haltJob(ctx, jobID, catalog.JobPaused)
}

func (g *Gateway) haltJob(ctx context.Context, jobID string, status catalog.JobStatus) error {
	if err := g.engine.Stop(jobID); err != nil {
		return err
	}
	// Read metrics after Stop so the final flush's writes are included.
	summary := g.engine.Metrics(jobID)

	if run, err := g.store.LatestOpenJobRun(ctx, jobID); err == nil {
		now := time.Now().UTC()
		run.StoppedAt = &now
		run.DurationMs = now.Sub(run.StartedAt).Milliseconds()
		run.RowsWritten = summary.RowsWritten
		run.ReadsCount = summary.Reads
		run.ReadErrors = summary.ReadErrors
		run.WriteErrors = summary.WriteErrors
		run.AvgLatencyMs = summary.AvgReadLatencyMs
		run.P95LatencyMs = summary.P95ReadLatencyMs
		for _, e := range summary.RecentErrors {
			run.ErrorLog = append(run.ErrorLog, catalog.ErrorLogEntry{Code: e.Code, Message: e.Message, Timestamp: e.Timestamp})
		}
		if err := g.store.FinalizeJobRun(ctx, run); err != nil {
			return err
		}
	} // no open run to finalize is not an error at the gateway boundary

	job, err := g.store.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	job.Status = status
	return g.store.PutJob(ctx, job)
}

// DryRun reads every mapped field of tableID once, without invoking
// the write callback, and reports either a value or an error message
// per field (spec §4.7).
func (g *Gateway) DryRun(ctx context.Context, tableID string) (map[string]interface{}, map[string]string, error) {
	table, err := g.store.GetDeviceTable(ctx, tableID)
	if err != nil {
		return nil, nil, err
	}
	var device *catalog.Device
	if table.DeviceID != nil {
		d, err := g.store.GetDevice(ctx, *table.DeviceID)
		if err != nil {
			return nil, nil, err
		}
		device = &d
	}

	values := make(map[string]interface{})
	errs := make(map[string]string)
	for _, m := range table.Mappings {
		v, err := g.readMapping(ctx, device, m)
		if err != nil {
			errs[m.FieldKey] = err.Error()
			continue
		}
		values[m.FieldKey] = v
	}
	return values, errs, nil
}

func (g *Gateway) buildReadFunc(ctx context.Context, job catalog.Job) (executor.ReadFunc, error) {
	tables := make(map[string]catalog.DeviceTable, len(job.TableIDs))
	devices := make(map[string]*catalog.Device)

	for _, tid := range job.TableIDs {
		table, err := g.store.GetDeviceTable(ctx, tid)
		if err != nil {
			return nil, err
		}
		tables[tid] = table

		if table.DeviceID != nil {
			if _, ok := devices[*table.DeviceID]; !ok {
				d, err := g.store.GetDevice(ctx, *table.DeviceID)
				if err != nil {
					return nil, err
				}
				devices[*table.DeviceID] = &d
			}
		}
	}

	return func(tableID string) (map[string]interface{}, error) {
		table := tables[tableID]
		var device *catalog.Device
		if table.DeviceID != nil {
			device = devices[*table.DeviceID]
		}

		values := make(map[string]interface{}, len(table.Mappings))
		for _, m := range table.Mappings {
			v, err := g.readMapping(context.Background(), device, m)
			if err != nil {
				values[m.FieldKey] = nil
				continue
			}
			values[m.FieldKey] = v
		}
		return values, nil
	}, nil
}

func (g *Gateway) buildWriteFunc(ctx context.Context, job catalog.Job) (executor.WriteFunc, error) {
	tables := make(map[string]catalog.DeviceTable, len(job.TableIDs))
	targets := make(map[string]catalog.StorageTarget)

	for _, tid := range job.TableIDs {
		table, err := g.store.GetDeviceTable(ctx, tid)
		if err != nil {
			return nil, err
		}
		tables[tid] = table

		if _, ok := targets[table.StorageTargetID]; !ok {
			target, err := g.store.GetStorageTarget(ctx, table.StorageTargetID)
			if err != nil {
				return nil, err
			}
			if g.credentialsFile != "" && !strings.Contains(target.ConnectionString, "@") {
				user, password, err := storage.LoadCredentials(g.credentialsFile, target.Name)
				if err != nil {
					return nil, err
				}
				target.ConnectionString = storage.WithCredentials(target.ConnectionString, user, password)
			}
			targets[table.StorageTargetID] = target
		}
	}

	return func(tableID string, rows []map[string]interface{}) error {
		table := tables[tableID]
		target := targets[table.StorageTargetID]

		_, err := g.storage.InsertBatch(context.Background(), target.Provider, target.ConnectionString, table.Name, rows)
		return err
	}, nil
}

// readMapping resolves one field mapping to the correct protocol
// client call, per spec §4.7.
func (g *Gateway) readMapping(ctx context.Context, device *catalog.Device, m catalog.FieldMapping) (interface{}, error) {
	if device == nil {
		return nil, agenterr.New(agenterr.ConfigError, fmt.Sprintf("field %s has no bound device", m.FieldKey))
	}

	switch m.Protocol {
	case catalog.ProtocolModbus:
		if device.Modbus == nil {
			return nil, agenterr.New(agenterr.ConfigError, "device has no modbus config")
		}
		address, err := parseAddressInt(m.Address)
		if err != nil {
			return nil, agenterr.Wrap(agenterr.ConfigError, "parse modbus address", err)
		}
		return g.modbus.Read(modbusclient.ReadRequest{
			Host: device.Modbus.Host, Port: device.Modbus.Port, Address: address,
			DataType: m.DataType, UnitID: device.Modbus.UnitID, ByteOrder: m.ByteOrder,
			Scale: m.Scale, TimeoutMs: device.Modbus.TimeoutMs,
		})

	case catalog.ProtocolOpcua:
		if device.Opcua == nil {
			return nil, agenterr.New(agenterr.ConfigError, "device has no opcua config")
		}
		return g.opcua.Read(ctx, opcuaclient.ReadRequest{
			Endpoint: device.Opcua.Endpoint, NodeID: m.Address, DataType: m.DataType,
			Auth: device.Opcua.AuthType, Username: device.Opcua.Username, Password: device.Opcua.Password,
			Scale: m.Scale, TimeoutMs: device.Opcua.TimeoutMs,
		})

	default:
		return nil, agenterr.New(agenterr.ConfigError, fmt.Sprintf("unknown protocol %q", m.Protocol))
	}
}

func parseAddressInt(address string) (int, error) {
	var n int
	_, err := fmt.Sscanf(address, "%d", &n)
	return n, err
}
