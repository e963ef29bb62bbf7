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

package catalog

import (
	"context"
	"sync"

	"github.com/neuract/agent/internal/agenterr"
)

// Store is the boundary interface to the configuration catalog (spec §1,
// "deliberately excluded" collaborator). A real deployment backs this
// with a persistent database; Memory below is a reference implementation
// used by the gateway's tests and by single-process deployments.
type Store interface {
	GetSchema(ctx context.Context, id string) (Schema, error)
	GetStorageTarget(ctx context.Context, id string) (StorageTarget, error)
	GetDevice(ctx context.Context, id string) (Device, error)
	GetDeviceTable(ctx context.Context, id string) (DeviceTable, error)
	PutDeviceTable(ctx context.Context, t DeviceTable) error
	GetJob(ctx context.Context, id string) (Job, error)
	PutJob(ctx context.Context, j Job) error
	CreateJobRun(ctx context.Context, run JobRun) (string, error)
	FinalizeJobRun(ctx context.Context, run JobRun) error
	LatestOpenJobRun(ctx context.Context, jobID string) (JobRun, error)
}

// Memory is an in-memory Store, safe for concurrent use.
type Memory struct {
	mu             sync.RWMutex
	schemas        map[string]Schema
	storageTargets map[string]StorageTarget
	devices        map[string]Device
	deviceTables   map[string]DeviceTable
	jobs           map[string]Job
	jobRuns        map[string]JobRun
}

func NewMemory() *Memory {
	return &Memory{
		schemas:        map[string]Schema{},
		storageTargets: map[string]StorageTarget{},
		devices:        map[string]Device{},
		deviceTables:   map[string]DeviceTable{},
		jobs:           map[string]Job{},
		jobRuns:        map[string]JobRun{},
	}
}

func notFound(kind, id string) error {
	return agenterr.New(agenterr.NotFound, kind+" "+id+" not found")
}

func (m *Memory) PutSchema(s Schema) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schemas[s.ID] = s
}

func (m *Memory) GetSchema(_ context.Context, id string) (Schema, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.schemas[id]
	if !ok {
		return Schema{}, notFound("schema", id)
	}
	return s, nil
}

func (m *Memory) PutStorageTarget(t StorageTarget) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.storageTargets[t.ID] = t
}

func (m *Memory) GetStorageTarget(_ context.Context, id string) (StorageTarget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.storageTargets[id]
	if !ok {
		return StorageTarget{}, notFound("storage target", id)
	}
	return t, nil
}

func (m *Memory) PutDevice(d Device) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.devices[d.ID] = d
}

func (m *Memory) GetDevice(_ context.Context, id string) (Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.devices[id]
	if !ok {
		return Device{}, notFound("device", id)
	}
	return d, nil
}

func (m *Memory) PutDeviceTable(_ context.Context, t DeviceTable) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deviceTables[t.ID] = t
	return nil
}

func (m *Memory) GetDeviceTable(_ context.Context, id string) (DeviceTable, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.deviceTables[id]
	if !ok {
		return DeviceTable{}, notFound("device table", id)
	}
	return t, nil
}

func (m *Memory) PutJob(_ context.Context, j Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[j.ID] = j
	return nil
}

func (m *Memory) GetJob(_ context.Context, id string) (Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.jobs[id]
	if !ok {
		return Job{}, notFound("job", id)
	}
	return j, nil
}

func (m *Memory) CreateJobRun(_ context.Context, run JobRun) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if run.ID == "" {
		run.ID = run.JobID + ":" + run.StartedAt.Format("20060102T150405.000000000")
	}
	m.jobRuns[run.ID] = run
	return run.ID, nil
}

func (m *Memory) FinalizeJobRun(_ context.Context, run JobRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobRuns[run.ID]; !ok {
		return notFound("job run", run.ID)
	}
	m.jobRuns[run.ID] = run
	return nil
}

// LatestOpenJobRun returns the most recently started run for jobID
// that has not yet been finalized (StoppedAt is nil).
func (m *Memory) LatestOpenJobRun(_ context.Context, jobID string) (JobRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest JobRun
	found := false
	for _, r := range m.jobRuns {
		if r.JobID != jobID || r.StoppedAt != nil {
			continue
		}
		if !found || r.StartedAt.After(latest.StartedAt) {
			latest = r
			found = true
		}
	}
	if !found {
		return JobRun{}, notFound("open job run for job", jobID)
	}
	return latest, nil
}

// JobRuns returns a snapshot of all runs, for tests.
func (m *Memory) JobRuns() []JobRun {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]JobRun, 0, len(m.jobRuns))
	for _, r := range m.jobRuns {
		out = append(out, r)
	}
	return out
}
