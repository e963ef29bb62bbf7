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

// Package executor implements C6: the per-job worker loop that reads
// each mapped table on an interval, decides whether to write
// (continuous jobs always do; trigger jobs consult the trigger
// evaluator), buffers rows per table and flushes them in batches
// (spec §4.6/§8).
package executor

import (
	"time"

	"github.com/neuract/agent/internal/catalog"
)

// snapshot is an immutable copy of the job configuration taken at
// start time, so edits to the catalog while a worker is running never
// race it (spec §9).
type snapshot struct {
	jobID      string
	jobType    catalog.JobType
	intervalMs int64
	tableIDs   []string
	triggers   []catalog.JobTrigger
	batchSize  int
}

func newSnapshot(job catalog.Job) snapshot {
	interval := job.IntervalMs
	if interval <= 0 {
		interval = 1000
	}
	batch := job.BatchSize
	if batch <= 0 {
		batch = 1
	}
	return snapshot{
		jobID:      job.ID,
		jobType:    job.JobType,
		intervalMs: interval,
		tableIDs:   append([]string(nil), job.TableIDs...),
		triggers:   append([]catalog.JobTrigger(nil), job.Triggers...),
		batchSize:  batch,
	}
}

func (s snapshot) interval() time.Duration {
	return time.Duration(s.intervalMs) * time.Millisecond
}

// ReadFunc reads the current values for a table, keyed by schema
// field. A nil map with a nil error means "nothing to report this
// tick" (spec §4.6).
type ReadFunc func(tableID string) (map[string]interface{}, error)

// WriteFunc persists rows accumulated for a table.
type WriteFunc func(tableID string, rows []map[string]interface{}) error
