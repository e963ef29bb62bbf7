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

// Package jobmetrics implements C4: bounded per-job rolling windows
// of read/write latencies and a bounded error log (spec §4.4), and
// exposes the same counters to Prometheus via a Collector.
package jobmetrics

import (
	"sort"
	"sync"
	"time"
)

// rollingWindowCap bounds read/write latency samples kept per job.
const rollingWindowCap = 1000

// errorLogCap bounds the error log kept per job.
const errorLogCap = 100

// p95MinSamples is the sample count a window must exceed before a p95
// is reported; at or below it p95 is null rather than misleadingly
// precise.
const p95MinSamples = 20

// ErrorEntry is one recorded job error.
type ErrorEntry struct {
	Code      string
	Message   string
	Timestamp time.Time
}

// Summary is a point-in-time snapshot of a job's metrics (spec §4.4).
type Summary struct {
	JobID              string
	Reads              int64
	ReadErrors         int64
	Writes             int64
	WriteErrors        int64
	RowsWritten        int64
	TriggersEvaluated  int64
	TriggersFired      int64
	TriggersSuppressed int64
	AvgReadLatencyMs   *float64
	AvgWriteLatencyMs  *float64
	P95ReadLatencyMs   *float64
	P95WriteLatencyMs  *float64
	StartedAt          time.Time
	LastReadAt         *time.Time
	LastWriteAt        *time.Time
	RecentErrors       []ErrorEntry
}

// JobMetrics accumulates counters and bounded windows for one job.
// The zero value is not usable; use NewJobMetrics.
type JobMetrics struct {
	mu sync.Mutex

	jobID string

	reads, readErrors               int64
	writes, writeErrors             int64
	rowsWritten                     int64
	triggersEvaluated, triggersFired, triggersSuppressed int64

	readLatencies  []float64
	writeLatencies []float64

	startedAt    time.Time
	lastReadAt   *time.Time
	lastWriteAt  *time.Time
	errors       []ErrorEntry
}

func NewJobMetrics(jobID string) *JobMetrics {
	return &JobMetrics{jobID: jobID, startedAt: time.Now().UTC()}
}

func pushBounded(window []float64, v float64) []float64 {
	window = append(window, v)
	if len(window) > rollingWindowCap {
		window = window[len(window)-rollingWindowCap:]
	}
	return window
}

// RecordRead accounts one read attempt; only successful reads feed
// the latency window and last-read timestamp.
func (m *JobMetrics) RecordRead(latencyMs float64, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reads++
	if success {
		m.readLatencies = pushBounded(m.readLatencies, latencyMs)
		now := time.Now().UTC()
		m.lastReadAt = &now
	} else {
		m.readErrors++
	}
}

// RecordWrite accounts one write attempt of rows rows.
func (m *JobMetrics) RecordWrite(latencyMs float64, rows int64, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.writes++
	if success {
		m.writeLatencies = pushBounded(m.writeLatencies, latencyMs)
		m.rowsWritten += rows
		now := time.Now().UTC()
		m.lastWriteAt = &now
	} else {
		m.writeErrors++
	}
}

// RecordTrigger accounts one trigger evaluation.
func (m *JobMetrics) RecordTrigger(fired, suppressed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.triggersEvaluated++
	if fired {
		m.triggersFired++
	}
	if suppressed {
		m.triggersSuppressed++
	}
}

// RecordError appends to the bounded error log, evicting the oldest
// entry once errorLogCap is exceeded.
func (m *JobMetrics) RecordError(code, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.errors = append(m.errors, ErrorEntry{Code: code, Message: message, Timestamp: time.Now().UTC()})
	if len(m.errors) > errorLogCap {
		m.errors = m.errors[len(m.errors)-errorLogCap:]
	}
}

func avg(samples []float64) *float64 {
	if len(samples) == 0 {
		return nil
	}
	var sum float64
	for _, v := range samples {
		sum += v
	}
	v := sum / float64(len(samples))
	return &v
}

// p95 mirrors the original sorted(list)[int(len*0.95)] formula,
// reported only once more than p95MinSamples samples exist.
func p95(samples []float64) *float64 {
	if len(samples) <= p95MinSamples {
		return nil
	}
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)
	idx := int(float64(len(sorted)) * 0.95)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	v := sorted[idx]
	return &v
}

// Summary returns a point-in-time snapshot, with the last 10 errors.
func (m *JobMetrics) Summary() Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	recent := m.errors
	if len(recent) > 10 {
		recent = recent[len(recent)-10:]
	}
	recentCopy := append([]ErrorEntry(nil), recent...)

	return Summary{
		JobID:              m.jobID,
		Reads:              m.reads,
		ReadErrors:         m.readErrors,
		Writes:             m.writes,
		WriteErrors:        m.writeErrors,
		RowsWritten:        m.rowsWritten,
		TriggersEvaluated:  m.triggersEvaluated,
		TriggersFired:      m.triggersFired,
		TriggersSuppressed: m.triggersSuppressed,
		AvgReadLatencyMs:   avg(m.readLatencies),
		AvgWriteLatencyMs:  avg(m.writeLatencies),
		P95ReadLatencyMs:   p95(m.readLatencies),
		P95WriteLatencyMs:  p95(m.writeLatencies),
		StartedAt:          m.startedAt,
		LastReadAt:         m.lastReadAt,
		LastWriteAt:        m.lastWriteAt,
		RecentErrors:       recentCopy,
	}
}

// Reset zeroes all counters and windows and restarts StartedAt,
// mirroring the reset invoked each time a job (re)starts.
func (m *JobMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reads, m.readErrors = 0, 0
	m.writes, m.writeErrors = 0, 0
	m.rowsWritten = 0
	m.triggersEvaluated, m.triggersFired, m.triggersSuppressed = 0, 0, 0
	m.readLatencies = nil
	m.writeLatencies = nil
	m.startedAt = time.Now().UTC()
	m.lastReadAt = nil
	m.lastWriteAt = nil
	m.errors = nil
}
