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
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	readsDesc = prometheus.NewDesc(
		"neuract_job_reads_total", "Total reads attempted by a job.",
		[]string{"job_id"}, nil,
	)
	readErrorsDesc = prometheus.NewDesc(
		"neuract_job_read_errors_total", "Total failed reads for a job.",
		[]string{"job_id"}, nil,
	)
	writesDesc = prometheus.NewDesc(
		"neuract_job_writes_total", "Total writes attempted by a job.",
		[]string{"job_id"}, nil,
	)
	writeErrorsDesc = prometheus.NewDesc(
		"neuract_job_write_errors_total", "Total failed writes for a job.",
		[]string{"job_id"}, nil,
	)
	rowsWrittenDesc = prometheus.NewDesc(
		"neuract_job_rows_written_total", "Total rows written by a job.",
		[]string{"job_id"}, nil,
	)
	triggersFiredDesc = prometheus.NewDesc(
		"neuract_job_triggers_fired_total", "Total triggers fired by a job.",
		[]string{"job_id"}, nil,
	)
	triggersSuppressedDesc = prometheus.NewDesc(
		"neuract_job_triggers_suppressed_total", "Total triggers suppressed by cooldown for a job.",
		[]string{"job_id"}, nil,
	)
	avgReadLatencyDesc = prometheus.NewDesc(
		"neuract_job_read_latency_ms_avg", "Average read latency over the rolling window.",
		[]string{"job_id"}, nil,
	)
	p95ReadLatencyDesc = prometheus.NewDesc(
		"neuract_job_read_latency_ms_p95", "95th percentile read latency over the rolling window.",
		[]string{"job_id"}, nil,
	)
)

// Registry is the process-wide handle onto every running job's
// metrics (spec §9, "process-wide pools as singletons"). It
// implements prometheus.Collector so /metrics can expose it directly.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*JobMetrics
}

var _ prometheus.Collector = (*Registry)(nil)

func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*JobMetrics)}
}

// Get returns (creating if absent) the JobMetrics for jobID.
func (r *Registry) Get(jobID string) *JobMetrics {
	r.mu.RLock()
	m, ok := r.jobs[jobID]
	r.mu.RUnlock()
	if ok {
		return m
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.jobs[jobID]; ok {
		return m
	}
	m = NewJobMetrics(jobID)
	r.jobs[jobID] = m
	return m
}

// Remove drops a job's metrics, e.g. once its JobRun has been
// finalized and the snapshot persisted.
func (r *Registry) Remove(jobID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.jobs, jobID)
}

// Describe implements prometheus.Collector.
func (r *Registry) Describe(ch chan<- *prometheus.Desc) {
	ch <- readsDesc
	ch <- readErrorsDesc
	ch <- writesDesc
	ch <- writeErrorsDesc
	ch <- rowsWrittenDesc
	ch <- triggersFiredDesc
	ch <- triggersSuppressedDesc
	ch <- avgReadLatencyDesc
	ch <- p95ReadLatencyDesc
}

// Collect implements prometheus.Collector.
func (r *Registry) Collect(ch chan<- prometheus.Metric) {
	r.mu.RLock()
	snapshots := make([]Summary, 0, len(r.jobs))
	for _, m := range r.jobs {
		snapshots = append(snapshots, m.Summary())
	}
	r.mu.RUnlock()

	for _, s := range snapshots {
		ch <- prometheus.MustNewConstMetric(readsDesc, prometheus.CounterValue, float64(s.Reads), s.JobID)
		ch <- prometheus.MustNewConstMetric(readErrorsDesc, prometheus.CounterValue, float64(s.ReadErrors), s.JobID)
		ch <- prometheus.MustNewConstMetric(writesDesc, prometheus.CounterValue, float64(s.Writes), s.JobID)
		ch <- prometheus.MustNewConstMetric(writeErrorsDesc, prometheus.CounterValue, float64(s.WriteErrors), s.JobID)
		ch <- prometheus.MustNewConstMetric(rowsWrittenDesc, prometheus.CounterValue, float64(s.RowsWritten), s.JobID)
		ch <- prometheus.MustNewConstMetric(triggersFiredDesc, prometheus.CounterValue, float64(s.TriggersFired), s.JobID)
		ch <- prometheus.MustNewConstMetric(triggersSuppressedDesc, prometheus.CounterValue, float64(s.TriggersSuppressed), s.JobID)
		if s.AvgReadLatencyMs != nil {
			ch <- prometheus.MustNewConstMetric(avgReadLatencyDesc, prometheus.GaugeValue, *s.AvgReadLatencyMs, s.JobID)
		}
		if s.P95ReadLatencyMs != nil {
			ch <- prometheus.MustNewConstMetric(p95ReadLatencyDesc, prometheus.GaugeValue, *s.P95ReadLatencyMs, s.JobID)
		}
	}
}
