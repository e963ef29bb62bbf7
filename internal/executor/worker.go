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

package executor

import (
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/neuract/agent/internal/catalog"
	"github.com/neuract/agent/internal/jobmetrics"
	"github.com/neuract/agent/internal/trigger"
)

// worker owns one running job's goroutine, its batch buffers and its
// trigger state. Create with newWorker; start it with run.
type worker struct {
	snapshot  snapshot
	readFn    ReadFunc
	writeFn   WriteFunc
	metrics   *jobmetrics.JobMetrics
	evaluator *trigger.Evaluator
	logger    log.Logger

	stopCh chan struct{}
	doneCh chan struct{}
}

func newWorker(snap snapshot, readFn ReadFunc, writeFn WriteFunc, metrics *jobmetrics.JobMetrics, logger log.Logger) *worker {
	return &worker{
		snapshot:  snap,
		readFn:    readFn,
		writeFn:   writeFn,
		metrics:   metrics,
		evaluator: trigger.NewEvaluator(),
		logger:    logger,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// run is the job loop body (spec §4.6/§8): sequential per-table reads
// each tick, continuous-vs-trigger write decision, per-table batch
// buffering, interruptible sleep for the remainder of the interval
// and a single final flush on stop. It never accumulates a catch-up
// burst: a slow tick just runs the next one immediately rather than
// firing several back-to-back.
func (w *worker) run() {
	defer close(w.doneCh)

	buffers := make(map[string][]map[string]interface{}, len(w.snapshot.tableIDs))
	for _, tid := range w.snapshot.tableIDs {
		buffers[tid] = nil
	}

	level.Info(w.logger).Log("msg", "job loop started", "job_id", w.snapshot.jobID, "job_type", w.snapshot.jobType, "interval_ms", w.snapshot.intervalMs)

	for {
		select {
		case <-w.stopCh:
			w.flushAll(buffers)
			level.Info(w.logger).Log("msg", "job loop stopped", "job_id", w.snapshot.jobID)
			return
		default:
		}

		loopStart := time.Now()

		for _, tableID := range w.snapshot.tableIDs {
			select {
			case <-w.stopCh:
				w.flushAll(buffers)
				level.Info(w.logger).Log("msg", "job loop stopped", "job_id", w.snapshot.jobID)
				return
			default:
			}
			w.tick(tableID, buffers)
		}

		elapsed := time.Since(loopStart)
		sleep := w.snapshot.interval() - elapsed
		if sleep > 0 {
			timer := time.NewTimer(sleep)
			select {
			case <-w.stopCh:
				timer.Stop()
				w.flushAll(buffers)
				level.Info(w.logger).Log("msg", "job loop stopped", "job_id", w.snapshot.jobID)
				return
			case <-timer.C:
			}
		}
	}
}

// tick reads one table, decides whether to buffer the result and
// flushes the table's buffer once it reaches batch_size.
func (w *worker) tick(tableID string, buffers map[string][]map[string]interface{}) {
	readStart := time.Now()
	values, err := w.readFn(tableID)
	readLatencyMs := float64(time.Since(readStart).Microseconds()) / 1000.0

	if err != nil {
		w.metrics.RecordRead(0, false)
		w.metrics.RecordError("LOOP_ERROR", err.Error())
		level.Error(w.logger).Log("msg", "job read failed", "job_id", w.snapshot.jobID, "table_id", tableID, "err", err)
		return
	}
	w.metrics.RecordRead(readLatencyMs, true)

	if values == nil {
		return
	}

	var shouldWrite bool
	if w.snapshot.jobType == catalog.JobContinuous {
		shouldWrite = true
	} else {
		shouldWrite = w.evaluator.Evaluate(tableID, values, w.snapshot.triggers, w.metrics)
	}

	if !shouldWrite {
		return
	}

	row := make(map[string]interface{}, len(values)+1)
	for k, v := range values {
		row[k] = v
	}
	row["timestamp_utc"] = time.Now().UTC()

	buffers[tableID] = append(buffers[tableID], row)

	if len(buffers[tableID]) >= w.snapshot.batchSize {
		w.flush(tableID, buffers)
	}
}

func (w *worker) flush(tableID string, buffers map[string][]map[string]interface{}) {
	rows := buffers[tableID]
	if len(rows) == 0 {
		return
	}

	writeStart := time.Now()
	err := w.writeFn(tableID, rows)
	writeLatencyMs := float64(time.Since(writeStart).Microseconds()) / 1000.0

	w.metrics.RecordWrite(writeLatencyMs, int64(len(rows)), err == nil)
	if err != nil {
		w.metrics.RecordError("WRITE_ERROR", err.Error())
		level.Error(w.logger).Log("msg", "job write failed", "job_id", w.snapshot.jobID, "table_id", tableID, "err", err)
	}
	buffers[tableID] = nil
}

func (w *worker) flushAll(buffers map[string][]map[string]interface{}) {
	for _, tableID := range w.snapshot.tableIDs {
		w.flush(tableID, buffers)
	}
}

// stop signals the loop to exit and waits up to 5s for it to drain
// its buffers and return, per spec §8.
func (w *worker) stop() {
	close(w.stopCh)
	select {
	case <-w.doneCh:
	case <-time.After(5 * time.Second):
		level.Warn(w.logger).Log("msg", "job stop timed out", "job_id", w.snapshot.jobID)
	}
}
