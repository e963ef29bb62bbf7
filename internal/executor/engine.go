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
	"fmt"
	"sync"

	"github.com/go-kit/log"

	"github.com/neuract/agent/internal/agenterr"
	"github.com/neuract/agent/internal/catalog"
	"github.com/neuract/agent/internal/jobmetrics"
)

// Engine is the process-wide job-execution handle (spec §9,
// "process-wide pools as singletons"). Create one with NewEngine and
// share it.
type Engine struct {
	mu      sync.Mutex
	workers map[string]*worker
	metrics *jobmetrics.Registry
	logger  log.Logger
}

func NewEngine(metrics *jobmetrics.Registry, logger log.Logger) *Engine {
	return &Engine{
		workers: make(map[string]*worker),
		metrics: metrics,
		logger:  logger,
	}
}

// Start launches job's worker loop, taking an immutable snapshot of
// job so later catalog edits cannot race the running worker (spec
// §9). Starting requires enabled ∧ ¬running (spec §4.6): a disabled
// job is a config error, an already-running job is a conflict.
func (e *Engine) Start(job catalog.Job, readFn ReadFunc, writeFn WriteFunc) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !job.Enabled {
		return agenterr.New(agenterr.ConfigError, fmt.Sprintf("job %s is disabled", job.ID))
	}

	if _, ok := e.workers[job.ID]; ok {
		return agenterr.New(agenterr.Conflict, fmt.Sprintf("job %s is already running", job.ID))
	}

	metrics := e.metrics.Get(job.ID)
	metrics.Reset()

	w := newWorker(newSnapshot(job), readFn, writeFn, metrics, log.With(e.logger, "component", "executor"))
	e.workers[job.ID] = w
	go w.run()

	return nil
}

// Stop halts jobID's worker, draining and flushing its buffers once,
// and waits up to 5s for it to exit (spec §8). Metrics are preserved
// (pause_job semantics share this path, per the original service).
func (e *Engine) Stop(jobID string) error {
	e.mu.Lock()
	w, ok := e.workers[jobID]
	delete(e.workers, jobID)
	e.mu.Unlock()

	if !ok {
		return agenterr.New(agenterr.NotFound, fmt.Sprintf("job %s is not running", jobID))
	}

	w.stop()
	return nil
}

// StopAll stops every running job and returns the count stopped.
func (e *Engine) StopAll() int {
	e.mu.Lock()
	ids := make([]string, 0, len(e.workers))
	for id := range e.workers {
		ids = append(ids, id)
	}
	e.mu.Unlock()

	count := 0
	for _, id := range ids {
		if e.Stop(id) == nil {
			count++
		}
	}
	return count
}

// IsRunning reports whether jobID currently has a live worker.
func (e *Engine) IsRunning(jobID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.workers[jobID]
	return ok
}

// Metrics returns the current metrics snapshot for jobID, if it has
// ever been started.
func (e *Engine) Metrics(jobID string) jobmetrics.Summary {
	return e.metrics.Get(jobID).Summary()
}
