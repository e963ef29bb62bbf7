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

package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/promlog"
	promlogflag "github.com/prometheus/common/promlog/flag"
	"github.com/prometheus/common/version"
	"github.com/prometheus/exporter-toolkit/web"
	webflag "github.com/prometheus/exporter-toolkit/web/kingpinflag"

	"github.com/neuract/agent/internal/catalog"
	"github.com/neuract/agent/internal/executor"
	"github.com/neuract/agent/internal/gateway"
	"github.com/neuract/agent/internal/jobmetrics"
	"github.com/neuract/agent/internal/modbusclient"
	"github.com/neuract/agent/internal/opcuaclient"
	"github.com/neuract/agent/internal/storage"
)

var (
	webConfig = webflag.AddFlags(kingpin.CommandLine, ":9610")
	metricPath = kingpin.Flag(
		"web.telemetry-path",
		"Path under which to expose metrics.",
	).Default("/metrics").String()
	healthPath = kingpin.Flag(
		"web.health-path",
		"Path under which to expose a liveness check.",
	).Default("/healthz").String()
	storageCredentialsFile = kingpin.Flag(
		"storage.credentials-file",
		"Path to an INI file of [storage-target-name] sections providing user/password for storage targets whose connection_string omits them.",
	).Default("").String()
)

// engine is the process-wide handle holding every pool and the
// executor, passed by reference to every HTTP-facing operation (spec
// §9, "process-wide pools as singletons").
type engine struct {
	catalog  catalog.Store
	modbus   *modbusclient.Client
	opcua    *opcuaclient.Client
	storage  *storage.Store
	metrics  *jobmetrics.Registry
	executor *executor.Engine
	gateway  *gateway.Gateway
}

func newEngine(logger log.Logger) *engine {
	store := catalog.NewMemory()
	metrics := jobmetrics.NewRegistry()
	exec := executor.NewEngine(metrics, logger)
	modbus := modbusclient.NewClient()
	opcua := opcuaclient.NewClient()
	storageStore := storage.NewStore()

	gw := gateway.NewGateway(store, modbus, opcua, storageStore, exec)
	if *storageCredentialsFile != "" {
		gw.SetCredentialsFile(*storageCredentialsFile)
	}

	return &engine{
		catalog:  store,
		modbus:   modbus,
		opcua:    opcua,
		storage:  storageStore,
		metrics:  metrics,
		executor: exec,
		gateway:  gw,
	}
}

func main() {
	promlogConfig := &promlog.Config{}
	promlogflag.AddFlags(kingpin.CommandLine, promlogConfig)

	kingpin.Version(version.Print("neuract-agent"))
	kingpin.HelpFlag.Short('h')
	kingpin.Parse()

	logger := promlog.New(promlogConfig)
	level.Info(logger).Log("msg", "starting neuract-agent", "version", version.Info())
	level.Info(logger).Log("build_context", version.BuildContext())

	eng := newEngine(logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(eng.metrics)
	registry.MustRegister(version.NewCollector("neuract_agent"))

	mux := http.NewServeMux()
	mux.Handle(*metricPath, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc(*healthPath, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>neuract-agent</title></head><body>
<h1>neuract-agent</h1><p><a href="` + *metricPath + `">Metrics</a></p>
</body></html>`))
	})

	srv := &http.Server{Handler: mux}
	go func() {
		level.Info(logger).Log("msg", "starting diagnostics listener")
		if err := web.ListenAndServe(srv, webConfig, logger); err != nil && err != http.ErrServerClosed {
			level.Error(logger).Log("msg", "diagnostics server stopped", "err", err)
		}
	}()

	waitForShutdown(logger, eng)
}

// waitForShutdown blocks on SIGINT/SIGTERM, then stops every running
// job, giving each its 5s drain-and-flush window (spec §8).
func waitForShutdown(logger log.Logger, eng *engine) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	level.Info(logger).Log("msg", "shutting down, stopping all jobs")
	stopped := eng.executor.StopAll()
	level.Info(logger).Log("msg", "stopped jobs", "count", stopped)
}
