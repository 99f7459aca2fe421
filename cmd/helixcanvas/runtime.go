package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"

	"helixcanvas/internal/blob"
	"helixcanvas/internal/core"
	"helixcanvas/internal/worker"
	"helixcanvas/pkg/domain"
)

// workspace bundles the service with the resources it owns.
type workspace struct {
	svc      *core.Service
	store    domain.PersistentStore
	pool     *worker.Pool
	registry *prometheus.Registry
	expvar   *core.ExpvarMetricsRecorder
}

// openWorkspace wires storage, the import archive, the worker pool and the
// observability sinks selected by the configuration.
func (a *app) openWorkspace(ctx context.Context) (*workspace, error) {
	store, err := core.OpenPersistentStore(a.cfg.Storage, core.NewDefaultRulesEngine())
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	archive, err := blob.Open(ctx, a.cfg.Blob)
	if err != nil {
		_ = core.CloseStore(store)
		return nil, fmt.Errorf("open blob store: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	ws := &workspace{
		store:    store,
		registry: reg,
		expvar:   core.NewExpvarMetricsRecorder(""),
		pool:     worker.NewPool(worker.WithSize(a.cfg.Workers), worker.WithRegisterer(reg)),
	}

	var tracer core.Tracer = core.NewOTelTracer(otel.GetTracerProvider())
	if a.trace {
		tracer = core.NewJSONTracer(a.stderr)
	}
	opts := []core.Option{
		core.WithLogger(charmLogger{l: a.logger}),
		core.WithMetricsRecorder(core.CombineMetrics(core.NewPrometheusMetricsRecorder(reg), ws.expvar)),
		core.WithTracer(tracer),
		core.WithAuditRecorder(auditLog{l: a.logger}),
		core.WithWorker(ws.pool),
	}
	if archive != nil {
		opts = append(opts, core.WithArchive(archive))
		a.logger.Debug("import archive enabled", "driver", archive.Driver())
	}
	ws.svc = core.NewService(store, opts...)
	return ws, nil
}

func (w *workspace) Close() error {
	w.pool.Close()
	return core.CloseStore(w.store)
}
