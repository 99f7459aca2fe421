package worker

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ErrClosed is returned by Do after Close.
var ErrClosed = errors.New("worker pool closed")

// Doer executes one request across the boundary.
type Doer interface {
	Do(ctx context.Context, req Request) (Response, error)
}

// Inline runs requests on the calling goroutine. It satisfies Doer for
// callers that do not need a pool.
type Inline struct{}

// Do implements Doer.
func (Inline) Do(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	return Handle(req), nil
}

type job struct {
	ctx   context.Context
	req   Request
	reply chan Response
}

type poolMetrics struct {
	jobs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inflight prometheus.Gauge
	queued   prometheus.Gauge
}

func newPoolMetrics(reg prometheus.Registerer) *poolMetrics {
	factory := promauto.With(reg)
	return &poolMetrics{
		jobs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "helixcanvas",
			Subsystem: "worker",
			Name:      "jobs_total",
			Help:      "Worker jobs processed by method and status.",
		}, []string{"method", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "helixcanvas",
			Subsystem: "worker",
			Name:      "job_duration_seconds",
			Help:      "Time spent executing worker jobs.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"method"}),
		inflight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "helixcanvas",
			Subsystem: "worker",
			Name:      "inflight_jobs",
			Help:      "Jobs currently executing.",
		}),
		queued: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "helixcanvas",
			Subsystem: "worker",
			Name:      "queued_jobs",
			Help:      "Jobs waiting for a free worker.",
		}),
	}
}

// Option configures a Pool.
type Option func(*poolConfig)

type poolConfig struct {
	size       int
	registerer prometheus.Registerer
}

// WithSize sets the number of worker goroutines. Values below 1 fall back to GOMAXPROCS.
func WithSize(n int) Option {
	return func(c *poolConfig) { c.size = n }
}

// WithRegisterer registers the pool metrics with reg. Without it the
// collectors exist but are not exported.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *poolConfig) { c.registerer = reg }
}

// Pool is a fixed set of goroutines draining a job queue.
type Pool struct {
	jobs    chan job
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
	size    int
	metrics *poolMetrics
}

// NewPool starts the worker goroutines.
func NewPool(opts ...Option) *Pool {
	cfg := poolConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.size < 1 {
		cfg.size = runtime.GOMAXPROCS(0)
	}
	p := &Pool{
		jobs:    make(chan job, cfg.size*2),
		size:    cfg.size,
		metrics: newPoolMetrics(cfg.registerer),
	}
	p.wg.Add(cfg.size)
	for w := 0; w < cfg.size; w++ {
		go p.run()
	}
	return p
}

// Size returns the number of worker goroutines.
func (p *Pool) Size() int { return p.size }

func (p *Pool) run() {
	defer p.wg.Done()
	for j := range p.jobs {
		p.metrics.queued.Dec()
		if j.ctx.Err() != nil {
			p.metrics.jobs.WithLabelValues(j.req.Method, "cancelled").Inc()
			continue
		}
		p.metrics.inflight.Inc()
		started := time.Now()
		resp := Handle(j.req)
		p.metrics.duration.WithLabelValues(j.req.Method).Observe(time.Since(started).Seconds())
		p.metrics.inflight.Dec()
		status := "ok"
		if resp.Error != nil {
			status = resp.Error.Code
		}
		p.metrics.jobs.WithLabelValues(j.req.Method, status).Inc()
		j.reply <- resp
	}
}

// Do queues req and waits for its response. Cancelling ctx abandons the wait;
// a job already executing still runs to completion and its result is dropped.
func (p *Pool) Do(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	reply := make(chan Response, 1)
	if err := p.submit(ctx, job{ctx: ctx, req: req, reply: reply}); err != nil {
		return Response{}, err
	}
	select {
	case resp := <-reply:
		return resp, nil
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
}

func (p *Pool) submit(ctx context.Context, j job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	p.metrics.queued.Inc()
	select {
	case p.jobs <- j:
		return nil
	case <-ctx.Done():
		p.metrics.queued.Dec()
		return ctx.Err()
	}
}

// Close stops accepting work and waits for queued jobs to drain.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
}
