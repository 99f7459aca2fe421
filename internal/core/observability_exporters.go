package core

import (
	"context"
	"encoding/json"
	"expvar"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

var expvarSeq uint64

// OperationStats aggregates the outcomes of one operation.
type OperationStats struct {
	Success    int64   `json:"success"`
	Error      int64   `json:"error"`
	TotalMS    float64 `json:"total_ms"`
	LastStatus string  `json:"last_status"`
}

// ExpvarMetricsRecorder publishes per-operation counters and cumulative
// latency through expvar under a single variable.
type ExpvarMetricsRecorder struct {
	name string
	mu   sync.Mutex
	ops  map[string]*OperationStats
}

// ExpvarMetricsSnapshot is the JSON document exported by the recorder.
type ExpvarMetricsSnapshot struct {
	Operations map[string]OperationStats `json:"operations"`
	RecordedAt time.Time                 `json:"recorded_at"`
}

// NewExpvarMetricsRecorder publishes a recorder under name, generating a
// unique name when empty. expvar names are process-global.
func NewExpvarMetricsRecorder(name string) *ExpvarMetricsRecorder {
	if name == "" {
		name = fmt.Sprintf("helixcanvas_service_%d", atomic.AddUint64(&expvarSeq, 1))
	}
	rec := &ExpvarMetricsRecorder{name: name, ops: make(map[string]*OperationStats)}
	expvar.Publish(name, expvar.Func(func() any { return rec.Snapshot() }))
	return rec
}

// Name returns the expvar export name associated with the recorder.
func (r *ExpvarMetricsRecorder) Name() string { return r.name }

// Snapshot returns a copy of the aggregated metrics.
func (r *ExpvarMetricsRecorder) Snapshot() ExpvarMetricsSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]OperationStats, len(r.ops))
	for op, stats := range r.ops {
		out[op] = *stats
	}
	return ExpvarMetricsSnapshot{Operations: out, RecordedAt: time.Now().UTC()}
}

// Observe implements MetricsRecorder.
func (r *ExpvarMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stats, ok := r.ops[operation]
	if !ok {
		stats = &OperationStats{}
		r.ops[operation] = stats
	}
	stats.TotalMS += float64(duration) / float64(time.Millisecond)
	if success {
		stats.Success++
		stats.LastStatus = string(AuditStatusSuccess)
	} else {
		stats.Error++
		stats.LastStatus = string(AuditStatusError)
	}
}

// JSONTraceEntry is one finished span as written by JSONTraceTracer.
type JSONTraceEntry struct {
	Operation  string    `json:"operation"`
	Status     string    `json:"status"`
	DurationMS float64   `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at"`
}

// JSONTraceTracer writes finished spans as JSON lines and keeps them in memory.
type JSONTraceTracer struct {
	mu      sync.Mutex
	entries []JSONTraceEntry
	enc     *json.Encoder
	clock   Clock
}

// NewJSONTracer writes spans to w; a nil writer only retains them.
func NewJSONTracer(w io.Writer) *JSONTraceTracer {
	t := &JSONTraceTracer{clock: systemClock{}}
	if w != nil {
		t.enc = json.NewEncoder(w)
	}
	return t
}

// Entries returns a copy of all recorded spans.
func (t *JSONTraceTracer) Entries() []JSONTraceEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]JSONTraceEntry(nil), t.entries...)
}

// Start implements Tracer.
func (t *JSONTraceTracer) Start(ctx context.Context, operation string) (context.Context, TraceSpan) {
	return ctx, &jsonTraceSpan{tracer: t, operation: operation, started: t.clock.Now()}
}

type jsonTraceSpan struct {
	tracer    *JSONTraceTracer
	operation string
	started   time.Time
	once      sync.Once
}

func (s *jsonTraceSpan) End(err error) {
	s.once.Do(func() {
		ended := s.tracer.clock.Now()
		entry := JSONTraceEntry{
			Operation:  s.operation,
			Status:     string(AuditStatusSuccess),
			DurationMS: float64(ended.Sub(s.started)) / float64(time.Millisecond),
			StartedAt:  s.started,
			EndedAt:    ended,
		}
		if err != nil {
			entry.Status = string(AuditStatusError)
			entry.Error = err.Error()
		}
		s.tracer.mu.Lock()
		defer s.tracer.mu.Unlock()
		s.tracer.entries = append(s.tracer.entries, entry)
		if s.tracer.enc != nil {
			_ = s.tracer.enc.Encode(entry)
		}
	})
}

type metricsFanout []MetricsRecorder

func (f metricsFanout) Observe(ctx context.Context, operation string, success bool, duration time.Duration) {
	for _, r := range f {
		r.Observe(ctx, operation, success, duration)
	}
}

// CombineMetrics returns a recorder that forwards every observation to each
// non-nil recorder in order.
func CombineMetrics(recorders ...MetricsRecorder) MetricsRecorder {
	out := make(metricsFanout, 0, len(recorders))
	for _, r := range recorders {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}
