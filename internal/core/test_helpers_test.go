package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"helixcanvas/pkg/domain"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() Clock {
	return ClockFunc(func() time.Time { return fixedNow })
}

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	return NewInMemoryService(nil, append([]Option{WithClock(fixedClock())}, opts...)...)
}

func mustAddSequence(t *testing.T, svc *Service, name, residues string) domain.SequenceRecord {
	t.Helper()
	out, err := svc.AddSequences(context.Background(), []domain.SequenceRecord{{
		Name: name, Type: domain.SequenceDNA, Residues: residues,
	}})
	if err != nil {
		t.Fatalf("add sequence %s: %v", name, err)
	}
	if len(out) != 1 {
		t.Fatalf("expected one stored sequence, got %d", len(out))
	}
	return out[0]
}

func pairAlignment() domain.AlignmentRecord {
	return domain.AlignmentRecord{
		Name:   "pair",
		Format: domain.AlignmentFASTA,
		Type:   domain.AlignmentPairwise,
		Sequences: []domain.AlignmentSequence{
			{ID: "r1", Name: "first", Residues: "ACGT"},
			{ID: "r2", Name: "second", Residues: "ACGA"},
		},
	}
}

type captureAuditRecorder struct {
	mu      sync.Mutex
	entries []AuditEntry
}

func (c *captureAuditRecorder) Record(_ context.Context, entry AuditEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, entry)
}

func (c *captureAuditRecorder) has(op string, status AuditStatus, predicate func(AuditEntry) bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, entry := range c.entries {
		if entry.Operation == op && entry.Status == status {
			if predicate == nil || predicate(entry) {
				return true
			}
		}
	}
	return false
}

type metricsCall struct {
	op       string
	success  bool
	duration time.Duration
}

type captureMetricsRecorder struct {
	calls []metricsCall
}

func (c *captureMetricsRecorder) Observe(_ context.Context, op string, success bool, duration time.Duration) {
	c.calls = append(c.calls, metricsCall{op: op, success: success, duration: duration})
}

func (c *captureMetricsRecorder) has(op string, success bool) bool {
	for _, call := range c.calls {
		if call.op == op && call.success == success {
			return true
		}
	}
	return false
}

type spanRecord struct {
	op  string
	err error
}

type captureTracer struct {
	started []string
	ended   []spanRecord
}

func (c *captureTracer) Start(ctx context.Context, op string) (context.Context, TraceSpan) {
	c.started = append(c.started, op)
	return ctx, &captureSpan{tracer: c, op: op}
}

func (c *captureTracer) has(op string, success bool) bool {
	for _, record := range c.ended {
		if record.op == op && (record.err == nil) == success {
			return true
		}
	}
	return false
}

type captureSpan struct {
	tracer *captureTracer
	op     string
}

func (s *captureSpan) End(err error) {
	s.tracer.ended = append(s.tracer.ended, spanRecord{op: s.op, err: err})
}

type logCall struct {
	level string
	msg   string
	args  []any
}

type captureLogger struct {
	mu    sync.Mutex
	calls []logCall
}

func (l *captureLogger) add(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, logCall{level: level, msg: msg, args: args})
}

func (l *captureLogger) Debug(msg string, args ...any) { l.add("debug", msg, args) }
func (l *captureLogger) Info(msg string, args ...any)  { l.add("info", msg, args) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.add("warn", msg, args) }
func (l *captureLogger) Error(msg string, args ...any) { l.add("error", msg, args) }

func (l *captureLogger) count(level, msg string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, c := range l.calls {
		if c.level == level && c.msg == msg {
			n++
		}
	}
	return n
}
