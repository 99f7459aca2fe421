// Package core hosts the workspace service: the single application-state
// object that owns sequences, alignments, bookmarks and annotation history,
// and routes heavy parsing through the worker boundary.
package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"helixcanvas/internal/blob"
	"helixcanvas/internal/history"
	"helixcanvas/internal/infra/persistence/memory"
	"helixcanvas/internal/worker"
	"helixcanvas/pkg/domain"
)

// ErrNotFound is returned when an operation references a missing record.
type ErrNotFound struct {
	Entity domain.EntityType
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// Option customizes a Service.
type Option func(*serviceOptions)

type serviceOptions struct {
	clock    Clock
	logger   Logger
	audit    AuditRecorder
	metrics  MetricsRecorder
	tracer   Tracer
	analysis *worker.Client
	archive  *blob.Archive
}

func defaultOptions() serviceOptions {
	return serviceOptions{
		clock:    systemClock{},
		logger:   noopLogger{},
		audit:    noopAudit{},
		metrics:  noopMetrics{},
		tracer:   noopTracer{},
		analysis: worker.NewClient(nil),
	}
}

// WithClock overrides the time source used for annotation and residue edits.
func WithClock(c Clock) Option {
	return func(o *serviceOptions) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l Logger) Option {
	return func(o *serviceOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithAuditRecorder sets the audit sink.
func WithAuditRecorder(r AuditRecorder) Option {
	return func(o *serviceOptions) {
		if r != nil {
			o.audit = r
		}
	}
}

// WithMetricsRecorder sets the metrics sink.
func WithMetricsRecorder(r MetricsRecorder) Option {
	return func(o *serviceOptions) {
		if r != nil {
			o.metrics = r
		}
	}
}

// WithTracer sets the tracer.
func WithTracer(t Tracer) Option {
	return func(o *serviceOptions) {
		if t != nil {
			o.tracer = t
		}
	}
}

// WithWorker routes parsing through d, typically a *worker.Pool.
func WithWorker(d worker.Doer) Option {
	return func(o *serviceOptions) {
		if d != nil {
			o.analysis = worker.NewClient(d)
		}
	}
}

// WithArchive keeps the raw text of every imported file in store.
func WithArchive(store blob.Store) Option {
	return func(o *serviceOptions) {
		o.archive = blob.NewArchive(store)
	}
}

// Service is the workspace. All mutations run inside a store transaction and
// are audited, measured and traced.
type Service struct {
	store    domain.PersistentStore
	history  *history.Store
	clock    Clock
	logger   Logger
	audit    AuditRecorder
	metrics  MetricsRecorder
	tracer   Tracer
	analysis *worker.Client
	archive  *blob.Archive

	// annotationMu orders annotation edits with their history records.
	annotationMu sync.Mutex

	subMu   sync.RWMutex
	subs    map[int]func(domain.Change)
	nextSub int
}

// NewService constructs a service backed by the supplied store.
func NewService(store domain.PersistentStore, opts ...Option) *Service {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Service{
		store:    store,
		history:  history.NewStore(),
		clock:    o.clock,
		logger:   o.logger,
		audit:    o.audit,
		metrics:  o.metrics,
		tracer:   o.tracer,
		analysis: o.analysis,
		archive:  o.archive,
		subs:     make(map[int]func(domain.Change)),
	}
}

// NewInMemoryService builds a service on an ephemeral store. A nil engine
// selects the default rules.
func NewInMemoryService(engine *domain.RulesEngine, opts ...Option) *Service {
	if engine == nil {
		engine = NewDefaultRulesEngine()
	}
	return NewService(memory.NewStore(engine), opts...)
}

// Store returns the underlying persistent store.
func (s *Service) Store() domain.PersistentStore { return s.store }

// Analysis returns the worker client used for parsing and analytics.
func (s *Service) Analysis() *worker.Client { return s.analysis }

// Archive returns the import archive, or nil when none is configured.
func (s *Service) Archive() *blob.Archive { return s.archive }

// Subscribe registers fn to receive every committed change. The returned
// function removes the subscription.
func (s *Service) Subscribe(fn func(domain.Change)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Service) publish(changes []domain.Change) {
	if len(changes) == 0 {
		return
	}
	s.subMu.RLock()
	subs := make([]func(domain.Change), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.RUnlock()
	for _, change := range changes {
		for _, fn := range subs {
			fn(change)
		}
	}
}

// run executes fn in a transaction and reports the outcome to every
// observability sink. fn returns the id of the primary record it touched.
func (s *Service) run(ctx context.Context, op string, fn func(tx *recordingTx) (string, error)) (domain.Result, error) {
	started := s.clock.Now()
	ctx, span := s.tracer.Start(ctx, op)
	var (
		entityID string
		changes  []domain.Change
	)
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		rec := &recordingTx{Transaction: tx}
		id, err := fn(rec)
		entityID = id
		changes = rec.changes
		return err
	})
	duration := s.clock.Now().Sub(started)
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, duration)
	for _, v := range res.Violations {
		s.logger.Warn("rule violation", "operation", op, "rule", v.Rule, "severity", string(v.Severity), "entity_id", v.EntityID, "message", v.Message)
	}
	if err != nil {
		s.recordAudit(ctx, op, entityID, AuditStatusError, err, len(res.Violations), duration)
		s.logger.Error("operation failed", "operation", op, "entity_id", entityID, "error", err)
		return res, err
	}
	s.recordAudit(ctx, op, entityID, AuditStatusSuccess, nil, len(res.Violations), duration)
	s.logger.Debug("operation committed", "operation", op, "entity_id", entityID, "changes", len(changes), "duration", duration)
	s.publish(changes)
	return res, nil
}

func (s *Service) recordAudit(ctx context.Context, op, entityID string, status AuditStatus, err error, violations int, duration time.Duration) {
	meta, ok := operations[op]
	if !ok {
		return
	}
	entry := AuditEntry{
		Operation:  op,
		Entity:     meta.entity,
		Action:     meta.action,
		EntityID:   entityID,
		Status:     status,
		Violations: violations,
		Duration:   duration,
		Timestamp:  s.clock.Now(),
	}
	if err != nil {
		entry.Error = err.Error()
	}
	s.audit.Record(ctx, entry)
}

// recordingTx captures the changes applied through it so they can be
// published once the transaction commits.
type recordingTx struct {
	domain.Transaction
	changes []domain.Change
}

func (r *recordingTx) note(entity domain.EntityType, action domain.Action, before, after any) {
	r.changes = append(r.changes, domain.Change{Entity: entity, Action: action, Before: before, After: after})
}

func (r *recordingTx) PutSequence(seq domain.SequenceRecord) (domain.SequenceRecord, error) {
	before, existed := domain.SequenceRecord{}, false
	if seq.ID != "" {
		before, existed = r.FindSequence(seq.ID)
	}
	out, err := r.Transaction.PutSequence(seq)
	if err != nil {
		return out, err
	}
	if existed {
		r.note(domain.EntitySequence, domain.ActionUpdate, before, out)
	} else {
		r.note(domain.EntitySequence, domain.ActionCreate, nil, out)
	}
	return out, nil
}

func (r *recordingTx) UpdateSequence(id string, mutator func(*domain.SequenceRecord) error) (domain.SequenceRecord, error) {
	before, _ := r.FindSequence(id)
	out, err := r.Transaction.UpdateSequence(id, mutator)
	if err != nil {
		return out, err
	}
	r.note(domain.EntitySequence, domain.ActionUpdate, before, out)
	return out, nil
}

func (r *recordingTx) DeleteSequence(id string) error {
	before, _ := r.FindSequence(id)
	if err := r.Transaction.DeleteSequence(id); err != nil {
		return err
	}
	r.note(domain.EntitySequence, domain.ActionDelete, before, nil)
	return nil
}

func (r *recordingTx) CreateAlignment(a domain.AlignmentRecord) (domain.AlignmentRecord, error) {
	out, err := r.Transaction.CreateAlignment(a)
	if err != nil {
		return out, err
	}
	r.note(domain.EntityAlignment, domain.ActionCreate, nil, out)
	return out, nil
}

func (r *recordingTx) UpdateAlignment(id string, mutator func(*domain.AlignmentRecord) error) (domain.AlignmentRecord, error) {
	before, _ := r.FindAlignment(id)
	out, err := r.Transaction.UpdateAlignment(id, mutator)
	if err != nil {
		return out, err
	}
	r.note(domain.EntityAlignment, domain.ActionUpdate, before, out)
	return out, nil
}

func (r *recordingTx) DeleteAlignment(id string) error {
	before, _ := r.FindAlignment(id)
	if err := r.Transaction.DeleteAlignment(id); err != nil {
		return err
	}
	r.note(domain.EntityAlignment, domain.ActionDelete, before, nil)
	return nil
}

func (r *recordingTx) CreateBookmark(b domain.Bookmark) (domain.Bookmark, error) {
	out, err := r.Transaction.CreateBookmark(b)
	if err != nil {
		return out, err
	}
	r.note(domain.EntityBookmark, domain.ActionCreate, nil, out)
	return out, nil
}

func (r *recordingTx) DeleteBookmark(id string) error {
	var before any
	for _, b := range r.Snapshot().ListBookmarks() {
		if b.ID == id {
			before = b
		}
	}
	if err := r.Transaction.DeleteBookmark(id); err != nil {
		return err
	}
	r.note(domain.EntityBookmark, domain.ActionDelete, before, nil)
	return nil
}

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool {
	var nf ErrNotFound
	return errors.As(err, &nf)
}
