package core

import (
	"context"
	"time"

	"helixcanvas/pkg/domain"
)

// Logger is the structured logging surface the service writes to. keyvals
// alternate between string keys and arbitrary values.
type Logger interface {
	Debug(msg string, keyvals ...any)
	Info(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// MetricsRecorder observes the outcome and latency of each service operation.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) Observe(context.Context, string, bool, time.Duration) {}

// TraceSpan is ended exactly once with the operation error, if any.
type TraceSpan interface {
	End(err error)
}

// Tracer opens a span per service operation.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

type noopTracer struct{}

type noopSpan struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

func (noopSpan) End(error) {}

// AuditStatus is the outcome recorded in an audit entry.
type AuditStatus string

// Audit outcomes.
const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusError   AuditStatus = "error"
)

// AuditEntry describes one completed service operation.
type AuditEntry struct {
	Operation  string            `json:"operation"`
	Entity     domain.EntityType `json:"entity"`
	Action     domain.Action     `json:"action"`
	EntityID   string            `json:"entity_id,omitempty"`
	Status     AuditStatus       `json:"status"`
	Error      string            `json:"error,omitempty"`
	Violations int               `json:"violations,omitempty"`
	Duration   time.Duration     `json:"duration"`
	Timestamp  time.Time         `json:"timestamp"`
}

// AuditRecorder receives an entry for every mutating operation.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

type noopAudit struct{}

func (noopAudit) Record(context.Context, AuditEntry) {}

type operationMeta struct {
	entity domain.EntityType
	action domain.Action
}

// operations lists every audited operation with the record kind it touches.
var operations = map[string]operationMeta{
	OpImportFile:             {domain.EntitySequence, domain.ActionCreate},
	OpAddSequences:           {domain.EntitySequence, domain.ActionCreate},
	OpUpdateSequence:         {domain.EntitySequence, domain.ActionUpdate},
	OpRemoveSequence:         {domain.EntitySequence, domain.ActionDelete},
	OpImportFeaturesGFF:      {domain.EntitySequence, domain.ActionUpdate},
	OpAddAlignment:           {domain.EntityAlignment, domain.ActionCreate},
	OpUpdateAlignment:        {domain.EntityAlignment, domain.ActionUpdate},
	OpMutateAlignmentResidue: {domain.EntityAlignment, domain.ActionUpdate},
	OpRemoveAlignment:        {domain.EntityAlignment, domain.ActionDelete},
	OpAddAnnotations:         {domain.EntitySequence, domain.ActionUpdate},
	OpImportAnnotationsCSV:   {domain.EntitySequence, domain.ActionUpdate},
	OpUpdateAnnotation:       {domain.EntitySequence, domain.ActionUpdate},
	OpRemoveAnnotation:       {domain.EntitySequence, domain.ActionUpdate},
	OpUndoAnnotations:        {domain.EntitySequence, domain.ActionUpdate},
	OpRedoAnnotations:        {domain.EntitySequence, domain.ActionUpdate},
	OpAddBookmark:            {domain.EntityBookmark, domain.ActionCreate},
	OpRemoveBookmark:         {domain.EntityBookmark, domain.ActionDelete},
}

// Operation names used for audit, metrics and tracing.
const (
	OpImportFile             = "import_file"
	OpAddSequences           = "add_sequences"
	OpUpdateSequence         = "update_sequence"
	OpRemoveSequence         = "remove_sequence"
	OpImportFeaturesGFF      = "import_features_gff"
	OpAddAlignment           = "add_alignment"
	OpUpdateAlignment        = "update_alignment"
	OpMutateAlignmentResidue = "mutate_alignment_residue"
	OpRemoveAlignment        = "remove_alignment"
	OpAddAnnotations         = "add_annotations"
	OpImportAnnotationsCSV   = "import_annotations_csv"
	OpUpdateAnnotation       = "update_annotation"
	OpRemoveAnnotation       = "remove_annotation"
	OpUndoAnnotations        = "undo_annotations"
	OpRedoAnnotations        = "redo_annotations"
	OpAddBookmark            = "add_bookmark"
	OpRemoveBookmark         = "remove_bookmark"
)
