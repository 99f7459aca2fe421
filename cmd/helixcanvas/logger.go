package main

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"helixcanvas/internal/core"
)

func newLogger(w io.Writer, level string) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          "helixcanvas",
	})
	switch strings.ToLower(level) {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "info", "":
		logger.SetLevel(log.InfoLevel)
	case "warn", "warning":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
		logger.Warn("unknown log level, defaulting to info", "provided", level)
	}
	return logger
}

// charmLogger adapts a charm logger to the service logging interface.
type charmLogger struct {
	l *log.Logger
}

var _ core.Logger = charmLogger{}

func (c charmLogger) Debug(msg string, args ...any) { c.l.Debug(msg, args...) }
func (c charmLogger) Info(msg string, args ...any)  { c.l.Info(msg, args...) }
func (c charmLogger) Warn(msg string, args ...any)  { c.l.Warn(msg, args...) }
func (c charmLogger) Error(msg string, args ...any) { c.l.Error(msg, args...) }

// auditLog writes audit entries to the logger at debug level, or at warn
// level for failures.
type auditLog struct {
	l *log.Logger
}

func (a auditLog) Record(_ context.Context, e core.AuditEntry) {
	kv := []any{
		"operation", e.Operation,
		"entity", string(e.Entity),
		"action", string(e.Action),
		"id", e.EntityID,
		"duration", e.Duration,
	}
	if e.Status == core.AuditStatusError {
		a.l.Warn("audit", append(kv, "error", e.Error)...)
		return
	}
	a.l.Debug("audit", kv...)
}
