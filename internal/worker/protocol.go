// Package worker runs the CPU-heavy analysis and parsing functions on a pool
// of goroutines behind a serialized request/response boundary. Only JSON
// bytes cross the boundary in either direction.
package worker

import (
	"encoding/json"
	"errors"
	"fmt"

	"helixcanvas/pkg/domain"
)

// Method names accepted by the pool.
const (
	MethodGC                  = "gc"
	MethodTranslate           = "translate"
	MethodORFs                = "orfs"
	MethodPairwiseIdentity    = "pairwiseIdentity"
	MethodDotPlot             = "dotPlot"
	MethodParseFile           = "parseFile"
	MethodParseAnnotationsCSV = "parseAnnotationsCsv"
	MethodParseGFF            = "parseGff"
	MethodParseAlignment      = "parseAlignment"
	MethodReverseComplement   = "reverseComplement"
)

// Error codes carried by RemoteError.
const (
	CodeUnsupportedFormat = "unsupported_format"
	CodeBadRequest        = "bad_request"
	CodeUnknownMethod     = "unknown_method"
	CodeInternal          = "internal"
)

// Request is one call across the boundary.
type Request struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

// Response carries either a result or an error, never both.
type Response struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  *RemoteError    `json:"error,omitempty"`
}

// RemoteError is the serialized failure of a worker call.
type RemoteError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Format  string `json:"format,omitempty"`
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("worker %s: %s", e.Code, e.Message)
}

// Unwrap exposes the typed domain error for unsupported formats so callers
// can use errors.As with domain.UnsupportedFormatError.
func (e *RemoteError) Unwrap() error {
	if e.Code == CodeUnsupportedFormat {
		return domain.UnsupportedFormatError{Format: e.Format}
	}
	return nil
}

func remoteErrorFrom(err error) *RemoteError {
	var re *RemoteError
	if errors.As(err, &re) {
		return re
	}
	var unsupported domain.UnsupportedFormatError
	if errors.As(err, &unsupported) {
		return &RemoteError{Code: CodeUnsupportedFormat, Message: err.Error(), Format: unsupported.Format}
	}
	return &RemoteError{Code: CodeInternal, Message: err.Error()}
}

// GCParams are the arguments of MethodGC.
type GCParams struct {
	Sequence string `json:"sequence"`
	Window   int    `json:"window"`
}

// TranslateParams are the arguments of MethodTranslate.
type TranslateParams struct {
	Sequence string `json:"sequence"`
	Frame    int    `json:"frame"`
}

// ReverseComplementParams are the arguments of MethodReverseComplement.
type ReverseComplementParams struct {
	Sequence string `json:"sequence"`
}

// ORFParams are the arguments of MethodORFs.
type ORFParams struct {
	Sequence  string `json:"sequence"`
	MinLength int    `json:"minLength"`
}

// PairParams are the arguments of MethodPairwiseIdentity.
type PairParams struct {
	A string `json:"a"`
	B string `json:"b"`
}

// DotPlotParams are the arguments of MethodDotPlot.
type DotPlotParams struct {
	Reference string `json:"reference"`
	Query     string `json:"query"`
	Window    int    `json:"window"`
}

// ParseFileParams are the arguments of MethodParseFile.
type ParseFileParams struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// ParseCSVParams are the arguments of MethodParseAnnotationsCSV.
type ParseCSVParams struct {
	Content    string `json:"content"`
	SequenceID string `json:"sequenceId"`
}

// ParseGFFParams are the arguments of MethodParseGFF.
type ParseGFFParams struct {
	Content string `json:"content"`
}

// ParseAlignmentParams are the arguments of MethodParseAlignment.
type ParseAlignmentParams struct {
	Content string                 `json:"content"`
	Format  domain.AlignmentFormat `json:"format"`
}
