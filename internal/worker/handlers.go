package worker

import (
	"encoding/json"
	"fmt"

	"helixcanvas/internal/analysis"
	"helixcanvas/internal/formats"
	"helixcanvas/internal/pairwise"
)

type handlerFunc func(params json.RawMessage) (any, error)

// handlers maps each method to a pure function over decoded params.
var handlers = map[string]handlerFunc{
	MethodGC: decoded(func(p GCParams) (any, error) {
		return analysis.GCContent(p.Sequence, p.Window), nil
	}),
	MethodTranslate: decoded(func(p TranslateParams) (any, error) {
		return analysis.Translate(p.Sequence, p.Frame), nil
	}),
	MethodReverseComplement: decoded(func(p ReverseComplementParams) (any, error) {
		return analysis.ReverseComplement(p.Sequence), nil
	}),
	MethodORFs: decoded(func(p ORFParams) (any, error) {
		return analysis.FindORFs(p.Sequence, p.MinLength), nil
	}),
	MethodPairwiseIdentity: decoded(func(p PairParams) (any, error) {
		return pairwise.Identity(p.A, p.B), nil
	}),
	MethodDotPlot: decoded(func(p DotPlotParams) (any, error) {
		return pairwise.DotPlot(p.Reference, p.Query, p.Window), nil
	}),
	MethodParseFile: decoded(func(p ParseFileParams) (any, error) {
		return formats.ParseFile(p.Name, p.Text)
	}),
	MethodParseAnnotationsCSV: decoded(func(p ParseCSVParams) (any, error) {
		return formats.ParseAnnotationsCSV(p.Content, p.SequenceID), nil
	}),
	MethodParseGFF: decoded(func(p ParseGFFParams) (any, error) {
		return formats.ParseGFF3(p.Content), nil
	}),
	MethodParseAlignment: decoded(func(p ParseAlignmentParams) (any, error) {
		return formats.ParseAlignment(p.Content, p.Format)
	}),
}

func decoded[P any](fn func(P) (any, error)) handlerFunc {
	return func(raw json.RawMessage) (any, error) {
		var p P
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &p); err != nil {
				return nil, &RemoteError{Code: CodeBadRequest, Message: fmt.Sprintf("decode params: %v", err)}
			}
		}
		return fn(p)
	}
}

// Methods lists the supported method names.
func Methods() []string {
	return []string{
		MethodGC, MethodTranslate, MethodReverseComplement, MethodORFs, MethodPairwiseIdentity, MethodDotPlot,
		MethodParseFile, MethodParseAnnotationsCSV, MethodParseGFF, MethodParseAlignment,
	}
}

// Handle executes a request synchronously on the calling goroutine.
func Handle(req Request) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			resp = Response{Error: &RemoteError{Code: CodeInternal, Message: fmt.Sprintf("panic: %v", r)}}
		}
	}()
	h, ok := handlers[req.Method]
	if !ok {
		return Response{Error: &RemoteError{Code: CodeUnknownMethod, Message: fmt.Sprintf("unknown method %q", req.Method)}}
	}
	out, err := h(req.Params)
	if err != nil {
		return Response{Error: remoteErrorFrom(err)}
	}
	payload, err := json.Marshal(out)
	if err != nil {
		return Response{Error: &RemoteError{Code: CodeInternal, Message: fmt.Sprintf("encode result: %v", err)}}
	}
	return Response{Result: payload}
}
