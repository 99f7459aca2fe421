package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"helixcanvas/internal/analysis"
	"helixcanvas/internal/pairwise"
	"helixcanvas/pkg/domain"
)

// Client gives the boundary Go signatures. Failures reported by the remote
// side come back as *RemoteError.
type Client struct {
	doer Doer
}

// NewClient wraps d. A nil Doer runs calls inline.
func NewClient(d Doer) *Client {
	if d == nil {
		d = Inline{}
	}
	return &Client{doer: d}
}

func call[T any](ctx context.Context, c *Client, method string, params any) (T, error) {
	var out T
	raw, err := json.Marshal(params)
	if err != nil {
		return out, fmt.Errorf("encode %s params: %w", method, err)
	}
	resp, err := c.doer.Do(ctx, Request{Method: method, Params: raw})
	if err != nil {
		return out, err
	}
	if resp.Error != nil {
		return out, resp.Error
	}
	if err := json.Unmarshal(resp.Result, &out); err != nil {
		return out, fmt.Errorf("decode %s result: %w", method, err)
	}
	return out, nil
}

// GC returns the windowed GC series of sequence.
func (c *Client) GC(ctx context.Context, sequence string, window int) ([]analysis.GCPoint, error) {
	return call[[]analysis.GCPoint](ctx, c, MethodGC, GCParams{Sequence: sequence, Window: window})
}

// Translate translates sequence in the given reading frame.
func (c *Client) Translate(ctx context.Context, sequence string, frame int) (string, error) {
	return call[string](ctx, c, MethodTranslate, TranslateParams{Sequence: sequence, Frame: frame})
}

// ReverseComplement returns the reverse complement of sequence.
func (c *Client) ReverseComplement(ctx context.Context, sequence string) (string, error) {
	return call[string](ctx, c, MethodReverseComplement, ReverseComplementParams{Sequence: sequence})
}

// ORFs finds open reading frames of at least minLength bases.
func (c *Client) ORFs(ctx context.Context, sequence string, minLength int) ([]analysis.ORF, error) {
	return call[[]analysis.ORF](ctx, c, MethodORFs, ORFParams{Sequence: sequence, MinLength: minLength})
}

// PairwiseIdentity scores two sequences position by position.
func (c *Client) PairwiseIdentity(ctx context.Context, a, b string) (pairwise.Score, error) {
	return call[pairwise.Score](ctx, c, MethodPairwiseIdentity, PairParams{A: a, B: b})
}

// DotPlot compares non-overlapping windows of reference and query.
func (c *Client) DotPlot(ctx context.Context, reference, query string, window int) ([]pairwise.DotPoint, error) {
	return call[[]pairwise.DotPoint](ctx, c, MethodDotPlot, DotPlotParams{Reference: reference, Query: query, Window: window})
}

// ParseFile dispatches on the file extension of name.
func (c *Client) ParseFile(ctx context.Context, name, text string) (domain.ParsedFileResult, error) {
	return call[domain.ParsedFileResult](ctx, c, MethodParseFile, ParseFileParams{Name: name, Text: text})
}

// ParseAnnotationsCSV reads annotation rows for sequenceID.
func (c *Client) ParseAnnotationsCSV(ctx context.Context, content, sequenceID string) ([]domain.Annotation, error) {
	return call[[]domain.Annotation](ctx, c, MethodParseAnnotationsCSV, ParseCSVParams{Content: content, SequenceID: sequenceID})
}

// ParseGFF reads GFF3 feature lines.
func (c *Client) ParseGFF(ctx context.Context, content string) ([]domain.Feature, error) {
	return call[[]domain.Feature](ctx, c, MethodParseGFF, ParseGFFParams{Content: content})
}

// ParseAlignment reads an alignment in the given format.
func (c *Client) ParseAlignment(ctx context.Context, content string, format domain.AlignmentFormat) (domain.AlignmentRecord, error) {
	return call[domain.AlignmentRecord](ctx, c, MethodParseAlignment, ParseAlignmentParams{Content: content, Format: format})
}
