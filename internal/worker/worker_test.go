package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"helixcanvas/pkg/domain"
)

func TestClientRoundTripsEveryMethod(t *testing.T) {
	ctx := context.Background()
	pool := NewPool(WithSize(2))
	defer pool.Close()
	c := NewClient(pool)

	gc, err := c.GC(ctx, "GGCCAATT", 4)
	if err != nil || len(gc) != 8 || gc[0].GCPercent != 100 {
		t.Fatalf("gc: %+v err=%v", gc, err)
	}
	protein, err := c.Translate(ctx, "ATGAAATAG", 0)
	if err != nil || protein != "MK*" {
		t.Fatalf("translate: %q err=%v", protein, err)
	}
	rc, err := c.ReverseComplement(ctx, "atgu?")
	if err != nil || rc != "NACAT" {
		t.Fatalf("reverseComplement: %q err=%v", rc, err)
	}
	orfs, err := c.ORFs(ctx, "ATG"+strings.Repeat("GCC", 10)+"TAA", 30)
	if err != nil || len(orfs) != 1 || orfs[0].Start != 0 {
		t.Fatalf("orfs: %+v err=%v", orfs, err)
	}
	score, err := c.PairwiseIdentity(ctx, "ATGC", "ATGA")
	if err != nil || score.Matches != 3 || score.Identity != 75 {
		t.Fatalf("identity: %+v err=%v", score, err)
	}
	points, err := c.DotPlot(ctx, strings.Repeat("A", 25), strings.Repeat("A", 25), 10)
	if err != nil || len(points) != 4 || points[3].Score != 1 {
		t.Fatalf("dotplot: %+v err=%v", points, err)
	}
	parsed, err := c.ParseFile(ctx, "demo.fa", ">one\nACGT\n>two\nGG\n")
	if err != nil || len(parsed.Sequences) != 2 || parsed.Sequences[0].Residues != "ACGT" {
		t.Fatalf("parseFile: %+v err=%v", parsed, err)
	}
	anns, err := c.ParseAnnotationsCSV(ctx, "name,start,end\npromoter,1,10\n", "seq-1")
	if err != nil || len(anns) != 1 || anns[0].SequenceID != "seq-1" || anns[0].Start != 0 {
		t.Fatalf("parseAnnotationsCsv: %+v err=%v", anns, err)
	}
	features, err := c.ParseGFF(ctx, "chr1\tsrc\tgene\t1\t9\t.\t-\t.\tName=g1\n")
	if err != nil || len(features) != 1 || features[0].Name != "g1" || features[0].Strand != domain.StrandMinus {
		t.Fatalf("parseGff: %+v err=%v", features, err)
	}
	aln, err := c.ParseAlignment(ctx, ">a\nAC-T\n>b\nACGT\n", domain.AlignmentFASTA)
	if err != nil || len(aln.Sequences) != 2 || aln.Consensus != "ACGT" {
		t.Fatalf("parseAlignment: %+v err=%v", aln, err)
	}
}

func TestUnsupportedAlignmentFormatCrossesBoundary(t *testing.T) {
	c := NewClient(nil)
	_, err := c.ParseAlignment(context.Background(), "x", "PHYLIP")
	var remote *RemoteError
	if !errors.As(err, &remote) || remote.Code != CodeUnsupportedFormat {
		t.Fatalf("expected unsupported_format remote error, got %v", err)
	}
	var unsupported domain.UnsupportedFormatError
	if !errors.As(err, &unsupported) || unsupported.Format != "PHYLIP" {
		t.Fatalf("expected typed unsupported format error, got %v", err)
	}
}

func TestHandleErrors(t *testing.T) {
	if resp := Handle(Request{Method: "fold"}); resp.Error == nil || resp.Error.Code != CodeUnknownMethod {
		t.Fatalf("expected unknown method, got %+v", resp)
	}
	if resp := Handle(Request{Method: MethodGC, Params: json.RawMessage(`{"window":"wide"}`)}); resp.Error == nil || resp.Error.Code != CodeBadRequest {
		t.Fatalf("expected bad request, got %+v", resp)
	}
	if resp := Handle(Request{Method: MethodParseFile, Params: json.RawMessage(`{"name":"x.json","text":"{"}`)}); resp.Error == nil || resp.Error.Code != CodeInternal {
		t.Fatalf("expected decode failure to surface, got %+v", resp)
	}
	if resp := Handle(Request{Method: MethodTranslate}); resp.Error != nil || string(resp.Result) != `""` {
		t.Fatalf("expected empty params to use zero values, got %+v", resp)
	}
	if len(Methods()) != len(handlers) {
		t.Fatalf("Methods() out of sync with handlers")
	}
}

func TestPoolConcurrentCallers(t *testing.T) {
	pool := NewPool(WithSize(3))
	defer pool.Close()
	if pool.Size() != 3 {
		t.Fatalf("unexpected size %d", pool.Size())
	}
	c := NewClient(pool)
	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			score, err := c.PairwiseIdentity(context.Background(), "ACGTACGT", "ACGTACGA")
			if err != nil {
				errs <- err
				return
			}
			if score.Matches != 7 {
				errs <- errors.New("unexpected matches")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent call: %v", err)
	}
}

func TestPoolCancellationAndClose(t *testing.T) {
	pool := NewPool(WithSize(1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := pool.Do(ctx, Request{Method: MethodGC}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	pool.Close()
	pool.Close()
	if _, err := pool.Do(context.Background(), Request{Method: MethodGC}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if _, err := (Inline{}).Do(ctx, Request{Method: MethodGC}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected inline to honour cancellation, got %v", err)
	}
}

func TestPoolMetricsRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	pool := NewPool(WithSize(1), WithRegisterer(reg))
	c := NewClient(pool)
	if _, err := c.Translate(context.Background(), "ATG", 0); err != nil {
		t.Fatalf("translate: %v", err)
	}
	_, _ = c.ParseAlignment(context.Background(), "", "BAD")
	pool.Close()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	counts := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "helixcanvas_worker_jobs_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			key := ""
			for _, lp := range m.GetLabel() {
				key += lp.GetName() + "=" + lp.GetValue() + ";"
			}
			counts[key] = m.GetCounter().GetValue()
		}
	}
	if counts["method=translate;status=ok;"] != 1 {
		t.Fatalf("expected translate ok count, got %v", counts)
	}
	if counts["method=parseAlignment;status=unsupported_format;"] != 1 {
		t.Fatalf("expected unsupported_format count, got %v", counts)
	}
}
