package analysis

import (
	"strings"
	"testing"
)

func TestGCContentBounds(t *testing.T) {
	for _, p := range GCContent(strings.Repeat("AT", 300), 50) {
		if p.GCPercent != 0 {
			t.Fatalf("expected 0%% GC for AT repeat, got %v at %d", p.GCPercent, p.Position)
		}
	}
	for _, p := range GCContent(strings.Repeat("gc", 300), 0) {
		if p.GCPercent != 100 {
			t.Fatalf("expected 100%% GC, got %v at %d", p.GCPercent, p.Position)
		}
	}
	mixed := GCContent("ACGTTTAAGGCCNNNxyz", 7)
	for _, p := range mixed {
		if p.GCPercent < 0 || p.GCPercent > 100 {
			t.Fatalf("gc out of range: %+v", p)
		}
	}
}

func TestGCContentWindowing(t *testing.T) {
	points := GCContent("GGCCAATT", 4)
	if len(points) != 8 {
		t.Fatalf("expected a point per position with step 1, got %d", len(points))
	}
	if points[0].GCPercent != 100 || points[2].GCPercent != 50 || points[4].GCPercent != 0 {
		t.Fatalf("unexpected points %+v", points)
	}
	thirds := GCContent("GAA", 200)
	if len(thirds) != 1 || thirds[0].GCPercent != 33.33 {
		t.Fatalf("expected rounding to 2 decimals, got %+v", thirds)
	}
	if got := GCContent("NNNN--", 10); len(got) != 0 {
		t.Fatalf("expected empty series, got %+v", got)
	}
}

func TestTranslate(t *testing.T) {
	cases := []struct {
		dna   string
		frame int
		want  string
	}{
		{"ATGAAATAG", 0, "MK*"},
		{"ATGTAAGGG", 0, "M*G"},
		{"xATGAAA", 1, "*"},
		{"atg aaa tag gg", 0, "MK*"},
		{"AT", 0, ""},
	}
	for _, tc := range cases {
		if got := Translate(tc.dna, tc.frame); got != tc.want {
			t.Fatalf("Translate(%q, %d) = %q, want %q", tc.dna, tc.frame, got, tc.want)
		}
	}
}

func TestFindORFsScenario(t *testing.T) {
	orfs := FindORFs("ATGAAATAG", 6)
	if len(orfs) != 1 {
		t.Fatalf("expected one ORF, got %+v", orfs)
	}
	want := ORF{Frame: 0, Start: 0, End: 9, Length: 9, Protein: "MK"}
	if orfs[0] != want {
		t.Fatalf("got %+v, want %+v", orfs[0], want)
	}
}

func TestFindORFsContainment(t *testing.T) {
	dna := "CCATGGCTGCTTAAGATGCCCTGATTTATGAAACCCGGGTAGC" + strings.Repeat("ATGAAA", 3)
	orfs := FindORFs(dna, 9)
	if len(orfs) == 0 {
		t.Fatalf("expected ORFs in %s", dna)
	}
	for _, o := range orfs {
		if o.Start >= o.End || (o.End-o.Start)%3 != 0 || o.Length < 9 {
			t.Fatalf("invalid span %+v", o)
		}
		if dna[o.Start:o.Start+3] != "ATG" {
			t.Fatalf("span does not start with ATG: %+v", o)
		}
		if !isStop(dna[o.End-3 : o.End]) {
			t.Fatalf("span does not end in a stop: %+v", o)
		}
		if strings.Contains(o.Protein, "*") {
			t.Fatalf("protein must exclude the stop: %+v", o)
		}
	}
}

func TestFindORFsDiscardsUnterminated(t *testing.T) {
	if orfs := FindORFs("ATGAAAAAAAAA", 3); len(orfs) != 0 {
		t.Fatalf("expected no ORFs without a stop, got %+v", orfs)
	}
	if orfs := FindORFs("ATGTAA", 30); len(orfs) != 0 {
		t.Fatalf("expected default-length filtering, got %+v", orfs)
	}
}

func TestFindORFsSkipsNestedStarts(t *testing.T) {
	orfs := FindORFs("ATGATGAAATAA", 3)
	if len(orfs) != 1 || orfs[0].Start != 0 {
		t.Fatalf("expected only the outer ORF, got %+v", orfs)
	}
}

func TestReverseComplement(t *testing.T) {
	cases := map[string]string{
		"ATGC":      "GCAT",
		"atgc":      "GCAT",
		"AUG":       "CAT",
		"ATGNx":     "NNCAT",
		"AC GT\nAA": "TTACGT",
		"":          "",
	}
	for in, want := range cases {
		got := ReverseComplement(in)
		if got != want {
			t.Fatalf("%q: expected %q, got %q", in, want, got)
		}
		if strings.IndexByte(got, 0) >= 0 {
			t.Fatalf("%q: NUL byte leaked into %q", in, got)
		}
	}
}

func TestSearchExactOverlapping(t *testing.T) {
	matches, err := Search("AAAA", "aa", false)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(matches) != 3 || matches[1] != (Match{Start: 1, End: 3}) {
		t.Fatalf("expected overlapping hits, got %+v", matches)
	}
	none, _ := Search("ACGT", "", false)
	if len(none) != 0 {
		t.Fatalf("expected no hits for empty query")
	}
}

func TestSearchRegex(t *testing.T) {
	matches, err := Search("atgAAAtagATGccctga", "ATG.{3}", true)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(matches) != 2 || matches[0] != (Match{Start: 0, End: 6}) || matches[1] != (Match{Start: 9, End: 15}) {
		t.Fatalf("unexpected matches %+v", matches)
	}
	if _, err := Search("ACGT", "(", true); err == nil {
		t.Fatalf("expected compile error")
	}
}
