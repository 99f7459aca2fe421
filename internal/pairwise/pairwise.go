// Package pairwise scores ungapped position-by-position similarity between two
// residue strings.
package pairwise

// DefaultDotPlotWindow is used when a non-positive window is requested.
const DefaultDotPlotWindow = 10

// Score is the ungapped identity of two sequences over their shared prefix.
type Score struct {
	Matches  int     `json:"matches"`
	Identity float64 `json:"identity"`
	Length   int     `json:"length"`
}

// Identity compares a and b up to the shorter length. Identity is a percentage
// and is 0 when either input is empty.
func Identity(a, b string) Score {
	n := min(len(a), len(b))
	matches := countMatches([]byte(a[:n]), []byte(b[:n]))
	s := Score{Matches: matches, Length: n}
	if n > 0 {
		s.Identity = float64(matches) / float64(n) * 100
	}
	return s
}

// countMatches expects equal-length buffers.
func countMatches(a, b []byte) int {
	matches := 0
	for i := range a {
		if a[i] == b[i] {
			matches++
		}
	}
	return matches
}

// DotPoint is the similarity of the reference window at X against the query
// window at Y.
type DotPoint struct {
	X     int     `json:"x"`
	Y     int     `json:"y"`
	Score float64 `json:"score"`
}

// DotPlot compares every pair of non-overlapping windows of the two sequences.
// Windows step by window and a window is only taken while its start is
// strictly less than len-window. Trailing partial windows never appear, and
// neither does a final full window that ends exactly at the end of a
// sequence: a length of 20 with window 10 compares only the first window, and
// a length equal to window yields no points at all.
// The cost grows with len(reference)*len(query)/window².
func DotPlot(reference, query string, window int) []DotPoint {
	if window <= 0 {
		window = DefaultDotPlotWindow
	}
	ref := upper(reference)
	qry := upper(query)
	points := []DotPoint{}
	for i := 0; i < len(ref)-window; i += window {
		segment := ref[i : i+window]
		for j := 0; j < len(qry)-window; j += window {
			points = append(points, DotPoint{
				X:     i,
				Y:     j,
				Score: float64(countMatches(segment, qry[j:j+window])) / float64(window),
			})
		}
	}
	return points
}

func upper(s string) []byte {
	out := []byte(s)
	for i, c := range out {
		if c >= 'a' && c <= 'z' {
			out[i] = c - ('a' - 'A')
		}
	}
	return out
}
