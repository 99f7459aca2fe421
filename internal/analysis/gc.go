// Package analysis implements the sequence analytics offered to the workspace:
// GC-content windows, codon translation, ORF discovery and residue search.
// Every function is pure and safe to call from any goroutine.
package analysis

import (
	"math"
	"strings"

	"github.com/bebop/poly/checks"
)

// DefaultGCWindow is used when a non-positive window is requested.
const DefaultGCWindow = 200

// GCPoint is the GC percentage of the window starting at Position.
type GCPoint struct {
	Position  int     `json:"position"`
	GCPercent float64 `json:"gcPercent"`
}

// normalizeDNA keeps A, C, G and T (any case) and uppercases them.
func normalizeDNA(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		switch c := raw[i]; c {
		case 'A', 'C', 'G', 'T':
			b.WriteByte(c)
		case 'a', 'c', 'g', 't':
			b.WriteByte(c - ('a' - 'A'))
		}
	}
	return b.String()
}

// GCContent samples overlapping windows every max(1, window/4) positions.
// Windows near the end may be shorter than window. Input without any ACGT
// residues yields an empty series.
func GCContent(sequence string, window int) []GCPoint {
	if window <= 0 {
		window = DefaultGCWindow
	}
	normalized := normalizeDNA(sequence)
	points := []GCPoint{}
	if normalized == "" {
		return points
	}
	step := max(1, window/4)
	for i := 0; i < len(normalized); i += step {
		segment := normalized[i:min(i+window, len(normalized))]
		points = append(points, GCPoint{Position: i, GCPercent: round2(checks.GcContent(segment) * 100)})
	}
	return points
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
