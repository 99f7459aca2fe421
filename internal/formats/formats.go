// Package formats reads and writes the sequence and alignment text formats
// accepted by the workspace: FASTA, GenBank, EMBL, GFF3, CLUSTAL, MAF,
// Stockholm and annotation CSV.
//
// Parsers are best-effort. Malformed records degrade to placeholder names or
// zeroed coordinates instead of failing the whole input; the only hard error is
// an alignment format tag outside the supported set.
package formats

import (
	"regexp"
	"strings"
	"time"

	"helixcanvas/pkg/domain"
)

// now is swapped in tests that assert timestamps.
var now = func() time.Time { return time.Now().UTC() }

var lineSplitter = regexp.MustCompile(`\n+`)

// splitLines splits on runs of newlines and strips carriage returns.
func splitLines(content string) []string {
	parts := lineSplitter.Split(content, -1)
	for i, p := range parts {
		parts[i] = strings.TrimRight(p, "\r")
	}
	return parts
}

// keepLetters drops every byte that is not an ASCII letter.
func keepLetters(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// leadingInt parses an optional sign followed by decimal digits at the start of
// raw, ignoring trailing garbage. ok is false when no digits are present.
func leadingInt(raw string) (n int, ok bool) {
	s := strings.TrimSpace(raw)
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	digits := 0
	for digits < len(s) && s[digits] >= '0' && s[digits] <= '9' {
		n = n*10 + int(s[digits]-'0')
		digits++
	}
	if digits == 0 {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}

func inferSequenceType(header string) domain.SequenceType {
	lower := strings.ToLower(header)
	switch {
	case strings.Contains(lower, "protein"):
		return domain.SequenceProtein
	case strings.Contains(lower, "rna"):
		return domain.SequenceRNA
	default:
		return domain.SequenceDNA
	}
}
