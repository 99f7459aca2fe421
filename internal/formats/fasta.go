package formats

import (
	"fmt"
	"strings"

	"helixcanvas/pkg/domain"
)

// DefaultFastaSource labels records parsed without an explicit source.
const DefaultFastaSource = "FASTA"

// ParseFasta splits content on '>' header lines. Residues keep letters, '*'
// and '-' only. Text ahead of the first header is read as an unnamed record.
func ParseFasta(content, source string) []domain.SequenceRecord {
	if source == "" {
		source = DefaultFastaSource
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return []domain.SequenceRecord{}
	}
	ts := now()
	var (
		records []domain.SequenceRecord
		header  string
		body    strings.Builder
		open    bool
	)
	flush := func() {
		name := ""
		if fields := strings.Fields(header); len(fields) > 0 {
			name = fields[0]
		}
		if name == "" {
			name = fmt.Sprintf("Sequence %d", len(records)+1)
		}
		records = append(records, domain.NewSequenceRecord(domain.SequenceRecord{
			Name:     name,
			Type:     inferSequenceType(header),
			Residues: filterFastaResidues(body.String()),
			Source:   source,
		}, ts))
		body.Reset()
	}
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimRight(line, "\r")
		if len(line) > 1 && line[0] == '>' {
			if open {
				flush()
			}
			header = strings.TrimSpace(line[1:])
			open = true
			continue
		}
		if !open && strings.TrimSpace(line) != "" {
			header = ""
			open = true
		}
		body.WriteString(line)
	}
	if open {
		flush()
	}
	return records
}

func filterFastaResidues(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || c == '*' || c == '-' {
			b.WriteByte(c)
		}
	}
	return b.String()
}
