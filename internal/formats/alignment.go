package formats

import (
	"fmt"
	"strings"

	"helixcanvas/internal/alignment"
	"helixcanvas/pkg/domain"
)

// ParseAlignment reads content as the given alignment format. The returned
// record carries a computed consensus. Formats outside FASTA, CLUSTAL, MAF and
// Stockholm fail with domain.UnsupportedFormatError.
func ParseAlignment(content string, format domain.AlignmentFormat) (domain.AlignmentRecord, error) {
	var (
		rows  []domain.AlignmentSequence
		name  string
		kind  = domain.AlignmentMultiple
		stamp = now()
	)
	switch format {
	case domain.AlignmentFASTA:
		for _, rec := range ParseFasta(content, "Alignment FASTA") {
			rows = append(rows, domain.AlignmentSequence{ID: rec.ID, Name: rec.Name, Residues: rec.Residues})
		}
		name = "Imported FASTA alignment"
		if len(rows) <= 2 {
			kind = domain.AlignmentPairwise
		}
	case domain.AlignmentCLUSTAL:
		rows = parseClustalRows(content)
		name = "Imported CLUSTAL alignment"
	case domain.AlignmentMAF, domain.AlignmentStockholm:
		rows = parseTaggedRows(content)
		name = fmt.Sprintf("Imported %s alignment", format)
	default:
		return domain.AlignmentRecord{}, domain.UnsupportedFormatError{Format: string(format)}
	}
	if rows == nil {
		rows = []domain.AlignmentSequence{}
	}
	rec := domain.AlignmentRecord{
		Base:      domain.Base{ID: domain.NewID(), CreatedAt: stamp, UpdatedAt: stamp},
		Name:      name,
		Format:    format,
		Type:      kind,
		Sequences: rows,
	}
	return alignment.WithConsensus(rec), nil
}

// parseClustalRows concatenates residue blocks per name in order of first
// appearance. Indented conservation lines are ignored.
func parseClustalRows(content string) []domain.AlignmentSequence {
	var order []string
	residues := map[string]*strings.Builder{}
	for _, line := range splitLines(content) {
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "CLUSTAL") {
			continue
		}
		if line[0] == ' ' || line[0] == '\t' {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		b, ok := residues[fields[0]]
		if !ok {
			b = &strings.Builder{}
			residues[fields[0]] = b
			order = append(order, fields[0])
		}
		b.WriteString(fields[1])
	}
	rows := make([]domain.AlignmentSequence, 0, len(order))
	for _, name := range order {
		rows = append(rows, domain.AlignmentSequence{ID: domain.NewID(), Name: name, Residues: residues[name].String()})
	}
	return rows
}

// parseTaggedRows reads MAF "s" lines, Stockholm "#=GS" lines and '>' lines,
// taking the second token as name and the last token as residues.
func parseTaggedRows(content string) []domain.AlignmentSequence {
	rows := []domain.AlignmentSequence{}
	for _, line := range splitLines(content) {
		if !strings.HasPrefix(line, "s ") && !strings.HasPrefix(line, "#=GS") && !strings.HasPrefix(line, ">") {
			continue
		}
		parts := strings.Fields(line)
		name := fmt.Sprintf("Sequence_%d", len(rows)+1)
		if len(parts) > 1 {
			name = parts[1]
		}
		rows = append(rows, domain.AlignmentSequence{ID: domain.NewID(), Name: name, Residues: parts[len(parts)-1]})
	}
	return rows
}
