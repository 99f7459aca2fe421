package formats

import (
	"fmt"
	"regexp"
	"strings"

	"helixcanvas/pkg/domain"
)

const (
	fastaLineWidth   = 80
	clustalBlockSize = 60
	clustalNameWidth = 15
	originLineWidth  = 60
	originBlockWidth = 10
	qualifierIndent  = "                     "
)

var whitespaceRun = regexp.MustCompile(`\s+`)

func chunk(s string, size int) []string {
	out := make([]string, 0, (len(s)+size-1)/size)
	for len(s) > size {
		out = append(out, s[:size])
		s = s[size:]
	}
	if s != "" {
		out = append(out, s)
	}
	return out
}

// ExportFasta renders a single record with residues wrapped at 80 columns.
func ExportFasta(seq domain.SequenceRecord) string {
	return ">" + seq.Name + "\n" + strings.Join(chunk(seq.Residues, fastaLineWidth), "\n") + "\n"
}

// ExportMultiFasta renders records separated by a blank line.
func ExportMultiFasta(seqs []domain.SequenceRecord) string {
	parts := make([]string, len(seqs))
	for i, s := range seqs {
		parts[i] = ExportFasta(s)
	}
	return strings.Join(parts, "\n")
}

// ExportAlignmentFasta renders each aligned row unwrapped.
func ExportAlignmentFasta(rec domain.AlignmentRecord) string {
	parts := make([]string, len(rec.Sequences))
	for i, row := range rec.Sequences {
		parts[i] = ">" + row.Name + "\n" + row.Residues + "\n"
	}
	return strings.Join(parts, "\n")
}

// ExportAlignmentClustal renders 60-column blocks with names padded to 15
// characters.
func ExportAlignmentClustal(rec domain.AlignmentRecord) string {
	lines := []string{"CLUSTAL W (HelixCanvas) alignment"}
	width := rec.Width()
	for offset := 0; offset < width; offset += clustalBlockSize {
		lines = append(lines, "")
		for _, row := range rec.Sequences {
			lines = append(lines, fmt.Sprintf("%-*s %s", clustalNameWidth, row.Name, slice(row.Residues, offset, offset+clustalBlockSize)))
		}
	}
	return strings.Join(lines, "\n") + "\n"
}

func slice(s string, from, to int) string {
	if from >= len(s) {
		return ""
	}
	return s[from:min(to, len(s))]
}

// ExportGenBank renders a flat GenBank-style dump: LOCUS header, features,
// annotations as misc_feature, and the ORIGIN block.
func ExportGenBank(seq domain.SequenceRecord) string {
	header := fmt.Sprintf("LOCUS       %s %d bp    %s    %s",
		whitespaceRun.ReplaceAllString(seq.Name, "_"), seq.Length, seq.Type, seq.UpdatedAt.UTC().Format("2006-01-02"))

	featureLines := make([]string, 0, len(seq.Features))
	for _, f := range seq.Features {
		location := fmt.Sprintf("%d..%d", f.Start+1, f.End)
		if f.Strand == domain.StrandMinus {
			location = "complement(" + location + ")"
		}
		featureLines = append(featureLines,
			fmt.Sprintf("     %-16s%s\n%s/label=\"%s\"", f.Type, location, qualifierIndent, f.Name))
	}
	annotationLines := make([]string, 0, len(seq.Annotations))
	for _, a := range seq.Annotations {
		annotationLines = append(annotationLines,
			fmt.Sprintf("     misc_feature    %d..%d\n%s/label=\"%s\"", a.Start+1, a.End, qualifierIndent, a.Name))
	}
	originLines := make([]string, 0)
	for i, line := range chunk(seq.Residues, originLineWidth) {
		originLines = append(originLines, fmt.Sprintf(" %9d %s", i*originLineWidth+1, strings.Join(chunk(line, originBlockWidth), " ")))
	}

	parts := []string{
		header,
		"FEATURES             Location/Qualifiers",
		strings.Join(featureLines, "\n"),
		strings.Join(annotationLines, "\n"),
		"ORIGIN",
		strings.Join(originLines, "\n"),
		"//",
	}
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n")
}
