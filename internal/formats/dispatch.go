package formats

import (
	"encoding/json"
	"fmt"
	"strings"

	"helixcanvas/pkg/domain"
)

// FileKind classifies a file name by extension.
type FileKind string

// File kinds recognised by ParseFile.
const (
	KindFASTA     FileKind = "fasta"
	KindGenBank   FileKind = "genbank"
	KindEMBL      FileKind = "embl"
	KindGFF       FileKind = "gff"
	KindCLUSTAL   FileKind = "clustal"
	KindMAF       FileKind = "maf"
	KindStockholm FileKind = "stockholm"
	KindCSV       FileKind = "csv"
	KindJSON      FileKind = "json"
)

var extensionKinds = []struct {
	suffixes []string
	kind     FileKind
}{
	{[]string{".fa", ".fasta", ".faa"}, KindFASTA},
	{[]string{".gb", ".gbk", ".genbank"}, KindGenBank},
	{[]string{".embl"}, KindEMBL},
	{[]string{".gff", ".gff3"}, KindGFF},
	{[]string{".clustal", ".aln"}, KindCLUSTAL},
	{[]string{".maf"}, KindMAF},
	{[]string{".sto", ".stockholm"}, KindStockholm},
	{[]string{".csv"}, KindCSV},
	{[]string{".json"}, KindJSON},
}

// DetectKind maps a file name to its kind. Unknown extensions read as FASTA.
func DetectKind(name string) FileKind {
	lower := strings.ToLower(name)
	for _, entry := range extensionKinds {
		for _, suffix := range entry.suffixes {
			if strings.HasSuffix(lower, suffix) {
				return entry.kind
			}
		}
	}
	return KindFASTA
}

// ParseFile routes text to a parser by the extension of name. GFF and CSV
// inputs yield an empty result since they need a sequence context; JSON is
// decoded as a ParsedFileResult.
func ParseFile(name, text string) (domain.ParsedFileResult, error) {
	result := domain.ParsedFileResult{}
	var err error
	switch DetectKind(name) {
	case KindGenBank:
		result.Sequences = ParseGenBank(text)
	case KindEMBL:
		result.Sequences = ParseEMBL(text)
	case KindGFF, KindCSV:
	case KindCLUSTAL:
		result.Alignments, err = parseSingleAlignment(text, domain.AlignmentCLUSTAL)
	case KindMAF:
		result.Alignments, err = parseSingleAlignment(text, domain.AlignmentMAF)
	case KindStockholm:
		result.Alignments, err = parseSingleAlignment(text, domain.AlignmentStockholm)
	case KindJSON:
		if err := json.Unmarshal([]byte(text), &result); err != nil {
			return domain.ParsedFileResult{}, fmt.Errorf("decode %s: %w", name, err)
		}
	default:
		result.Sequences = ParseFasta(text, name)
	}
	if err != nil {
		return domain.ParsedFileResult{}, err
	}
	if result.Sequences == nil {
		result.Sequences = []domain.SequenceRecord{}
	}
	if result.Alignments == nil {
		result.Alignments = []domain.AlignmentRecord{}
	}
	return result, nil
}

func parseSingleAlignment(text string, format domain.AlignmentFormat) ([]domain.AlignmentRecord, error) {
	rec, err := ParseAlignment(text, format)
	if err != nil {
		return nil, err
	}
	return []domain.AlignmentRecord{rec}, nil
}
