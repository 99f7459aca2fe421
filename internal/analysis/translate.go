package analysis

import "github.com/bebop/poly/transform"

var codonTable = map[string]byte{
	"TTT": 'F', "TTC": 'F', "TTA": 'L', "TTG": 'L',
	"CTT": 'L', "CTC": 'L', "CTA": 'L', "CTG": 'L',
	"ATT": 'I', "ATC": 'I', "ATA": 'I', "ATG": 'M',
	"GTT": 'V', "GTC": 'V', "GTA": 'V', "GTG": 'V',
	"TCT": 'S', "TCC": 'S', "TCA": 'S', "TCG": 'S',
	"CCT": 'P', "CCC": 'P', "CCA": 'P', "CCG": 'P',
	"ACT": 'T', "ACC": 'T', "ACA": 'T', "ACG": 'T',
	"GCT": 'A', "GCC": 'A', "GCA": 'A', "GCG": 'A',
	"TAT": 'Y', "TAC": 'Y', "TAA": '*', "TAG": '*',
	"CAT": 'H', "CAC": 'H', "CAA": 'Q', "CAG": 'Q',
	"AAT": 'N', "AAC": 'N', "AAA": 'K', "AAG": 'K',
	"GAT": 'D', "GAC": 'D', "GAA": 'E', "GAG": 'E',
	"TGT": 'C', "TGC": 'C', "TGA": '*', "TGG": 'W',
	"CGT": 'R', "CGC": 'R', "CGA": 'R', "CGG": 'R',
	"AGT": 'S', "AGC": 'S', "AGA": 'R', "AGG": 'R',
	"GGT": 'G', "GGC": 'G', "GGA": 'G', "GGG": 'G',
}

// translateCodon returns 'X' for anything outside the standard table.
func translateCodon(codon string) byte {
	if aa, ok := codonTable[codon]; ok {
		return aa
	}
	return 'X'
}

func isStop(codon string) bool {
	return codon == "TAA" || codon == "TAG" || codon == "TGA"
}

// Translate reads codons from frame (0, 1 or 2) to the end of the normalized
// DNA. Stops render as '*' and translation continues past them.
func Translate(dna string, frame int) string {
	return translateNormalized(normalizeDNA(dna), frame)
}

func translateNormalized(dna string, frame int) string {
	if frame < 0 {
		frame = 0
	}
	out := make([]byte, 0, max(0, (len(dna)-frame)/3))
	for i := frame; i < len(dna)-2; i += 3 {
		out = append(out, translateCodon(dna[i:i+3]))
	}
	return string(out)
}

// ReverseComplement returns the reverse complement of a nucleotide sequence.
// Whitespace is dropped, U reads as T and any other non-ACGT symbol becomes N.
func ReverseComplement(dna string) string {
	return transform.ReverseComplement(normalizeNucleotides(dna))
}

func normalizeNucleotides(raw string) string {
	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		switch c {
		case ' ', '\t', '\n', '\r':
			continue
		case 'A', 'C', 'G', 'T':
		case 'U':
			c = 'T'
		default:
			c = 'N'
		}
		out = append(out, c)
	}
	return string(out)
}
