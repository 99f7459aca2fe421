package analysis

// DefaultMinORFLength is used when a non-positive minimum is requested.
const DefaultMinORFLength = 30

// ORF is a forward-strand open reading frame. Start and End are 0-based
// half-open and End includes the stop codon; Protein excludes it.
type ORF struct {
	Frame   int    `json:"frame"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Length  int    `json:"length"`
	Protein string `json:"protein"`
}

// FindORFs scans the three forward frames for ATG..stop spans of at least
// minLength bases. Starts without an in-frame stop are discarded. After a
// span is consumed the scan continues one codon past its stop, so starts
// nested inside a reported span are not reported separately.
func FindORFs(dna string, minLength int) []ORF {
	if minLength <= 0 {
		minLength = DefaultMinORFLength
	}
	seq := normalizeDNA(dna)
	orfs := []ORF{}
	for frame := 0; frame < 3; frame++ {
		i := frame
		for i < len(seq)-2 {
			if seq[i:i+3] == "ATG" {
				start := i
				i += 3
				for i < len(seq)-2 {
					if isStop(seq[i : i+3]) {
						end := i + 3
						if end-start >= minLength {
							orfs = append(orfs, ORF{
								Frame:   frame,
								Start:   start,
								End:     end,
								Length:  end - start,
								Protein: translateNormalized(seq[start:end-3], 0),
							})
						}
						break
					}
					i += 3
				}
			}
			i += 3
		}
	}
	return orfs
}
