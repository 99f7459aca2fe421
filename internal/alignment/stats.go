package alignment

import "helixcanvas/pkg/domain"

// Mismatch ratios above which a column is highlighted.
const (
	HighMismatch     = 0.5
	ModerateMismatch = 0.2
)

// ColumnStat summarises a single alignment column.
type ColumnStat struct {
	Counts     map[string]int `json:"counts"`
	Gaps       int            `json:"gaps"`
	Mismatches int            `json:"mismatches"`
	Identity   float64        `json:"identity"`
}

// ColumnStats counts residues at column. Mismatches is the number of distinct
// non-gap residues; Identity is the share of rows holding the most frequent
// residue, gap included.
func ColumnStats(rows []domain.AlignmentSequence, column int) ColumnStat {
	t := columnTally(rows, column)
	stat := ColumnStat{Counts: make(map[string]int, len(t.order))}
	maxCount := 0
	for _, r := range t.order {
		n := t.counts[r]
		stat.Counts[string([]byte{r})] = n
		if r != Gap {
			stat.Mismatches++
		}
		maxCount = max(maxCount, n)
	}
	stat.Gaps = t.counts[Gap]
	total := max(len(rows), 1)
	stat.Identity = float64(maxCount) / float64(total)
	return stat
}

// Conservation grades a column for display.
type Conservation string

// Conservation levels.
const (
	Conserved Conservation = "conserved"
	Moderate  Conservation = "moderate"
	Divergent Conservation = "divergent"
)

// ClassifyColumn grades a column by its mismatch ratio, 1 - Identity.
func ClassifyColumn(stat ColumnStat) Conservation {
	ratio := 1 - stat.Identity
	switch {
	case ratio > HighMismatch:
		return Divergent
	case ratio > ModerateMismatch:
		return Moderate
	default:
		return Conserved
	}
}
