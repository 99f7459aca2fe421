package formats

import (
	"fmt"
	"strings"

	"helixcanvas/pkg/domain"
)

// ParseAnnotationsCSV maps a comma-delimited table onto annotations owned by
// sequenceID. Header names are matched case-insensitively. start (or begin)
// and end are 1-based inclusive; invalid values degrade to 0 and start+1.
func ParseAnnotationsCSV(content, sequenceID string) []domain.Annotation {
	rows := splitLines(strings.TrimSpace(content))
	if len(rows) == 0 || rows[0] == "" {
		return []domain.Annotation{}
	}
	headers := strings.Split(rows[0], ",")
	for i, h := range headers {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}
	ts := now()
	out := make([]domain.Annotation, 0, len(rows)-1)
	for _, line := range rows[1:] {
		record := map[string]string{}
		for i, value := range strings.Split(line, ",") {
			key := fmt.Sprintf("field_%d", i)
			if i < len(headers) {
				key = headers[i]
			}
			record[key] = strings.TrimSpace(value)
		}
		startRaw, ok := record["start"]
		if !ok {
			startRaw, ok = record["begin"]
		}
		if !ok {
			startRaw = "1"
		}
		start, valid := leadingInt(startRaw)
		if valid {
			start--
		} else {
			start = 0
		}
		endRaw, ok := record["end"]
		if !ok {
			endRaw = "1"
		}
		end, valid := leadingInt(endRaw)
		if !valid {
			end = start + 1
		}
		name := record["name"]
		if name == "" {
			name = "annotation_" + domain.NewID()[:6]
		}
		kind := record["type"]
		if kind == "" {
			kind = "custom"
		}
		color := record["color"]
		if color == "" {
			color = domain.DefaultAnnotationColor
		}
		out = append(out, domain.Annotation{
			ID:         domain.NewID(),
			SequenceID: sequenceID,
			Name:       name,
			Type:       kind,
			Start:      start,
			End:        end,
			Strand:     domain.ParseStrand(record["strand"]),
			Color:      color,
			Notes:      record["notes"],
			CreatedAt:  ts,
			UpdatedAt:  ts,
		})
	}
	return out
}
