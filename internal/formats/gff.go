package formats

import (
	"fmt"
	"net/url"
	"strings"

	"helixcanvas/pkg/domain"
)

// ParseGFF3 reads tab-delimited feature lines. Coordinates are converted from
// 1-based inclusive to 0-based half-open; unparsable numbers become 0.
func ParseGFF3(content string) []domain.Feature {
	features := []domain.Feature{}
	for _, line := range splitLines(content) {
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cols := strings.Split(line, "\t")
		if len(cols) < 5 {
			continue
		}
		kind := cols[2]
		attrs := parseGFFAttributes(column(cols, 8))
		name := attrs["Name"]
		if name == "" {
			name = attrs["ID"]
		}
		if name == "" {
			name = fmt.Sprintf("%s_%d", kind, len(features)+1)
		}
		start, ok := leadingInt(cols[3])
		if ok {
			start--
		}
		end, _ := leadingInt(cols[4])
		features = append(features, domain.Feature{
			ID:     domain.NewID(),
			Name:   name,
			Type:   kind,
			Start:  start,
			End:    end,
			Strand: domain.ParseStrand(column(cols, 6)),
			Color:  attrs["color"],
			Notes:  attrs["Note"],
		})
	}
	return features
}

func column(cols []string, i int) string {
	if i < len(cols) {
		return cols[i]
	}
	return ""
}

func parseGFFAttributes(raw string) map[string]string {
	out := map[string]string{}
	for _, pair := range strings.Split(raw, ";") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		if decoded, err := url.PathUnescape(value); err == nil {
			value = decoded
		}
		out[key] = value
	}
	return out
}
