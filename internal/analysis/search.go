package analysis

import (
	"fmt"
	"regexp"
	"strings"
)

// Match is a half-open residue range hit by a search.
type Match struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Search finds query in residues ignoring case. Literal queries report
// overlapping hits; with regex set the query is compiled as a regular
// expression and non-overlapping matches are reported.
func Search(residues, query string, regex bool) ([]Match, error) {
	matches := []Match{}
	if query == "" {
		return matches, nil
	}
	if regex {
		re, err := regexp.Compile("(?i)" + query)
		if err != nil {
			return nil, fmt.Errorf("compile query: %w", err)
		}
		for _, loc := range re.FindAllStringIndex(residues, -1) {
			if loc[1] > loc[0] {
				matches = append(matches, Match{Start: loc[0], End: loc[1]})
			}
		}
		return matches, nil
	}
	haystack := strings.ToUpper(residues)
	needle := strings.ToUpper(query)
	for offset := 0; offset <= len(haystack)-len(needle); {
		idx := strings.Index(haystack[offset:], needle)
		if idx < 0 {
			break
		}
		start := offset + idx
		matches = append(matches, Match{Start: start, End: start + len(needle)})
		offset = start + 1
	}
	return matches, nil
}
