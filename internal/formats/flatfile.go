package formats

import (
	"fmt"
	"regexp"
	"strings"

	"helixcanvas/pkg/domain"
)

var (
	recordTerminator = regexp.MustCompile(`\n//\s*`)
	locusPattern     = regexp.MustCompile(`(?m)^LOCUS\s+(\S+)`)
	definitionLine   = regexp.MustCompile(`(?m)^DEFINITION\s+([^\n]+)`)
	originMarker     = regexp.MustCompile(`(?m)^ORIGIN`)
	featuresMarker   = regexp.MustCompile(`(?m)^FEATURES`)
	featureStart     = regexp.MustCompile(`^\s{5}\w`)
	leadingIndent    = regexp.MustCompile(`\s{5,}`)
	locationPattern  = regexp.MustCompile(`(complement\()?<?([0-9]+)\.\.>?([0-9]+)\)?`)
	qualifierPattern = regexp.MustCompile(`/(label|gene|product|locus_tag)="?([^"\n]+)"?`)

	emblID          = regexp.MustCompile(`(?m)^ID\s+(\S+)`)
	emblDescription = regexp.MustCompile(`(?m)^DE\s+([^\n]+)`)
	emblSequence    = regexp.MustCompile(`(?m)^SQ\s+`)
)

// ParseGenBank reads one record per '//'-terminated block. DEFINITION names the
// record, falling back to the LOCUS token and then GenBank_N.
func ParseGenBank(content string) []domain.SequenceRecord {
	ts := now()
	records := []domain.SequenceRecord{}
	for _, entry := range recordTerminator.Split(content, -1) {
		if strings.TrimSpace(entry) == "" {
			continue
		}
		entry = strings.ReplaceAll(entry, "\r", "")
		name := fmt.Sprintf("GenBank_%d", len(records)+1)
		if m := locusPattern.FindStringSubmatch(entry); m != nil {
			name = m[1]
		}
		if m := definitionLine.FindStringSubmatch(entry); m != nil {
			name = m[1]
		}
		residues := ""
		if parts := originMarker.Split(entry, 3); len(parts) > 1 {
			residues = keepLetters(parts[1])
		}
		var features []domain.Feature
		if parts := featuresMarker.Split(entry, 2); len(parts) > 1 {
			block := originMarker.Split(parts[1], 2)[0]
			features = parseFeatureTable(block, len(residues))
		}
		records = append(records, domain.NewSequenceRecord(domain.SequenceRecord{
			Name:     strings.TrimSpace(name),
			Type:     domain.SequenceDNA,
			Residues: residues,
			Features: domain.SanitizeFeatures(features, len(residues)),
			Source:   "GenBank",
		}, ts))
	}
	return records
}

// parseFeatureTable groups the FEATURES block into entries that begin at a
// five-space indent and reads each one as "key location /qualifiers...".
func parseFeatureTable(block string, length int) []domain.Feature {
	var (
		chunks  []string
		current strings.Builder
	)
	for i, line := range strings.Split(block, "\n") {
		if i > 0 && featureStart.MatchString(line) {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte('\n')
		}
		current.WriteString(line)
	}
	chunks = append(chunks, current.String())

	features := []domain.Feature{}
	for _, chunk := range chunks {
		clean := strings.TrimSpace(leadingIndent.ReplaceAllStringFunc(chunk, firstOnly()))
		if clean == "" {
			continue
		}
		if f, ok := parseFeatureEntry(clean, length); ok {
			features = append(features, f)
		}
	}
	return features
}

// firstOnly returns a replacer that blanks the first match and keeps the rest.
func firstOnly() func(string) string {
	done := false
	return func(s string) string {
		if done {
			return s
		}
		done = true
		return ""
	}
}

func parseFeatureEntry(entry string, length int) (domain.Feature, bool) {
	tokens := strings.Fields(entry)
	at := -1
	var m []string
	for i, tok := range tokens {
		if m = locationPattern.FindStringSubmatch(tok); m != nil {
			at = i
			break
		}
	}
	if at < 0 {
		return domain.Feature{}, false
	}
	kind := "feature"
	if at > 0 {
		kind = tokens[0]
	}
	notes := strings.Join(tokens[at+1:], " ")
	name := notes
	if q := qualifierPattern.FindStringSubmatch(notes); q != nil {
		name = strings.TrimSpace(q[2])
	}
	if name == "" {
		name = kind
	}
	start, _ := leadingInt(m[2])
	end, _ := leadingInt(m[3])
	strand := domain.StrandPlus
	if m[1] != "" {
		strand = domain.StrandMinus
	}
	return domain.Feature{
		ID:     domain.NewID(),
		Name:   name,
		Type:   kind,
		Start:  max(0, start-1),
		End:    min(length, end),
		Strand: strand,
		Notes:  notes,
	}, true
}

// ParseEMBL reads one record per '//'-terminated block. DE names the record,
// falling back to the ID token and then EMBL_N. Residues come from the lines
// following the SQ header.
func ParseEMBL(content string) []domain.SequenceRecord {
	ts := now()
	records := []domain.SequenceRecord{}
	for _, entry := range recordTerminator.Split(content, -1) {
		if strings.TrimSpace(entry) == "" {
			continue
		}
		entry = strings.ReplaceAll(entry, "\r", "")
		name := fmt.Sprintf("EMBL_%d", len(records)+1)
		if m := emblID.FindStringSubmatch(entry); m != nil {
			name = strings.TrimRight(m[1], ";")
		}
		if m := emblDescription.FindStringSubmatch(entry); m != nil {
			name = m[1]
		}
		residues := ""
		if parts := emblSequence.Split(entry, 2); len(parts) > 1 {
			section := strings.SplitN(parts[1], "\n/", 2)[0]
			if nl := strings.IndexByte(section, '\n'); nl >= 0 {
				residues = keepLetters(section[nl+1:])
			}
		}
		records = append(records, domain.NewSequenceRecord(domain.SequenceRecord{
			Name:     strings.TrimSpace(name),
			Type:     domain.SequenceDNA,
			Residues: residues,
			Source:   "EMBL",
		}, ts))
	}
	return records
}
