package formats

import (
	"testing"

	"helixcanvas/pkg/domain"
)

func TestParseGFF3Gene(t *testing.T) {
	features := ParseGFF3("chr1\t.\tgene\t5\t10\t.\t+\t.\tID=g1;Name=MyGene")
	if len(features) != 1 {
		t.Fatalf("expected 1 feature, got %d", len(features))
	}
	f := features[0]
	if f.Start != 4 || f.End != 10 || f.Strand != domain.StrandPlus || f.Name != "MyGene" || f.Type != "gene" {
		t.Fatalf("unexpected feature %+v", f)
	}
}

func TestParseGFF3Attributes(t *testing.T) {
	input := "##gff-version 3\n\nchr1\t.\texon\t1\t3\t.\t-\t.\tID=e1;color=%23ff0000;Note=first%20exon\r\nchr1\t.\tCDS\tx\t?\t.\t.\t.\t\nbroken line\n"
	features := ParseGFF3(input)
	if len(features) != 2 {
		t.Fatalf("expected 2 features, got %+v", features)
	}
	exon := features[0]
	if exon.Name != "e1" || exon.Strand != domain.StrandMinus || exon.Color != "#ff0000" || exon.Notes != "first exon" {
		t.Fatalf("unexpected exon %+v", exon)
	}
	cds := features[1]
	if cds.Name != "CDS_2" || cds.Start != 0 || cds.End != 0 || cds.Strand != domain.StrandPlus {
		t.Fatalf("unexpected degraded feature %+v", cds)
	}
}
